package orchestrator

import (
	"errors"
	"time"

	"github.com/frbtool/frbtool/internal/project"
	"github.com/frbtool/frbtool/internal/verify"
)

// Phase is a state of a run.
type Phase int

const (
	PhaseInit Phase = iota
	PhaseBootstrapping
	PhaseVCSInit
	PhaseParallelSteps
	PhaseSampleModule
	PhaseSucceeded
	PhaseAborted
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhaseBootstrapping:
		return "bootstrapping"
	case PhaseVCSInit:
		return "vcs-init"
	case PhaseParallelSteps:
		return "parallel-steps"
	case PhaseSampleModule:
		return "sample-module"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Status is the outcome of one step.
type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// StepResult records one step of a run.
type StepResult struct {
	Name     string
	Target   string
	Status   Status
	Err      error
	Duration time.Duration
}

// Report is the outcome of a run.
type Report struct {
	Name     project.Name
	Root     project.Root
	Phase    Phase
	Steps    []StepResult
	Warnings []verify.Warning
}

// Failed returns the steps that did not succeed, in run order.
func (r *Report) Failed() []StepResult {
	var failed []StepResult
	for _, s := range r.Steps {
		if s.Status == StatusFailed {
			failed = append(failed, s)
		}
	}
	return failed
}

// Err joins the errors of every failed step. It is nil when all steps
// succeeded.
func (r *Report) Err() error {
	var errs []error
	for _, s := range r.Failed() {
		errs = append(errs, s.Err)
	}
	return errors.Join(errs...)
}

// Step returns the result with the given name.
func (r *Report) Step(name string) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return StepResult{}, false
}
