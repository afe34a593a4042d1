package scaffold

import (
	"context"
	"fmt"
	"time"

	"github.com/frbtool/frbtool/internal/fetcher"
	"github.com/frbtool/frbtool/internal/logging"
	"github.com/frbtool/frbtool/internal/materialize"
	"github.com/frbtool/frbtool/internal/templates"
)

// Stage identifies which part of a step failed.
type Stage string

const (
	StageFetch  Stage = "fetch"
	StageRender Stage = "render"
	StageWrite  Stage = "write"
)

// Step is a single template-to-file task. Build one with NewStep right before
// running it; a Step is not reused.
type Step struct {
	Name     string
	Template string
	Target   string
	Mode     materialize.Mode

	render func(text string) (string, error)
}

// NewStep binds template t to vars. The type parameter ties the template to
// the only context it accepts.
func NewStep[V templates.Vars](name string, t templates.Template[V], vars V, target string) Step {
	return Step{
		Name:     name,
		Template: t.Name(),
		Target:   target,
		Mode:     materialize.ModeTruncate,
		render: func(text string) (string, error) {
			return t.Render(text, vars)
		},
	}
}

// StepError reports the stage at which a step stopped.
type StepError struct {
	Step     string
	Stage    Stage
	Template string
	Target   string
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %s %s -> %s: %v", e.Step, e.Stage, e.Template, e.Target, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Scaffolder runs steps against a template store and a project filesystem.
type Scaffolder struct {
	Fetcher fetcher.Fetcher
	Writer  *materialize.Writer
	Log     *logging.Logger
}

// Run fetches, renders and writes step in that order. The first failing
// stage stops the step; nothing is retried and nothing already on disk is
// cleaned up.
func (s *Scaffolder) Run(ctx context.Context, step Step) error {
	log := s.Log
	if log == nil {
		log = logging.Discard()
	}
	if step.render == nil {
		return s.fail(step, StageRender, fmt.Errorf("step has no bound template"))
	}

	start := time.Now()
	log.Info("generating "+step.Name, "template", step.Template, "target", step.Target)

	text, err := s.Fetcher.Fetch(ctx, step.Template)
	if err != nil {
		return s.fail(step, StageFetch, err)
	}

	out, err := step.render(text)
	if err != nil {
		return s.fail(step, StageRender, err)
	}

	if err := s.Writer.Write(step.Target, out, step.Mode); err != nil {
		return s.fail(step, StageWrite, err)
	}

	log.Success(step.Name+" ready", "target", step.Target, "took", time.Since(start).Round(time.Millisecond))
	return nil
}

func (s *Scaffolder) fail(step Step, stage Stage, err error) error {
	return &StepError{
		Step:     step.Name,
		Stage:    stage,
		Template: step.Template,
		Target:   step.Target,
		Err:      err,
	}
}
