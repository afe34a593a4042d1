package orchestrator

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"

	"github.com/frbtool/frbtool/internal/config"
	"github.com/frbtool/frbtool/internal/fetcher"
	"github.com/frbtool/frbtool/internal/logging"
	"github.com/frbtool/frbtool/internal/materialize"
	"github.com/frbtool/frbtool/internal/native"
	"github.com/frbtool/frbtool/internal/project"
	"github.com/frbtool/frbtool/internal/scaffold"
	"github.com/frbtool/frbtool/internal/templates"
	"github.com/frbtool/frbtool/internal/toolchain"
	"github.com/frbtool/frbtool/internal/vcs"
	"github.com/frbtool/frbtool/internal/verify"
)

// Step names used in reports.
const (
	StepRustCrate     = "rust crate"
	StepBridgeConfig  = "bridge config"
	StepMacOSPodspec  = "macOS podspec"
	StepIOSPodspec    = "iOS podspec"
	StepWindowsCMake  = "Windows CMake"
	StepLinuxCMake    = "Linux CMake"
	StepAndroidGradle = "Android Gradle"
	StepPubspec       = "pubspec"
	StepSampleModule  = "sample module"
)

// Orchestrator wires the components of a run together. Runner and Fetcher
// are required. Base is the filesystem that holds Parent; it defaults to the
// OS filesystem.
type Orchestrator struct {
	Runner   toolchain.Runner
	Fetcher  fetcher.Fetcher
	Base     afero.Fs
	Parent   string
	Settings config.Settings
	Log      *logging.Logger

	// OnPhase, if set, is called on every phase transition.
	OnPhase func(Phase)
}

type task struct {
	name   string
	target string
	run    func(ctx context.Context) error
}

// Run scaffolds plugin name inside Parent. The returned report is never nil.
// A non-nil error means the run aborted or at least one step failed.
func (o *Orchestrator) Run(ctx context.Context, name project.Name) (*Report, error) {
	log := o.Log
	if log == nil {
		log = logging.Discard()
	}
	report := &Report{Name: name}
	o.enter(report, PhaseInit)

	o.enter(report, PhaseBootstrapping)
	boot := &project.Bootstrapper{
		Runner:    o.Runner,
		Template:  o.Settings.FlutterTemplate,
		Platforms: o.Settings.FlutterPlatforms,
		Log:       log,
	}
	root, err := boot.Bootstrap(ctx, o.Parent, name)
	if err != nil {
		log.Error("bootstrap failed", "err", err)
		o.enter(report, PhaseAborted)
		return report, err
	}
	report.Root = root

	o.enter(report, PhaseVCSInit)
	git := &vcs.Initializer{
		Runner:        o.Runner,
		Log:           log,
		SubtreeRepo:   o.Settings.CargokitRepo,
		SubtreeBranch: o.Settings.CargokitBranch,
		SubtreePrefix: o.Settings.CargokitPrefix,
	}
	if err := git.Init(ctx, root); err != nil {
		log.Error("repository setup failed", "err", err)
		o.enter(report, PhaseAborted)
		return report, err
	}

	fs := afero.NewBasePathFs(o.base(), root.Dir())
	writer := materialize.New(fs)
	scaffolder := &scaffold.Scaffolder{Fetcher: o.Fetcher, Writer: writer, Log: log}
	crate := &native.Initializer{Runner: o.Runner, Scaffolder: scaffolder, Writer: writer, Log: log}

	o.enter(report, PhaseParallelSteps)
	tasks := o.tasks(root, scaffolder, crate)
	results := o.runGroup(ctx, log, tasks)
	report.Steps = append(report.Steps, results...)

	o.enter(report, PhaseSampleModule)
	sample := StepResult{Name: StepSampleModule, Target: native.APIDir}
	if results[0].Status != StatusOK {
		sample.Status = StatusSkipped
		log.Warn("skipping sample module", "reason", StepRustCrate+" failed")
	} else {
		sample = runTask(ctx, task{
			name:   StepSampleModule,
			target: native.APIDir,
			run:    crate.SampleModule,
		})
		if sample.Err != nil {
			log.Error(StepSampleModule+" failed", "err", sample.Err)
		}
	}
	report.Steps = append(report.Steps, sample)

	report.Warnings = verify.Project(fs, name.String())
	for _, w := range report.Warnings {
		log.Warn("verification", "file", w.File, "detail", w.Message)
	}

	if err := report.Err(); err != nil {
		o.enter(report, PhaseAborted)
		return report, fmt.Errorf("%d of %d steps failed: %w", len(report.Failed()), len(report.Steps), err)
	}
	o.enter(report, PhaseSucceeded)
	log.Success("plugin ready", "root", root.Dir())
	return report, nil
}

// tasks returns the parallel group. The rust crate comes first; the sample
// module depends on its result.
func (o *Orchestrator) tasks(root project.Root, s *scaffold.Scaffolder, crate *native.Initializer) []task {
	name := root.Name().String()
	vars := templates.NameVars{Name: name}
	podspec := name + ".podspec"

	steps := []scaffold.Step{
		scaffold.NewStep(StepBridgeConfig, templates.BridgeConfig, templates.NoVars{}, "flutter_rust_bridge.yaml"),
		scaffold.NewStep(StepMacOSPodspec, templates.Podspec, vars, path.Join("macos", podspec)),
		scaffold.NewStep(StepIOSPodspec, templates.Podspec, vars, path.Join("ios", podspec)),
		scaffold.NewStep(StepWindowsCMake, templates.CMakeLists, vars, "windows/CMakeLists.txt"),
		scaffold.NewStep(StepLinuxCMake, templates.CMakeLists, vars, "linux/CMakeLists.txt"),
		scaffold.NewStep(StepAndroidGradle, templates.Gradle, vars, "android/build.gradle"),
		scaffold.NewStep(StepPubspec, templates.Pubspec, vars, "pubspec.yaml"),
	}

	tasks := []task{{
		name:   StepRustCrate,
		target: native.CrateDir,
		run: func(ctx context.Context) error {
			return crate.Init(ctx, root)
		},
	}}
	for _, step := range steps {
		tasks = append(tasks, task{
			name:   step.Name,
			target: step.Target,
			run: func(ctx context.Context) error {
				return s.Run(ctx, step)
			},
		})
	}
	return tasks
}

// runGroup runs tasks on a bounded pool and waits for all of them. A failed
// task never cancels its siblings.
func (o *Orchestrator) runGroup(ctx context.Context, log *logging.Logger, tasks []task) []StepResult {
	limit := o.Settings.Concurrency
	if limit < 1 {
		limit = config.DefaultConcurrency
	}

	log.Info("running steps", "count", len(tasks), "concurrency", limit)
	results := make([]StepResult, len(tasks))
	p := pool.New().WithMaxGoroutines(limit)
	for i, t := range tasks {
		p.Go(func() {
			results[i] = runTask(ctx, t)
			if err := results[i].Err; err != nil {
				log.Error(t.name+" failed", "err", err)
			}
		})
	}
	p.Wait()
	return results
}

func runTask(ctx context.Context, t task) StepResult {
	start := time.Now()
	err := t.run(ctx)
	res := StepResult{
		Name:     t.name,
		Target:   t.target,
		Status:   StatusOK,
		Err:      err,
		Duration: time.Since(start),
	}
	if err != nil {
		res.Status = StatusFailed
	}
	return res
}

func (o *Orchestrator) base() afero.Fs {
	if o.Base != nil {
		return o.Base
	}
	return afero.NewOsFs()
}

func (o *Orchestrator) enter(r *Report, p Phase) {
	r.Phase = p
	if o.OnPhase != nil {
		o.OnPhase(p)
	}
}
