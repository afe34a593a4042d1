package orchestrator

import (
	"context"
	"errors"
	"math/rand"
	"path"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/frbtool/frbtool/internal/config"
	"github.com/frbtool/frbtool/internal/fetcher"
	"github.com/frbtool/frbtool/internal/native"
	"github.com/frbtool/frbtool/internal/project"
	"github.com/frbtool/frbtool/internal/scaffold"
	"github.com/frbtool/frbtool/internal/toolchain"
	"github.com/frbtool/frbtool/internal/vcs"
)

const parent = "/work"

var store = map[string]string{
	"Cargo.toml":               "[package]\nname = \"{{ name }}\"\nversion = \"0.1.0\"\nedition = \"2021\"\n\n[lib]\ncrate-type = [\"cdylib\", \"staticlib\"]\n",
	"flutter_rust_bridge.yaml": "rust_input: crate::api\nrust_root: rust/\ndart_output: lib/src/rust\n",
	"plugin.podspec":           "Pod::Spec.new do |s|\n  s.name = '{{ name }}'\nend\n",
	"cmake.txt":                "set(PROJECT_NAME \"{{name}}\")\n",
	"build.gradle":             "group 'com.example.{{ name }}'\n",
	"pubspec.yaml": `name: {{ name }}
version: 0.0.1
flutter:
  plugin:
    platforms:
      android:
        ffiPlugin: true
      ios:
        ffiPlugin: true
`,
}

// toolWorld stands in for flutter, git and cargo. It records every command
// and creates the files the real tools would create.
type toolWorld struct {
	fs   afero.Fs
	fail map[string]error

	mu    sync.Mutex
	calls []string
}

func (w *toolWorld) Run(_ context.Context, cmd toolchain.Command) error {
	line := cmd.String()
	w.mu.Lock()
	w.calls = append(w.calls, line)
	w.mu.Unlock()

	for prefix, err := range w.fail {
		if strings.HasPrefix(line, prefix) {
			return err
		}
	}

	switch cmd.Name {
	case "flutter":
		root := path.Join(cmd.Dir, cmd.Args[2])
		for _, dir := range []string{"android", "ios", "macos", "windows", "linux", "lib"} {
			if err := w.fs.MkdirAll(path.Join(root, dir), 0o755); err != nil {
				return err
			}
		}
		return afero.WriteFile(w.fs, path.Join(root, "pubspec.yaml"), []byte("name: placeholder\n"), 0o644)
	case "cargo":
		crate := path.Join(cmd.Dir, cmd.Args[1])
		if err := w.fs.MkdirAll(path.Join(crate, "src"), 0o755); err != nil {
			return err
		}
		if err := afero.WriteFile(w.fs, path.Join(crate, "Cargo.toml"), []byte("[package]\nname = \"x\"\n"), 0o644); err != nil {
			return err
		}
		return afero.WriteFile(w.fs, path.Join(crate, "src", "lib.rs"), []byte("pub fn add() {}\n"), 0o644)
	}
	return nil
}

func (w *toolWorld) Calls() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.calls...)
}

type storeFetcher struct {
	missing map[string]bool

	mu      sync.Mutex
	fetched []string
}

func (f *storeFetcher) Fetch(_ context.Context, name string) (string, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, name)
	f.mu.Unlock()

	text, ok := store[name]
	if !ok || f.missing[name] {
		return "", &fetcher.TransportError{Template: name, StatusCode: 404, Err: fetcher.ErrNotFound}
	}
	return text, nil
}

func (f *storeFetcher) Fetched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.fetched...)
}

func settings(concurrency int) config.Settings {
	return config.Settings{
		TemplateOrigin:   "https://templates.invalid",
		Concurrency:      concurrency,
		FlutterTemplate:  "plugin_ffi",
		FlutterPlatforms: []string{"android", "ios", "macos", "windows", "linux"},
	}
}

func newOrchestrator(f fetcher.Fetcher) (*Orchestrator, *toolWorld, afero.Fs) {
	base := afero.NewMemMapFs()
	_ = base.MkdirAll(parent, 0o755)
	world := &toolWorld{fs: base}
	return &Orchestrator{
		Runner:   world,
		Fetcher:  f,
		Base:     base,
		Parent:   parent,
		Settings: settings(4),
	}, world, base
}

func readFile(t *testing.T, fs afero.Fs, p string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, p)
	if err != nil {
		t.Fatalf("reading %s: %v", p, err)
	}
	return string(data)
}

func TestRun_HelloDart(t *testing.T) {
	o, world, base := newOrchestrator(&storeFetcher{})
	var phases []Phase
	o.OnPhase = func(p Phase) { phases = append(phases, p) }

	report, err := o.Run(context.Background(), "hello_dart")
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	wantPhases := []Phase{PhaseInit, PhaseBootstrapping, PhaseVCSInit, PhaseParallelSteps, PhaseSampleModule, PhaseSucceeded}
	if len(phases) != len(wantPhases) {
		t.Fatalf("phases = %v, want %v", phases, wantPhases)
	}
	for i := range phases {
		if phases[i] != wantPhases[i] {
			t.Errorf("phase %d = %s, want %s", i, phases[i], wantPhases[i])
		}
	}

	calls := world.Calls()
	wantCalls := []string{
		"flutter create --template=plugin_ffi hello_dart --platforms android,ios,macos,windows,linux",
		"git init",
		"git add --all",
		"git commit -m initial commit",
		"git subtree add --prefix cargokit https://github.com/irondash/cargokit.git main --squash",
		"cargo new rust --lib --name hello_dart",
	}
	if len(calls) != len(wantCalls) {
		t.Fatalf("calls = %q", calls)
	}
	for i := range calls {
		if calls[i] != wantCalls[i] {
			t.Errorf("call %d = %q, want %q", i, calls[i], wantCalls[i])
		}
	}

	files := map[string]string{
		"rust/Cargo.toml":          "name = \"hello_dart\"",
		"flutter_rust_bridge.yaml": "rust_input: crate::api",
		"macos/hello_dart.podspec": "s.name = 'hello_dart'",
		"ios/hello_dart.podspec":   "s.name = 'hello_dart'",
		"windows/CMakeLists.txt":   `set(PROJECT_NAME "hello_dart")`,
		"linux/CMakeLists.txt":     `set(PROJECT_NAME "hello_dart")`,
		"android/build.gradle":     "com.example.hello_dart",
		"pubspec.yaml":             "name: hello_dart",
		"rust/src/api/mod.rs":      "pub mod hello;",
		"rust/src/api/hello.rs":    "pub fn hello(hello: &str)",
	}
	for rel, want := range files {
		got := readFile(t, base, path.Join(parent, "hello_dart", rel))
		if !strings.Contains(got, want) {
			t.Errorf("%s = %q, want it to contain %q", rel, got, want)
		}
	}
	if got := readFile(t, base, "/work/hello_dart/rust/src/lib.rs"); got != "pub mod api;" {
		t.Errorf("lib.rs = %q, want %q", got, "pub mod api;")
	}

	if report.Phase != PhaseSucceeded {
		t.Errorf("Phase = %s", report.Phase)
	}
	if len(report.Steps) != 9 {
		t.Errorf("got %d steps, want 9", len(report.Steps))
	}
	for _, s := range report.Steps {
		if s.Status != StatusOK {
			t.Errorf("step %s status = %s (%v)", s.Name, s.Status, s.Err)
		}
	}
	if len(report.Warnings) != 0 {
		t.Errorf("Warnings = %v", report.Warnings)
	}
	if report.Root.Dir() != "/work/hello_dart" {
		t.Errorf("Root = %q", report.Root.Dir())
	}
}

func TestRun_BootstrapFailure(t *testing.T) {
	f := &storeFetcher{}
	o, world, base := newOrchestrator(f)
	world.fail = map[string]error{"flutter": &toolchain.Error{Command: "flutter create", ExitCode: 1, Err: errors.New("exit status 1")}}

	report, err := o.Run(context.Background(), "hello_dart")
	if !errors.Is(err, project.ErrBootstrap) {
		t.Fatalf("Run() error = %v, want ErrBootstrap", err)
	}
	if report.Phase != PhaseAborted {
		t.Errorf("Phase = %s, want aborted", report.Phase)
	}
	if len(world.Calls()) != 1 {
		t.Errorf("calls = %q, want only flutter create", world.Calls())
	}
	if len(f.Fetched()) != 0 {
		t.Errorf("fetched %v after bootstrap failure", f.Fetched())
	}
	if ok, _ := afero.Exists(base, "/work/hello_dart"); ok {
		t.Error("project directory should not exist")
	}
	if len(report.Steps) != 0 {
		t.Errorf("Steps = %v", report.Steps)
	}
}

func TestRun_VCSFailure(t *testing.T) {
	f := &storeFetcher{}
	o, world, _ := newOrchestrator(f)
	world.fail = map[string]error{"git subtree": errors.New("exit status 1")}

	report, err := o.Run(context.Background(), "hello_dart")
	var ve *vcs.Error
	if !errors.As(err, &ve) {
		t.Fatalf("Run() error = %v, want *vcs.Error", err)
	}
	if report.Phase != PhaseAborted {
		t.Errorf("Phase = %s", report.Phase)
	}
	if len(f.Fetched()) != 0 {
		t.Errorf("fetched %v after vcs failure", f.Fetched())
	}
	for _, c := range world.Calls() {
		if strings.HasPrefix(c, "cargo") {
			t.Error("cargo ran after vcs failure")
		}
	}
}

func TestRun_PodspecMissing(t *testing.T) {
	o, _, base := newOrchestrator(&storeFetcher{missing: map[string]bool{"plugin.podspec": true}})

	report, err := o.Run(context.Background(), "hello_dart")
	if err == nil {
		t.Fatal("Run() should fail")
	}
	if !errors.Is(err, fetcher.ErrNotFound) {
		t.Errorf("errors.Is(err, ErrNotFound) = false: %v", err)
	}
	var se *scaffold.StepError
	if !errors.As(err, &se) || se.Stage != scaffold.StageFetch {
		t.Errorf("error = %v, want fetch-stage StepError", err)
	}
	if report.Phase != PhaseAborted {
		t.Errorf("Phase = %s", report.Phase)
	}

	failed := report.Failed()
	if len(failed) != 2 {
		t.Fatalf("failed = %v, want 2 podspec steps", failed)
	}
	for _, name := range []string{StepMacOSPodspec, StepIOSPodspec} {
		if s, _ := report.Step(name); s.Status != StatusFailed {
			t.Errorf("%s status = %s", name, s.Status)
		}
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error does not mention %s: %v", name, err)
		}
	}
	for _, name := range []string{StepRustCrate, StepBridgeConfig, StepWindowsCMake, StepLinuxCMake, StepAndroidGradle, StepPubspec, StepSampleModule} {
		if s, _ := report.Step(name); s.Status != StatusOK {
			t.Errorf("%s status = %s (%v)", name, s.Status, s.Err)
		}
	}

	for _, p := range []string{"/work/hello_dart/macos/hello_dart.podspec", "/work/hello_dart/ios/hello_dart.podspec"} {
		if ok, _ := afero.Exists(base, p); ok {
			t.Errorf("%s should not exist", p)
		}
	}
	entries, _ := afero.ReadDir(base, "/work/hello_dart/macos")
	if len(entries) != 0 {
		t.Errorf("macos/ has leftovers: %d entries", len(entries))
	}
}

func TestRun_CargoFailureSkipsSample(t *testing.T) {
	o, world, base := newOrchestrator(&storeFetcher{})
	world.fail = map[string]error{"cargo": errors.New("exit status 101")}

	report, err := o.Run(context.Background(), "hello_dart")
	if err == nil {
		t.Fatal("Run() should fail")
	}

	if s, _ := report.Step(StepRustCrate); s.Status != StatusFailed {
		t.Errorf("rust crate status = %s", s.Status)
	}
	if s, _ := report.Step(StepSampleModule); s.Status != StatusSkipped {
		t.Errorf("sample module status = %s, want skipped", s.Status)
	}
	if ok, _ := afero.Exists(base, "/work/hello_dart/rust/src/api"); ok {
		t.Error("api dir should not exist")
	}
	if ok, _ := afero.Exists(base, "/work/hello_dart/pubspec.yaml"); !ok {
		t.Error("sibling steps should still run")
	}
	if len(report.Failed()) != 1 {
		t.Errorf("failed = %v", report.Failed())
	}
}

// gateFetcher holds every fetch until want fetches are in flight at once.
type gateFetcher struct {
	inner fetcher.Fetcher
	want  int

	mu   sync.Mutex
	n    int
	open chan struct{}
}

func (g *gateFetcher) Fetch(ctx context.Context, name string) (string, error) {
	g.mu.Lock()
	g.n++
	if g.n == g.want {
		close(g.open)
	}
	g.mu.Unlock()

	select {
	case <-g.open:
	case <-time.After(5 * time.Second):
		return "", errors.New("siblings never arrived")
	}
	return g.inner.Fetch(ctx, name)
}

func TestRun_StepsOverlap(t *testing.T) {
	g := &gateFetcher{inner: &storeFetcher{}, want: 8, open: make(chan struct{})}
	o, _, _ := newOrchestrator(g)
	o.Settings = settings(8)

	if _, err := o.Run(context.Background(), "hello_dart"); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
}

type trackingFetcher struct {
	inner fetcher.Fetcher

	mu       sync.Mutex
	inFlight int
	peak     int
}

func (f *trackingFetcher) Fetch(ctx context.Context, name string) (string, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.peak {
		f.peak = f.inFlight
	}
	f.mu.Unlock()

	time.Sleep(10 * time.Millisecond)

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()
	return f.inner.Fetch(ctx, name)
}

func TestRun_ConcurrencyBound(t *testing.T) {
	f := &trackingFetcher{inner: &storeFetcher{}}
	o, _, _ := newOrchestrator(f)
	o.Settings = settings(2)

	if _, err := o.Run(context.Background(), "hello_dart"); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if f.peak < 1 || f.peak > 2 {
		t.Errorf("peak in-flight fetches = %d, want 1..2", f.peak)
	}
}

func TestReport_Err(t *testing.T) {
	r := &Report{Steps: []StepResult{
		{Name: "a", Status: StatusOK},
		{Name: "b", Status: StatusSkipped},
	}}
	if r.Err() != nil {
		t.Errorf("Err() = %v, want nil", r.Err())
	}

	boom := errors.New("boom")
	r.Steps = append(r.Steps, StepResult{Name: "c", Status: StatusFailed, Err: boom})
	if !errors.Is(r.Err(), boom) {
		t.Errorf("Err() = %v, want boom", r.Err())
	}
}

func TestPhase_String(t *testing.T) {
	if PhaseVCSInit.String() != "vcs-init" || Phase(99).String() != "unknown" {
		t.Error("unexpected phase names")
	}
}

func randomName(r *rand.Rand) project.Name {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789_"
	b := make([]byte, 1+r.Intn(16))
	b[0] = alphabet[r.Intn(26)]
	for i := 1; i < len(b); i++ {
		b[i] = alphabet[r.Intn(len(alphabet))]
	}
	return project.Name(b)
}

func nested(a, b string) bool {
	return strings.HasPrefix(a, b+"/") || strings.HasPrefix(b, a+"/")
}

func TestTasks_DisjointTargets(t *testing.T) {
	names := []project.Name{"hello_dart", "rust", "pubspec", "CMakeLists", "a"}
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		names = append(names, randomName(r))
	}

	o := &Orchestrator{}
	for _, name := range names {
		tasks := o.tasks(project.NewRoot(parent, name), nil, nil)
		if len(tasks) != 9 {
			t.Fatalf("%s: got %d tasks, want 9", name, len(tasks))
		}

		for i := range tasks {
			for j := i + 1; j < len(tasks); j++ {
				a, b := path.Clean(tasks[i].target), path.Clean(tasks[j].target)
				if a == b || nested(a, b) {
					t.Errorf("%s: %s (%s) collides with %s (%s)", name, tasks[i].name, a, tasks[j].name, b)
				}
			}
		}

		// The sample module writes inside the crate, after the group finishes.
		for _, tk := range tasks[1:] {
			if tk.target == native.APIDir || nested(tk.target, native.APIDir) {
				t.Errorf("%s: %s (%s) collides with the sample module", name, tk.name, tk.target)
			}
		}
		if !nested(native.APIDir, tasks[0].target) {
			t.Errorf("%s: sample module %s is outside the crate %s", name, native.APIDir, tasks[0].target)
		}
	}
}
