//go:build integration

package integration_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
)

// testEnv holds an isolated working directory, a bin directory of stand-in
// tools placed first on PATH, and a template store.
type testEnv struct {
	WorkDir string
	BinDir  string
	ToolLog string
	Store   *templateStore
}

// Stand-ins for flutter, git and cargo. Each appends its invocation to
// $FRBTOOL_TOOL_LOG and creates what the real tool would.
var fakeTools = map[string]string{
	"flutter": `#!/bin/sh
echo "flutter $*" >> "$FRBTOOL_TOOL_LOG"
if [ "$1" = "--version" ]; then echo "Flutter 3.22.1 • channel stable"; exit 0; fi
[ -n "$FAKE_FLUTTER_FAIL" ] && { echo "flutter exploded" >&2; exit 1; }
name="$3"
for d in android ios macos windows linux lib; do mkdir -p "$name/$d"; done
echo "name: $name" > "$name/pubspec.yaml"
echo "Creating project $name..."
`,
	"git": `#!/bin/sh
echo "git $*" >> "$FRBTOOL_TOOL_LOG"
if [ "$1" = "--version" ]; then echo "git version 2.43.0"; exit 0; fi
[ "$1" = "$FAKE_GIT_FAIL" ] && { echo "fatal: $1 failed" >&2; exit 128; }
case "$1" in
  init) mkdir -p .git ;;
  subtree) mkdir -p "$4" && echo "kit" > "$4/README.md" ;;
esac
`,
	"cargo": `#!/bin/sh
echo "cargo $*" >> "$FRBTOOL_TOOL_LOG"
if [ "$1" = "--version" ]; then echo "cargo 1.79.0 (ffa9cf99a 2024-06-03)"; exit 0; fi
mkdir -p "$2/src"
printf '[package]\nname = "%s"\n' "$5" > "$2/Cargo.toml"
echo "pub fn add() {}" > "$2/src/lib.rs"
`,
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stand-in tools are shell scripts")
	}

	env := &testEnv{
		WorkDir: t.TempDir(),
		BinDir:  t.TempDir(),
	}
	env.ToolLog = filepath.Join(env.BinDir, "calls.log")

	for name, script := range fakeTools {
		writeFile(t, filepath.Join(env.BinDir, name), script)
		if err := os.Chmod(filepath.Join(env.BinDir, name), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	t.Setenv("PATH", env.BinDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	t.Setenv("FRBTOOL_TOOL_LOG", env.ToolLog)
	t.Setenv("HOME", t.TempDir())

	env.Store = newTemplateStore(t)
	return env
}

// toolCalls returns the logged tool invocations in order.
func (e *testEnv) toolCalls(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(e.ToolLog)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

type templateStore struct {
	*httptest.Server

	mu       sync.Mutex
	missing  map[string]bool
	requests []string
}

var templates = map[string]string{
	"Cargo.toml": `[package]
name = "{{ name }}"
version = "0.1.0"
edition = "2021"

[lib]
crate-type = ["cdylib", "staticlib"]

[dependencies]
flutter_rust_bridge = "=2.0.0"
`,
	"flutter_rust_bridge.yaml": "rust_input: crate::api\nrust_root: rust/\ndart_output: lib/src/rust\n",
	"plugin.podspec":           "Pod::Spec.new do |s|\n  s.name = '{{ name }}'\n  s.script_phase = { :name => 'Build {{ name }}' }\nend\n",
	"cmake.txt":                "set(PROJECT_NAME \"{{ name }}\")\napply_cargokit(${PROJECT_NAME} ../rust {{ name }} \"\")\n",
	"build.gradle":             "group 'com.example.{{ name }}'\napply from: \"../cargokit/gradle/plugin.gradle\"\n",
	"pubspec.yaml": `name: {{ name }}
description: A Flutter plugin backed by Rust.
version: 0.0.1

environment:
  sdk: '>=3.0.0 <4.0.0'

dependencies:
  flutter:
    sdk: flutter
  flutter_rust_bridge: 2.0.0

flutter:
  plugin:
    platforms:
      android:
        ffiPlugin: true
      ios:
        ffiPlugin: true
      macos:
        ffiPlugin: true
      windows:
        ffiPlugin: true
      linux:
        ffiPlugin: true
`,
}

func newTemplateStore(t *testing.T) *templateStore {
	t.Helper()
	s := &templateStore{missing: map[string]bool{}}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/temp/")
		s.mu.Lock()
		s.requests = append(s.requests, name)
		missing := s.missing[name]
		s.mu.Unlock()

		body, ok := templates[name]
		if !ok || missing {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *templateStore) Origin() string { return s.URL + "/temp" }

func (s *templateStore) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

func assertFileExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Errorf("expected file %s to exist: %v", path, err)
		return
	}
	if info.IsDir() {
		t.Errorf("expected %s to be a file, got directory", path)
	}
}

func assertNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("expected %s not to exist", path)
	}
}
