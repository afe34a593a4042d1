package verify

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/spf13/afero"
	"go.yaml.in/yaml/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Files inspected, relative to the project root.
const (
	CargoManifest = "rust/Cargo.toml"
	Pubspec       = "pubspec.yaml"
	BridgeConfig  = "flutter_rust_bridge.yaml"
)

//go:embed schema/pubspec.schema.json
var pubspecSchemaBytes []byte

var (
	pubspecSchema *jsonschema.Schema
	compileOnce   sync.Once
	compileErr    error
	printer       = message.NewPrinter(language.English)
)

// Warning is one finding about a generated file.
type Warning struct {
	File    string
	Path    string // location inside the document, if any
	Message string
}

func (w Warning) String() string {
	if w.Path == "" {
		return w.File + ": " + w.Message
	}
	return w.File + " " + w.Path + ": " + w.Message
}

// Project checks the generated files below the root of fsys for plugin
// name. Files that do not exist are skipped; their step already failed.
func Project(fsys afero.Fs, name string) []Warning {
	var warnings []Warning
	warnings = append(warnings, checkCargo(fsys, name)...)
	warnings = append(warnings, checkPubspec(fsys, name)...)
	warnings = append(warnings, checkBridge(fsys)...)

	sort.SliceStable(warnings, func(i, j int) bool {
		return warnings[i].File < warnings[j].File
	})
	return warnings
}

func checkCargo(fsys afero.Fs, name string) []Warning {
	data, ok, w := read(fsys, CargoManifest)
	if !ok {
		return w
	}

	var manifest struct {
		Package struct {
			Name string `toml:"name"`
		} `toml:"package"`
	}
	if err := toml.Unmarshal(data, &manifest); err != nil {
		return []Warning{{File: CargoManifest, Message: fmt.Sprintf("invalid TOML: %v", err)}}
	}
	if manifest.Package.Name != name {
		return []Warning{{
			File:    CargoManifest,
			Path:    "package.name",
			Message: fmt.Sprintf("got %q, want %q", manifest.Package.Name, name),
		}}
	}
	return nil
}

func checkPubspec(fsys afero.Fs, name string) []Warning {
	data, ok, w := read(fsys, Pubspec)
	if !ok {
		return w
	}

	issues, doc, err := validatePubspec(data)
	if err != nil {
		return []Warning{{File: Pubspec, Message: err.Error()}}
	}
	var warnings []Warning
	for _, issue := range issues {
		warnings = append(warnings, Warning{File: Pubspec, Path: issue.Path, Message: issue.Message})
	}
	if m, ok := doc.(map[string]any); ok {
		if got, _ := m["name"].(string); got != "" && got != name {
			warnings = append(warnings, Warning{
				File:    Pubspec,
				Path:    "/name",
				Message: fmt.Sprintf("got %q, want %q", got, name),
			})
		}
	}
	return warnings
}

func checkBridge(fsys afero.Fs) []Warning {
	data, ok, w := read(fsys, BridgeConfig)
	if !ok {
		return w
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return []Warning{{File: BridgeConfig, Message: fmt.Sprintf("invalid YAML: %v", err)}}
	}
	if len(doc) == 0 {
		return []Warning{{File: BridgeConfig, Message: "document is empty"}}
	}
	return nil
}

// read returns the file contents. ok is false when the file is missing or
// unreadable; an unreadable file produces a warning.
func read(fsys afero.Fs, path string) ([]byte, bool, []Warning) {
	data, err := afero.ReadFile(fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, []Warning{{File: path, Message: err.Error()}}
	}
	return data, true, nil
}

// Issue is a single schema violation.
type Issue struct {
	Path    string
	Message string
	Keyword string
}

func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(pubspecSchemaBytes))
		if err != nil {
			compileErr = fmt.Errorf("unmarshaling schema JSON: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource("pubspec.schema.json", doc); err != nil {
			compileErr = fmt.Errorf("adding schema resource: %w", err)
			return
		}
		pubspecSchema, compileErr = c.Compile("pubspec.schema.json")
		if compileErr != nil {
			compileErr = fmt.Errorf("compiling schema: %w", compileErr)
		}
	})
	return pubspecSchema, compileErr
}

// validatePubspec parses data as YAML and checks it against the embedded
// schema. It also returns the decoded document.
func validatePubspec(data []byte) ([]Issue, any, error) {
	schema, err := getSchema()
	if err != nil {
		return nil, nil, fmt.Errorf("loading schema: %w", err)
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("invalid YAML: %w", err)
	}
	raw = normalizeYAML(raw)

	jsonData, err := json.Marshal(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("converting to JSON: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonData))
	if err != nil {
		return nil, nil, fmt.Errorf("preparing JSON for validation: %w", err)
	}

	err = schema.Validate(inst)
	if err == nil {
		return nil, raw, nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil, nil, fmt.Errorf("unexpected validation error type: %w", err)
	}
	return extractIssues(ve), raw, nil
}

func extractIssues(ve *jsonschema.ValidationError) []Issue {
	var issues []Issue
	collectIssues(ve, &issues)
	if len(issues) == 0 {
		return []Issue{{Message: ve.Error()}}
	}

	seen := make(map[string]bool, len(issues))
	out := issues[:0]
	for _, issue := range issues {
		key := issue.Path + "|" + issue.Keyword + "|" + issue.Message
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, issue)
	}
	return out
}

// collectIssues walks the error tree down to the leaves, which carry the
// property-level detail.
func collectIssues(ve *jsonschema.ValidationError, issues *[]Issue) {
	if len(ve.Causes) > 0 {
		for _, cause := range ve.Causes {
			collectIssues(cause, issues)
		}
		return
	}
	if ve.ErrorKind == nil {
		return
	}

	keyword := ""
	if kw := ve.ErrorKind.KeywordPath(); len(kw) > 0 {
		keyword = kw[len(kw)-1]
	}
	if keyword == "" || keyword == "$ref" || keyword == "allOf" {
		return
	}

	path := ""
	if len(ve.InstanceLocation) > 0 {
		path = "/" + strings.Join(ve.InstanceLocation, "/")
	}
	*issues = append(*issues, Issue{
		Path:    path,
		Message: ve.ErrorKind.LocalizedString(printer),
		Keyword: keyword,
	})
}

// normalizeYAML converts YAML-decoded values into types encoding/json accepts.
// Mappings with non-string keys are stringified.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, item := range val {
			m[k] = normalizeYAML(item)
		}
		return m
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, item := range val {
			m[fmt.Sprint(k)] = normalizeYAML(item)
		}
		return m
	case []any:
		a := make([]any, len(val))
		for i, item := range val {
			a[i] = normalizeYAML(item)
		}
		return a
	default:
		return val
	}
}

// Summary formats a warning count for the run report.
func Summary(warnings []Warning) string {
	return printer.Sprintf("%d verification warning(s)", len(warnings))
}
