// Package branding provides compile-time identity values for the CLI.
//
// The values live in branding.yaml next to this file and are baked into the
// binary with //go:embed. Hard defaults cover a missing or empty file.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName         string `yaml:"cli_name"`
	DisplayName     string `yaml:"display_name"`
	Description     string `yaml:"description"`
	HomeDir         string `yaml:"home_dir"`
	EnvPrefix       string `yaml:"env_prefix"`
	GoModule        string `yaml:"go_module"`
	TemplateOrigin  string `yaml:"template_origin"`
	CargokitRepoURL string `yaml:"cargokit_repo_url"`
}

func load() {
	once.Do(func() {
		defaults = brand{
			CLIName:         "frbtool",
			DisplayName:     "FRB Plugin Tool",
			Description:     "Scaffold Flutter plugins backed by a Rust library",
			HomeDir:         ".frbtool",
			EnvPrefix:       "FRBTOOL",
			GoModule:        "github.com/frbtool/frbtool",
			TemplateOrigin:  "https://raw.githubusercontent.com/mdddj/frb_plugin_tool/main/temp",
			CargokitRepoURL: "https://github.com/irondash/cargokit.git",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "frbtool").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".frbtool").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "FRBTOOL").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// GoModule returns the Go module path. Not consumed at runtime.
func GoModule() string { load(); return defaults.GoModule }

// TemplateOrigin returns the default base URL templates are fetched from.
func TemplateOrigin() string { load(); return defaults.TemplateOrigin }

// CargokitRepoURL returns the default git URL merged in as the build-support subtree.
func CargokitRepoURL() string { load(); return defaults.CargokitRepoURL }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("origin") → "FRBTOOL_ORIGIN".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
