package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/frbtool/frbtool/internal/branding"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Configuration keys.
const (
	KeyTemplateOrigin   = "template_origin"
	KeyConcurrency      = "concurrency"
	KeyHTTPTimeout      = "http_timeout"
	KeyFlutterTemplate  = "flutter.template"
	KeyFlutterPlatforms = "flutter.platforms"
	KeyCargokitRepo     = "cargokit.repo"
	KeyCargokitBranch   = "cargokit.branch"
	KeyCargokitPrefix   = "cargokit.prefix"
)

// DefaultConcurrency bounds the parallel scaffolding group.
const DefaultConcurrency = 4

// Settings is the resolved configuration for one run.
type Settings struct {
	TemplateOrigin   string
	Concurrency      int
	HTTPTimeout      time.Duration
	FlutterTemplate  string
	FlutterPlatforms []string
	CargokitRepo     string
	CargokitBranch   string
	CargokitPrefix   string
}

// Dir returns the path to the config directory (~/.frbtool/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.frbtool/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// SetDefaults registers the built-in value for every known key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyTemplateOrigin, branding.TemplateOrigin())
	v.SetDefault(KeyConcurrency, DefaultConcurrency)
	v.SetDefault(KeyHTTPTimeout, "0s")
	v.SetDefault(KeyFlutterTemplate, "plugin_ffi")
	v.SetDefault(KeyFlutterPlatforms, "android,ios,macos,windows,linux")
	v.SetDefault(KeyCargokitRepo, branding.CargokitRepoURL())
	v.SetDefault(KeyCargokitBranch, "main")
	v.SetDefault(KeyCargokitPrefix, "cargokit")
}

// Load initializes Viper to read from the config file and environment.
func Load() {
	SetDefaults(viper.GetViper())
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, value)

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Current returns the Settings resolved by the global Viper instance.
func Current() (Settings, error) {
	return Resolve(viper.GetViper())
}

// Resolve reads Settings from v, applying validation to numeric keys.
func Resolve(v *viper.Viper) (Settings, error) {
	s := Settings{
		TemplateOrigin:   strings.TrimRight(strings.TrimSpace(v.GetString(KeyTemplateOrigin)), "/"),
		Concurrency:      v.GetInt(KeyConcurrency),
		FlutterTemplate:  strings.TrimSpace(v.GetString(KeyFlutterTemplate)),
		FlutterPlatforms: splitList(v.GetString(KeyFlutterPlatforms)),
		CargokitRepo:     strings.TrimSpace(v.GetString(KeyCargokitRepo)),
		CargokitBranch:   strings.TrimSpace(v.GetString(KeyCargokitBranch)),
		CargokitPrefix:   strings.TrimSpace(v.GetString(KeyCargokitPrefix)),
	}

	timeout, err := time.ParseDuration(strings.TrimSpace(v.GetString(KeyHTTPTimeout)))
	if err != nil {
		return Settings{}, fmt.Errorf("parsing %s: %w", KeyHTTPTimeout, err)
	}
	if timeout < 0 {
		return Settings{}, fmt.Errorf("%s must not be negative, got %s", KeyHTTPTimeout, timeout)
	}
	s.HTTPTimeout = timeout

	if s.Concurrency < 1 {
		return Settings{}, fmt.Errorf("%s must be at least 1, got %d", KeyConcurrency, s.Concurrency)
	}
	if s.TemplateOrigin == "" {
		return Settings{}, fmt.Errorf("%s must not be empty", KeyTemplateOrigin)
	}
	if len(s.FlutterPlatforms) == 0 {
		return Settings{}, fmt.Errorf("%s must list at least one platform", KeyFlutterPlatforms)
	}
	return s, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
