// Package config manages user-level settings stored at ~/.frbtool/config.yaml.
// It loads defaults, the config file and FRBTOOL_* environment variables
// through Viper, and exposes a typed Settings snapshot for a scaffolding run.
package config
