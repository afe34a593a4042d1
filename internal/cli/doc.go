// Package cli defines the Cobra command tree for the frbtool CLI. Each file
// registers one top-level command with the root command. Commands resolve
// configuration, wire the internal packages together and format output; the
// scaffolding itself lives in internal/orchestrator.
package cli
