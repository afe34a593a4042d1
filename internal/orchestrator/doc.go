// Package orchestrator drives a full plugin scaffolding run: bootstrap,
// repository setup, the bounded group of independent file steps, and the
// sample module that depends on the Rust crate. It returns a Report
// describing every step.
package orchestrator
