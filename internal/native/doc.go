// Package native creates the Rust library crate inside a plugin project and
// seeds it with a sample api module the bridge generator can pick up.
package native
