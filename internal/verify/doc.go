// Package verify inspects a generated plugin project and reports files that
// do not look the way the bridge toolchain expects. Findings are warnings:
// a run never fails because of them.
package verify
