// Package toolchain runs the external tools the scaffolder drives (flutter,
// git, cargo). Commands are fixed argument lists executed in a given
// directory; the Runner interface lets tests substitute a recorder.
package toolchain
