// Package doctor checks that the external tools a scaffolding run shells out
// to are installed and new enough.
package doctor
