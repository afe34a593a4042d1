// Package vcs turns a freshly created plugin project into a git repository
// and merges the cargokit build-support tree into it as a squashed subtree.
package vcs
