// Package materialize writes rendered files into the project tree. All paths
// are relative to the project root, which is the root of the afero.Fs the
// Writer is given.
package materialize
