// Package fetcher retrieves raw template text from the remote template store.
// Templates are addressed by file name under a single origin URL; there is no
// retry and no cache.
package fetcher
