package project

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrEmptyName is returned when the plugin name is blank after trimming.
var ErrEmptyName = errors.New("plugin name is empty")

// Name is the user-supplied plugin name. It is used both as a directory name
// and as a template value, and is never modified after ParseName.
type Name string

// ParseName trims surrounding whitespace and rejects an empty result.
func ParseName(raw string) (Name, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrEmptyName
	}
	return Name(trimmed), nil
}

func (n Name) String() string { return string(n) }

// Root is the directory the Flutter SDK creates for the plugin:
// <parent>/<name>. It is computed once and passed to every component.
type Root struct {
	parent string
	name   Name
}

// NewRoot returns the root for name inside parent.
func NewRoot(parent string, name Name) Root {
	return Root{parent: filepath.Clean(parent), name: name}
}

// Parent returns the directory the project was created in.
func (r Root) Parent() string { return r.parent }

// Name returns the plugin name.
func (r Root) Name() Name { return r.name }

// Dir returns the project directory.
func (r Root) Dir() string { return filepath.Join(r.parent, string(r.name)) }

// Path joins elem onto the project directory.
func (r Root) Path(elem ...string) string {
	return filepath.Join(append([]string{r.Dir()}, elem...)...)
}
