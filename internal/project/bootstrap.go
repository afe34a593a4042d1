package project

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/frbtool/frbtool/internal/logging"
	"github.com/frbtool/frbtool/internal/toolchain"
)

// ErrBootstrap is wrapped by every bootstrap failure.
var ErrBootstrap = errors.New("project bootstrap failed")

// Default flutter create settings.
const (
	DefaultTemplate = "plugin_ffi"
)

// DefaultPlatforms is the platform set passed to flutter create.
var DefaultPlatforms = []string{"android", "ios", "macos", "windows", "linux"}

// Bootstrapper creates the base plugin project with flutter create.
type Bootstrapper struct {
	Runner    toolchain.Runner
	Template  string
	Platforms []string
	Log       *logging.Logger
}

// Command returns the flutter invocation that creates name inside parent.
func (b *Bootstrapper) Command(parent string, name Name) toolchain.Command {
	tmpl := b.Template
	if tmpl == "" {
		tmpl = DefaultTemplate
	}
	platforms := b.Platforms
	if len(platforms) == 0 {
		platforms = DefaultPlatforms
	}
	return toolchain.Command{
		Name: "flutter",
		Args: []string{
			"create",
			"--template=" + tmpl,
			string(name),
			"--platforms",
			strings.Join(platforms, ","),
		},
		Dir:   parent,
		Quiet: true,
	}
}

// Bootstrap runs flutter create in parent and returns the new project root.
// Any failure wraps ErrBootstrap; nothing else should run afterwards.
func (b *Bootstrapper) Bootstrap(ctx context.Context, parent string, name Name) (Root, error) {
	log := b.Log
	if log == nil {
		log = logging.Discard()
	}

	log.Info("creating plugin project", "name", name, "dir", parent)
	if err := b.Runner.Run(ctx, b.Command(parent, name)); err != nil {
		return Root{}, fmt.Errorf("%w: %w", ErrBootstrap, err)
	}

	root := NewRoot(parent, name)
	log.Success("plugin project created", "root", root.Dir())
	return root, nil
}
