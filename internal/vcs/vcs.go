package vcs

import (
	"context"
	"fmt"

	"github.com/frbtool/frbtool/internal/branding"
	"github.com/frbtool/frbtool/internal/logging"
	"github.com/frbtool/frbtool/internal/project"
	"github.com/frbtool/frbtool/internal/toolchain"
)

// Subtree defaults.
const (
	DefaultBranch = "main"
	DefaultPrefix = "cargokit"

	initialCommitMessage = "initial commit"
)

// Error reports the git invocation that stopped initialization.
type Error struct {
	Command string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("git step %q failed: %v", e.Command, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Initializer runs the repository setup sequence.
type Initializer struct {
	Runner toolchain.Runner
	Log    *logging.Logger

	// SubtreeRepo, SubtreeBranch and SubtreePrefix select the build-support
	// tree. Empty values fall back to the cargokit defaults.
	SubtreeRepo   string
	SubtreeBranch string
	SubtreePrefix string
}

// Commands returns the git invocations Init runs, in order.
func (i *Initializer) Commands(root project.Root) []toolchain.Command {
	dir := root.Dir()
	return []toolchain.Command{
		{Name: "git", Args: []string{"init"}, Dir: dir, Quiet: true},
		{Name: "git", Args: []string{"add", "--all"}, Dir: dir, Quiet: true},
		{Name: "git", Args: []string{"commit", "-m", initialCommitMessage}, Dir: dir, Quiet: true, QuietStderr: true},
		{
			Name: "git",
			Args:  []string{"subtree", "add", "--prefix", i.prefix(), i.repo(), i.branch(), "--squash"},
			Dir:   dir,
			Quiet: true,
		},
	}
}

// Init runs git init, stages and commits everything flutter created, then
// adds the subtree. Each command must succeed before the next starts.
func (i *Initializer) Init(ctx context.Context, root project.Root) error {
	log := i.Log
	if log == nil {
		log = logging.Discard()
	}

	log.Info("initializing git repository", "root", root.Dir())
	for _, cmd := range i.Commands(root) {
		if err := i.Runner.Run(ctx, cmd); err != nil {
			return &Error{Command: cmd.String(), Err: err}
		}
	}
	log.Success("git repository ready", "subtree", i.prefix())
	return nil
}

func (i *Initializer) repo() string {
	if i.SubtreeRepo != "" {
		return i.SubtreeRepo
	}
	return branding.CargokitRepoURL()
}

func (i *Initializer) branch() string {
	if i.SubtreeBranch != "" {
		return i.SubtreeBranch
	}
	return DefaultBranch
}

func (i *Initializer) prefix() string {
	if i.SubtreePrefix != "" {
		return i.SubtreePrefix
	}
	return DefaultPrefix
}
