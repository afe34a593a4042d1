package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// ErrToolNotFound is wrapped when a tool is not on PATH.
var ErrToolNotFound = errors.New("tool not found in PATH")

// stderrTail bounds how much captured stderr is kept in an Error.
const stderrTail = 2048

// Command is one tool invocation.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Quiet discards standard output.
	Quiet bool
	// QuietStderr discards standard error. Stderr is still captured for
	// the error message.
	QuietStderr bool
}

// String renders the command line for logs and errors.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Runner executes commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// Error reports a command that could not start or exited non-zero.
type Error struct {
	Command  string
	ExitCode int // -1 when the process never ran to completion
	Stderr   string
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Command, e.Err)
	if e.Stderr != "" {
		msg += "\n" + e.Stderr
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Stdout and Stderr can be set for testing; defaults to os.Stdout/os.Stderr.
	Stdout io.Writer
	Stderr io.Writer
	// Env, when non-nil, replaces the inherited environment.
	Env []string
}

// Run executes cmd and waits for it to finish.
func (r *ExecRunner) Run(ctx context.Context, c Command) error {
	cmd, err := r.command(ctx, c)
	if err != nil {
		return err
	}

	if !c.Quiet {
		cmd.Stdout = r.stdout()
	}

	var stderrBuf bytes.Buffer
	if c.QuietStderr {
		cmd.Stderr = &stderrBuf
	} else {
		cmd.Stderr = io.MultiWriter(r.stderr(), &stderrBuf)
	}

	if err := cmd.Run(); err != nil {
		return wrapExit(c, err, stderrBuf.String())
	}
	return nil
}

// Output executes cmd and returns its standard output.
func (r *ExecRunner) Output(ctx context.Context, c Command) (string, error) {
	cmd, err := r.command(ctx, c)
	if err != nil {
		return "", err
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if err := cmd.Run(); err != nil {
		return stdoutBuf.String(), wrapExit(c, err, stderrBuf.String())
	}
	return stdoutBuf.String(), nil
}

func (r *ExecRunner) command(ctx context.Context, c Command) (*exec.Cmd, error) {
	bin, err := exec.LookPath(c.Name)
	if err != nil {
		return nil, &Error{Command: c.String(), ExitCode: -1, Err: fmt.Errorf("%s: %w", c.Name, ErrToolNotFound)}
	}

	cmd := exec.CommandContext(ctx, bin, c.Args...)
	cmd.Dir = c.Dir
	if r.Env != nil {
		cmd.Env = r.Env
	}
	return cmd, nil
}

func (r *ExecRunner) stdout() io.Writer {
	if r.Stdout != nil {
		return r.Stdout
	}
	return os.Stdout
}

func (r *ExecRunner) stderr() io.Writer {
	if r.Stderr != nil {
		return r.Stderr
	}
	return os.Stderr
}

func wrapExit(c Command, err error, stderr string) error {
	stderr = strings.TrimSpace(stderr)
	if len(stderr) > stderrTail {
		stderr = "..." + stderr[len(stderr)-stderrTail:]
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &Error{Command: c.String(), ExitCode: exitErr.ExitCode(), Stderr: stderr, Err: err}
	}
	return &Error{Command: c.String(), ExitCode: -1, Stderr: stderr, Err: err}
}
