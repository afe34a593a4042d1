package materialize

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const (
	filePerm = 0644
	dirPerm  = 0755
)

// ErrParentMissing is wrapped when a write or mkdir targets a directory that
// does not exist.
var ErrParentMissing = errors.New("parent directory does not exist")

// Mode selects how Write creates its target.
type Mode int

const (
	// ModeTruncate creates the file or replaces an existing one. The new
	// content is written to a temp file and renamed over the target, so the
	// target never holds a partial write.
	ModeTruncate Mode = iota
	// ModeRequireParent writes into a directory the caller has just created
	// and fails with ErrParentMissing when it is absent.
	ModeRequireParent
)

func (m Mode) String() string {
	switch m {
	case ModeTruncate:
		return "truncate"
	case ModeRequireParent:
		return "require-parent"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// FilesystemError reports a failed filesystem operation on a project path.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }

// Writer materializes files below the root of fs.
type Writer struct {
	fs afero.Fs
}

// New returns a Writer over fs. Callers normally pass an afero.BasePathFs
// rooted at the project directory.
func New(fs afero.Fs) *Writer {
	return &Writer{fs: fs}
}

// Fs returns the underlying filesystem.
func (w *Writer) Fs() afero.Fs {
	return w.fs
}

// Write stores contents at path according to mode.
func (w *Writer) Write(path, contents string, mode Mode) error {
	rel, err := cleanRel(path)
	if err != nil {
		return &FilesystemError{Op: "write", Path: path, Err: err}
	}

	if err := w.requireDir(filepath.Dir(rel)); err != nil {
		return &FilesystemError{Op: "write", Path: rel, Err: err}
	}

	switch mode {
	case ModeTruncate:
		err = w.writeAtomic(rel, contents)
	case ModeRequireParent:
		err = w.writeDirect(rel, contents)
	default:
		err = fmt.Errorf("unknown write mode %s", mode)
	}
	if err != nil {
		return &FilesystemError{Op: "write", Path: rel, Err: err}
	}
	return nil
}

// Mkdir creates exactly one directory level. The parent must exist.
func (w *Writer) Mkdir(path string) error {
	rel, err := cleanRel(path)
	if err != nil {
		return &FilesystemError{Op: "mkdir", Path: path, Err: err}
	}
	if err := w.requireDir(filepath.Dir(rel)); err != nil {
		return &FilesystemError{Op: "mkdir", Path: rel, Err: err}
	}
	if err := w.fs.Mkdir(rel, dirPerm); err != nil {
		return &FilesystemError{Op: "mkdir", Path: rel, Err: err}
	}
	return nil
}

func (w *Writer) requireDir(dir string) error {
	if dir == "." {
		return nil
	}
	ok, err := afero.DirExists(w.fs, dir)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %w", dir, ErrParentMissing)
	}
	return nil
}

func (w *Writer) writeDirect(rel, contents string) error {
	f, err := w.fs.OpenFile(rel, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(f, contents); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (w *Writer) writeAtomic(rel, contents string) (err error) {
	f, err := afero.TempFile(w.fs, filepath.Dir(rel), ".frbtool-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		_ = f.Close()
		if err != nil {
			_ = w.fs.Remove(tmp)
		}
	}()

	if _, err = io.WriteString(f, contents); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	if err = w.fs.Chmod(tmp, filePerm); err != nil {
		return err
	}
	return w.fs.Rename(tmp, rel)
}

// cleanRel normalizes a project-relative path and rejects anything that
// would resolve outside the project root.
func cleanRel(path string) (string, error) {
	rel := filepath.Clean(filepath.FromSlash(strings.TrimSpace(path)))
	if rel == "" || rel == "." || rel == ".." {
		return "", fmt.Errorf("invalid project path %q", path)
	}
	if filepath.IsAbs(rel) || filepath.VolumeName(rel) != "" {
		return "", fmt.Errorf("invalid project path %q: must be relative", path)
	}
	if strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid project path %q: escapes project root", path)
	}
	return rel, nil
}
