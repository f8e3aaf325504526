package editor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ajitpratap0/mdchat/internal/models"
)

// ErrLocked is returned when another invocation holds the document's lock.
var ErrLocked = errors.New("document is locked by another invocation")

// lockSuffix names the lock file kept next to a document while it is open.
const lockSuffix = ".mdchat.lock"

// FileBuffer is a Document backed by a file on disk. Every successful insert
// is persisted with a temp-file rename, so an editor watching the file sees
// the reply grow. A lock file next to the document keeps a second process
// from editing it at the same time.
type FileBuffer struct {
	doc      *Document
	path     string
	lockPath string
	perm     fs.FileMode
	logger   *slog.Logger
}

// OpenFile takes the document lock and loads path. Close releases the lock.
func OpenFile(path string, logger *slog.Logger) (*FileBuffer, error) {
	lockPath := path + lockSuffix
	lf, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%s (remove %s if stale): %w", path, lockPath, ErrLocked)
		}
		return nil, fmt.Errorf("creating lock file: %w", err)
	}
	_, _ = fmt.Fprintf(lf, "%d\n", os.Getpid())
	_ = lf.Close()

	release := func() { _ = os.Remove(lockPath) }

	info, err := os.Stat(path)
	if err != nil {
		release()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		release()
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return &FileBuffer{
		doc:      NewDocument(string(data)),
		path:     path,
		lockPath: lockPath,
		perm:     info.Mode().Perm(),
		logger:   logger,
	}, nil
}

// Text returns the current document content.
func (f *FileBuffer) Text() string { return f.doc.Text() }

// Path returns the file path.
func (f *FileBuffer) Path() string { return f.path }

// Insert implements Buffer. When the file cannot be written the in-memory
// insert is rolled back, so memory and disk never disagree.
func (f *FileBuffer) Insert(ctx context.Context, pos models.Position, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.doc.mu.Lock()
	defer f.doc.mu.Unlock()

	prev := f.doc.snapshot()
	if err := f.doc.insertLocked(pos, text); err != nil {
		return err
	}
	if err := f.persistLocked(); err != nil {
		f.doc.restore(prev)
		return fmt.Errorf("persisting %s: %w", f.path, err)
	}
	return nil
}

func (f *FileBuffer) persistLocked() error {
	dir, base := filepath.Split(f.path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.WriteString(strings.Join(f.doc.lines, "\n")); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Chmod(f.perm); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		cleanup()
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Close releases the document lock.
func (f *FileBuffer) Close() error {
	if err := os.Remove(f.lockPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		f.logger.Warn("editor: removing lock file", "path", f.lockPath, "error", err)
		return fmt.Errorf("removing lock file: %w", err)
	}
	return nil
}
