package storage

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// AtomicWriter provides atomic file write operations using temp file + rename.
// The target file is never left in a partially-written state.
type AtomicWriter struct {
	path    string
	tmpPath string
	file    *os.File
	done    bool
}

// NewAtomicWriter creates a writer for atomic file updates.
// The writer creates a temporary file in the same directory as the target,
// and on Commit(), atomically renames it to replace the target.
func NewAtomicWriter(path string) (*AtomicWriter, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "create directory")
	}

	tmpFile, err := os.CreateTemp(dir, ".ytcatalog-*.tmp")
	if err != nil {
		return nil, errors.Wrap(err, "create temp file")
	}

	return &AtomicWriter{
		path:    path,
		tmpPath: tmpFile.Name(),
		file:    tmpFile,
	}, nil
}

// Write writes data to the temporary file.
func (w *AtomicWriter) Write(p []byte) (n int, err error) {
	return w.file.Write(p)
}

// Commit atomically replaces the target file with the temporary file.
// The file is synced to disk before the rename.
func (w *AtomicWriter) Commit() error {
	if w.done {
		return errors.New("atomic writer already finished")
	}
	w.done = true

	if err := w.file.Sync(); err != nil {
		w.cleanup()
		return errors.Wrap(err, "sync")
	}
	if err := w.file.Close(); err != nil {
		_ = os.Remove(w.tmpPath)
		return errors.Wrap(err, "close")
	}
	if err := os.Rename(w.tmpPath, w.path); err != nil {
		_ = os.Remove(w.tmpPath)
		return errors.Wrap(err, "rename")
	}
	return nil
}

// Abort discards the temporary file without committing. It is a no-op after
// Commit, so it can be deferred.
func (w *AtomicWriter) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	return w.cleanup()
}

func (w *AtomicWriter) cleanup() error {
	_ = w.file.Close()
	return os.Remove(w.tmpPath)
}
