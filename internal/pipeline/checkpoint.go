package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/mgpai22/anuvad/internal/subtitle"
)

// FileCheckpointWriter renders snapshots in the input's own format and
// replaces the checkpoint file atomically. A lock file next to it keeps two
// runs from sharing one checkpoint.
type FileCheckpointWriter struct {
	path   string
	layout subtitle.File
	lock   *flock.Flock
}

func NewFileCheckpointWriter(path string, layout subtitle.File) *FileCheckpointWriter {
	return &FileCheckpointWriter{
		path:   path,
		layout: layout,
		lock:   flock.New(path + ".lock"),
	}
}

func (w *FileCheckpointWriter) Path() string {
	return w.path
}

// Acquire takes the checkpoint lock without blocking.
func (w *FileCheckpointWriter) Acquire() error {
	if w.lock.Locked() {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("failed to create checkpoint directory: %w", err)
	}
	locked, err := w.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock checkpoint: %w", err)
	}
	if !locked {
		return fmt.Errorf("checkpoint %s is in use by another run", w.path)
	}
	return nil
}

func (w *FileCheckpointWriter) WriteCheckpoint(entries []subtitle.Entry) error {
	if err := w.Acquire(); err != nil {
		return err
	}

	data, err := subtitle.Compose(w.layout, entries)
	if err != nil {
		return fmt.Errorf("failed to compose checkpoint: %w", err)
	}

	return writeFileAtomic(w.path, data)
}

// Close releases the lock and removes the lock file.
func (w *FileCheckpointWriter) Close() error {
	if !w.lock.Locked() {
		return nil
	}
	err := w.lock.Unlock()
	_ = os.Remove(w.lock.Path())
	return err
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
