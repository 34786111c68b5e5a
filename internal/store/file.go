// Package store persists manual overrides and reminders as JSON files.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"

	"hijrical/internal/model"
)

var validate = validator.New()

// ErrNotFound is returned when an id does not exist in a store.
var ErrNotFound = errors.New("store: not found")

// file holds a JSON array of T on disk and a copy in memory.
type file[T any] struct {
	mu    sync.RWMutex
	path  string
	items []T
}

// open loads path. A missing file is an empty store; an unreadable one
// is an error so it is never overwritten by accident.
func open[T any](path string) (*file[T], error) {
	if path == "" {
		return nil, errors.New("store path is empty")
	}
	f := &file[T]{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return f, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, &f.items); err != nil {
		return nil, fmt.Errorf("store: decode %s: %v: %w", filepath.Base(path), err, model.ErrInvalidData)
	}
	return f, nil
}

func (f *file[T]) list() []T {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]T, len(f.items))
	copy(out, f.items)
	return out
}

// update applies fn to a copy of the items and persists the result. The
// in-memory state changes only when the write succeeds.
func (f *file[T]) update(fn func(items []T) ([]T, error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	next, err := fn(append([]T(nil), f.items...))
	if err != nil {
		return err
	}
	if err := writeJSON(f.path, next); err != nil {
		return err
	}
	f.items = next
	return nil
}

// writeJSON writes v atomically via a temp file + rename with 0600
// permissions.
func writeJSON(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".hijrical-store-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
