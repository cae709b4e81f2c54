package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	// ErrRead means the collection file could not be read
	ErrRead = errors.New("storage: read failed")
	// ErrFormat means the file content is not a well-formed JSON array
	ErrFormat = errors.New("storage: malformed collection file")
	// ErrWrite means the new collection content could not be persisted
	ErrWrite = errors.New("storage: write failed")
)

// Collection is a file-backed ordered sequence of records of one kind,
// stored as a pretty-printed JSON array. It is the only owner of its
// file: all access goes through All and Update, which serialize
// load-mutate-save cycles with a per-collection mutex.
type Collection[T any] struct {
	path string
	mu   sync.Mutex
}

// NewCollection creates a store for the collection file at path.
// One Collection instance must exist per file.
func NewCollection[T any](path string) *Collection[T] {
	return &Collection[T]{path: path}
}

// Init creates the collection file holding an empty array if it does
// not exist yet, so the first read succeeds.
func (c *Collection[T]) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := os.Stat(c.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("%w: %s: %v", ErrRead, c.path, err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, c.path, err)
	}
	return c.save([]T{})
}

// Path returns the collection file path
func (c *Collection[T]) Path() string {
	return c.path
}

// All loads and returns the current sequence of records
func (c *Collection[T]) All() ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load()
}

// Update runs one exclusive load-mutate-save cycle. It locks the
// collection, loads the current records, applies fn, and persists the
// returned sequence. If fn returns an error, nothing is saved and the
// error is returned unchanged. The lock is held for the whole cycle,
// so no two callers observe overlapping load/save windows.
func (c *Collection[T]) Update(fn func(records []T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.load()
	if err != nil {
		return err
	}

	updated, err := fn(records)
	if err != nil {
		return err
	}

	return c.save(updated)
}

func (c *Collection[T]) load() ([]T, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRead, c.path, err)
	}

	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFormat, c.path, err)
	}
	return records, nil
}

// save overwrites the collection file atomically: the new content is
// written to a temporary file in the same directory and renamed over
// the target, so a failed write never leaves partial content visible.
func (c *Collection[T]) save(records []T) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, c.path, err)
	}

	dir := filepath.Dir(c.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, c.path, err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %s: %v", ErrWrite, c.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %s: %v", ErrWrite, c.path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %s: %v", ErrWrite, c.path, err)
	}

	if err := os.Rename(tmp.Name(), c.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %s: %v", ErrWrite, c.path, err)
	}
	return nil
}

// NextID returns a creation-time-derived id that is not taken.
// Callers must invoke it inside an Update cycle so the returned id
// stays unique until the new record is persisted.
func NextID(taken func(id int64) bool) int64 {
	id := time.Now().UnixMilli()
	for taken(id) {
		id++
	}
	return id
}
