package assets

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// URLPrefix is the public path under which stored images are served.
// Product records reference assets by this prefix plus the filename.
const URLPrefix = "/images/"

var ErrInvalidRef = errors.New("assets: invalid asset reference")

// Store owns the image directory. Files get a unique uuid-based name
// keeping the upload's original extension, and are referenced from
// records as "/images/<name>".
type Store struct {
	dir string
}

// NewStore creates an asset store rooted at dir
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Init creates the asset directory if it does not exist
func (s *Store) Init() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("assets: create dir %s: %w", s.dir, err)
	}
	return nil
}

// Dir returns the directory assets are stored in
func (s *Store) Dir() string {
	return s.dir
}

// Save writes the uploaded content to a new uniquely-named file and
// returns its public reference path.
func (s *Store) Save(r io.Reader, originalName string) (string, error) {
	name := uuid.New().String() + strings.ToLower(filepath.Ext(originalName))

	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("assets: create %s: %w", name, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("assets: write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("assets: write %s: %w", name, err)
	}

	return URLPrefix + name, nil
}

// Remove deletes the file an asset reference points at
func (s *Store) Remove(ref string) error {
	name, ok := strings.CutPrefix(ref, URLPrefix)
	if !ok || name == "" || name != filepath.Base(name) {
		return fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}

	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("assets: remove %s: %w", name, err)
	}
	return nil
}
