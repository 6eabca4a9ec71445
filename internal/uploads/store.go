// Package uploads stores avatar files on the local filesystem and hands out
// descriptors for them.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// StoredFile describes a file accepted by the store.
type StoredFile struct {
	Name string // original client-supplied name
	Path string // absolute path on disk
	MIME string // sniffed content type, not the client-declared one
	Size int64
}

// Store persists uploaded files under a single directory.
type Store struct {
	dir string
}

// NewStore creates the upload directory if needed and returns a Store.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("uploads: create dir: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("uploads: resolve dir: %w", err)
	}
	return &Store{dir: abs}, nil
}

// Dir returns the storage directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes the upload to disk under a generated name and returns its
// descriptor. The MIME type is sniffed from the content.
func (s *Store) Save(name string, r io.Reader) (*StoredFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("uploads: read upload: %w", err)
	}

	kind := mimetype.Detect(data)
	path := filepath.Join(s.dir, uuid.NewString()+kind.Extension())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("uploads: write file: %w", err)
	}

	return &StoredFile{
		Name: name,
		Path: path,
		MIME: kind.String(),
		Size: int64(len(data)),
	}, nil
}

// Remove deletes a stored file. Removing a file that is already absent is a
// soft no-op, not an error.
func (s *Store) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("uploads: remove: %w", err)
	}
	return nil
}

// Sweep removes files older than maxAge for which inUse reports false.
// It returns the number of files removed.
func (s *Store) Sweep(maxAge time.Duration, inUse func(path string) (bool, error)) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("uploads: read dir: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return removed, err
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		used, err := inUse(path)
		if err != nil {
			return removed, err
		}
		if used {
			continue
		}
		if err := s.Remove(path); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
