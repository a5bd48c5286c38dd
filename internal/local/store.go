// Package local is the filesystem side of gobox. Paths are native and
// absolute; the sync package maps them to tree-relative paths.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gadget1999/gobox/internal/utils"
)

var ErrNotFound = errors.New("local: not found")

// Entry is a file or directory on the local filesystem.
type Entry struct {
	Path    string    `yaml:"path"`
	Name    string    `yaml:"name"`
	IsDir   bool      `yaml:"is_dir"`
	Size    int64     `yaml:"size"`
	ModTime time.Time `yaml:"modified_at"`
}

// HashCache remembers content hashes keyed by path, size and mtime.
type HashCache interface {
	Lookup(ctx context.Context, path, algo string, size int64, modTime time.Time) (string, bool)
	Store(ctx context.Context, path, algo string, size int64, modTime time.Time, sum string) error
}

type Store struct {
	cache HashCache
}

func NewStore(cache HashCache) *Store {
	return &Store{cache: cache}
}

func (s *Store) Stat(_ context.Context, path string) (*Entry, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return toEntry(path, info), nil
}

// List returns the directory's children sorted by name. In-flight temp files
// and symlinks are left out.
func (s *Store) List(_ context.Context, dir string) ([]*Entry, error) {
	dirEntries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", dir, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	out := make([]*Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if utils.IsTempFile(de.Name()) || de.Type()&fs.ModeSymlink != 0 {
			continue
		}
		info, err := de.Info()
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, toEntry(filepath.Join(dir, de.Name()), info))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) Open(_ context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	return f, err
}

// Write replaces path atomically and stamps it with modTime.
func (s *Store) Write(_ context.Context, path string, r io.Reader, modTime time.Time) (int64, error) {
	return utils.WriteFileAtomic(path, r, modTime)
}

func (s *Store) Mkdir(_ context.Context, path string) error {
	if utils.FileExists(path) {
		return fmt.Errorf("mkdir %s: file exists", path)
	}
	return utils.EnsureDir(path)
}

// Remove deletes a file, or a directory and everything under it.
func (s *Store) Remove(_ context.Context, path string) error {
	if _, err := os.Lstat(path); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	return os.RemoveAll(path)
}

// Hash returns the content hash of a file, consulting the cache first.
func (s *Store) Hash(ctx context.Context, e *Entry, algo string) (string, error) {
	if s.cache != nil {
		if sum, ok := s.cache.Lookup(ctx, e.Path, algo, e.Size, e.ModTime); ok {
			return sum, nil
		}
	}
	sum, err := utils.FileHash(e.Path, algo)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", e.Path, err)
	}
	if s.cache != nil {
		// a failed cache write only costs a rehash next time
		_ = s.cache.Store(ctx, e.Path, algo, e.Size, e.ModTime, sum)
	}
	return sum, nil
}

func toEntry(path string, info fs.FileInfo) *Entry {
	e := &Entry{
		Path:    path,
		Name:    info.Name(),
		IsDir:   info.IsDir(),
		ModTime: info.ModTime(),
	}
	if !e.IsDir {
		e.Size = info.Size()
	}
	return e
}
