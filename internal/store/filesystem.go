package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrianmcphee/crossbase"
)

// FilesystemBackend stores each key as a file below a base directory.
type FilesystemBackend struct {
	basePath string
	locks    *StripedLocks
}

// NewFilesystemBackend creates a filesystem backend rooted at basePath.
func NewFilesystemBackend(basePath string) *FilesystemBackend {
	return &FilesystemBackend{
		basePath: basePath,
		locks:    NewStripedLocks(32),
	}
}

func (b *FilesystemBackend) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", crossbase.WithContext(crossbase.ErrInvalidData, map[string]interface{}{
			"key":    key,
			"reason": "key escapes the storage root",
		})
	}
	return filepath.Join(b.basePath, clean), nil
}

func mapFSError(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return crossbase.ErrNotFound
	case errors.Is(err, fs.ErrPermission):
		return crossbase.ErrUnauthorized
	}
	return err
}

func (b *FilesystemBackend) Get(ctx context.Context, key string) ([]byte, error) {
	p, err := b.path(key)
	if err != nil {
		return nil, err
	}
	unlock := b.locks.RLock(key)
	defer unlock()

	data, err := os.ReadFile(p)
	if err != nil {
		return nil, mapFSError(err)
	}
	return data, nil
}

func (b *FilesystemBackend) Put(ctx context.Context, key string, data []byte) error {
	unlock := b.locks.Lock(key)
	defer unlock()
	return b.write(key, data)
}

// write replaces the file through a rename so readers never see a partial
// document. Callers hold the key's lock.
func (b *FilesystemBackend) write(key string, data []byte) error {
	p, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), crossbase.DefaultDirPermissions); err != nil {
		return mapFSError(err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-*")
	if err != nil {
		return mapFSError(err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(crossbase.DefaultFilePermissions); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p)
}

func (b *FilesystemBackend) Delete(ctx context.Context, key string) error {
	p, err := b.path(key)
	if err != nil {
		return err
	}
	unlock := b.locks.Lock(key)
	defer unlock()

	if err := os.Remove(p); err != nil {
		return mapFSError(err)
	}
	return nil
}

func (b *FilesystemBackend) Exists(ctx context.Context, key string) (bool, error) {
	p, err := b.path(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (b *FilesystemBackend) GetWithETag(ctx context.Context, key string) ([]byte, string, error) {
	data, err := b.Get(ctx, key)
	if err != nil {
		return nil, "", err
	}
	return data, contentETag(data), nil
}

func (b *FilesystemBackend) PutIfMatch(ctx context.Context, key string, data []byte, expectedETag string) (string, error) {
	p, err := b.path(key)
	if err != nil {
		return "", err
	}
	unlock := b.locks.Lock(key)
	defer unlock()

	if expectedETag != "" {
		current, err := os.ReadFile(p)
		if err != nil {
			return "", mapFSError(err)
		}
		if actual := contentETag(current); actual != expectedETag {
			return "", crossbase.WithContext(crossbase.ErrConflict, map[string]interface{}{
				"key":      key,
				"expected": expectedETag,
				"actual":   actual,
			})
		}
	}

	if err := b.write(key, data); err != nil {
		return "", err
	}
	return contentETag(data), nil
}

// List returns the keys below prefix, sorted. A missing prefix directory
// yields an empty list.
func (b *FilesystemBackend) List(ctx context.Context, prefix string) ([]string, error) {
	root := b.basePath
	if prefix != "" {
		p, err := b.path(prefix)
		if err != nil {
			return nil, err
		}
		root = p
	}

	var keys []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(b.basePath, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *FilesystemBackend) Ping(ctx context.Context) error {
	if err := os.MkdirAll(b.basePath, crossbase.DefaultDirPermissions); err != nil {
		return fmt.Errorf("cannot create base path: %w", err)
	}
	info, err := os.Stat(b.basePath)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("base path is not a directory: %s", b.basePath)
	}

	probe := filepath.Join(b.basePath, ".health_check")
	if err := os.WriteFile(probe, []byte("ok"), crossbase.DefaultFilePermissions); err != nil {
		return fmt.Errorf("cannot write to base path: %w", err)
	}
	return os.Remove(probe)
}

func (b *FilesystemBackend) Close() error {
	return nil
}
