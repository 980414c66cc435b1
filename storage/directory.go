package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/golang/glog"
)

// CacheDirTag is the file that marks a directory as excluded from backups.
//
// See https://bford.info/cachedir/ for the format.
const CacheDirTag = "CACHEDIR.TAG"

const cacheDirTagContent = "Signature: 8a477f597d28d172789f06886806bc55\n# This file is a cache directory tag created by docstore.\n"

const tempPrefix = ".tmp-"

// Directory stores each value as a file inside a single directory.
type Directory struct {
	path              string
	excludeFromBackup bool
}

// NewDirectory returns a storage rooted at path.
//
// The directory is created on first use.
func NewDirectory(path string, excludeFromBackup bool) *Directory {
	return &Directory{
		path:              path,
		excludeFromBackup: excludeFromBackup,
	}
}

// Path returns the directory path.
func (d *Directory) Path() string {
	return d.path
}

// Resolve makes sure the directory exists and returns its path.
func (d *Directory) Resolve() (string, error) {
	info, err := os.Stat(d.path)
	if err == nil {
		if !info.IsDir() {
			return "", fmt.Errorf("%w: %s is not a directory", ErrInvalidLocation, d.path)
		}
		return d.path, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %w", ErrInvalidLocation, err)
	}
	if err := os.MkdirAll(d.path, 0o755); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidLocation, err)
	}
	glog.V(1).Infof("created collection directory %s", d.path)
	if d.excludeFromBackup {
		tag := filepath.Join(d.path, CacheDirTag)
		if err := os.WriteFile(tag, []byte(cacheDirTagContent), 0o644); err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidLocation, err)
		}
	}
	return d.path, nil
}

func (d *Directory) file(key string) (string, error) {
	if !ValidKey(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidLocation, key)
	}
	dir, err := d.Resolve()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, key), nil
}

func (d *Directory) Has(ctx context.Context, key string) (bool, error) {
	path, err := d.file(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

func (d *Directory) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := d.file(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// Put writes the content to a temporary file and renames it over the key.
func (d *Directory) Put(ctx context.Context, key string, content []byte) error {
	path, err := d.file(key)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(d.path, tempPrefix+key+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
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
	return os.Rename(tmp.Name(), path)
}

func (d *Directory) Delete(ctx context.Context, key string) error {
	path, err := d.file(key)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

// Keys returns the names of regular files in the directory.
//
// Subdirectories, hidden files and the backup tag are skipped.
func (d *Directory) Keys(ctx context.Context) ([]string, error) {
	dir, err := d.Resolve()
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") || e.Name() == CacheDirTag {
			continue
		}
		keys = append(keys, e.Name())
	}
	slices.Sort(keys)
	return keys, nil
}
