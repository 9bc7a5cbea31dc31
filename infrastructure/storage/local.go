package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/audiolane/gainctl/domain/model"
)

// LocalStorage implements ports.StorageProvider for the local filesystem
type LocalStorage struct{}

// NewLocalStorage creates a new local storage provider
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{}
}

// Exists checks if a file exists
func (s *LocalStorage) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Size returns file size in bytes
func (s *LocalStorage) Size(_ context.Context, path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Remove deletes a file
func (s *LocalStorage) Remove(_ context.Context, path string) error {
	return os.Remove(path)
}

// EnsureDir creates a directory and its parents if missing
func (s *LocalStorage) EnsureDir(_ context.Context, path string) error {
	return os.MkdirAll(path, 0o755)
}

// Discover expands the given files and directories into a sorted,
// de-duplicated list of supported audio files. Files with unsupported
// extensions are skipped silently; a path that does not exist at all is an
// error, since it is an operator typo that would otherwise shrink the batch
// unnoticed.
func (s *LocalStorage) Discover(_ context.Context, paths []string, recursive bool) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	add := func(p string) {
		clean := filepath.Clean(p)
		if supportedInput(clean) && !seen[clean] {
			seen[clean] = true
			files = append(files, clean)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("input path %q: %w", p, err)
		}

		if !info.IsDir() {
			add(p)
			continue
		}

		if recursive {
			err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() {
					add(path)
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("walking %q: %w", p, err)
			}
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		for _, e := range entries {
			if !e.IsDir() {
				add(filepath.Join(p, e.Name()))
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

func supportedInput(path string) bool {
	return model.SupportedInputExtensions[strings.ToLower(filepath.Ext(path))]
}
