package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStorage manages the directory downloaded media lands in.
type FileStorage struct {
	dir string
}

// NewFileStorage creates a new FileStorage rooted at dir.
// The directory is made absolute so the fetcher reports absolute paths.
func NewFileStorage(dir string) *FileStorage {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return &FileStorage{dir: filepath.Clean(dir)}
}

// Dir returns the storage directory.
func (s *FileStorage) Dir() string {
	return s.dir
}

// EnsureDir creates the storage directory if it does not exist.
func (s *FileStorage) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create download dir: %w", err)
	}
	return nil
}

// OutputTemplate joins a fetcher output template onto the storage directory.
func (s *FileStorage) OutputTemplate(template string) string {
	return filepath.Join(s.dir, template)
}

// Resolve turns a path reported by the fetcher into an absolute path.
// Relative paths are taken to be relative to the storage directory.
func (s *FileStorage) Resolve(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("empty path")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.dir, path)
	}
	return filepath.Clean(path), nil
}

// FileExists checks whether a file exists at path.
func (s *FileStorage) FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// GetFileSize returns the size of the file in bytes.
func (s *FileStorage) GetFileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
