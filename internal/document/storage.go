package document

import (
	"fmt"
	"os"
	"path/filepath"
)

// Storage defines the interface for image file storage operations
type Storage interface {
	// Save saves a file and returns the path used to retrieve it
	Save(filename string, data []byte) (string, error)

	// Get retrieves a file by path
	Get(path string) ([]byte, error)

	// Delete removes a file
	Delete(path string) error
}

// LocalStorage implements the Storage interface on the local filesystem,
// partitioning files into year/month subdirectories.
type LocalStorage struct {
	basePath   string
	timeSource TimeSource
}

// NewLocalStorage creates a new LocalStorage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	return NewLocalStorageWithDeps(basePath, &defaultTimeSource{})
}

// NewLocalStorageWithDeps creates a LocalStorage with a custom time source
// for testing
func NewLocalStorageWithDeps(basePath string, timeSource TimeSource) (*LocalStorage, error) {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	return &LocalStorage{
		basePath:   basePath,
		timeSource: timeSource,
	}, nil
}

// Save writes the file under the current year/month partition and returns
// the relative path
func (l *LocalStorage) Save(filename string, data []byte) (string, error) {
	partition := l.timeSource.Now().Format("2006/01")
	if err := os.MkdirAll(filepath.Join(l.basePath, partition), 0755); err != nil {
		return "", fmt.Errorf("creating partition directory: %w", err)
	}

	relPath := filepath.Join(partition, filename)
	if err := os.WriteFile(filepath.Join(l.basePath, relPath), data, 0644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return relPath, nil
}

// Get retrieves a file from local storage
func (l *LocalStorage) Get(path string) ([]byte, error) {
	fullPath := filepath.Join(l.basePath, path)
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Delete removes a file from local storage
func (l *LocalStorage) Delete(path string) error {
	fullPath := filepath.Join(l.basePath, path)
	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}
