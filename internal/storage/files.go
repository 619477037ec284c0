// Package storage persists raw dataset files on disk.
//
// Dataset bytes deliberately stay out of SQLite: the database holds the
// metadata and the filename, the file store holds the content, keyed by the
// dataset's ID. One directory per dataset keeps names from colliding.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore reads and writes dataset files under a root directory.
type FileStore struct {
	root string
}

// NewFileStore creates the root directory if needed and returns a store.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: creating root %s: %w", root, err)
	}
	return &FileStore{root: root}, nil
}

// Save writes data as the named file for a dataset, replacing any previous
// content. The name is reduced to its base component so a crafted filename
// like "../../etc/passwd" cannot escape the dataset's directory.
func (fs *FileStore) Save(datasetID, name string, data []byte) error {
	name = sanitize(name)
	if name == "" {
		return fmt.Errorf("storage: empty file name")
	}

	dir := filepath.Join(fs.root, datasetID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: creating dataset dir %s: %w", datasetID, err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("storage: writing %s: %w", path, err)
	}
	return nil
}

// Load reads the named file for a dataset.
func (fs *FileStore) Load(datasetID, name string) ([]byte, error) {
	name = sanitize(name)
	if name == "" {
		return nil, fmt.Errorf("storage: empty file name")
	}

	path := filepath.Join(fs.root, datasetID, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("storage: reading %s: %w", path, err)
	}
	return data, nil
}

func sanitize(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	return name
}
