package ledger

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultFileName is the ledger document used when no path is configured
const DefaultFileName = "processed_records.json"

// FileStore keeps the ledger document in a single JSON file
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore for path. The file and its parent
// directory are created on the first Save.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultFileName
	}
	return &FileStore{path: path}
}

// Path returns the ledger file location
func (s *FileStore) Path() string { return s.path }

// Load reads the whole document
func (s *FileStore) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Save replaces the document. It writes to a temporary file in the same
// directory and renames it over the old one so readers never see a partial
// document.
func (s *FileStore) Save(_ context.Context, doc []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create ledger dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp ledger file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(doc); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp ledger file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp ledger file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp ledger file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp ledger file: %w", err)
	}

	return os.Rename(tmpName, s.path)
}
