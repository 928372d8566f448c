// Package results persists one JSON document per scored inventory record.
//
// Each record id maps to <dir>/<id>.json. Writing the same id again replaces
// the previous document.
package results

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/JohnPlummer/opportunity-scorer/scorer"
)

// DefaultDir is the output directory used when none is configured
const DefaultDir = "results"

// Error definitions
var (
	ErrPersistenceFailed   = errors.New("failed to persist result")
	ErrNotFound            = errors.New("result not found")
	ErrInconsistentAverage = errors.New("stored average score does not match dimension scores")
)

// Store writes result documents into a directory
type Store struct {
	dir string
}

// New creates a Store rooted at dir. The directory is created on the first
// Write.
func New(dir string) *Store {
	if dir == "" {
		dir = DefaultDir
	}
	return &Store{dir: dir}
}

// Dir returns the output directory
func (s *Store) Dir() string { return s.dir }

// Path returns the file a result for id is written to
func (s *Store) Path(id string) string {
	return filepath.Join(s.dir, FileName(id))
}

// Write persists card under id and returns the file path. Every failure
// matches ErrPersistenceFailed.
func (s *Store) Write(id string, card *scorer.Scorecard) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("%w: empty record id", ErrPersistenceFailed)
	}
	if card == nil {
		return "", fmt.Errorf("%w: nil scorecard for %s", ErrPersistenceFailed, id)
	}

	data, err := json.MarshalIndent(NewDocument(card), "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: encode %s: %w", ErrPersistenceFailed, id, err)
	}
	data = append(data, '\n')

	path := s.Path(id)
	if err := writeFile(s.dir, path, data); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrPersistenceFailed, path, err)
	}

	slog.Debug("Result written", "id", id, "path", path)
	return path, nil
}

// Read loads the document stored for id and checks its average score
func (s *Store) Read(id string) (*Document, error) {
	path := s.Path(id)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("read result %s: %w", path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode result %s: %w", path, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &doc, nil
}

// FileName maps a record id to a file name that stays inside the output
// directory. Characters other than letters, digits, '-', '_' and '.' become
// '_'.
func FileName(id string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, strings.TrimSpace(id))

	if name == "" || strings.Trim(name, ".") == "" {
		name = strings.Repeat("_", max(len(name), 1))
	}
	return name + ".json"
}

func writeFile(dir, path string, data []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
