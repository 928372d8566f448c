package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultDocumentName is the row key used by SQLiteStore
const DefaultDocumentName = "processed_records"

const ledgerSchema = `
CREATE TABLE IF NOT EXISTS ledger_documents (
	name       TEXT PRIMARY KEY,
	body       TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

// SQLiteStore keeps the ledger document as a single row of a SQLite table
type SQLiteStore struct {
	db   *sql.DB
	name string
}

// OpenSQLite opens or creates a SQLite database at path and ensures the
// ledger table exists. The parent directory is created when missing.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create ledger db dir: %w", err)
	}
	return openSQLite(path)
}

// OpenSQLiteMemory opens a private in-memory database, for tests
func OpenSQLiteMemory() (*SQLiteStore, error) {
	return openSQLite(":memory:")
}

func openSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps :memory: databases alive and serialises writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(ledgerSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create ledger schema: %w", err)
	}
	return &SQLiteStore{db: db, name: DefaultDocumentName}, nil
}

// WithName returns a store addressing a different document row in the same
// database
func (s *SQLiteStore) WithName(name string) *SQLiteStore {
	return &SQLiteStore{db: s.db, name: name}
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load reads the document row
func (s *SQLiteStore) Load(ctx context.Context) ([]byte, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		"SELECT body FROM ledger_documents WHERE name = ?", s.name,
	).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select ledger document: %w", err)
	}
	return []byte(body), nil
}

// Save upserts the document row
func (s *SQLiteStore) Save(ctx context.Context, doc []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ledger_documents(name, body, updated_at) VALUES(?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		s.name, string(doc), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upsert ledger document: %w", err)
	}
	return nil
}
