package inventory

import (
	"errors"
	"fmt"
	"strings"
)

// Default column names of the published use-case inventory
const (
	DefaultIDColumn      = "Use Case ID"
	DefaultPurposeColumn = "Purpose and Benefits"
	DefaultOutputsColumn = "AI System Outputs"
)

// Columns names the CSV headers the pipeline reads
type Columns struct {
	ID      string // Unique identifier column
	Purpose string // First free-text column of the description
	Outputs string // Second free-text column of the description
}

// DefaultColumns returns the column names used by the inventory export
func DefaultColumns() Columns {
	return Columns{
		ID:      DefaultIDColumn,
		Purpose: DefaultPurposeColumn,
		Outputs: DefaultOutputsColumn,
	}
}

// Validate checks that every column name is set
func (c Columns) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return errors.New("identifier column name is required")
	}
	if strings.TrimSpace(c.Purpose) == "" || strings.TrimSpace(c.Outputs) == "" {
		return errors.New("both text column names are required")
	}
	return nil
}

// Row is one CSV data row keyed by header name
type Row struct {
	Line   int               // 1-based data row number (header excluded)
	Fields map[string]string // Header name to cell value
}

// Get returns the value for a column and whether the row carries it
func (r Row) Get(column string) (string, bool) {
	v, ok := r.Fields[column]
	return v, ok
}

// Record is a validated inventory row
type Record struct {
	ID      string
	Purpose string
	Outputs string
	Line    int
}

// Description joins the two text fields with a single space; this is the
// text sent to the scorer and stored alongside the result.
func (r Record) Description() string {
	return r.Purpose + " " + r.Outputs
}

// Error definitions
var (
	ErrSourceUnavailable = errors.New("inventory source unavailable")
	ErrInvalidRecord     = errors.New("invalid inventory record")
	ErrMissingIdentifier = fmt.Errorf("%w: missing identifier", ErrInvalidRecord)
	ErrMissingFields     = fmt.Errorf("%w: missing required fields", ErrInvalidRecord)
)

// ParseRecord validates a row against the configured columns.
//
// The identifier is trimmed and must be non-empty. Both text columns must be
// present in the row; their values are kept as-is. Errors match
// ErrInvalidRecord.
func ParseRecord(row Row, cols Columns) (Record, error) {
	id, _ := row.Get(cols.ID)
	id = strings.TrimSpace(id)
	if id == "" {
		return Record{Line: row.Line}, ErrMissingIdentifier
	}

	purpose, okPurpose := row.Get(cols.Purpose)
	outputs, okOutputs := row.Get(cols.Outputs)
	if !okPurpose || !okOutputs {
		return Record{ID: id, Line: row.Line}, fmt.Errorf("%w (need %q and %q)", ErrMissingFields, cols.Purpose, cols.Outputs)
	}

	return Record{
		ID:      id,
		Purpose: purpose,
		Outputs: outputs,
		Line:    row.Line,
	}, nil
}
