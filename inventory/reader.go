package inventory

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Reader opens an inventory CSV file. Each call to Open starts from the top
// of the file, so a Reader can be iterated any number of times.
type Reader struct {
	path    string
	columns Columns
}

// NewReader creates a Reader for the file at path
func NewReader(path string, cols Columns) *Reader {
	return &Reader{path: path, columns: cols}
}

// Path returns the file the reader was created for
func (r *Reader) Path() string { return r.path }

// Columns returns the configured column names
func (r *Reader) Columns() Columns { return r.columns }

// Open returns a cursor positioned before the first data row. The header is
// read eagerly; failures to open the file or read the header match
// ErrSourceUnavailable.
func (r *Reader) Open() (*Rows, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrSourceUnavailable, r.path, err)
	}

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		f.Close()
		if errors.Is(err, io.EOF) {
			// Empty file: no header, no rows
			return &Rows{done: true}, nil
		}
		return nil, fmt.Errorf("%w: read header of %s: %w", ErrSourceUnavailable, r.path, err)
	}

	// Excel exports often start with a UTF-8 BOM
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	return &Rows{
		reader: cr,
		closer: f,
		header: header,
	}, nil
}

// Rows iterates over the data rows of an inventory file
type Rows struct {
	reader *csv.Reader
	closer io.Closer
	header []string
	line   int
	cur    Row
	err    error
	done   bool
}

// Header returns the column names read from the first line
func (rs *Rows) Header() []string { return rs.header }

// Next advances to the next row. It returns false at end of file or on a
// read error; check Err afterwards.
func (rs *Rows) Next() bool {
	if rs.done {
		return false
	}

	record, err := rs.reader.Read()
	if err != nil {
		rs.done = true
		if !errors.Is(err, io.EOF) {
			rs.err = fmt.Errorf("read row %d: %w", rs.line+1, err)
		}
		rs.Close()
		return false
	}

	rs.line++
	fields := make(map[string]string, len(rs.header))
	for i, name := range rs.header {
		// Short rows leave trailing columns absent, matching a missing field
		if i < len(record) {
			fields[name] = record[i]
		}
	}
	rs.cur = Row{Line: rs.line, Fields: fields}
	return true
}

// Row returns the row loaded by the last successful Next
func (rs *Rows) Row() Row { return rs.cur }

// Err returns the first non-EOF error hit while iterating
func (rs *Rows) Err() error { return rs.err }

// Close releases the underlying file. It is safe to call more than once.
func (rs *Rows) Close() error {
	if rs.closer == nil {
		return nil
	}
	err := rs.closer.Close()
	rs.closer = nil
	return err
}

// ReadAll loads every row of the file
func (r *Reader) ReadAll() ([]Row, error) {
	rows, err := r.Open()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all []Row
	for rows.Next() {
		all = append(all, rows.Row())
	}
	return all, rows.Err()
}

// ListCSVFiles returns the names of the .csv files directly inside dir, sorted
func ListCSVFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}
