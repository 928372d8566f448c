// Package ledger records which inventory records have already been scored
// and persisted, so a re-run only processes new rows.
//
// The committed set is held as a single document (a JSON array of ids) in a
// Store. The whole set is loaded on Open and rewritten on every Commit; the
// set only ever grows.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
)

// Error definitions
var (
	ErrNotFound = errors.New("ledger document not found")
	ErrCorrupt  = errors.New("ledger document is corrupt")
	ErrEmptyID  = errors.New("ledger id cannot be empty")
)

// Store persists the ledger document. Load returns ErrNotFound when nothing
// has been saved yet.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, doc []byte) error
}

// Ledger is the in-memory view of the committed id set
type Ledger struct {
	store Store
	ids   map[string]struct{}
}

// Open loads the committed ids from store.
//
// When the stored document cannot be parsed, Open still returns a usable
// empty Ledger together with an error matching ErrCorrupt. Any other load
// failure returns a nil Ledger.
func Open(ctx context.Context, store Store) (*Ledger, error) {
	l := &Ledger{store: store, ids: make(map[string]struct{})}

	ids, err := load(ctx, store)
	if err != nil {
		if errors.Is(err, ErrCorrupt) {
			return l, err
		}
		return nil, err
	}
	for _, id := range ids {
		l.ids[id] = struct{}{}
	}

	slog.Debug("Ledger loaded", "committed", len(l.ids))
	return l, nil
}

// Contains reports whether id was previously committed
func (l *Ledger) Contains(id string) bool {
	_, ok := l.ids[id]
	return ok
}

// Commit adds id to the durable set. Committing an id twice is a no-op for
// the stored set.
//
// The stored document is re-read first and merged into memory so ids written
// by an earlier commit are never dropped, then the full set is rewritten.
// The in-memory set is only updated once the save succeeds.
func (l *Ledger) Commit(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptyID
	}

	stored, err := load(ctx, l.store)
	switch {
	case err == nil:
		for _, s := range stored {
			l.ids[s] = struct{}{}
		}
	case errors.Is(err, ErrCorrupt):
		slog.Warn("Ledger document unreadable at commit, rewriting from memory",
			"id", id,
			"error", err)
	default:
		return fmt.Errorf("reload ledger before commit of %s: %w", id, err)
	}

	next := l.sortedWith(id)
	doc, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := l.store.Save(ctx, doc); err != nil {
		return fmt.Errorf("save ledger after commit of %s: %w", id, err)
	}

	l.ids[id] = struct{}{}
	return nil
}

// Len returns the number of committed ids
func (l *Ledger) Len() int { return len(l.ids) }

// IDs returns the committed ids in sorted order
func (l *Ledger) IDs() []string { return l.sortedWith("") }

func (l *Ledger) sortedWith(extra string) []string {
	out := make([]string, 0, len(l.ids)+1)
	for id := range l.ids {
		out = append(out, id)
	}
	if extra != "" {
		if _, ok := l.ids[extra]; !ok {
			out = append(out, extra)
		}
	}
	sort.Strings(out)
	return out
}

func load(ctx context.Context, store Store) ([]string, error) {
	doc, err := store.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	return decode(doc)
}

func decode(doc []byte) ([]string, error) {
	var ids []string
	if err := json.Unmarshal(doc, &ids); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	for i, id := range ids {
		if id == "" {
			return nil, fmt.Errorf("%w: empty id at index %d", ErrCorrupt, i)
		}
	}
	return ids, nil
}
