// Package preset manages the preset reference table: the large spreadsheet
// whose rows are exported when their key matches a derived PIM key.
//
// Parsing that spreadsheet is slow, so its rows are kept in a Store (SQLite
// by default, Postgres for shared deployments). A Cache sits in front of the
// store and is what a run receives: it loads the table once, reuses it, and
// re-imports only when the source file's fingerprint changes.
//
// Backends register themselves by kind; import preset/all to enable every
// built-in backend.
package preset

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"pimformat/internal/sheet"
)

// ErrNotFound is returned when the store has never been loaded or was
// deleted.
var ErrNotFound = errors.New("preset: no preset table stored")

// Meta describes the stored preset table.
type Meta struct {
	// Source is the file the table was imported from.
	Source string
	// Fingerprint is the XXH3-128 hex digest of Source at import time.
	Fingerprint string
	ImportedAt  time.Time
	// Rows counts data rows, excluding the header.
	Rows    int
	Columns int
}

// Store persists exactly one preset table. Replace swaps the whole table in
// one transaction; readers never see a partial table.
type Store interface {
	Load(ctx context.Context) (*sheet.Table, Meta, error)
	Meta(ctx context.Context) (Meta, error)
	Replace(ctx context.Context, t *sheet.Table, m Meta) error
	Delete(ctx context.Context) error
	Close() error
}

// Config selects and locates a store backend.
type Config struct {
	Kind string
	DSN  string
}

// Factory opens a store of one kind.
type Factory func(ctx context.Context, cfg Config) (Store, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for kind. Backends call it
// from init.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// Kinds lists the registered backend kinds, sorted.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Open opens the store registered for cfg.Kind.
func Open(ctx context.Context, cfg Config) (Store, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("preset: no store registered for kind %q", cfg.Kind)
	}
	return f(ctx, cfg)
}

// MetaOf builds the Meta recorded for t.
func MetaOf(t *sheet.Table, source, fingerprint string, at time.Time) Meta {
	rows := t.MaxRow() - 1
	if rows < 0 {
		rows = 0
	}
	return Meta{
		Source:      source,
		Fingerprint: fingerprint,
		ImportedAt:  at.UTC(),
		Rows:        rows,
		Columns:     t.MaxCol(),
	}
}
