// Package sqlite implements a SQLite-backed preset.Store using database/sql
// and the pure-Go modernc driver. The table lives in two relations:
// preset_meta holds a single row describing the import, preset_rows holds
// one JSON-encoded row of cell values per spreadsheet row.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"pimformat/internal/preset"
	"pimformat/internal/sheet"
)

const schema = `
CREATE TABLE IF NOT EXISTS preset_meta (
	id          INTEGER PRIMARY KEY CHECK (id = 1),
	source      TEXT    NOT NULL,
	fingerprint TEXT    NOT NULL,
	imported_at TEXT    NOT NULL,
	row_count   INTEGER NOT NULL,
	col_count   INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS preset_rows (
	rownum INTEGER PRIMARY KEY,
	cells  TEXT NOT NULL
);`

// Store is a SQLite-backed preset.Store.
type Store struct {
	db *sql.DB
}

var _ preset.Store = (*Store)(nil)

func init() {
	preset.Register("sqlite", func(ctx context.Context, cfg preset.Config) (preset.Store, error) {
		return New(ctx, cfg.DSN)
	})
}

// New opens (creating if needed) the SQLite database at dsn and ensures the
// schema exists. dsn is passed to the driver as-is, e.g. "preset_db.sqlite"
// or "file:preset.db?_pragma=busy_timeout(5000)".
func New(ctx context.Context, dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// One writer; keeps :memory: databases on a single connection.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Meta returns the stored import metadata.
func (s *Store) Meta(ctx context.Context) (preset.Meta, error) {
	var (
		m  preset.Meta
		at string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT source, fingerprint, imported_at, row_count, col_count FROM preset_meta WHERE id = 1`,
	).Scan(&m.Source, &m.Fingerprint, &at, &m.Rows, &m.Columns)
	if errors.Is(err, sql.ErrNoRows) {
		return preset.Meta{}, preset.ErrNotFound
	}
	if err != nil {
		return preset.Meta{}, fmt.Errorf("sqlite: read meta: %w", err)
	}
	if m.ImportedAt, err = time.Parse(time.RFC3339Nano, at); err != nil {
		return preset.Meta{}, fmt.Errorf("sqlite: parse imported_at %q: %w", at, err)
	}
	return m, nil
}

// Load reads the whole table in row order.
func (s *Store) Load(ctx context.Context) (*sheet.Table, preset.Meta, error) {
	m, err := s.Meta(ctx)
	if err != nil {
		return nil, preset.Meta{}, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT cells FROM preset_rows ORDER BY rownum`)
	if err != nil {
		return nil, preset.Meta{}, fmt.Errorf("sqlite: query rows: %w", err)
	}
	defer rows.Close()

	t := sheet.NewTable()
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, preset.Meta{}, fmt.Errorf("sqlite: scan row: %w", err)
		}
		cells, err := preset.DecodeRow([]byte(raw))
		if err != nil {
			return nil, preset.Meta{}, err
		}
		t.AppendRow(cells)
	}
	if err := rows.Err(); err != nil {
		return nil, preset.Meta{}, fmt.Errorf("sqlite: iterate rows: %w", err)
	}
	return t, m, nil
}

// Replace swaps the stored table for t inside one transaction.
func (s *Store) Replace(ctx context.Context, t *sheet.Table, m preset.Meta) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM preset_rows`); err != nil {
		return fmt.Errorf("sqlite: clear rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM preset_meta`); err != nil {
		return fmt.Errorf("sqlite: clear meta: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO preset_rows (rownum, cells) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()
	for r := 1; r <= t.MaxRow(); r++ {
		b, err := preset.EncodeRow(t.Values(r))
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, r, string(b)); err != nil {
			return fmt.Errorf("sqlite: insert row %d: %w", r, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO preset_meta (id, source, fingerprint, imported_at, row_count, col_count) VALUES (1, ?, ?, ?, ?, ?)`,
		m.Source, m.Fingerprint, m.ImportedAt.UTC().Format(time.RFC3339Nano), m.Rows, m.Columns,
	); err != nil {
		return fmt.Errorf("sqlite: insert meta: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// Delete removes the stored table. Deleting an empty store is not an error.
func (s *Store) Delete(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	for _, q := range []string{`DELETE FROM preset_rows`, `DELETE FROM preset_meta`} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("sqlite: delete: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }
