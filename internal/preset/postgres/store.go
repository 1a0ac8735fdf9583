// Package postgres implements a Postgres-backed preset.Store using pgx v5.
// Rows are bulk-loaded with COPY inside the replacing transaction, so a
// shared database never exposes a half-imported preset table.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"pimformat/internal/preset"
	"pimformat/internal/sheet"
)

const schema = `
CREATE TABLE IF NOT EXISTS preset_meta (
	id          integer PRIMARY KEY CHECK (id = 1),
	source      text        NOT NULL,
	fingerprint text        NOT NULL,
	imported_at timestamptz NOT NULL,
	row_count   integer     NOT NULL,
	col_count   integer     NOT NULL
);
CREATE TABLE IF NOT EXISTS preset_rows (
	rownum integer PRIMARY KEY,
	cells  jsonb NOT NULL
);`

// Store is a Postgres-backed preset.Store.
type Store struct {
	pool *pgxpool.Pool
}

var _ preset.Store = (*Store)(nil)

func init() {
	preset.Register("postgres", func(ctx context.Context, cfg preset.Config) (preset.Store, error) {
		return New(ctx, cfg.DSN)
	})
}

// New connects to dsn and ensures the schema exists.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: create schema: %w", describe(err))
	}
	return &Store{pool: pool}, nil
}

// Meta returns the stored import metadata.
func (s *Store) Meta(ctx context.Context) (preset.Meta, error) {
	var m preset.Meta
	err := s.pool.QueryRow(ctx,
		`SELECT source, fingerprint, imported_at, row_count, col_count FROM preset_meta WHERE id = 1`,
	).Scan(&m.Source, &m.Fingerprint, &m.ImportedAt, &m.Rows, &m.Columns)
	if errors.Is(err, pgx.ErrNoRows) {
		return preset.Meta{}, preset.ErrNotFound
	}
	if err != nil {
		return preset.Meta{}, fmt.Errorf("postgres: read meta: %w", describe(err))
	}
	m.ImportedAt = m.ImportedAt.UTC()
	return m, nil
}

// Load reads the whole table in row order.
func (s *Store) Load(ctx context.Context) (*sheet.Table, preset.Meta, error) {
	m, err := s.Meta(ctx)
	if err != nil {
		return nil, preset.Meta{}, err
	}
	rows, err := s.pool.Query(ctx, `SELECT cells FROM preset_rows ORDER BY rownum`)
	if err != nil {
		return nil, preset.Meta{}, fmt.Errorf("postgres: query rows: %w", describe(err))
	}
	defer rows.Close()

	t := sheet.NewTable()
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, preset.Meta{}, fmt.Errorf("postgres: scan row: %w", err)
		}
		cells, err := preset.DecodeRow(raw)
		if err != nil {
			return nil, preset.Meta{}, err
		}
		t.AppendRow(cells)
	}
	if err := rows.Err(); err != nil {
		return nil, preset.Meta{}, fmt.Errorf("postgres: iterate rows: %w", describe(err))
	}
	return t, m, nil
}

// Replace swaps the stored table for t: truncate, COPY the rows, write the
// metadata, all in one transaction.
func (s *Store) Replace(ctx context.Context, t *sheet.Table, m preset.Meta) error {
	src := make([][]any, 0, t.MaxRow())
	for r := 1; r <= t.MaxRow(); r++ {
		b, err := preset.EncodeRow(t.Values(r))
		if err != nil {
			return err
		}
		src = append(src, []any{int32(r), b})
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `TRUNCATE preset_rows, preset_meta`); err != nil {
		return fmt.Errorf("postgres: truncate: %w", describe(err))
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"preset_rows"}, []string{"rownum", "cells"}, pgx.CopyFromRows(src)); err != nil {
		return fmt.Errorf("postgres: copy rows: %w", describe(err))
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO preset_meta (id, source, fingerprint, imported_at, row_count, col_count) VALUES (1, $1, $2, $3, $4, $5)`,
		m.Source, m.Fingerprint, m.ImportedAt.UTC(), m.Rows, m.Columns,
	); err != nil {
		return fmt.Errorf("postgres: insert meta: %w", describe(err))
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

// Delete removes the stored table.
func (s *Store) Delete(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `TRUNCATE preset_rows, preset_meta`); err != nil {
		return fmt.Errorf("postgres: delete: %w", describe(err))
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// describe folds server-side detail into the error text while keeping the
// original error in the chain.
func describe(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%s (SQLSTATE %s, detail: %s): %w", pgErr.Message, pgErr.Code, pgErr.Detail, err)
	}
	return err
}
