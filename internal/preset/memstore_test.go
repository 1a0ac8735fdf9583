package preset

import (
	"context"
	"sync"
	"sync/atomic"

	"pimformat/internal/sheet"
)

// memStore is an in-memory Store that counts calls.
type memStore struct {
	mu       sync.Mutex
	table    *sheet.Table
	meta     Meta
	ok       bool
	loads    atomic.Int32
	replaces atomic.Int32
}

func (s *memStore) Load(ctx context.Context) (*sheet.Table, Meta, error) {
	s.loads.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ok {
		return nil, Meta{}, ErrNotFound
	}
	return s.table.Clone(), s.meta, nil
}

func (s *memStore) Meta(ctx context.Context) (Meta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ok {
		return Meta{}, ErrNotFound
	}
	return s.meta, nil
}

func (s *memStore) Replace(ctx context.Context, t *sheet.Table, m Meta) error {
	s.replaces.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table, s.meta, s.ok = t.Clone(), m, true
	return nil
}

func (s *memStore) Delete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table, s.meta, s.ok = nil, Meta{}, false
	return nil
}

func (s *memStore) Close() error { return nil }
