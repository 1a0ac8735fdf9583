package preset

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"pimformat/internal/datasource/file"
	"pimformat/internal/sheet"
)

// Cache is the preset table handle a run works against. It loads the table
// from its Store at most once until invalidated, collapses concurrent loads
// and imports, and is safe for concurrent use. Imports of different sources
// run one after another; the last one to finish wins in both the store and
// memory.
//
// The *sheet.Table it hands out is shared and must not be modified.
type Cache struct {
	store Store
	comma rune
	log   *zap.Logger
	now   func() time.Time

	sf singleflight.Group
	// writeMu serializes store writes with the in-memory copy so the two
	// never hold different tables.
	writeMu sync.Mutex

	mu     sync.RWMutex
	table  *sheet.Table
	meta   Meta
	loaded bool
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithComma sets the delimiter used when importing .csv sources.
func WithComma(r rune) CacheOption { return func(c *Cache) { c.comma = r } }

// WithLogger sets the logger. The default discards.
func WithLogger(l *zap.Logger) CacheOption { return func(c *Cache) { c.log = l } }

// WithClock replaces time.Now for import timestamps.
func WithClock(now func() time.Time) CacheOption { return func(c *Cache) { c.now = now } }

// NewCache returns an empty handle over store.
func NewCache(store Store, opts ...CacheOption) *Cache {
	c := &Cache{store: store, comma: ',', log: zap.NewNop(), now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get returns the preset table, loading it from the store on first use.
// It returns ErrNotFound when nothing was ever imported.
func (c *Cache) Get(ctx context.Context) (*sheet.Table, Meta, error) {
	if t, m, ok := c.cached(); ok {
		return t, m, nil
	}
	v, err, _ := c.sf.Do("load", func() (any, error) {
		c.writeMu.Lock()
		defer c.writeMu.Unlock()
		if t, m, ok := c.cached(); ok {
			return entry{t, m}, nil
		}
		t, m, err := c.store.Load(ctx)
		if err != nil {
			return nil, err
		}
		c.set(t, m)
		c.log.Debug("preset table loaded from store", zap.Int("rows", m.Rows), zap.String("source", m.Source))
		return entry{t, m}, nil
	})
	if err != nil {
		return nil, Meta{}, err
	}
	e := v.(entry)
	return e.table, e.meta, nil
}

// Import makes the file at path the preset table. When the stored table was
// imported from content with the same fingerprint, the stored copy is reused
// and imported is false. Otherwise the file is parsed and the store is fully
// replaced.
func (c *Cache) Import(ctx context.Context, path string) (m Meta, imported bool, err error) {
	fp, err := file.Fingerprint(ctx, file.NewLocal(path))
	if err != nil {
		return Meta{}, false, fmt.Errorf("preset: %w", err)
	}
	v, err, _ := c.sf.Do("import:"+fp, func() (any, error) {
		c.writeMu.Lock()
		defer c.writeMu.Unlock()
		if cur, err := c.currentMeta(ctx); err == nil && cur.Fingerprint == fp {
			c.log.Debug("preset source unchanged, reusing stored table",
				zap.String("source", path), zap.String("fingerprint", fp))
			return importResult{meta: cur}, nil
		} else if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}

		t, err := ReadSource(ctx, path, c.comma)
		if err != nil {
			return nil, err
		}
		meta := MetaOf(t, path, fp, c.now())
		if err := c.store.Replace(ctx, t, meta); err != nil {
			return nil, err
		}
		c.set(t, meta)
		c.log.Info("preset table imported",
			zap.String("source", path), zap.Int("rows", meta.Rows), zap.String("fingerprint", fp))
		return importResult{meta: meta, imported: true}, nil
	})
	if err != nil {
		return Meta{}, false, err
	}
	r := v.(importResult)
	return r.meta, r.imported, nil
}

// Ensure returns the preset table, first importing path when it is set.
func (c *Cache) Ensure(ctx context.Context, path string) (*sheet.Table, Meta, error) {
	if path != "" {
		if _, _, err := c.Import(ctx, path); err != nil {
			return nil, Meta{}, err
		}
	}
	return c.Get(ctx)
}

// Status reports the stored table's metadata without loading its rows.
func (c *Cache) Status(ctx context.Context) (Meta, error) {
	return c.currentMeta(ctx)
}

// Delete removes the stored table and drops the in-memory copy.
func (c *Cache) Delete(ctx context.Context) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.store.Delete(ctx); err != nil {
		return err
	}
	c.Invalidate()
	return nil
}

// Invalidate drops the in-memory copy; the next Get reloads from the store.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.table, c.meta, c.loaded = nil, Meta{}, false
	c.mu.Unlock()
}

// Close closes the underlying store.
func (c *Cache) Close() error { return c.store.Close() }

type entry struct {
	table *sheet.Table
	meta  Meta
}

type importResult struct {
	meta     Meta
	imported bool
}

func (c *Cache) cached() (*sheet.Table, Meta, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.table, c.meta, c.loaded
}

func (c *Cache) set(t *sheet.Table, m Meta) {
	c.mu.Lock()
	c.table, c.meta, c.loaded = t, m, true
	c.mu.Unlock()
}

func (c *Cache) currentMeta(ctx context.Context) (Meta, error) {
	if _, m, ok := c.cached(); ok {
		return m, nil
	}
	return c.store.Meta(ctx)
}
