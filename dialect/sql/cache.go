package sql

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/singleflight"

	"github.com/syssam/sqlbridge"
)

// CacheDriver wraps a Driver with result caching for compiled
// statements. Entries are keyed by table, dialect, query text and
// rendered arguments, so invalidating a table drops every entry under
// its prefix. Concurrent lookups of the same key collapse into a
// single database round-trip and count as one hit or miss.
type CacheDriver struct {
	*Driver
	cache  sqlbridge.Cache
	ttl    time.Duration
	sf     singleflight.Group
	hits   atomic.Int64
	misses atomic.Int64
}

// CacheOption configures the CacheDriver.
type CacheOption func(*CacheDriver)

// WithTTL sets the expiry for cached entries. Zero keeps entries until
// their table is invalidated.
func WithTTL(ttl time.Duration) CacheOption {
	return func(d *CacheDriver) {
		d.ttl = ttl
	}
}

// NewCacheDriver wraps a Driver with result caching. A nil cache
// selects the in-memory implementation.
//
// Example:
//
//	drv, _ := sql.Open("sqlite", "file:app.db")
//	cached := sql.NewCacheDriver(drv, nil, sql.WithTTL(time.Minute))
//
//	st, _ := sql.Dialect(drv.Dialect()).Insert("users").Set("name", "Ann").Compile()
//	if _, err := cached.ExecStatement(ctx, st); err != nil {
//	    log.Fatal(err)
//	}
func NewCacheDriver(drv *Driver, cache sqlbridge.Cache, opts ...CacheOption) *CacheDriver {
	if cache == nil {
		cache = sqlbridge.NewMemoryCache()
	}
	d := &CacheDriver{Driver: drv, cache: cache}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Cache returns the underlying cache.
func (d *CacheDriver) Cache() sqlbridge.Cache {
	return d.cache
}

// Hits returns the number of lookups served from the cache.
func (d *CacheDriver) Hits() int64 {
	return d.hits.Load()
}

// Misses returns the number of lookups that reached the database.
func (d *CacheDriver) Misses() int64 {
	return d.misses.Load()
}

// QueryCached executes a compiled statement and serves repeated
// lookups from the cache. The cache check runs inside the flight, so
// a lookup landing right after a concurrent fill still sees the fresh
// entry instead of querying again. Undecodable entries count as
// misses and are refreshed; cache write failures do not fail the
// query.
func (d *CacheDriver) QueryCached(ctx context.Context, st *Statement, format string) (*ResultHandle, error) {
	key := d.key(st)
	v, err, _ := d.sf.Do(key, func() (any, error) {
		if raw, err := d.cache.Get(ctx, key); err == nil && raw != nil {
			if h, err := decodeRows(raw); err == nil {
				d.hits.Add(1)
				return h, nil
			}
		}
		d.misses.Add(1)
		stmt, err := d.PrepareStatement(ctx, st)
		if err != nil {
			return nil, err
		}
		defer stmt.Close()
		h, err := stmt.Query(ctx, nil, format)
		if err != nil {
			return nil, err
		}
		if raw, err := encodeRows(h); err == nil {
			_ = d.cache.Set(ctx, key, raw, d.ttl)
		}
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ResultHandle), nil
}

// ExecStatement executes a compiled statement and invalidates every
// cached entry of its table. The exec outcome is returned alongside an
// invalidation error so write results are never lost.
func (d *CacheDriver) ExecStatement(ctx context.Context, st *Statement) (*ResultHandle, error) {
	stmt, err := d.PrepareStatement(ctx, st)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()
	h, err := stmt.Exec(ctx, nil)
	if err != nil {
		return nil, err
	}
	if table := st.Table(); table != "" {
		if err := d.Invalidate(ctx, table); err != nil {
			return h, err
		}
	}
	return h, nil
}

// Invalidate drops every cached entry of the given table.
func (d *CacheDriver) Invalidate(ctx context.Context, table string) error {
	return d.cache.DeletePrefix(ctx, table+":")
}

func (d *CacheDriver) key(st *Statement) string {
	return sqlbridge.CacheKey{
		Table:   st.Table(),
		Dialect: st.Dialect(),
		Query:   st.SQL(),
		Args:    fmt.Sprint(st.Args()...),
	}.String()
}

// cachedRows is the msgpack wire form of a cached query result.
type cachedRows struct {
	Format  string   `msgpack:"f"`
	Columns []string `msgpack:"c"`
	Values  [][]any  `msgpack:"v"`
}

func encodeRows(h *ResultHandle) ([]byte, error) {
	return msgpack.Marshal(cachedRows{Format: h.format, Columns: h.cols, Values: h.vals})
}

func decodeRows(raw []byte) (*ResultHandle, error) {
	var c cachedRows
	if err := msgpack.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	return &ResultHandle{format: c.Format, cols: c.Columns, vals: c.Values}, nil
}
