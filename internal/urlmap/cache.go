// internal/urlmap/cache.go
//
// Read-through, write-through mapping cache.
//
// Context
// -------
// Resolution is hot; the store is not.  Cache fronts the Store with a
// generic TTL key-value tier (memory or Redis) keyed by
// "urlmap:1:<hexdigest>" and holding the JSON-serialized record.
//
// Read path: probe the key-value tier first; on a hit the store is never
// touched.  On a miss, concurrent lookups for the same key collapse into
// one store read via singleflight, and a found record is cached under the
// configured TTL before returning.  A miss on both tiers returns
// ErrNotFound and caches nothing, because absence may change the moment a
// record is authored.
//
// Write path: Save persists through the Store, then overwrites the cache
// entry for the record's fresh digest with the same TTL.  Reads issued
// immediately after a save therefore see the new value with zero store
// round trips.  When a save changes site or path, the entry under the old
// digest is left to expire; staleness is bounded by the TTL.
//
// Notes
// -----
// • Transport errors from either tier propagate untouched.  No retries,
//   no circuit breaking; that resilience belongs to the clients.
// • Oxford commas, two spaces after periods.

package urlmap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yanizio/urlmap/internal/kvcache"
	"github.com/yanizio/urlmap/internal/metrics"
	"github.com/yanizio/urlmap/internal/site"
)

// CachePrefix namespaces mapping keys in a shared key-value tier.  The
// "1" is a serialization version; bump it when the Record JSON shape
// changes incompatibly.
const CachePrefix = "urlmap:1:"

// DefaultTTL bounds cache staleness when the constructor is given no TTL.
const DefaultTTL = 5 * time.Minute

// Cache pairs the Store with a key-value tier.  Construct with NewCache;
// the zero value is unusable.
type Cache struct {
	store *Store
	kv    kvcache.Cache
	ttl   time.Duration
	sfg   singleflight.Group
}

// NewCache wires store and kv together.  ttl <= 0 selects DefaultTTL.
func NewCache(store *Store, kv kvcache.Cache, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{store: store, kv: kv, ttl: ttl}
}

// Store exposes the authoritative store for callers that need raw,
// cache-bypassing access (admin tooling, tests).
func (c *Cache) Store() *Store { return c.store }

// Get returns the record for (st, canonicalPath).  At most one store read
// happens per cache miss, no matter how many resolutions race on the key.
func (c *Cache) Get(ctx context.Context, st *site.Record, canonicalPath string) (*Record, error) {
	key := CachePrefix + Hexdigest(st.Host, canonicalPath)

	b, err := c.kv.Get(ctx, key)
	switch {
	case err == nil:
		metrics.CacheHitTotal.Inc()
		return decodeRecord(b)
	case !errors.Is(err, kvcache.ErrNotFound):
		return nil, err
	}

	metrics.CacheMissTotal.Inc()

	v, err, _ := c.sfg.Do(key, func() (interface{}, error) {
		// Re-probe after the barrier: a flight that finished while this
		// caller waited has already populated the key.
		if b, kerr := c.kv.Get(ctx, key); kerr == nil {
			return decodeRecord(b)
		}
		rec, err := c.store.GetByKey(ctx, st.ID, canonicalPath)
		if err != nil {
			// ErrNotFound included: a negative result is never cached.
			return nil, err
		}
		if err := c.put(ctx, key, rec); err != nil {
			return nil, err
		}
		return rec, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Record), nil
}

// Save persists rec and writes it through to the cache.  Any validation
// or transport error leaves the cache untouched.
func (c *Cache) Save(ctx context.Context, rec *Record) error {
	if err := c.store.Save(ctx, rec); err != nil {
		return err
	}
	if err := c.put(ctx, CachePrefix+rec.Hexdigest, rec); err != nil {
		return err
	}
	metrics.WriteThroughTotal.Inc()
	return nil
}

// Create builds a record for (st, path, statusCode) and saves it through
// the cache.  The path must already be canonical.
func (c *Cache) Create(ctx context.Context, st *site.Record, path string, statusCode int) (*Record, error) {
	rec := New(st, path, statusCode)
	if err := c.Save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func decodeRecord(b []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("urlmap: decode cached record: %w", err)
	}
	return &rec, nil
}

func (c *Cache) put(ctx context.Context, key string, rec *Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("urlmap: encode record: %w", err)
	}
	return c.kv.Set(ctx, key, b, c.ttl)
}
