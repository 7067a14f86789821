// internal/site/cache.go
//
// Lazy host → site cache.
//
// Context
// -------
// Every request starts by mapping the Host header to a site row.  Rows
// are tiny and change rarely, so they are loaded on first hit, kept in a
// sync.Map, and evicted after an idle TTL by a background sweeper.
// Concurrent first hits for the same host are collapsed with
// singleflight so the store sees one query per cold host.
//
// Notes
// -----
// • Entries hold plain rows, so eviction needs no teardown beyond Delete.
// • Oxford commas, two spaces after periods.

package site

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/urlmap/internal/metrics"
)

// Static defaults.  Override via NewCache arguments.
const (
	IdleTTL       = 30 * time.Minute
	EvictInterval = 5 * time.Minute
)

type entry struct {
	rec      *Record
	lastSeen int64 // UnixNano
}

// Cache lazily loads site rows and evicts them on idle TTL.
type Cache struct {
	db          *sqlx.DB
	sfg         singleflight.Group
	m           sync.Map
	evictTicker *time.Ticker
	idleTTL     time.Duration
	done        chan struct{}
	closeOnce   sync.Once
}

// NewCache constructs a Cache and starts the background sweeper.
func NewCache(db *sqlx.DB, idleTTL time.Duration) *Cache {
	if idleTTL <= 0 {
		idleTTL = IdleTTL
	}
	c := &Cache{db: db, idleTTL: idleTTL, done: make(chan struct{})}
	c.evictTicker = time.NewTicker(EvictInterval)
	go c.evictLoop()
	return c
}

// Close stops the background sweeper.  The cache remains usable; idle
// entries simply stop being evicted.
func (c *Cache) Close() {
	c.closeOnce.Do(func() {
		c.evictTicker.Stop()
		close(c.done)
	})
}

// Get returns the site row for host, loading it on demand.
func (c *Cache) Get(ctx context.Context, host string) (*Record, error) {
	if v, ok := c.m.Load(host); ok {
		ent := v.(*entry)
		atomic.StoreInt64(&ent.lastSeen, time.Now().UnixNano())
		return ent.rec, nil
	}

	v, err, _ := c.sfg.Do(host, func() (interface{}, error) {
		// Double-check after singleflight barrier.
		if v, ok := c.m.Load(host); ok {
			ent := v.(*entry)
			atomic.StoreInt64(&ent.lastSeen, time.Now().UnixNano())
			return ent.rec, nil
		}
		rec, err := ByHost(ctx, c.db, host)
		if err != nil {
			metrics.SiteLoadErrorsTotal.Inc()
			return nil, err
		}
		c.m.Store(host, &entry{rec: rec, lastSeen: time.Now().UnixNano()})
		metrics.SiteLoadTotal.Inc()
		metrics.ActiveSites.Inc()
		return rec, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Record), nil
}

func (c *Cache) evictLoop() {
	for {
		select {
		case <-c.done:
			return
		case <-c.evictTicker.C:
			now := time.Now().UnixNano()
			c.m.Range(func(key, value any) bool {
				ent := value.(*entry)
				idle := time.Duration(now - atomic.LoadInt64(&ent.lastSeen))
				if idle > c.idleTTL {
					c.m.Delete(key)
					metrics.ActiveSites.Dec()
					zap.L().Debug("site evicted",
						zap.String("host", key.(string)),
						zap.Duration("idle", idle.Truncate(time.Second)))
				}
				return true
			})
		}
	}
}
