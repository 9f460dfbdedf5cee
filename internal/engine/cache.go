package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ComputeFunc recomputes a product's snapshots from the listing store.
type ComputeFunc func(ctx context.Context) (*ProductSnapshots, error)

// FreshnessCache memoizes per-product snapshots with a fixed TTL.
//
// "auto" requests return the cached entry while it is fresh and recompute
// when it is empty or stale. "force" requests always recompute and reset
// computed_at. A singleflight.Group guarantees at most one in-flight
// recomputation per product; concurrent callers for the same product await
// the in-flight result instead of racing, so a torn snapshot is impossible.
// Entries for different products never contend beyond the map lock.
type FreshnessCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	group   singleflight.Group

	ttl time.Duration
	now func() time.Time // injected clock for deterministic tests
}

type cacheEntry struct {
	snapshots  *ProductSnapshots
	computedAt time.Time
}

// NewFreshnessCache creates a cache with the given TTL. The clock defaults to
// time.Now and can be overridden with SetClock in tests.
func NewFreshnessCache(ttl time.Duration) *FreshnessCache {
	return &FreshnessCache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// SetClock replaces the cache's clock. Test hook.
func (c *FreshnessCache) SetClock(now func() time.Time) {
	c.now = now
}

// cacheKey identifies one product's snapshots over one observation window.
// Different windows are independent entries so a 7d scan never serves a 30d
// tracking request.
func cacheKey(productID string, windowDays int) string {
	return fmt.Sprintf("%s|%dd", productID, windowDays)
}

// Get returns snapshots for the product over the given window, recomputing
// per the auto/force contract. compute runs at most once per key at a time.
func (c *FreshnessCache) Get(ctx context.Context, productID string, windowDays int, force bool, compute ComputeFunc) (*ProductSnapshots, error) {
	key := cacheKey(productID, windowDays)
	if !force {
		if snaps, ok := c.lookup(key); ok {
			return snaps, nil
		}
	}

	result, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Re-check under singleflight: a concurrent auto caller may have
		// refreshed the entry while we queued.
		if !force {
			if snaps, ok := c.lookup(key); ok {
				return snaps, nil
			}
		}
		snaps, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.store(key, snaps)
		return snaps, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*ProductSnapshots), nil
}

// ComputedAt reports when the product's entry for the window was refreshed.
func (c *FreshnessCache) ComputedAt(productID string, windowDays int) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[cacheKey(productID, windowDays)]
	if !ok {
		return time.Time{}, false
	}
	return e.computedAt, true
}

// Invalidate drops all of the product's entries (used after fresh ingestion).
func (c *FreshnessCache) Invalidate(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := productID + "|"
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
}

func (c *FreshnessCache) lookup(key string) (*ProductSnapshots, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.computedAt) > c.ttl {
		// Stale entries are never returned on auto requests.
		return nil, false
	}
	return e.snapshots, true
}

func (c *FreshnessCache) store(key string, snaps *ProductSnapshots) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &cacheEntry{snapshots: snaps, computedAt: c.now()}
}
