// Package analysiscache implements the depth-aware, TTL'd, single-flight
// shared analysis cache (C3): a process-wide map from wallet address to
// its most recent base snapshot, guarded by one mutex, with concurrent
// computation for the same address coalesced via
// golang.org/x/sync/singleflight. Singleflight alone does not know about
// depth upgrades, so a thin bookkeeping layer sits on top of it.
package analysiscache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Status is the outcome of a Get lookup.
type Status int

const (
	StatusMiss Status = iota
	StatusComputing
	StatusOK
)

// entry is one cache slot: computing state, monotonic write timestamp,
// the depth it was computed at, and the snapshot itself once stored.
type entry struct {
	computing bool
	ts        time.Time
	depth     int
	data      any
}

// Cache is the process-wide analysis cache. Zero value is not usable;
// construct with New.
type Cache struct {
	ttl     time.Duration
	maxWait time.Duration
	group   singleflight.Group

	mu      sync.Mutex
	entries map[string]*entry
}

// New builds a Cache with the given TTL and maximum single-flight wait.
func New(ttl, maxWait time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		maxWait: maxWait,
		entries: make(map[string]*entry),
	}
}

// getStatus reports the current cache status for addr at depthRequested,
// per the depth/TTL rule: ok is returned only when the stored depth is
// at least the requested depth and the entry is within TTL.
func (c *Cache) getStatus(addr string, depthRequested int) (Status, any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.entries[addr]
	if !found {
		return StatusMiss, nil
	}
	if e.computing {
		return StatusComputing, nil
	}
	if e.depth >= depthRequested && time.Since(e.ts) <= c.ttl {
		return StatusOK, e.data
	}
	return StatusMiss, nil
}

func (c *Cache) markComputing(addr string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.entries[addr]
	if !found {
		c.entries[addr] = &entry{computing: true}
		return
	}
	e.computing = true
}

// store writes data at depth, monotonically in (ts, depth): a write with
// a lower depth than what is already stored never downgrades the entry.
func (c *Cache) store(addr string, data any, depth int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.entries[addr]
	now := time.Now()
	if !found {
		c.entries[addr] = &entry{ts: now, depth: depth, data: data}
		return
	}
	if depth < e.depth {
		e.computing = false
		return
	}
	e.ts = now
	e.depth = depth
	e.data = data
	e.computing = false
}

// clearComputing resets the computing flag without writing data, used
// when a single-flight compute fails so other waiters fall through to a
// fresh attempt rather than spinning forever.
func (c *Cache) clearComputing(addr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, found := c.entries[addr]; found {
		e.computing = false
	}
}

// GetOrCompute returns the cached snapshot for addr at depth if one is
// fresh enough, otherwise runs compute — coalescing concurrent callers
// for the same address via singleflight — and caches the result. A
// computing entry owned by another goroutine causes this caller to
// spin-wait at a 150ms poll interval up to the cache's max wait, then
// fall through to computing itself.
func (c *Cache) GetOrCompute(ctx context.Context, addr string, depth int, compute func(ctx context.Context) (any, error)) (any, error) {
	if status, data := c.getStatus(addr, depth); status == StatusOK {
		return data, nil
	}

	deadline := time.Now().Add(c.maxWait)
	const pollInterval = 150 * time.Millisecond

	for {
		status, data := c.getStatus(addr, depth)
		switch status {
		case StatusOK:
			return data, nil
		case StatusComputing:
			if time.Now().After(deadline) {
				goto computeNow
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(pollInterval):
			}
			continue
		case StatusMiss:
			goto computeNow
		}
	}

computeNow:
	c.markComputing(addr)
	result, err, _ := c.group.Do(addr, func() (interface{}, error) {
		data, err := compute(ctx)
		if err != nil {
			c.clearComputing(addr)
			return nil, err
		}
		c.store(addr, data, depth)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Invalidate drops the cached entry for addr entirely.
func (c *Cache) Invalidate(addr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, addr)
}
