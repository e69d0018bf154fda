// Package cache holds the note list cache. Values are opaque bytes so the
// in-process and Redis backends are interchangeable.
package cache

import (
	"context"
	"sync"
	"time"
)

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte) error
	Delete(ctx context.Context, key string) error

	// Version reads the counter under key, zero when it was never bumped.
	Version(ctx context.Context, key string) (int64, error)
	// Bump advances the counter under key and returns the new value.
	Bump(ctx context.Context, key string) (int64, error)
}

// sweepEvery bounds how many Sets go by between purges of expired entries.
const sweepEvery = 256

// Memory is a process-local TTL cache. Counters never expire.
type Memory struct {
	mu   sync.RWMutex
	ttl  time.Duration
	m    map[string]entry
	gens map[string]int64
	sets int
}
type entry struct {
	val []byte
	exp time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Memory{
		ttl:  ttl,
		m:    make(map[string]entry),
		gens: make(map[string]int64),
	}
}

func (c *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	now := time.Now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	if now.After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false, nil
	}

	return e.val, true, nil
}

func (c *Memory) Set(_ context.Context, key string, val []byte) error {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.m[key] = entry{val: val, exp: now.Add(c.ttl)}

	// entries keyed by a superseded version are never read again
	c.sets++
	if c.sets%sweepEvery == 0 {
		for k, e := range c.m {
			if now.After(e.exp) {
				delete(c.m, k)
			}
		}
	}

	return nil
}

func (c *Memory) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
	return nil
}

func (c *Memory) Version(_ context.Context, key string) (int64, error) {
	c.mu.RLock()
	v := c.gens[key]
	c.mu.RUnlock()
	return v, nil
}

func (c *Memory) Bump(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	c.gens[key]++
	v := c.gens[key]
	c.mu.Unlock()
	return v, nil
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Noop) Set(context.Context, string, []byte) error         { return nil }
func (Noop) Delete(context.Context, string) error              { return nil }
func (Noop) Version(context.Context, string) (int64, error)    { return 0, nil }
func (Noop) Bump(context.Context, string) (int64, error)       { return 0, nil }
