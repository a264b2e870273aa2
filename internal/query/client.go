// Package query caches the results of named read queries so pages can
// render from memory and explicitly invalidate or refetch them.
package query

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Fetcher loads the current value for a key from its source.
type Fetcher func(ctx context.Context) (interface{}, error)

// Entry is the cached state of one key.
type Entry struct {
	Data      interface{}
	Err       error
	FetchedAt time.Time
	Stale     bool
}

type entry struct {
	Entry
	generation uint64
}

// Client is a keyed query cache. Concurrent fetches of the same key share a
// single call to the fetcher. A fetch already running is never cancelled.
type Client struct {
	mu       sync.RWMutex
	fetchers map[string]Fetcher
	entries  map[string]*entry
	group    singleflight.Group
	now      func() time.Time
	logger   *zap.Logger
}

func NewClient(logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		fetchers: make(map[string]Fetcher),
		entries:  make(map[string]*entry),
		now:      time.Now,
		logger:   logger,
	}
}

// Register binds a fetcher to key, replacing any previous one.
func (c *Client) Register(key string, fetcher Fetcher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchers[key] = fetcher
}

// Fetch returns the cached value for key, loading it first when the key has
// never been fetched, was invalidated, or last failed.
func (c *Client) Fetch(ctx context.Context, key string) (interface{}, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	var cached Entry
	if ok {
		cached = e.Entry
	}
	c.mu.RUnlock()

	if ok && !cached.Stale && cached.Err == nil {
		return cached.Data, nil
	}
	return c.Refetch(ctx, key)
}

// Refetch loads key from its source regardless of cache state.
func (c *Client) Refetch(ctx context.Context, key string) (interface{}, error) {
	c.mu.RLock()
	fetcher, ok := c.fetchers[key]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("query %s not registered", key)
	}

	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		gen := c.generation(key)
		data, err := fetcher(ctx)
		c.store(key, gen, data, err)
		return data, err
	})
	if shared {
		c.logger.Debug("query fetch shared", zap.String("key", key))
	}
	return v, err
}

// Invalidate marks key stale so the next Fetch goes to the source. A fetch
// in progress when Invalidate is called stores its result as stale.
func (c *Client) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	e.generation++
	e.Stale = true
}

// Snapshot returns the cached entry for key without fetching.
func (c *Client) Snapshot(key string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || e.FetchedAt.IsZero() {
		return Entry{}, false
	}
	return e.Entry, true
}

func (c *Client) generation(key string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.entries[key]; ok {
		return e.generation
	}
	return 0
}

func (c *Client) store(key string, gen uint64, data interface{}, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	e.FetchedAt = c.now()
	e.Err = err
	if err == nil {
		e.Data = data
	}
	e.Stale = err != nil || e.generation != gen
}
