package querycache

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Client serves resource reads from a Store and coalesces identical
// concurrent reads into one backend request.
type Client struct {
	store     Store
	staleTime time.Duration
	group     singleflight.Group
	now       func() time.Time

	mu     sync.Mutex
	gens   map[string]uint64
	stamps map[string]time.Time // last invalidation per resource

	hits          atomic.Uint64
	misses        atomic.Uint64
	fetches       atomic.Uint64
	invalidations atomic.Uint64
	errs          atomic.Uint64
}

// Stats tracks cache statistics
type Stats struct {
	Hits          uint64 `json:"hits"`
	Misses        uint64 `json:"misses"`
	Fetches       uint64 `json:"fetches"`
	Invalidations uint64 `json:"invalidations"`
	Errors        uint64 `json:"errors"`
}

// NewClient creates a client; entries younger than staleTime are served
// without contacting the backend, a zero staleTime always refetches.
func NewClient(store Store, staleTime time.Duration) *Client {
	return &Client{
		store:     store,
		staleTime: staleTime,
		now:       time.Now,
		gens:      make(map[string]uint64),
		stamps:    make(map[string]time.Time),
	}
}

func rootKey(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i]
	}
	return key
}

func (c *Client) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[rootKey(key)]
}

// fresh reports whether an entry may be served without refetching
func (c *Client) fresh(key string, e Entry) bool {
	if c.staleTime <= 0 || c.now().Sub(e.StoredAt) >= c.staleTime {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return e.StoredAt.After(c.stamps[rootKey(key)])
}

// Fetch returns the cached value for key or loads it with fn.
// A shared load runs detached from the caller that started it, so a caller
// leaving early only abandons its own wait; fn is expected to bound itself
// (the gateways carry their own request timeout).
func Fetch[T any](ctx context.Context, c *Client, key string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	entry, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.errs.Add(1)
		zap.L().Warn("query cache read failed", zap.String("namespace", "querycache"), zap.String("key", key), zap.Error(err))
	}
	if ok && c.fresh(key, entry) {
		var v T
		if err := jsoniter.Unmarshal(entry.Value, &v); err == nil {
			c.hits.Add(1)
			return v, nil
		}
		c.errs.Add(1)
	}
	c.misses.Add(1)

	gen := c.generation(key)
	flightKey := key + "#" + strconv.FormatUint(gen, 10)
	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(flightKey, func() (interface{}, error) {
		c.fetches.Add(1)
		v, err := fn(loadCtx)
		if err != nil {
			return nil, err
		}
		b, err := jsoniter.Marshal(v)
		if err != nil {
			return nil, errors.Wrap(err, "encode query result")
		}
		// a mutation invalidated the key while we were reading: do not cache the old rows
		if c.generation(key) == gen {
			if err := c.store.Set(loadCtx, key, b, c.now()); err != nil {
				c.errs.Add(1)
				zap.L().Warn("query cache write failed", zap.String("namespace", "querycache"), zap.String("key", key), zap.Error(err))
			}
		}
		return b, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return zero, res.Err
	}
	var v T
	if err := jsoniter.Unmarshal(res.Val.([]byte), &v); err != nil {
		return zero, errors.Wrap(err, "decode query result")
	}
	return v, nil
}

// Invalidate marks key and its sub-keys stale so the next read refetches
func (c *Client) Invalidate(ctx context.Context, key string) error {
	root := rootKey(key)
	c.mu.Lock()
	c.gens[root]++
	c.stamps[root] = c.now()
	c.mu.Unlock()
	c.invalidations.Add(1)
	if err := c.store.Invalidate(ctx, key); err != nil {
		c.errs.Add(1)
		return errors.Wrapf(err, "invalidate %s", key)
	}
	return nil
}

// Stats returns a snapshot of the counters
func (c *Client) Stats() Stats {
	return Stats{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Fetches:       c.fetches.Load(),
		Invalidations: c.invalidations.Load(),
		Errors:        c.errs.Load(),
	}
}
