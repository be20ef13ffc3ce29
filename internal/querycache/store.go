// Package querycache holds transient client-side copies of resource lists.
// Entries are keyed by resource name, invalidated after mutations and dropped
// after a period of inactivity; nothing survives a process restart unless a
// shared Redis store is configured.
package querycache

import (
	"context"
	"strings"
	"time"
)

// Entry is one cached query result
type Entry struct {
	Value    []byte
	StoredAt time.Time
}

// Store is the injectable backing store of the query cache.
// Invalidate drops the key itself and every sub-key "key:...".
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, value []byte, storedAt time.Time) error
	Invalidate(ctx context.Context, key string) error
}

// SubKey builds a key that is invalidated together with its parent
func SubKey(parent string, parts ...string) string {
	return parent + ":" + strings.Join(parts, ":")
}

func covers(key, candidate string) bool {
	return candidate == key || strings.HasPrefix(candidate, key+":")
}
