package querycache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps entries in process, expiring them after gcTime without access
type MemoryStore struct {
	items  *gocache.Cache
	gcTime time.Duration
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(gcTime time.Duration) *MemoryStore {
	if gcTime <= 0 {
		gcTime = 5 * time.Minute
	}
	return &MemoryStore{
		items:  gocache.New(gcTime, gcTime),
		gcTime: gcTime,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (Entry, bool, error) {
	v, ok := s.items.Get(key)
	if !ok {
		return Entry{}, false, nil
	}
	entry := v.(Entry)
	// touch so active keys are not collected
	s.items.Set(key, entry, s.gcTime)
	return entry, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, storedAt time.Time) error {
	s.items.Set(key, Entry{Value: value, StoredAt: storedAt}, s.gcTime)
	return nil
}

func (s *MemoryStore) Invalidate(_ context.Context, key string) error {
	for k := range s.items.Items() {
		if covers(key, k) {
			s.items.Delete(k)
		}
	}
	return nil
}

// Len returns the number of live entries
func (s *MemoryStore) Len() int {
	return s.items.ItemCount()
}
