package querycache

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisStore shares cached lists between several storefront instances
type RedisStore struct {
	client *redis.Client
	prefix string
	gcTime time.Duration
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client, prefix string, gcTime time.Duration) *RedisStore {
	if gcTime <= 0 {
		gcTime = 5 * time.Minute
	}
	return &RedisStore{client: client, prefix: prefix, gcTime: gcTime}
}

func (s *RedisStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err == redis.Nil {
		return Entry{}, false, nil
	} else if err != nil {
		return Entry{}, false, errors.Wrap(err, "cache get")
	}
	var entry Entry
	if err := jsoniter.Unmarshal(data, &entry); err != nil {
		return Entry{}, false, errors.Wrap(err, "cache decode")
	}
	s.client.Expire(ctx, s.prefix+key, s.gcTime)
	return entry, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, storedAt time.Time) error {
	data, err := jsoniter.Marshal(Entry{Value: value, StoredAt: storedAt})
	if err != nil {
		return errors.Wrap(err, "cache encode")
	}
	if err := s.client.Set(ctx, s.prefix+key, data, s.gcTime).Err(); err != nil {
		return errors.Wrap(err, "cache set")
	}
	return nil
}

func (s *RedisStore) Invalidate(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return errors.Wrap(err, "cache delete")
	}
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+key+":*", 100).Result()
		if err != nil {
			return errors.Wrap(err, "cache scan")
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return errors.Wrap(err, "cache delete")
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
