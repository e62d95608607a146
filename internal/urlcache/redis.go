package urlcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/richxcame/postguard/pkg/redis"
)

const redisKeyPrefix = "postguard:urlcache:"

// RedisStore keeps entries in Redis with a native expiry
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a store. A zero ttl stores keys without expiry.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(url string) string {
	return redisKeyPrefix + url
}

func (s *RedisStore) Get(ctx context.Context, url string) (Entry, bool, error) {
	raw, found, err := s.client.GetString(ctx, redisKey(url))
	if err != nil {
		return Entry{}, false, fmt.Errorf("failed to read url cache entry: %w", err)
	}
	if !found {
		return Entry{}, false, nil
	}

	// corrupt entries are dropped so a disabled checker cannot pin them
	var e Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		if delErr := s.client.Delete(ctx, redisKey(url)); delErr != nil {
			return Entry{}, false, fmt.Errorf("failed to decode url cache entry: %w (delete failed: %v)", err, delErr)
		}
		return Entry{}, false, fmt.Errorf("failed to decode url cache entry: %w", err)
	}
	return e, true, nil
}

func (s *RedisStore) Put(ctx context.Context, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode url cache entry: %w", err)
	}
	if err := s.client.SetWithExpiration(ctx, redisKey(entry.URL), string(data), s.ttl); err != nil {
		return fmt.Errorf("failed to write url cache entry: %w", err)
	}
	return nil
}
