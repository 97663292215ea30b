// Package cache holds the UI-visible listings (assistants and their documents) so repeated page
// loads do not re-scan the index. Entries are invalidated on every registry mutation.
package cache

import (
	"context"
	"encoding/json"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

type Cache interface {
	// Get decodes the cached value into dst and reports whether it was present.
	Get(ctx context.Context, key string, dst interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, keys ...string) error
}

const keyPrefix = "study-assistant:listing:"

func AssistantsKey() string {
	return keyPrefix + "assistants"
}

func DocumentsKey(assistant string) string {
	return keyPrefix + "documents:" + assistant
}

// ListingKeys are the keys that show anything about assistant.
func ListingKeys(assistant string) []string {
	return []string{AssistantsKey(), DocumentsKey(assistant)}
}

// Memory is a process-local cache on go-cache. Values are stored encoded so callers never
// share slices with the cache.
type Memory struct {
	c   *gocache.Cache
	ttl time.Duration
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{c: gocache.New(ttl, 10*time.Minute), ttl: ttl}
}

func (m *Memory) Get(_ context.Context, key string, dst interface{}) (bool, error) {
	raw, found := m.c.Get(key)
	if !found {
		return false, nil
	}
	if err := json.Unmarshal(raw.([]byte), dst); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Memory) Set(_ context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.c.Set(key, raw, m.ttl)
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		m.c.Delete(k)
	}
	return nil
}

// Redis shares listings between instances.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	raw, err := r.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, key, raw, r.ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.rdb.Del(ctx, keys...).Err()
}
