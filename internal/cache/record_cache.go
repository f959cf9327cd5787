package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	dom "Vault/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	keyList   = "vault:records:list"
	keySearch = "vault:records:search:"
	keySort   = "vault:records:sort:"
)

// RecordCache caches list, search, and sort results in Redis.
type RecordCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRecordCache returns a new RecordCache.
func NewRecordCache(rdb *redis.Client, ttl time.Duration) *RecordCache {
	return &RecordCache{rdb: rdb, ttl: ttl}
}

// GetList returns cached list or nil if miss.
func (c *RecordCache) GetList(ctx context.Context) ([]dom.Record, error) {
	return c.get(ctx, keyList)
}

// SetList stores the list in cache.
func (c *RecordCache) SetList(ctx context.Context, list []dom.Record) error {
	return c.set(ctx, keyList, list)
}

// GetSearch returns the cached result of searching by field for keyword, or nil if miss.
func (c *RecordCache) GetSearch(ctx context.Context, by, keyword string) ([]dom.Record, error) {
	return c.get(ctx, SearchKey(by, keyword))
}

// SetSearch stores a search result in cache.
func (c *RecordCache) SetSearch(ctx context.Context, by, keyword string, list []dom.Record) error {
	return c.set(ctx, SearchKey(by, keyword), list)
}

// GetSorted returns the cached ordering for key/desc, or nil if miss.
func (c *RecordCache) GetSorted(ctx context.Context, key string, desc bool) ([]dom.Record, error) {
	return c.get(ctx, SortKey(key, desc))
}

// SetSorted stores an ordering in cache.
func (c *RecordCache) SetSorted(ctx context.Context, key string, desc bool, list []dom.Record) error {
	return c.set(ctx, SortKey(key, desc), list)
}

// InvalidateAll removes list, search and sort keys (cache invalidation on write).
func (c *RecordCache) InvalidateAll(ctx context.Context) error {
	if err := c.rdb.Del(ctx, keyList).Err(); err != nil {
		return err
	}
	for _, prefix := range []string{keySearch, keySort} {
		iter := c.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
		for iter.Next(ctx) {
			if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
				return err
			}
		}
		if err := iter.Err(); err != nil {
			return err
		}
	}
	return nil
}

// SearchKey is the cache key of a search. Id lookups are exact, so only name
// keywords are normalized.
func SearchKey(by, keyword string) string {
	if by == "id" {
		return keySearch + "id:" + keyword
	}
	return keySearch + "name:" + strings.ToLower(keyword)
}

// SortKey is the cache key of an ordering.
func SortKey(key string, desc bool) string {
	dir := "asc"
	if desc {
		dir = "desc"
	}
	return keySort + dir + ":" + key
}

func (c *RecordCache) get(ctx context.Context, key string) ([]dom.Record, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	list := []dom.Record{}
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *RecordCache) set(ctx context.Context, key string, list []dom.Record) error {
	if list == nil {
		list = []dom.Record{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}
