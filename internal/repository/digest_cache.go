package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"aidigest/internal/model"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

const (
	digestCacheKeyPrefix = "aidigest:digest:"
	memoryCacheSize      = 64
)

type DigestStore interface {
	GetByDate(ctx context.Context, date string) (*model.Digest, error)
	InsertIfAbsent(ctx context.Context, d *model.Digest) (*model.Digest, bool, error)
	ListDates(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}

// DigestCache is a best-effort hot copy of durable records. Misses and
// failures fall through to the store.
type DigestCache interface {
	Get(ctx context.Context, date string) (*model.Digest, bool)
	Set(ctx context.Context, d *model.Digest)
	Delete(ctx context.Context, date string)
}

type RedisDigestCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDigestCache(client *redis.Client, ttl time.Duration) *RedisDigestCache {
	return &RedisDigestCache{client: client, ttl: ttl}
}

func (c *RedisDigestCache) Get(ctx context.Context, date string) (*model.Digest, bool) {
	data, err := c.client.Get(ctx, digestCacheKeyPrefix+date).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("redis cache get failed", "date", date, "error", err)
		return nil, false
	}

	var d model.Digest
	if err := json.Unmarshal(data, &d); err != nil {
		slog.Warn("redis cache entry unreadable", "date", date, "error", err)
		return nil, false
	}
	return &d, true
}

func (c *RedisDigestCache) Set(ctx context.Context, d *model.Digest) {
	data, err := json.Marshal(d)
	if err != nil {
		slog.Warn("redis cache encode failed", "date", d.Date, "error", err)
		return
	}
	if err := c.client.Set(ctx, digestCacheKeyPrefix+d.Date, data, c.ttl).Err(); err != nil {
		slog.Warn("redis cache set failed", "date", d.Date, "error", err)
	}
}

func (c *RedisDigestCache) Delete(ctx context.Context, date string) {
	if err := c.client.Del(ctx, digestCacheKeyPrefix+date).Err(); err != nil {
		slog.Warn("redis cache delete failed", "date", date, "error", err)
	}
}

type MemoryDigestCache struct {
	cache *lru.LRU[string, model.Digest]
}

func NewMemoryDigestCache(ttl time.Duration) *MemoryDigestCache {
	return &MemoryDigestCache{cache: lru.NewLRU[string, model.Digest](memoryCacheSize, nil, ttl)}
}

func (c *MemoryDigestCache) Get(_ context.Context, date string) (*model.Digest, bool) {
	d, ok := c.cache.Get(date)
	if !ok {
		return nil, false
	}
	return &d, true
}

func (c *MemoryDigestCache) Set(_ context.Context, d *model.Digest) {
	c.cache.Add(d.Date, *d)
}

func (c *MemoryDigestCache) Delete(_ context.Context, date string) {
	c.cache.Remove(date)
}

// CachedDigestRepository reads through cache before store. The cache only
// ever holds records that the store has already accepted.
type CachedDigestRepository struct {
	store DigestStore
	cache DigestCache
}

func NewCachedDigestRepository(store DigestStore, cache DigestCache) *CachedDigestRepository {
	return &CachedDigestRepository{store: store, cache: cache}
}

// GetByDate reports whether the record came from the hot cache.
func (r *CachedDigestRepository) GetByDate(ctx context.Context, date string) (*model.Digest, bool, error) {
	if d, ok := r.cache.Get(ctx, date); ok {
		return d, true, nil
	}

	d, err := r.store.GetByDate(ctx, date)
	if err != nil || d == nil {
		return nil, false, err
	}

	r.cache.Set(ctx, d)
	return d, false, nil
}

func (r *CachedDigestRepository) InsertIfAbsent(ctx context.Context, d *model.Digest) (*model.Digest, bool, error) {
	r.cache.Delete(ctx, d.Date)

	stored, created, err := r.store.InsertIfAbsent(ctx, d)
	if err != nil {
		return nil, false, err
	}

	r.cache.Set(ctx, stored)
	return stored, created, nil
}

func (r *CachedDigestRepository) ListDates(ctx context.Context) ([]string, error) {
	return r.store.ListDates(ctx)
}

func (r *CachedDigestRepository) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}
