package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/wadjakorntonsri/go-qr-link/pkg/core/domain"
	"github.com/wadjakorntonsri/go-qr-link/pkg/ports"
)

func slugKey(slug string) string {
	return "qrlink:slug:" + slug
}

// RedisSlugCache keeps resolved link records in Redis so hot slugs skip
// the database. Records are immutable, so entries are stored without a
// TTL and never invalidated.
type RedisSlugCache struct {
	client *redis.Client
}

func NewRedisSlugCache(addr string) (*RedisSlugCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisSlugCache{client: client}, nil
}

func (c *RedisSlugCache) Get(ctx context.Context, slug string) (*domain.LinkRecord, bool) {
	data, err := c.client.Get(ctx, slugKey(slug)).Bytes()
	if err != nil {
		// Miss or Redis trouble: either way fall through to the store.
		return nil, false
	}

	var link domain.LinkRecord
	if err := json.Unmarshal(data, &link); err != nil {
		return nil, false
	}
	return &link, true
}

func (c *RedisSlugCache) Set(ctx context.Context, link *domain.LinkRecord) {
	data, err := json.Marshal(link)
	if err != nil {
		return
	}
	// Best effort; the store remains authoritative.
	_ = c.client.Set(ctx, slugKey(link.Slug), data, 0).Err()
}

func (c *RedisSlugCache) Close() error {
	return c.client.Close()
}

// NoopSlugCache is used when no Redis address is configured.
type NoopSlugCache struct{}

func NewNoopSlugCache() *NoopSlugCache { return &NoopSlugCache{} }

func (*NoopSlugCache) Get(ctx context.Context, slug string) (*domain.LinkRecord, bool) {
	return nil, false
}

func (*NoopSlugCache) Set(ctx context.Context, link *domain.LinkRecord) {}

// Ensure interface compliance
var (
	_ ports.SlugCache = (*RedisSlugCache)(nil)
	_ ports.SlugCache = (*NoopSlugCache)(nil)
)
