package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"roadmap-service/internal/models"

	"github.com/redis/go-redis/v9"
)

// ProjectionCache caches public roadmap projections between requests.
// A cache miss is nil, nil.
type ProjectionCache interface {
	GetRoadmap(ctx context.Context, slug string) (*models.PublicRoadmap, error)
	SetRoadmap(ctx context.Context, slug string, roadmap *models.PublicRoadmap) error
	InvalidateRoadmap(ctx context.Context, slug string) error
}

// RedisProjectionCache stores projections as JSON with a TTL. Only
// positive results are cached; "roadmap not visible" is always resolved
// fresh so an unpublish takes effect immediately.
type RedisProjectionCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisProjectionCache(client *redis.Client, ttl time.Duration) *RedisProjectionCache {
	return &RedisProjectionCache{
		client: client,
		ttl:    ttl,
	}
}

func projectionKey(slug string) string {
	return "roadmap:public:" + slug
}

func (c *RedisProjectionCache) GetRoadmap(ctx context.Context, slug string) (*models.PublicRoadmap, error) {
	data, err := c.client.Get(ctx, projectionKey(slug)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cached projection: %w", err)
	}

	var roadmap models.PublicRoadmap
	if err := json.Unmarshal([]byte(data), &roadmap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached projection: %w", err)
	}
	return &roadmap, nil
}

func (c *RedisProjectionCache) SetRoadmap(ctx context.Context, slug string, roadmap *models.PublicRoadmap) error {
	data, err := json.Marshal(roadmap)
	if err != nil {
		return fmt.Errorf("failed to marshal projection: %w", err)
	}
	if err := c.client.Set(ctx, projectionKey(slug), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache projection: %w", err)
	}
	return nil
}

func (c *RedisProjectionCache) InvalidateRoadmap(ctx context.Context, slug string) error {
	if err := c.client.Del(ctx, projectionKey(slug)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached projection: %w", err)
	}
	return nil
}
