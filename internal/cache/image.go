package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Nazifamoh/artifyAI/internal/model"
)

// Cache key prefixes and TTLs.
const (
	imageKeyPrefix    = "image:"
	negCacheKeySuffix = ":neg"

	// DefaultImageTTL is the TTL for cached image data.
	DefaultImageTTL = 24 * time.Hour

	// NegativeCacheTTL is the TTL for negative cache entries.
	NegativeCacheTTL = 5 * time.Minute
)

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

// GetImage retrieves an image from cache by ID.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetImage(ctx context.Context, id string) (*model.Image, error) {
	key := imageKeyPrefix + id

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, ErrCacheMiss
	}

	var image model.Image
	if err := json.Unmarshal(data, &image); err != nil {
		// Corrupted cache entry - treat as miss
		return nil, ErrCacheMiss
	}

	return &image, nil
}

// SetImage stores an image in cache.
func (c *Cache) SetImage(ctx context.Context, image *model.Image) error {
	key := imageKeyPrefix + image.ID

	data, err := json.Marshal(image)
	if err != nil {
		return fmt.Errorf("failed to encode image for cache: %w", err)
	}

	if err := c.client.Set(ctx, key, data, DefaultImageTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache image: %w", err)
	}

	// Remove negative cache if exists
	c.client.Del(ctx, key+negCacheKeySuffix)

	return nil
}

// DeleteImage removes an image from cache. Called on every write so reads
// never serve a stale rendition.
func (c *Cache) DeleteImage(ctx context.Context, id string) error {
	key := imageKeyPrefix + id

	pipe := c.client.Pipeline()
	pipe.Del(ctx, key)
	pipe.Del(ctx, key+negCacheKeySuffix)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete image from cache: %w", err)
	}

	return nil
}

// IsNegativelyCached checks if an image ID is in negative cache.
func (c *Cache) IsNegativelyCached(ctx context.Context, id string) (bool, error) {
	key := imageKeyPrefix + id + negCacheKeySuffix

	exists, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check negative cache: %w", err)
	}

	return exists > 0, nil
}

// SetNegativeCache marks an image ID as not found.
func (c *Cache) SetNegativeCache(ctx context.Context, id string) error {
	key := imageKeyPrefix + id + negCacheKeySuffix

	err := c.client.SetEx(ctx, key, "", NegativeCacheTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to set negative cache: %w", err)
	}

	return nil
}
