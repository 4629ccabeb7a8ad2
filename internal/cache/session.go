package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Nazifamoh/artifyAI/internal/model"
)

const (
	// sessionCachePrefix is the Redis key prefix for verified principals.
	sessionCachePrefix = "auth:principal:"
	// sessionCacheTTL is the time-to-live for cached principals. Short on
	// purpose: a revoked provider session stops resolving within minutes.
	sessionCacheTTL = 5 * time.Minute
)

// GetPrincipal retrieves a cached principal by token cache key.
// Returns nil if not found (cache miss).
func (c *Cache) GetPrincipal(ctx context.Context, cacheKey string) (*model.Principal, error) {
	key := sessionCachePrefix + cacheKey

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		// Cache miss is not an error
		return nil, nil //nolint:nilerr
	}

	var p model.Principal
	if err := json.Unmarshal(data, &p); err != nil {
		// Corrupted cache entry - treat as miss
		return nil, nil //nolint:nilerr
	}

	return &p, nil
}

// SetPrincipal caches a verified principal.
func (c *Cache) SetPrincipal(ctx context.Context, cacheKey string, p *model.Principal) error {
	key := sessionCachePrefix + cacheKey

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal principal: %w", err)
	}

	return c.client.Set(ctx, key, data, sessionCacheTTL).Err()
}

// DeletePrincipal removes a cached principal.
// Used when the identity provider reports a deleted session or user.
func (c *Cache) DeletePrincipal(ctx context.Context, cacheKey string) error {
	key := sessionCachePrefix + cacheKey
	return c.client.Del(ctx, key).Err()
}
