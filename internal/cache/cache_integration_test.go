//go:build integration

package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/Nazifamoh/artifyAI/internal/model"
	"github.com/Nazifamoh/artifyAI/internal/testutil"
)

// ============================================================================
// Cache Integration Tests
// ============================================================================

func TestIntegrationCache_ImageRoundTrip(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	image := testutil.NewTestImage(t, "user-1")

	if _, err := c.GetImage(ctx, image.ID); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss before set, got: %v", err)
	}

	if err := c.SetImage(ctx, image); err != nil {
		t.Fatalf("SetImage failed: %v", err)
	}

	cached, err := c.GetImage(ctx, image.ID)
	if err != nil {
		t.Fatalf("GetImage failed: %v", err)
	}
	if cached.ID != image.ID || cached.OwnerID != image.OwnerID {
		t.Errorf("cached image = %+v", cached)
	}
	if cached.Config.Type != image.Config.Type {
		t.Errorf("config type = %q, want %q", cached.Config.Type, image.Config.Type)
	}

	if err := c.DeleteImage(ctx, image.ID); err != nil {
		t.Fatalf("DeleteImage failed: %v", err)
	}
	if _, err := c.GetImage(ctx, image.ID); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss after delete, got: %v", err)
	}
}

func TestIntegrationCache_NegativeCache(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	id := testutil.UniqueID("img")

	cached, err := c.IsNegativelyCached(ctx, id)
	if err != nil {
		t.Fatalf("IsNegativelyCached failed: %v", err)
	}
	if cached {
		t.Error("fresh ID should not be negatively cached")
	}

	if err := c.SetNegativeCache(ctx, id); err != nil {
		t.Fatalf("SetNegativeCache failed: %v", err)
	}
	cached, err = c.IsNegativelyCached(ctx, id)
	if err != nil {
		t.Fatalf("IsNegativelyCached failed: %v", err)
	}
	if !cached {
		t.Error("expected ID to be negatively cached")
	}

	// Storing the real image clears the tombstone.
	image := testutil.NewTestImage(t, "user-1")
	image.ID = id
	if err := c.SetImage(ctx, image); err != nil {
		t.Fatalf("SetImage failed: %v", err)
	}
	cached, err = c.IsNegativelyCached(ctx, id)
	if err != nil {
		t.Fatalf("IsNegativelyCached failed: %v", err)
	}
	if cached {
		t.Error("SetImage should clear the negative cache entry")
	}
}

func TestIntegrationCache_PrincipalRoundTrip(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	principal := &model.Principal{
		IdentityID: "idp_1",
		Email:      "ada@example.com",
		Username:   "ada",
	}
	cacheKey := "abc123"

	cached, err := c.GetPrincipal(ctx, cacheKey)
	if err != nil {
		t.Fatalf("GetPrincipal failed: %v", err)
	}
	if cached != nil {
		t.Errorf("expected miss, got %+v", cached)
	}

	if err := c.SetPrincipal(ctx, cacheKey, principal); err != nil {
		t.Fatalf("SetPrincipal failed: %v", err)
	}

	cached, err = c.GetPrincipal(ctx, cacheKey)
	if err != nil {
		t.Fatalf("GetPrincipal failed: %v", err)
	}
	if cached == nil || cached.IdentityID != "idp_1" || cached.Email != "ada@example.com" {
		t.Errorf("cached principal = %+v", cached)
	}

	if err := c.DeletePrincipal(ctx, cacheKey); err != nil {
		t.Fatalf("DeletePrincipal failed: %v", err)
	}
	cached, err = c.GetPrincipal(ctx, cacheKey)
	if err != nil {
		t.Fatalf("GetPrincipal failed: %v", err)
	}
	if cached != nil {
		t.Errorf("expected miss after delete, got %+v", cached)
	}
}

func TestIntegrationCache_UserRateLimit(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	userID := testutil.UniqueID("user")

	// Burst of 3 at a slow refill rate: three requests pass, the fourth waits.
	for i := 0; i < 3; i++ {
		result, err := c.CheckUserRateLimit(ctx, userID, 60, 3)
		if err != nil {
			t.Fatalf("CheckUserRateLimit failed: %v", err)
		}
		if !result.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	result, err := c.CheckUserRateLimit(ctx, userID, 60, 3)
	if err != nil {
		t.Fatalf("CheckUserRateLimit failed: %v", err)
	}
	if result.Allowed {
		t.Error("request beyond burst should be denied")
	}
	if result.RetryAfter <= 0 {
		t.Errorf("RetryAfter = %s, want > 0", result.RetryAfter)
	}
}

func TestIntegrationCache_UserRateLimit_UnlimitedTier(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	for i := 0; i < 10; i++ {
		result, err := c.CheckUserRateLimit(ctx, testutil.UniqueID("user"), 0, 1)
		if err != nil {
			t.Fatalf("CheckUserRateLimit failed: %v", err)
		}
		if !result.Allowed {
			t.Fatal("unlimited tier must never be throttled")
		}
	}
}

func TestIntegrationCache_IPRateLimit_IsolatedPerIP(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	// Exhaust the first IP's bucket.
	for i := 0; i < 2; i++ {
		if _, err := c.CheckIPRateLimit(ctx, "10.0.0.1", 1, 2); err != nil {
			t.Fatalf("CheckIPRateLimit failed: %v", err)
		}
	}
	result, err := c.CheckIPRateLimit(ctx, "10.0.0.1", 1, 2)
	if err != nil {
		t.Fatalf("CheckIPRateLimit failed: %v", err)
	}
	if result.Allowed {
		t.Error("exhausted IP should be denied")
	}

	// A different IP still has a full bucket.
	result, err = c.CheckIPRateLimit(ctx, "10.0.0.2", 1, 2)
	if err != nil {
		t.Fatalf("CheckIPRateLimit failed: %v", err)
	}
	if !result.Allowed {
		t.Error("unrelated IP should be allowed")
	}
}

// ============================================================================
// Test Environment Setup
// ============================================================================

func newCacheTestEnv(t *testing.T) (context.Context, *Cache) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	redisURL := testutil.RequireEnv(t, "REDIS_URL")

	c, err := New(ctx, redisURL)
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() {
		_ = c.Close()
	})

	if err := testutil.FlushRedis(ctx, c.Client()); err != nil {
		t.Fatalf("flush redis: %v", err)
	}

	return ctx, c
}
