// Package testutil provides helpers for environment-gated integration
// tests against real Postgres and Redis instances.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/Nazifamoh/artifyAI/internal/model"
	"github.com/Nazifamoh/artifyAI/internal/transform"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 742742

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// migrationNames lists every migration pair in apply order. Images and
// transactions reference users, so downs run in reverse.
var migrationNames = []string{
	"000001_users",
	"000002_images",
	"000003_transactions",
}

// ResetSchemas drops and recreates the full schema for tests.
func ResetSchemas(ctx context.Context, pool *pgxpool.Pool) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	for i := len(migrationNames) - 1; i >= 0; i-- {
		downSQL, err := os.ReadFile(filepath.Join(root, "migrations", migrationNames[i]+".down.sql"))
		if err != nil {
			return fmt.Errorf("read down migration: %w", err)
		}
		if _, err := pool.Exec(ctx, string(downSQL)); err != nil {
			return fmt.Errorf("apply down migration %s: %w", migrationNames[i], err)
		}
	}

	for _, name := range migrationNames {
		upSQL, err := os.ReadFile(filepath.Join(root, "migrations", name+".up.sql"))
		if err != nil {
			return fmt.Errorf("read up migration: %w", err)
		}
		if _, err := pool.Exec(ctx, string(upSQL)); err != nil {
			return fmt.Errorf("apply up migration %s: %w", name, err)
		}
	}

	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestUser creates a test user with sensible defaults.
func NewTestUser(t testing.TB, identityID string) *model.User {
	t.Helper()
	now := time.Now().UTC()
	return &model.User{
		ID:            UniqueID("user"),
		IdentityID:    identityID,
		Email:         identityID + "@example.com",
		Username:      identityID,
		PlanID:        1,
		CreditBalance: 10,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// NewTestImage creates a test image owned by the given user.
func NewTestImage(t testing.TB, ownerID string) *model.Image {
	t.Helper()
	now := time.Now().UTC()
	cfg, err := transform.Default(transform.TypeRestore)
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	return &model.Image{
		ID:             UniqueID("img"),
		OwnerID:        ownerID,
		Title:          "Test image",
		PublicID:       UniqueID("asset"),
		Type:           transform.TypeRestore,
		Config:         cfg,
		Width:          800,
		Height:         600,
		SecureURL:      "https://res.example.com/demo/image/upload/sample",
		TransformedURL: "https://res.example.com/demo/image/upload/e_gen_restore/w_800,h_600/sample",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// NewTestTransaction creates a pending test transaction for the buyer.
func NewTestTransaction(t testing.TB, buyerID string) *model.Transaction {
	t.Helper()
	now := time.Now().UTC()
	return &model.Transaction{
		ID:        UniqueID("txn"),
		BuyerID:   buyerID,
		Plan:      "pro",
		Amount:    4000,
		Credits:   120,
		Provider:  "hosted-checkout",
		Status:    model.TransactionPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
