// Package testutil holds helpers shared by integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/profilesapi/profiles/internal/model"
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

const advisoryLockID int64 = 420420

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

// MigrationFiles returns the up and down migration paths in apply order.
func MigrationFiles() (up, down []string, err error) {
	root, err := ProjectRoot()
	if err != nil {
		return nil, nil, err
	}
	dir := filepath.Join(root, "migrations")

	if up, err = filepath.Glob(filepath.Join(dir, "*.up.sql")); err != nil {
		return nil, nil, fmt.Errorf("list up migrations: %w", err)
	}
	if down, err = filepath.Glob(filepath.Join(dir, "*.down.sql")); err != nil {
		return nil, nil, fmt.Errorf("list down migrations: %w", err)
	}
	slices.Sort(up)
	slices.Sort(down)
	slices.Reverse(down)
	return up, down, nil
}

// ResetSchema rolls every migration back, newest first, and re-applies them.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	up, down, err := MigrationFiles()
	if err != nil {
		return err
	}
	for _, path := range append(down, up...) {
		if err := ExecFile(ctx, pool, path); err != nil {
			return err
		}
	}
	return nil
}

// ExecFile runs the SQL in path.
func ExecFile(ctx context.Context, pool *pgxpool.Pool, path string) error {
	sql, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("apply %s: %w", filepath.Base(path), err)
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
	return filepath.Clean(filepath.Join(filepath.Dir(filename), "..", "..")), nil
}

// Test data factories

// NewTestProfile returns an active, non-admin profile. The password hash is a
// placeholder and will not verify.
func NewTestProfile(t testing.TB, email string) *model.UserProfile {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &model.UserProfile{
		ID:           ulid.Make().String(),
		Email:        model.NormalizeEmail(email),
		Name:         "Test User",
		PasswordHash: "$argon2id$v=19$m=1024,t=1,p=1$c2FsdA$aGFzaA",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewTestFeedItem returns a feed item owned by ownerID.
func NewTestFeedItem(t testing.TB, ownerID, statusText string) *model.FeedItem {
	t.Helper()
	return &model.FeedItem{
		ID:            ulid.Make().String(),
		UserProfileID: ownerID,
		StatusText:    statusText,
		CreatedOn:     time.Now().UTC().Truncate(time.Microsecond),
	}
}

// UniqueEmail generates an email address no other test uses.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano())
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
