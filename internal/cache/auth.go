package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/profilesapi/profiles/internal/model"
	"github.com/redis/go-redis/v9"
)

const (
	authCachePrefix = "auth:ctx:"
	// authUserPrefix indexes cached context keys per user so a profile's
	// sessions can be dropped without scanning the keyspace.
	authUserPrefix = "auth:user:"
	defaultAuthTTL = 5 * time.Minute
)

// CachedAuthContext is the JSON form of an AuthContext stored in Redis.
type CachedAuthContext struct {
	TokenID     string   `json:"token_id"`
	TokenPrefix string   `json:"token_prefix"`
	UserID      string   `json:"user_id"`
	Scopes      []string `json:"scopes"`
}

// GetAuthContext retrieves a cached auth context. A miss returns nil, nil.
func (c *Cache) GetAuthContext(ctx context.Context, cacheKey string) (*model.AuthContext, error) {
	data, err := c.client.Get(ctx, authCachePrefix+cacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get auth context: %w", err)
	}

	var cached CachedAuthContext
	if err := json.Unmarshal(data, &cached); err != nil {
		// Corrupted entry, treat as miss.
		return nil, nil //nolint:nilerr
	}

	return &model.AuthContext{
		TokenID:     cached.TokenID,
		TokenPrefix: cached.TokenPrefix,
		UserID:      cached.UserID,
		Scopes:      cached.Scopes,
	}, nil
}

// SetAuthContext caches an auth context and records it in the user's index.
func (c *Cache) SetAuthContext(ctx context.Context, cacheKey string, auth *model.AuthContext) error {
	data, err := json.Marshal(CachedAuthContext{
		TokenID:     auth.TokenID,
		TokenPrefix: auth.TokenPrefix,
		UserID:      auth.UserID,
		Scopes:      auth.Scopes,
	})
	if err != nil {
		return fmt.Errorf("marshal auth context: %w", err)
	}

	userKey := authUserPrefix + auth.UserID
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, authCachePrefix+cacheKey, data, c.authTTL)
	pipe.SAdd(ctx, userKey, cacheKey)
	pipe.Expire(ctx, userKey, c.authTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set auth context: %w", err)
	}
	return nil
}

// DeleteAuthContext removes a cached auth context.
func (c *Cache) DeleteAuthContext(ctx context.Context, cacheKey string) error {
	return c.client.Del(ctx, authCachePrefix+cacheKey).Err()
}

// InvalidateUserAuthContexts removes every cached auth context of a user.
func (c *Cache) InvalidateUserAuthContexts(ctx context.Context, userID string) error {
	userKey := authUserPrefix + userID

	members, err := c.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return fmt.Errorf("list user auth contexts: %w", err)
	}

	keys := make([]string, 0, len(members)+1)
	for _, m := range members {
		keys = append(keys, authCachePrefix+m)
	}
	keys = append(keys, userKey)

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate user auth contexts: %w", err)
	}
	return nil
}
