package service

import (
	"context"
	"time"

	"github.com/profilesapi/profiles/internal/model"
	"github.com/profilesapi/profiles/internal/repository"
)

// ProfileReader looks up profiles.
type ProfileReader interface {
	GetUserByID(ctx context.Context, id string) (*model.UserProfile, error)
	GetUserByEmail(ctx context.Context, email string) (*model.UserProfile, error)
}

// ProfileStore persists profiles. DeleteUser must remove the profile's feed
// items and tokens in the same transaction and report how many feed items
// it removed.
type ProfileStore interface {
	ProfileReader
	CreateUser(ctx context.Context, user *model.UserProfile) error
	ListUsers(ctx context.Context, filter repository.UserFilter, cursor string, limit int) ([]*model.UserProfile, string, error)
	UpdateUser(ctx context.Context, user *model.UserProfile) error
	SetLastLogin(ctx context.Context, id string, at time.Time) error
	DeleteUser(ctx context.Context, id string) (int64, error)
}

// FeedStore persists feed items.
type FeedStore interface {
	CreateFeedItem(ctx context.Context, item *model.FeedItem) error
	GetFeedItemByID(ctx context.Context, id string) (*model.FeedItem, error)
	ListFeedItems(ctx context.Context, filter repository.FeedFilter, cursor string, limit int) ([]*model.FeedItem, string, error)
	UpdateFeedItemStatus(ctx context.Context, id, statusText string) error
	DeleteFeedItem(ctx context.Context, id string) error
}

// TokenStore persists auth tokens.
type TokenStore interface {
	CreateAuthToken(ctx context.Context, token *model.AuthToken) error
	GetAuthTokensByPrefix(ctx context.Context, prefix string) ([]*model.AuthToken, error)
	RevokeAuthToken(ctx context.Context, id string) error
	UpdateAuthTokenLastUsed(ctx context.Context, id string) error
}

// AuthCache caches authenticated contexts. A nil AuthCache disables caching.
type AuthCache interface {
	GetAuthContext(ctx context.Context, cacheKey string) (*model.AuthContext, error)
	SetAuthContext(ctx context.Context, cacheKey string, auth *model.AuthContext) error
	DeleteAuthContext(ctx context.Context, cacheKey string) error
	InvalidateUserAuthContexts(ctx context.Context, userID string) error
}

// Page size bounds for list operations.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}
