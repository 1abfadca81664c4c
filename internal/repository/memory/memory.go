// Package memory is an in-process store with the same contract as the
// PostgreSQL repository: unique emails, owner foreign keys and cascading
// profile deletion. It backs unit tests and local runs without a database.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/profilesapi/profiles/internal/model"
	"github.com/profilesapi/profiles/internal/repository"
)

// Store holds profiles, feed items and auth tokens in memory.
type Store struct {
	mu     sync.RWMutex
	users  map[string]*model.UserProfile
	emails map[string]string // email -> user id
	items  map[string]*model.FeedItem
	tokens map[string]*model.AuthToken
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		users:  make(map[string]*model.UserProfile),
		emails: make(map[string]string),
		items:  make(map[string]*model.FeedItem),
		tokens: make(map[string]*model.AuthToken),
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// CreateUser inserts a profile, rejecting duplicate emails.
func (s *Store) CreateUser(_ context.Context, user *model.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.emails[user.Email]; taken {
		return repository.ErrEmailExists
	}
	cp := *user
	s.users[user.ID] = &cp
	s.emails[user.Email] = user.ID
	return nil
}

// GetUserByID retrieves a profile by ID.
func (s *Store) GetUserByID(_ context.Context, id string) (*model.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// GetUserByEmail retrieves a profile by normalized email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.UserProfile, error) {
	s.mu.RLock()
	id, ok := s.emails[email]
	s.mu.RUnlock()
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return s.GetUserByID(ctx, id)
}

// ListUsers returns a page of profiles, newest first.
func (s *Store) ListUsers(_ context.Context, filter repository.UserFilter, cursor string, limit int) ([]*model.UserProfile, string, error) {
	after, err := decode(cursor)
	if err != nil {
		return nil, "", err
	}
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	s.mu.RLock()
	var all []*model.UserProfile
	for _, u := range s.users {
		if search != "" && !strings.Contains(strings.ToLower(u.Name), search) && !strings.Contains(u.Email, search) {
			continue
		}
		cp := *u
		all = append(all, &cp)
	}
	s.mu.RUnlock()

	return page(all, after, limit, func(u *model.UserProfile) repository.PaginationCursor {
		return repository.PaginationCursor{ID: u.ID, CreatedAt: u.CreatedAt}
	})
}

// UpdateUser writes the mutable fields of a profile.
func (s *Store) UpdateUser(_ context.Context, user *model.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ID]
	if !ok {
		return repository.ErrUserNotFound
	}
	if owner, taken := s.emails[user.Email]; taken && owner != user.ID {
		return repository.ErrEmailExists
	}

	delete(s.emails, existing.Email)
	cp := *user
	cp.CreatedAt = existing.CreatedAt
	cp.LastLogin = existing.LastLogin
	s.users[user.ID] = &cp
	s.emails[user.Email] = user.ID
	return nil
}

// SetLastLogin records a successful login.
func (s *Store) SetLastLogin(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.LastLogin = &at
	return nil
}

// DeleteUser removes a profile and everything it owns atomically.
func (s *Store) DeleteUser(_ context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return 0, repository.ErrUserNotFound
	}

	var removed int64
	for itemID, item := range s.items {
		if item.UserProfileID == id {
			delete(s.items, itemID)
			removed++
		}
	}
	for tokenID, token := range s.tokens {
		if token.UserID == id {
			delete(s.tokens, tokenID)
		}
	}
	delete(s.emails, u.Email)
	delete(s.users, id)
	return removed, nil
}

// CreateFeedItem inserts a feed item owned by an existing profile.
func (s *Store) CreateFeedItem(_ context.Context, item *model.FeedItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[item.UserProfileID]; !ok {
		return repository.ErrUserNotFound
	}
	cp := *item
	s.items[item.ID] = &cp
	return nil
}

// GetFeedItemByID retrieves a feed item by ID.
func (s *Store) GetFeedItemByID(_ context.Context, id string) (*model.FeedItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, repository.ErrFeedItemNotFound
	}
	cp := *item
	return &cp, nil
}

// ListFeedItems returns a page of feed items, newest first.
func (s *Store) ListFeedItems(_ context.Context, filter repository.FeedFilter, cursor string, limit int) ([]*model.FeedItem, string, error) {
	after, err := decode(cursor)
	if err != nil {
		return nil, "", err
	}

	s.mu.RLock()
	var all []*model.FeedItem
	for _, item := range s.items {
		if filter.OwnerID != "" && item.UserProfileID != filter.OwnerID {
			continue
		}
		cp := *item
		all = append(all, &cp)
	}
	s.mu.RUnlock()

	return page(all, after, limit, func(f *model.FeedItem) repository.PaginationCursor {
		return repository.PaginationCursor{ID: f.ID, CreatedAt: f.CreatedOn}
	})
}

// UpdateFeedItemStatus replaces the status text.
func (s *Store) UpdateFeedItemStatus(_ context.Context, id, statusText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return repository.ErrFeedItemNotFound
	}
	item.StatusText = statusText
	return nil
}

// DeleteFeedItem removes a single feed item.
func (s *Store) DeleteFeedItem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return repository.ErrFeedItemNotFound
	}
	delete(s.items, id)
	return nil
}

// CountFeedItemsByOwner returns how many feed items a profile owns.
func (s *Store) CountFeedItemsByOwner(_ context.Context, ownerID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, item := range s.items {
		if item.UserProfileID == ownerID {
			n++
		}
	}
	return n, nil
}

// CreateAuthToken stores a token for an existing profile.
func (s *Store) CreateAuthToken(_ context.Context, token *model.AuthToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[token.UserID]; !ok {
		return repository.ErrUserNotFound
	}
	cp := *token
	cp.Scopes = slices.Clone(token.Scopes)
	s.tokens[token.ID] = &cp
	return nil
}

// GetAuthTokensByPrefix returns active tokens sharing a prefix.
func (s *Store) GetAuthTokensByPrefix(_ context.Context, prefix string) ([]*model.AuthToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.AuthToken
	for _, token := range s.tokens {
		if token.TokenPrefix == prefix && !token.IsRevoked() {
			cp := *token
			cp.Scopes = slices.Clone(token.Scopes)
			out = append(out, &cp)
		}
	}
	return out, nil
}

// RevokeAuthToken marks an active token revoked.
func (s *Store) RevokeAuthToken(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokens[id]
	if !ok || token.IsRevoked() {
		return repository.ErrTokenNotFound
	}
	now := time.Now().UTC()
	token.RevokedAt = &now
	return nil
}

// UpdateAuthTokenLastUsed updates last_used_at.
func (s *Store) UpdateAuthTokenLastUsed(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token, ok := s.tokens[id]; ok {
		now := time.Now().UTC()
		token.LastUsedAt = &now
	}
	return nil
}

func decode(cursor string) (*repository.PaginationCursor, error) {
	if cursor == "" {
		return nil, nil
	}
	return repository.DecodeCursor(cursor)
}

// page sorts newest first by (created, id), applies the keyset cursor and
// trims to limit.
func page[T any](all []T, after *repository.PaginationCursor, limit int, key func(T) repository.PaginationCursor) ([]T, string, error) {
	slices.SortFunc(all, func(a, b T) int {
		ka, kb := key(a), key(b)
		if c := kb.CreatedAt.Compare(ka.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(kb.ID, ka.ID)
	})

	if after != nil {
		idx := len(all)
		for i, v := range all {
			k := key(v)
			if k.CreatedAt.Before(after.CreatedAt) || (k.CreatedAt.Equal(after.CreatedAt) && k.ID < after.ID) {
				idx = i
				break
			}
		}
		all = all[idx:]
	}

	var next string
	if len(all) > limit {
		all = all[:limit]
		last := key(all[len(all)-1])
		next = repository.EncodeCursor(&last)
	}
	return all, next, nil
}
