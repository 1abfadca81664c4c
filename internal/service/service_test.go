package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/profilesapi/profiles/internal/auth"
	"github.com/profilesapi/profiles/internal/metrics"
	"github.com/profilesapi/profiles/internal/model"
	"github.com/profilesapi/profiles/internal/repository/memory"
	"github.com/profilesapi/profiles/internal/service"
)

var testHasher = auth.NewHasher(auth.Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32, SaltLen: 16})

type testEnv struct {
	store    *memory.Store
	cache    *fakeCache
	metrics  *metrics.InMemoryRecorder
	profiles *service.ProfileService
	feed     *service.FeedService
	auth     *service.AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.New()
	cache := newFakeCache()
	rec := metrics.NewInMemory()

	return &testEnv{
		store:    store,
		cache:    cache,
		metrics:  rec,
		profiles: service.NewProfileService(store, cache, testHasher, rec),
		feed:     service.NewFeedService(store, store, rec),
		auth:     service.NewAuthService(store, store, cache, testHasher, auth.EnvTest, rec),
	}
}

func (e *testEnv) createUser(t *testing.T, email, name string) *model.UserProfile {
	t.Helper()
	u, err := e.profiles.CreateUser(context.Background(), service.CreateProfileInput{Email: email, Name: name, Password: "secret123"})
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

func actorFor(u *model.UserProfile) *model.AuthContext {
	return &model.AuthContext{TokenID: "tok-" + u.ID, UserID: u.ID, Scopes: model.ScopesFor(u)}
}

// fakeCache is an in-process AuthCache.
type fakeCache struct {
	mu          sync.Mutex
	entries     map[string]*model.AuthContext
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*model.AuthContext)}
}

func (c *fakeCache) GetAuthContext(_ context.Context, key string) (*model.AuthContext, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[key], nil
}

func (c *fakeCache) SetAuthContext(_ context.Context, key string, a *model.AuthContext) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = a
	return nil
}

func (c *fakeCache) DeleteAuthContext(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *fakeCache) InvalidateUserAuthContexts(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range c.entries {
		if v.UserID == userID {
			delete(c.entries, k)
		}
	}
	c.invalidated = append(c.invalidated, userID)
	return nil
}

func (c *fakeCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
