package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/profilesapi/profiles/internal/model"
	"github.com/profilesapi/profiles/internal/repository"
)

func newUser(id, email string, created time.Time) *model.UserProfile {
	return &model.UserProfile{ID: id, Email: email, Name: "User " + id, PasswordHash: "hash", IsActive: true, CreatedAt: created, UpdatedAt: created}
}

func TestStore_UniqueEmail(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.CreateUser(ctx, newUser("u1", "a@example.com", time.Now())); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := s.CreateUser(ctx, newUser("u2", "a@example.com", time.Now())); !errors.Is(err, repository.ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}

	other := newUser("u3", "b@example.com", time.Now())
	if err := s.CreateUser(ctx, other); err != nil {
		t.Fatalf("create user: %v", err)
	}
	other.Email = "a@example.com"
	if err := s.UpdateUser(ctx, other); !errors.Is(err, repository.ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists on update, got %v", err)
	}
}

func TestStore_DeleteUserCascades(t *testing.T) {
	ctx := context.Background()
	s := New()

	_ = s.CreateUser(ctx, newUser("owner", "owner@example.com", time.Now()))
	_ = s.CreateUser(ctx, newUser("other", "other@example.com", time.Now()))

	for i := 0; i < 3; i++ {
		_ = s.CreateFeedItem(ctx, &model.FeedItem{ID: fmt.Sprintf("f%d", i), UserProfileID: "owner", StatusText: "hi", CreatedOn: time.Now()})
	}
	_ = s.CreateFeedItem(ctx, &model.FeedItem{ID: "keep", UserProfileID: "other", StatusText: "hi", CreatedOn: time.Now()})
	_ = s.CreateAuthToken(ctx, &model.AuthToken{ID: "t1", UserID: "owner", TokenPrefix: "abcdef"})

	if n, _ := s.CountFeedItemsByOwner(ctx, "owner"); n != 3 {
		t.Fatalf("owned items before delete = %d, want 3", n)
	}

	removed, err := s.DeleteUser(ctx, "owner")
	if err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}

	for i := 0; i < 3; i++ {
		if _, err := s.GetFeedItemByID(ctx, fmt.Sprintf("f%d", i)); !errors.Is(err, repository.ErrFeedItemNotFound) {
			t.Errorf("feed item f%d should be gone, got %v", i, err)
		}
	}
	if n, _ := s.CountFeedItemsByOwner(ctx, "owner"); n != 0 {
		t.Errorf("owned items after delete = %d, want 0", n)
	}
	if n, _ := s.CountFeedItemsByOwner(ctx, "other"); n != 1 {
		t.Errorf("other owner's items = %d, want 1", n)
	}
	if _, err := s.GetFeedItemByID(ctx, "keep"); err != nil {
		t.Errorf("other owner's item should survive: %v", err)
	}
	if tokens, _ := s.GetAuthTokensByPrefix(ctx, "abcdef"); len(tokens) != 0 {
		t.Errorf("tokens should be removed, got %d", len(tokens))
	}
	if _, err := s.GetUserByEmail(ctx, "owner@example.com"); !errors.Is(err, repository.ErrUserNotFound) {
		t.Errorf("email index should be cleared, got %v", err)
	}
}

func TestStore_FeedItemRequiresOwner(t *testing.T) {
	s := New()
	err := s.CreateFeedItem(context.Background(), &model.FeedItem{ID: "f1", UserProfileID: "ghost", StatusText: "x"})
	if !errors.Is(err, repository.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestStore_ListUsersPagination(t *testing.T) {
	ctx := context.Background()
	s := New()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_ = s.CreateUser(ctx, newUser(fmt.Sprintf("u%d", i), fmt.Sprintf("u%d@example.com", i), base.Add(time.Duration(i)*time.Minute)))
	}

	first, next, err := s.ListUsers(ctx, repository.UserFilter{}, "", 2)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(first) != 2 || first[0].ID != "u4" || first[1].ID != "u3" {
		t.Fatalf("first page = %v", ids(first))
	}
	if next == "" {
		t.Fatal("expected next cursor")
	}

	second, next, _ := s.ListUsers(ctx, repository.UserFilter{}, next, 2)
	if len(second) != 2 || second[0].ID != "u2" {
		t.Fatalf("second page = %v", ids(second))
	}

	third, next, _ := s.ListUsers(ctx, repository.UserFilter{}, next, 2)
	if len(third) != 1 || third[0].ID != "u0" || next != "" {
		t.Fatalf("third page = %v, next = %q", ids(third), next)
	}

	if _, _, err := s.ListUsers(ctx, repository.UserFilter{}, "%%%", 2); !errors.Is(err, repository.ErrInvalidCursor) {
		t.Errorf("expected ErrInvalidCursor, got %v", err)
	}

	found, _, _ := s.ListUsers(ctx, repository.UserFilter{Search: "U3@"}, "", 10)
	if len(found) != 1 || found[0].ID != "u3" {
		t.Errorf("search = %v, want [u3]", ids(found))
	}
}

func ids(users []*model.UserProfile) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.ID
	}
	return out
}
