package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/profilesapi/profiles/internal/model"
	"github.com/profilesapi/profiles/internal/service"
)

func TestCreateItem(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ann := env.createUser(t, "ann@example.com", "Ann")

	item, err := env.feed.CreateItem(ctx, actorFor(ann), "  hello world  ")
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if item.UserProfileID != ann.ID {
		t.Errorf("owner = %q, want %q", item.UserProfileID, ann.ID)
	}
	if item.StatusText != "hello world" || item.String() != "hello world" {
		t.Errorf("status = %q", item.StatusText)
	}
	if item.CreatedOn.IsZero() {
		t.Error("created_on should be set")
	}
}

func TestCreateItem_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ann := env.createUser(t, "ann@example.com", "Ann")

	if _, err := env.feed.CreateItem(ctx, nil, "x"); !errors.Is(err, service.ErrUnauthenticated) {
		t.Errorf("anonymous error = %v", err)
	}

	var verr *service.ValidationError
	if _, err := env.feed.CreateItem(ctx, actorFor(ann), "   "); !errors.As(err, &verr) || verr.Fields["status_text"] == "" {
		t.Errorf("blank status error = %v", err)
	}
	if _, err := env.feed.CreateItem(ctx, actorFor(ann), strings.Repeat("x", model.MaxStatusTextLen+1)); !errors.Is(err, service.ErrValidation) {
		t.Errorf("long status error = %v", err)
	}

	ghost := &model.AuthContext{UserID: "ghost", Scopes: []string{model.ScopeWrite}}
	if _, err := env.feed.CreateItem(ctx, ghost, "hi"); !errors.Is(err, service.ErrOwnerNotFound) {
		t.Errorf("missing owner error = %v, want ErrOwnerNotFound", err)
	}
}

func TestUpdateAndDeleteItem(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ann := env.createUser(t, "ann@example.com", "Ann")
	bob := env.createUser(t, "bob@example.com", "Bob")

	item, _ := env.feed.CreateItem(ctx, actorFor(ann), "first")

	if _, err := env.feed.UpdateItem(ctx, actorFor(bob), item.ID, "hijack"); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("foreign update error = %v", err)
	}

	updated, err := env.feed.UpdateItem(ctx, actorFor(ann), item.ID, "second")
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if updated.StatusText != "second" || !updated.CreatedOn.Equal(item.CreatedOn) {
		t.Errorf("updated = %+v, created_on must not change", updated)
	}

	if err := env.feed.DeleteItem(ctx, actorFor(bob), item.ID); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("foreign delete error = %v", err)
	}
	if err := env.feed.DeleteItem(ctx, actorFor(ann), item.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if _, err := env.feed.GetItem(ctx, item.ID); !errors.Is(err, service.ErrFeedItemNotFound) {
		t.Errorf("get after delete = %v", err)
	}
	if err := env.feed.DeleteItem(ctx, actorFor(ann), item.ID); !errors.Is(err, service.ErrFeedItemNotFound) {
		t.Errorf("second delete = %v", err)
	}
}

func TestListItems_ByOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ann := env.createUser(t, "ann@example.com", "Ann")
	bob := env.createUser(t, "bob@example.com", "Bob")

	for i := 0; i < 3; i++ {
		_, _ = env.feed.CreateItem(ctx, actorFor(ann), "ann")
	}
	_, _ = env.feed.CreateItem(ctx, actorFor(bob), "bob")

	all, err := env.feed.ListItems(ctx, service.ListFeedInput{})
	if err != nil || len(all.Items) != 4 {
		t.Fatalf("all = %v, %v", all, err)
	}

	page, err := env.feed.ListItems(ctx, service.ListFeedInput{OwnerID: ann.ID, Limit: 2})
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(page.Items) != 2 || page.NextCursor == "" {
		t.Fatalf("first page = %d items, cursor %q", len(page.Items), page.NextCursor)
	}

	rest, _ := env.feed.ListItems(ctx, service.ListFeedInput{OwnerID: ann.ID, Limit: 2, Cursor: page.NextCursor})
	if len(rest.Items) != 1 || rest.NextCursor != "" {
		t.Errorf("second page = %d items, cursor %q", len(rest.Items), rest.NextCursor)
	}
}
