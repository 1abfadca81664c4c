package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/profilesapi/profiles/internal/metrics"
	"github.com/profilesapi/profiles/internal/model"
	"github.com/profilesapi/profiles/internal/repository"
	"github.com/profilesapi/profiles/internal/validation"
)

const statusTextRules = "required,max=255"

// FeedService manages feed items. Each item is owned by exactly one
// profile, resolved through the profile reader given at construction.
type FeedService struct {
	items    FeedStore
	profiles ProfileReader
	validate *validation.Validator
	metrics  metrics.Recorder
	now      func() time.Time
}

// NewFeedService creates a new FeedService.
func NewFeedService(items FeedStore, profiles ProfileReader, recorder metrics.Recorder) *FeedService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &FeedService{
		items:    items,
		profiles: profiles,
		validate: validation.New(),
		metrics:  recorder,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *FeedService) validateStatus(text string) (string, error) {
	text = strings.TrimSpace(text)
	if msg := s.validate.Var(text, statusTextRules); msg != "" {
		return "", fieldError("status_text", msg)
	}
	return text, nil
}

// CreateItem posts a status update owned by the authenticated caller.
func (s *FeedService) CreateItem(ctx context.Context, actor *model.AuthContext, statusText string) (*model.FeedItem, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	text, err := s.validateStatus(statusText)
	if err != nil {
		return nil, err
	}

	owner, err := s.profiles.GetUserByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrOwnerNotFound
		}
		return nil, fmt.Errorf("failed to load owner: %w", err)
	}
	if !owner.IsActive {
		return nil, ErrForbidden
	}

	item := &model.FeedItem{
		ID:            ulid.Make().String(),
		UserProfileID: owner.ID,
		StatusText:    text,
		CreatedOn:     s.now(),
	}

	if err := s.items.CreateFeedItem(ctx, item); err != nil {
		// The owner may have been deleted since the lookup.
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrOwnerNotFound
		}
		return nil, fmt.Errorf("failed to create feed item: %w", err)
	}

	s.metrics.IncFeedItemCreated()
	return item, nil
}

// GetItem retrieves a feed item by ID.
func (s *FeedService) GetItem(ctx context.Context, id string) (*model.FeedItem, error) {
	item, err := s.items.GetFeedItemByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrFeedItemNotFound) {
			return nil, ErrFeedItemNotFound
		}
		return nil, fmt.Errorf("failed to get feed item: %w", err)
	}
	return item, nil
}

// ListFeedInput defines input for listing feed items.
type ListFeedInput struct {
	OwnerID string
	Cursor  string
	Limit   int
}

// ListFeedOutput is one page of feed items.
type ListFeedOutput struct {
	Items      []*model.FeedItem
	NextCursor string
}

// ListItems returns feed items newest first, optionally for one owner.
func (s *FeedService) ListItems(ctx context.Context, input ListFeedInput) (*ListFeedOutput, error) {
	items, next, err := s.items.ListFeedItems(ctx, repository.FeedFilter{OwnerID: input.OwnerID}, input.Cursor, clampLimit(input.Limit))
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCursor) {
			return nil, fieldError("cursor", MsgInvalidCursor)
		}
		return nil, fmt.Errorf("failed to list feed items: %w", err)
	}
	return &ListFeedOutput{Items: items, NextCursor: next}, nil
}

// UpdateItem replaces the status text of an item the actor owns.
// The owner and created_on never change.
func (s *FeedService) UpdateItem(ctx context.Context, actor *model.AuthContext, id, statusText string) (*model.FeedItem, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanActOn(item.UserProfileID) {
		return nil, ErrForbidden
	}

	text, err := s.validateStatus(statusText)
	if err != nil {
		return nil, err
	}

	if err := s.items.UpdateFeedItemStatus(ctx, id, text); err != nil {
		if errors.Is(err, repository.ErrFeedItemNotFound) {
			return nil, ErrFeedItemNotFound
		}
		return nil, fmt.Errorf("failed to update feed item: %w", err)
	}

	item.StatusText = text
	return item, nil
}

// DeleteItem removes an item the actor owns.
func (s *FeedService) DeleteItem(ctx context.Context, actor *model.AuthContext, id string) error {
	if actor == nil {
		return ErrUnauthenticated
	}

	item, err := s.GetItem(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanActOn(item.UserProfileID) {
		return ErrForbidden
	}

	if err := s.items.DeleteFeedItem(ctx, id); err != nil {
		if errors.Is(err, repository.ErrFeedItemNotFound) {
			return ErrFeedItemNotFound
		}
		return fmt.Errorf("failed to delete feed item: %w", err)
	}

	s.metrics.IncFeedItemsDeleted(1)
	return nil
}
