package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/profilesapi/profiles/internal/model"
)

// FeedFilter narrows feed item listings.
type FeedFilter struct {
	// OwnerID restricts results to one profile when set.
	OwnerID string
}

const feedColumns = `id, user_profile_id, status_text, created_on`

// CreateFeedItem inserts a feed item. A missing owner yields ErrUserNotFound.
func (r *Repository) CreateFeedItem(ctx context.Context, item *model.FeedItem) error {
	query := `
		INSERT INTO profile_feed_items (id, user_profile_id, status_text, created_on)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query, item.ID, item.UserProfileID, item.StatusText, item.CreatedOn)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to create feed item: %w", err)
	}
	return nil
}

// GetFeedItemByID retrieves a feed item by ID.
func (r *Repository) GetFeedItemByID(ctx context.Context, id string) (*model.FeedItem, error) {
	query := `SELECT ` + feedColumns + ` FROM profile_feed_items WHERE id = $1`
	return scanFeedItem(r.pool.QueryRow(ctx, query, id))
}

// ListFeedItems returns a page of feed items, newest first.
func (r *Repository) ListFeedItems(ctx context.Context, filter FeedFilter, cursor string, limit int) ([]*model.FeedItem, string, error) {
	var cursorData *PaginationCursor
	if cursor != "" {
		var err error
		if cursorData, err = DecodeCursor(cursor); err != nil {
			return nil, "", err
		}
	}

	query := `SELECT ` + feedColumns + ` FROM profile_feed_items WHERE TRUE`
	var args []any
	argIndex := 1

	if filter.OwnerID != "" {
		query += fmt.Sprintf(" AND user_profile_id = $%d", argIndex)
		args = append(args, filter.OwnerID)
		argIndex++
	}

	if cursorData != nil {
		query += fmt.Sprintf(" AND (created_on, id) < ($%d, $%d)", argIndex, argIndex+1)
		args = append(args, cursorData.CreatedAt, cursorData.ID)
		argIndex += 2
	}

	query += fmt.Sprintf(" ORDER BY created_on DESC, id DESC LIMIT $%d", argIndex)
	args = append(args, limit+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list feed items: %w", err)
	}
	defer rows.Close()

	var items []*model.FeedItem
	for rows.Next() {
		item, err := scanFeedItem(rows)
		if err != nil {
			return nil, "", err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("error iterating feed items: %w", err)
	}

	var next string
	if len(items) > limit {
		items = items[:limit]
		last := items[len(items)-1]
		next = EncodeCursor(&PaginationCursor{ID: last.ID, CreatedAt: last.CreatedOn})
	}

	return items, next, nil
}

// UpdateFeedItemStatus replaces the status text. created_on is never changed.
func (r *Repository) UpdateFeedItemStatus(ctx context.Context, id, statusText string) error {
	result, err := r.pool.Exec(ctx, `UPDATE profile_feed_items SET status_text = $2 WHERE id = $1`, id, statusText)
	if err != nil {
		return fmt.Errorf("failed to update feed item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrFeedItemNotFound
	}
	return nil
}

// DeleteFeedItem removes a single feed item.
func (r *Repository) DeleteFeedItem(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM profile_feed_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete feed item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrFeedItemNotFound
	}
	return nil
}

// CountFeedItemsByOwner returns how many feed items a profile owns.
func (r *Repository) CountFeedItemsByOwner(ctx context.Context, ownerID string) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM profile_feed_items WHERE user_profile_id = $1`, ownerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count feed items: %w", err)
	}
	return n, nil
}

func scanFeedItem(row pgx.Row) (*model.FeedItem, error) {
	var item model.FeedItem
	err := row.Scan(&item.ID, &item.UserProfileID, &item.StatusText, &item.CreatedOn)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFeedItemNotFound
		}
		return nil, fmt.Errorf("failed to scan feed item: %w", err)
	}
	return &item, nil
}
