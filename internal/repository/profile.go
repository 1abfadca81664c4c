package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/profilesapi/profiles/internal/model"
)

// UserFilter narrows profile listings.
type UserFilter struct {
	// Search matches name or email, case-insensitively.
	Search string
}

const userColumns = `id, email, name, password_hash, is_active, is_staff, is_superuser, last_login, created_at, updated_at`

// CreateUser inserts a new profile. A duplicate email yields ErrEmailExists.
func (r *Repository) CreateUser(ctx context.Context, user *model.UserProfile) error {
	query := `
		INSERT INTO users (id, email, name, password_hash, is_active, is_staff, is_superuser, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.IsActive,
		user.IsStaff,
		user.IsSuperuser,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a profile by ID.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*model.UserProfile, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

// GetUserByEmail retrieves a profile by its normalized email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*model.UserProfile, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

// ListUsers returns a page of profiles, newest first, and the cursor of the
// next page ("" when there is none).
func (r *Repository) ListUsers(ctx context.Context, filter UserFilter, cursor string, limit int) ([]*model.UserProfile, string, error) {
	var cursorData *PaginationCursor
	if cursor != "" {
		var err error
		if cursorData, err = DecodeCursor(cursor); err != nil {
			return nil, "", err
		}
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE TRUE`
	var args []any
	argIndex := 1

	if s := strings.TrimSpace(filter.Search); s != "" {
		query += fmt.Sprintf(" AND (name ILIKE $%d OR email ILIKE $%d)", argIndex, argIndex)
		args = append(args, "%"+escapeLike(s)+"%")
		argIndex++
	}

	if cursorData != nil {
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", argIndex, argIndex+1)
		args = append(args, cursorData.CreatedAt, cursorData.ID)
		argIndex += 2
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", argIndex)
	args = append(args, limit+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*model.UserProfile
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, "", err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("error iterating users: %w", err)
	}

	var next string
	if len(users) > limit {
		users = users[:limit]
		last := users[len(users)-1]
		next = EncodeCursor(&PaginationCursor{ID: last.ID, CreatedAt: last.CreatedAt})
	}

	return users, next, nil
}

// UpdateUser writes the mutable fields of a profile.
func (r *Repository) UpdateUser(ctx context.Context, user *model.UserProfile) error {
	query := `
		UPDATE users
		SET email = $2, name = $3, password_hash = $4, is_active = $5, is_staff = $6, is_superuser = $7, updated_at = $8
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.IsActive,
		user.IsStaff,
		user.IsSuperuser,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetLastLogin records a successful login.
func (r *Repository) SetLastLogin(ctx context.Context, id string, at time.Time) error {
	result, err := r.pool.Exec(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to set last login: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// DeleteUser removes a profile together with its feed items and tokens in a
// single transaction and returns the number of feed items removed.
func (r *Repository) DeleteUser(ctx context.Context, id string) (int64, error) {
	var removed int64

	err := r.withTx(ctx, func(tx pgx.Tx) error {
		// Lock the owner row so concurrent feed inserts wait for the delete.
		var locked string
		err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to lock user: %w", err)
		}

		tag, err := tx.Exec(ctx, `DELETE FROM profile_feed_items WHERE user_profile_id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete feed items: %w", err)
		}
		removed = tag.RowsAffected()

		if _, err := tx.Exec(ctx, `DELETE FROM auth_tokens WHERE user_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete auth tokens: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return removed, nil
}

func scanUser(row pgx.Row) (*model.UserProfile, error) {
	var u model.UserProfile
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.PasswordHash,
		&u.IsActive,
		&u.IsStaff,
		&u.IsSuperuser,
		&u.LastLogin,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
