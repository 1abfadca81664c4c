package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
	"github.com/profilesapi/profiles/internal/model"
)

const tokenColumns = `id, user_id, token_hash, token_prefix, scopes, revoked_at, last_used_at, created_at`

// CreateAuthToken inserts a new auth token.
func (r *Repository) CreateAuthToken(ctx context.Context, token *model.AuthToken) error {
	query := `
		INSERT INTO auth_tokens (id, user_id, token_hash, token_prefix, scopes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		token.ID,
		token.UserID,
		token.TokenHash,
		token.TokenPrefix,
		pq.Array(token.Scopes),
		token.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to create auth token: %w", err)
	}
	return nil
}

// GetAuthTokensByPrefix returns active tokens sharing a prefix.
// Used during authentication to find candidates for hash verification.
func (r *Repository) GetAuthTokensByPrefix(ctx context.Context, prefix string) ([]*model.AuthToken, error) {
	query := `SELECT ` + tokenColumns + ` FROM auth_tokens WHERE token_prefix = $1 AND revoked_at IS NULL`

	rows, err := r.pool.Query(ctx, query, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to get auth tokens by prefix: %w", err)
	}
	defer rows.Close()

	var tokens []*model.AuthToken
	for rows.Next() {
		token, err := scanAuthToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating auth tokens: %w", err)
	}

	return tokens, nil
}

// RevokeAuthToken sets revoked_at on an active token.
func (r *Repository) RevokeAuthToken(ctx context.Context, id string) error {
	query := `UPDATE auth_tokens SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL`

	result, err := r.pool.Exec(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to revoke auth token: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrTokenNotFound
	}
	return nil
}

// UpdateAuthTokenLastUsed updates last_used_at.
// Called asynchronously after successful authentication.
func (r *Repository) UpdateAuthTokenLastUsed(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `UPDATE auth_tokens SET last_used_at = $2 WHERE id = $1`, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update auth token last used: %w", err)
	}
	return nil
}

func scanAuthToken(row pgx.Row) (*model.AuthToken, error) {
	var token model.AuthToken
	var scopes []string

	err := row.Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.TokenPrefix,
		pq.Array(&scopes),
		&token.RevokedAt,
		&token.LastUsedAt,
		&token.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to scan auth token: %w", err)
	}

	// Scopes no longer recognised are dropped rather than honoured.
	token.Scopes = slices.DeleteFunc(scopes, func(s string) bool {
		return !slices.Contains(model.ValidScopes, s)
	})
	return &token, nil
}
