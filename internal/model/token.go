package model

import (
	"slices"
	"time"
)

// Scope constants for token authorization.
const (
	ScopeRead  = "read"
	ScopeWrite = "write"
	ScopeAdmin = "admin"
)

// ValidScopes contains all valid scope values.
var ValidScopes = []string{ScopeRead, ScopeWrite, ScopeAdmin}

// ScopesFor returns the scopes granted to a login session of the profile.
func ScopesFor(u *UserProfile) []string {
	scopes := []string{ScopeRead, ScopeWrite}
	if u.IsAdmin() {
		scopes = append(scopes, ScopeAdmin)
	}
	return scopes
}

// AuthToken is an opaque bearer token issued at login.
type AuthToken struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	TokenHash   string     `json:"-"` // Never serialize
	TokenPrefix string     `json:"token_prefix"`
	Scopes      []string   `json:"scopes"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// IsRevoked returns true if the token has been revoked.
func (t *AuthToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// AuthContext holds authenticated request context.
// This is injected into the request context by auth middleware.
type AuthContext struct {
	TokenID     string
	TokenPrefix string
	UserID      string
	Scopes      []string
}

// HasScope checks if the auth context has a specific scope.
func (a *AuthContext) HasScope(scope string) bool {
	if slices.Contains(a.Scopes, ScopeAdmin) {
		return true
	}
	return slices.Contains(a.Scopes, scope)
}

// IsAdmin reports whether the context carries the admin scope.
func (a *AuthContext) IsAdmin() bool {
	return slices.Contains(a.Scopes, ScopeAdmin)
}

// CanActOn reports whether the caller may modify resources owned by ownerID.
func (a *AuthContext) CanActOn(ownerID string) bool {
	if a == nil {
		return false
	}
	return a.UserID == ownerID || a.IsAdmin()
}
