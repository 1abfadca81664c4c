// Package model defines domain entities for the application.
package model

import (
	"strings"
	"time"
)

// UserProfile is an email-keyed identity. Email is the login key and is
// stored in normalized form.
type UserProfile struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"` // Never serialize
	IsActive     bool       `json:"is_active"`
	IsStaff      bool       `json:"is_staff"`
	IsSuperuser  bool       `json:"is_superuser"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// FullName returns the display name of the profile.
func (u *UserProfile) FullName() string {
	return u.Name
}

// ShortName returns the short display name of the profile.
func (u *UserProfile) ShortName() string {
	return u.Name
}

// String returns the email of the profile.
func (u *UserProfile) String() string {
	return u.Email
}

// IsAdmin reports whether the profile carries both elevated flags.
func (u *UserProfile) IsAdmin() bool {
	return u.IsStaff && u.IsSuperuser
}

// NormalizeEmail returns the canonical form of an email address.
// Surrounding whitespace is removed and the whole address is lowercased,
// so two addresses differing only in case map to the same identity.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
