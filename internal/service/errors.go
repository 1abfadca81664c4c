// Package service provides business logic for profiles, feed items and
// authentication.
package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Service errors.
var (
	ErrValidation         = errors.New("validation failed")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrFeedItemNotFound   = errors.New("feed item not found")
	ErrOwnerNotFound      = errors.New("owner profile not found")
	ErrForbidden          = errors.New("not allowed to modify this resource")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("unable to log in with provided credentials")
	ErrInvalidToken       = errors.New("invalid or revoked token")
)

// ValidationError carries per-field messages. It matches ErrValidation
// under errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap lets errors.Is(err, ErrValidation) succeed.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func fieldError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// validationFrom returns nil when details is empty.
func validationFrom(details map[string]string) error {
	if len(details) == 0 {
		return nil
	}
	return &ValidationError{Fields: details}
}

// Field messages shared by services and handlers.
const (
	MsgEmailRequired = "Users must have an email address."
	MsgEmailTaken    = "user profile with this email already exists."
	MsgRequired      = "This field is required."
	MsgInvalidCursor = "Invalid cursor."
)
