package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/profilesapi/profiles/internal/auth"
	"github.com/profilesapi/profiles/internal/metrics"
	"github.com/profilesapi/profiles/internal/model"
	"github.com/profilesapi/profiles/internal/repository"
	"github.com/profilesapi/profiles/internal/validation"
)

// ProfileService manages the identity lifecycle: creation, promotion,
// updates and cascading deletion.
type ProfileService struct {
	store    ProfileStore
	cache    AuthCache
	hasher   *auth.Hasher
	validate *validation.Validator
	metrics  metrics.Recorder
	now      func() time.Time
}

// NewProfileService creates a new ProfileService. cache may be nil.
func NewProfileService(store ProfileStore, cache AuthCache, hasher *auth.Hasher, recorder metrics.Recorder) *ProfileService {
	if hasher == nil {
		hasher = auth.NewHasher(auth.DefaultParams)
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ProfileService{
		store:    store,
		cache:    cache,
		hasher:   hasher,
		validate: validation.New(),
		metrics:  recorder,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateProfileInput defines input for creating a profile.
type CreateProfileInput struct {
	Email    string
	Name     string
	Password string
}

// profileFields mirrors the stored constraints of a profile.
type profileFields struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Name     string `json:"name" validate:"required,max=255"`
	Password string `json:"password" validate:"required,max=128"`
}

// identityFields is profileFields without the password, for updates that
// leave it unchanged.
type identityFields struct {
	Email string `json:"email" validate:"required,email,max=255"`
	Name  string `json:"name" validate:"required,max=255"`
}

const passwordRules = "required,max=128"

// CreateUser validates and normalizes the email, hashes the password and
// persists a regular profile. Nothing is persisted when validation fails.
func (s *ProfileService) CreateUser(ctx context.Context, input CreateProfileInput) (*model.UserProfile, error) {
	return s.create(ctx, input, false)
}

// CreateSuperuser creates a profile with staff and superuser flags set.
func (s *ProfileService) CreateSuperuser(ctx context.Context, input CreateProfileInput) (*model.UserProfile, error) {
	return s.create(ctx, input, true)
}

func (s *ProfileService) create(ctx context.Context, input CreateProfileInput, superuser bool) (*model.UserProfile, error) {
	email := model.NormalizeEmail(input.Email)
	if email == "" {
		return nil, fieldError("email", MsgEmailRequired)
	}

	fields := profileFields{
		Email:    email,
		Name:     strings.TrimSpace(input.Name),
		Password: input.Password,
	}
	if err := validationFrom(s.validate.Struct(fields)); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(fields.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &model.UserProfile{
		ID:           ulid.Make().String(),
		Email:        fields.Email,
		Name:         fields.Name,
		PasswordHash: hash,
		IsActive:     true,
		IsStaff:      superuser,
		IsSuperuser:  superuser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, fieldError("email", MsgEmailTaken)
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	kind := "user"
	if superuser {
		kind = "superuser"
	}
	s.metrics.IncProfileCreated(kind)

	return user, nil
}

// GetProfile retrieves a profile by ID.
func (s *ProfileService) GetProfile(ctx context.Context, id string) (*model.UserProfile, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return user, nil
}

// ListProfilesInput defines input for listing profiles.
type ListProfilesInput struct {
	Search string
	Cursor string
	Limit  int
}

// ListProfilesOutput is one page of profiles.
type ListProfilesOutput struct {
	Profiles   []*model.UserProfile
	NextCursor string
}

// ListProfiles returns profiles newest first, optionally filtered by a
// name or email search term.
func (s *ProfileService) ListProfiles(ctx context.Context, input ListProfilesInput) (*ListProfilesOutput, error) {
	users, next, err := s.store.ListUsers(ctx, repository.UserFilter{Search: input.Search}, input.Cursor, clampLimit(input.Limit))
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCursor) {
			return nil, fieldError("cursor", MsgInvalidCursor)
		}
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return &ListProfilesOutput{Profiles: users, NextCursor: next}, nil
}

// UpdateProfileInput defines a full or partial update. Nil fields are left
// unchanged on a partial update and are required on a full update.
type UpdateProfileInput struct {
	Email    *string
	Name     *string
	Password *string
	Partial  bool
}

// UpdateProfile applies an update on behalf of actor, who must own the
// profile or be an admin. A supplied password is re-hashed.
func (s *ProfileService) UpdateProfile(ctx context.Context, actor *model.AuthContext, id string, input UpdateProfileInput) (*model.UserProfile, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	user, err := s.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanActOn(user.ID) {
		return nil, ErrForbidden
	}

	if !input.Partial {
		missing := map[string]string{}
		if input.Email == nil {
			missing["email"] = MsgRequired
		}
		if input.Name == nil {
			missing["name"] = MsgRequired
		}
		if input.Password == nil {
			missing["password"] = MsgRequired
		}
		if err := validationFrom(missing); err != nil {
			return nil, err
		}
	}

	fields := identityFields{Email: user.Email, Name: user.Name}
	if input.Email != nil {
		fields.Email = model.NormalizeEmail(*input.Email)
		if fields.Email == "" {
			return nil, fieldError("email", MsgEmailRequired)
		}
	}
	if input.Name != nil {
		fields.Name = strings.TrimSpace(*input.Name)
	}
	details := s.validate.Struct(fields)
	if input.Password != nil {
		if msg := s.validate.Var(*input.Password, passwordRules); msg != "" {
			if details == nil {
				details = map[string]string{}
			}
			details["password"] = msg
		}
	}
	if err := validationFrom(details); err != nil {
		return nil, err
	}

	user.Email = fields.Email
	user.Name = fields.Name
	if input.Password != nil {
		hash, err := s.hasher.Hash(*input.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	user.UpdatedAt = s.now()

	if err := s.store.UpdateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return nil, fieldError("email", MsgEmailTaken)
		case errors.Is(err, repository.ErrUserNotFound):
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.metrics.IncProfileUpdated()
	return user, nil
}

// Promote grants staff and superuser flags. Only admins may promote.
func (s *ProfileService) Promote(ctx context.Context, actor *model.AuthContext, id string) (*model.UserProfile, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	user, err := s.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.IsAdmin() {
		return user, nil
	}

	user.IsStaff = true
	user.IsSuperuser = true
	user.UpdatedAt = s.now()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to promote profile: %w", err)
	}

	// Dropping cached contexts makes live tokens pick up the admin scope.
	s.invalidateSessions(ctx, user.ID)
	s.metrics.IncProfileUpdated()
	return user, nil
}

// DeleteProfile removes a profile and, in the same transaction, every feed
// item and token it owns. It returns the number of feed items removed.
func (s *ProfileService) DeleteProfile(ctx context.Context, actor *model.AuthContext, id string) (int64, error) {
	if actor == nil {
		return 0, ErrUnauthenticated
	}
	if !actor.CanActOn(id) {
		if _, err := s.GetProfile(ctx, id); err != nil {
			return 0, err
		}
		return 0, ErrForbidden
	}

	removed, err := s.store.DeleteUser(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return 0, ErrProfileNotFound
		}
		return 0, fmt.Errorf("failed to delete profile: %w", err)
	}

	s.invalidateSessions(ctx, id)
	s.metrics.IncProfileDeleted()
	s.metrics.IncFeedItemsDeleted(int(removed))

	return removed, nil
}

// invalidateSessions drops cached auth contexts; entries expire on their own
// if Redis is unavailable.
func (s *ProfileService) invalidateSessions(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.InvalidateUserAuthContexts(ctx, userID)
}
