package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/profilesapi/profiles/internal/auth"
	"github.com/profilesapi/profiles/internal/metrics"
	"github.com/profilesapi/profiles/internal/model"
	"github.com/profilesapi/profiles/internal/repository"
)

// LoginProfileStore is the subset of ProfileStore used for authentication.
type LoginProfileStore interface {
	ProfileReader
	SetLastLogin(ctx context.Context, id string, at time.Time) error
}

// AuthService issues, verifies and revokes bearer tokens.
type AuthService struct {
	profiles LoginProfileStore
	tokens   TokenStore
	cache    AuthCache
	hasher   *auth.Hasher
	env      string
	metrics  metrics.Recorder
	now      func() time.Time
}

// NewAuthService creates a new AuthService. cache may be nil. env selects the
// token environment marker ("live" or "test").
func NewAuthService(profiles LoginProfileStore, tokens TokenStore, cache AuthCache, hasher *auth.Hasher, env string, recorder metrics.Recorder) *AuthService {
	if hasher == nil {
		hasher = auth.NewHasher(auth.DefaultParams)
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AuthService{
		profiles: profiles,
		tokens:   tokens,
		cache:    cache,
		hasher:   hasher,
		env:      env,
		metrics:  recorder,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// LoginResult carries the plaintext token, shown once.
type LoginResult struct {
	Token   string
	Profile *model.UserProfile
}

// Login verifies credentials and issues a new token. Unknown emails,
// inactive profiles and wrong passwords all yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = model.NormalizeEmail(email)
	if email == "" || password == "" {
		s.metrics.IncLoginAttempt(metrics.LoginInvalid)
		return nil, ErrInvalidCredentials
	}

	user, err := s.profiles.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.metrics.IncLoginAttempt(metrics.LoginInvalid)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok || !user.IsActive {
		s.metrics.IncLoginAttempt(metrics.LoginInvalid)
		return nil, ErrInvalidCredentials
	}

	generated, err := auth.GenerateToken(s.hasher, s.env)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	now := s.now()
	token := &model.AuthToken{
		ID:          ulid.Make().String(),
		UserID:      user.ID,
		TokenHash:   generated.Hash,
		TokenPrefix: generated.Prefix,
		Scopes:      model.ScopesFor(user),
		CreatedAt:   now,
	}
	if err := s.tokens.CreateAuthToken(ctx, token); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to store token: %w", err)
	}

	if err := s.profiles.SetLastLogin(ctx, user.ID, now); err == nil {
		user.LastLogin = &now
	}

	s.metrics.IncLoginAttempt(metrics.LoginSuccess)
	return &LoginResult{Token: generated.Plaintext, Profile: user}, nil
}

// Authenticate resolves a plaintext token to an AuthContext, checking the
// cache before the token store.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*model.AuthContext, error) {
	parsed, err := auth.ParseToken(raw)
	if err != nil {
		return nil, ErrInvalidToken
	}

	cacheKey := auth.QuickHash(raw)
	if s.cache != nil {
		if cached, _ := s.cache.GetAuthContext(ctx, cacheKey); cached != nil {
			return cached, nil
		}
	}

	candidates, err := s.tokens.GetAuthTokensByPrefix(ctx, parsed.Prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}

	// Prefixes can collide, so verify every candidate.
	var matched *model.AuthToken
	for _, t := range candidates {
		if ok, err := auth.VerifyPassword(raw, t.TokenHash); err == nil && ok {
			matched = t
			break
		}
	}
	if matched == nil {
		return nil, ErrInvalidToken
	}

	owner, err := s.profiles.GetUserByID(ctx, matched.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to load token owner: %w", err)
	}
	if !owner.IsActive {
		return nil, ErrInvalidToken
	}

	// Scopes follow the owner's current flags, not those at login.
	authCtx := &model.AuthContext{
		TokenID:     matched.ID,
		TokenPrefix: matched.TokenPrefix,
		UserID:      matched.UserID,
		Scopes:      model.ScopesFor(owner),
	}

	if s.cache != nil {
		_ = s.cache.SetAuthContext(ctx, cacheKey, authCtx)
	}

	go func(id string) {
		bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = s.tokens.UpdateAuthTokenLastUsed(bg, id)
	}(matched.ID)

	return authCtx, nil
}

// Logout revokes the token behind authCtx. raw is the plaintext token used
// for the request and identifies its cache entry.
func (s *AuthService) Logout(ctx context.Context, authCtx *model.AuthContext, raw string) error {
	if authCtx == nil {
		return ErrUnauthenticated
	}

	if err := s.tokens.RevokeAuthToken(ctx, authCtx.TokenID); err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	if s.cache != nil && raw != "" {
		_ = s.cache.DeleteAuthContext(ctx, auth.QuickHash(raw))
	}
	return nil
}
