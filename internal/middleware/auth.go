package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/profilesapi/profiles/internal/auth"
	"github.com/profilesapi/profiles/internal/model"
	"github.com/profilesapi/profiles/internal/service"
)

// DefaultMinAuthDuration is the minimum time spent on a failed or successful
// authentication so response timing does not reveal which step rejected a token.
const DefaultMinAuthDuration = 200 * time.Millisecond

// Authenticator resolves a raw bearer token into an auth context.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (*model.AuthContext, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger        *slog.Logger
	Authenticator Authenticator
	// MinDuration pads every authentication attempt. Zero disables padding.
	MinDuration time.Duration
}

type rawTokenKey struct{}

// RawTokenFromContext returns the plaintext token the request authenticated with.
func RawTokenFromContext(ctx context.Context) string {
	s, _ := ctx.Value(rawTokenKey{}).(string)
	return s
}

// Auth returns a middleware that requires a valid token.
// It extracts the token from the Authorization header, resolves it,
// and injects the auth context into the request.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return authenticate(cfg, true)
}

// OptionalAuth resolves a token when one is supplied but lets anonymous
// requests through. An invalid token is still rejected.
func OptionalAuth(cfg AuthConfig) func(http.Handler) http.Handler {
	return authenticate(cfg, false)
}

func authenticate(cfg AuthConfig, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" && !required {
				next.ServeHTTP(w, r)
				return
			}

			startTime := time.Now()
			pad := func() {
				if elapsed := time.Since(startTime); elapsed < cfg.MinDuration {
					time.Sleep(cfg.MinDuration - elapsed)
				}
			}

			if token == "" {
				logAuthFailure(cfg.Logger, r, "missing_token")
				pad()
				writeAuthError(w)
				return
			}

			authCtx, err := cfg.Authenticator.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, service.ErrInvalidToken) {
					logAuthFailure(cfg.Logger, r, "invalid_token")
				} else {
					cfg.Logger.Error("authentication error",
						slog.String("error", err.Error()),
						slog.String("request_id", GetRequestID(r.Context())),
					)
				}
				pad()
				writeAuthError(w)
				return
			}
			pad()

			cfg.Logger.Debug("authentication successful",
				slog.String("token_id", authCtx.TokenID),
				slog.String("token_prefix", authCtx.TokenPrefix),
				slog.String("user_id", authCtx.UserID),
				slog.String("endpoint", r.Method+" "+r.URL.Path),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			ctx := auth.ContextWithAuth(r.Context(), authCtx)
			ctx = context.WithValue(ctx, rawTokenKey{}, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func logAuthFailure(logger *slog.Logger, r *http.Request, reason string) {
	logger.Warn("authentication failed",
		slog.String("reason", reason),
		slog.String("ip", r.RemoteAddr),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
}

// extractToken extracts the token from the request.
// Supports "Authorization: Bearer <token>", "Authorization: Token <token>"
// and "X-Auth-Token: <token>".
func extractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		for _, scheme := range []string{"Bearer ", "Token "} {
			if strings.HasPrefix(h, scheme) {
				return strings.TrimSpace(strings.TrimPrefix(h, scheme))
			}
		}
	}
	return r.Header.Get("X-Auth-Token")
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Invalid or missing token","code":"UNAUTHORIZED"}`))
}
