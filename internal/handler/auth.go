package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/profilesapi/profiles/internal/auth"
	"github.com/profilesapi/profiles/internal/handler/dto"
	"github.com/profilesapi/profiles/internal/middleware"
	"github.com/profilesapi/profiles/internal/service"
	"github.com/profilesapi/profiles/internal/validation"
)

// AuthHandler handles login and logout.
type AuthHandler struct {
	svc      *service.AuthService
	validate *validation.Validator
	logger   *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService, v *validation.Validator, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:      svc,
		validate: v,
		logger:   logger,
	}
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if details := h.validate.Struct(req); details != nil {
		writeValidationError(w, details)
		return
	}

	result, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.logger.Warn("login_failed",
				slog.String("request_id", middleware.GetRequestID(r.Context())),
			)
		}
		handleServiceError(h.logger, w, r, err)
		return
	}

	h.logger.Info("login_succeeded",
		slog.String("profile_id", result.Profile.ID),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)

	// Token is shown once only.
	writeJSON(w, http.StatusOK, dto.LoginResponse{
		Token:   result.Token,
		Profile: dto.ToProfileResponse(result.Profile),
	})
}

// Logout handles POST /api/logout. It revokes the token used for the request.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := auth.AuthFromContext(ctx)

	if err := h.svc.Logout(ctx, authCtx, middleware.RawTokenFromContext(ctx)); err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	h.logger.Info("logout",
		slog.String("token_id", authCtx.TokenID),
		slog.String("profile_id", authCtx.UserID),
	)

	w.WriteHeader(http.StatusNoContent)
}
