package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/profilesapi/profiles/internal/auth"
	"github.com/profilesapi/profiles/internal/handler/dto"
	"github.com/profilesapi/profiles/internal/service"
)

// ProfileHandler handles HTTP requests for profile operations.
type ProfileHandler struct {
	svc    *service.ProfileService
	logger *slog.Logger
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(svc *service.ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		svc:    svc,
		logger: logger,
	}
}

// List handles GET /api/profile.
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	result, err := h.svc.ListProfiles(r.Context(), service.ListProfilesInput{
		Search: query.Get("search"),
		Cursor: query.Get("cursor"),
		Limit:  parseLimit(r),
	})
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToProfileListResponse(result.Profiles, result.NextCursor))
}

// Create handles POST /api/profile. Registration is open to anonymous callers.
func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.ProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	email, name, password := req.Values()
	user, err := h.svc.CreateUser(r.Context(), service.CreateProfileInput{
		Email:    email,
		Name:     name,
		Password: password,
	})
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	h.logger.Info("profile_created",
		"profile_id", user.ID,
	)

	writeJSON(w, http.StatusCreated, dto.ToProfileResponse(user))
}

// Retrieve handles GET /api/profile/{id}.
func (h *ProfileHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.GetProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToProfileResponse(user))
}

// Update handles PUT /api/profile/{id}.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, false)
}

// PartialUpdate handles PATCH /api/profile/{id}.
func (h *ProfileHandler) PartialUpdate(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, true)
}

func (h *ProfileHandler) update(w http.ResponseWriter, r *http.Request, partial bool) {
	var req dto.ProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	user, err := h.svc.UpdateProfile(r.Context(), auth.AuthFromContext(r.Context()), id, service.UpdateProfileInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Partial:  partial,
	})
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	h.logger.Info("profile_updated",
		"profile_id", user.ID,
		"partial", partial,
		"password_changed", req.Password != nil,
	)

	writeJSON(w, http.StatusOK, dto.ToProfileResponse(user))
}

// Destroy handles DELETE /api/profile/{id}. The profile's feed items and
// tokens are removed with it.
func (h *ProfileHandler) Destroy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	removed, err := h.svc.DeleteProfile(r.Context(), auth.AuthFromContext(r.Context()), id)
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	h.logger.Info("profile_deleted",
		"profile_id", id,
		"feed_items_removed", removed,
	)

	w.WriteHeader(http.StatusNoContent)
}

// Promote handles POST /api/admin/profiles/{id}/promote.
func (h *ProfileHandler) Promote(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Promote(r.Context(), auth.AuthFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	h.logger.Info("profile_promoted",
		"profile_id", user.ID,
		"by", auth.UserIDFromContext(r.Context()),
	)

	writeJSON(w, http.StatusOK, dto.ToProfileResponse(user))
}
