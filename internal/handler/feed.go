package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/profilesapi/profiles/internal/auth"
	"github.com/profilesapi/profiles/internal/handler/dto"
	"github.com/profilesapi/profiles/internal/service"
)

// FeedHandler handles HTTP requests for feed item operations.
type FeedHandler struct {
	svc    *service.FeedService
	logger *slog.Logger
}

// NewFeedHandler creates a new FeedHandler.
func NewFeedHandler(svc *service.FeedService, logger *slog.Logger) *FeedHandler {
	return &FeedHandler{
		svc:    svc,
		logger: logger,
	}
}

// List handles GET /api/feed. ?user_profile= restricts to one owner.
func (h *FeedHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	result, err := h.svc.ListItems(r.Context(), service.ListFeedInput{
		OwnerID: query.Get("user_profile"),
		Cursor:  query.Get("cursor"),
		Limit:   parseLimit(r),
	})
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToFeedItemListResponse(result.Items, result.NextCursor))
}

// Create handles POST /api/feed. The caller becomes the owner.
func (h *FeedHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.FeedItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var text string
	if req.StatusText != nil {
		text = *req.StatusText
	}

	item, err := h.svc.CreateItem(r.Context(), auth.AuthFromContext(r.Context()), text)
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	h.logger.Info("feed_item_created",
		"feed_item_id", item.ID,
		"user_profile", item.UserProfileID,
	)

	writeJSON(w, http.StatusCreated, dto.ToFeedItemResponse(item))
}

// Retrieve handles GET /api/feed/{id}.
func (h *FeedHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.GetItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToFeedItemResponse(item))
}

// Update handles PUT /api/feed/{id}.
func (h *FeedHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, false)
}

// PartialUpdate handles PATCH /api/feed/{id}. An empty patch is a no-op that
// still requires permission on the item.
func (h *FeedHandler) PartialUpdate(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, true)
}

func (h *FeedHandler) update(w http.ResponseWriter, r *http.Request, partial bool) {
	var req dto.FeedItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var text string
	switch {
	case req.StatusText != nil:
		text = *req.StatusText
	case partial:
		current, err := h.svc.GetItem(ctx, id)
		if err != nil {
			handleServiceError(h.logger, w, r, err)
			return
		}
		text = current.StatusText
	}

	item, err := h.svc.UpdateItem(ctx, auth.AuthFromContext(ctx), id, text)
	if err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	h.logger.Info("feed_item_updated",
		"feed_item_id", item.ID,
	)

	writeJSON(w, http.StatusOK, dto.ToFeedItemResponse(item))
}

// Destroy handles DELETE /api/feed/{id}.
func (h *FeedHandler) Destroy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.svc.DeleteItem(r.Context(), auth.AuthFromContext(r.Context()), id); err != nil {
		handleServiceError(h.logger, w, r, err)
		return
	}

	h.logger.Info("feed_item_deleted", "feed_item_id", id)

	w.WriteHeader(http.StatusNoContent)
}
