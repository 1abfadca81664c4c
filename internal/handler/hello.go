package handler

import (
	"net/http"
	"strings"

	"github.com/profilesapi/profiles/internal/handler/dto"
	"github.com/profilesapi/profiles/internal/validation"
)

var apiViewFeatures = []string{
	"Uses HTTP methods as function (get, post, patch, put, delete)",
	"Is similar to a traditional Django View",
	"Gives you the most control over your application logic",
	"Is mapped manually to URLs",
}

// HelloView is the per-verb greeting endpoint: one method per HTTP verb,
// each registered on the router by hand.
type HelloView struct {
	validate *validation.Validator
}

// NewHelloView creates a new HelloView.
func NewHelloView(v *validation.Validator) *HelloView {
	return &HelloView{validate: v}
}

// Get handles GET /api/hello-view.
func (h *HelloView) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.APIViewListResponse{
		Message:   "Hello",
		AnAPIView: apiViewFeatures,
	})
}

// Post handles POST /api/hello-view.
func (h *HelloView) Post(w http.ResponseWriter, r *http.Request) {
	name, ok := decodeHelloName(w, r, h.validate)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Hello " + name})
}

// Put handles PUT /api/hello-view[/{id}].
func (h *HelloView) Put(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.MethodResponse{Method: http.MethodPut})
}

// Patch handles PATCH /api/hello-view[/{id}].
func (h *HelloView) Patch(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.MethodResponse{Method: http.MethodPatch})
}

// Delete handles DELETE /api/hello-view[/{id}].
func (h *HelloView) Delete(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.MethodResponse{Method: http.MethodDelete})
}

// decodeHelloName decodes, trims and validates {"name": ...}, writing a 400
// on failure.
func decodeHelloName(w http.ResponseWriter, r *http.Request, v *validation.Validator) (string, bool) {
	var req dto.HelloNameRequest
	if !decodeJSON(w, r, &req) {
		return "", false
	}
	req.Name = strings.TrimSpace(req.Name)
	if details := v.Struct(req); details != nil {
		writeValidationError(w, details)
		return "", false
	}
	return req.Name, true
}
