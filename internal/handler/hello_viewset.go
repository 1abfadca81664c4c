package handler

import (
	"net/http"

	"github.com/profilesapi/profiles/internal/handler/dto"
	"github.com/profilesapi/profiles/internal/validation"
)

var viewSetFeatures = []string{
	"Uses actions (list, create, retrieve, update, partial_update",
	"Auto maps to URLs using Routers",
	"Provides more functionality with less code",
}

// HelloViewSet is the action-based greeting endpoint. Its routes are derived
// from the action names by the router's view set mapper.
type HelloViewSet struct {
	validate *validation.Validator
}

// NewHelloViewSet creates a new HelloViewSet.
func NewHelloViewSet(v *validation.Validator) *HelloViewSet {
	return &HelloViewSet{validate: v}
}

// List returns the greeting and a description of view sets.
func (h *HelloViewSet) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.ViewSetListResponse{
		Message:  "Hello!",
		AViewSet: viewSetFeatures,
	})
}

// Create greets the posted name.
func (h *HelloViewSet) Create(w http.ResponseWriter, r *http.Request) {
	name, ok := decodeHelloName(w, r, h.validate)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Hello " + name + "!"})
}

func (h *HelloViewSet) Retrieve(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.HTTPMethodResponse{HTTPMethod: http.MethodGet})
}

func (h *HelloViewSet) Update(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.HTTPMethodResponse{HTTPMethod: http.MethodPut})
}

func (h *HelloViewSet) PartialUpdate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.HTTPMethodResponse{HTTPMethod: http.MethodPatch})
}

func (h *HelloViewSet) Destroy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.HTTPMethodResponse{HTTPMethod: http.MethodDelete})
}
