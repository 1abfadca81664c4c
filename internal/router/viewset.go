package router

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
)

// ViewSet groups the standard resource actions. MountViewSet derives the
// routes from the action names instead of wiring each verb by hand.
type ViewSet interface {
	List(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Retrieve(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	PartialUpdate(w http.ResponseWriter, r *http.Request)
	Destroy(w http.ResponseWriter, r *http.Request)
}

// Action names a ViewSet method.
type Action string

const (
	ActionList          Action = "list"
	ActionCreate        Action = "create"
	ActionRetrieve      Action = "retrieve"
	ActionUpdate        Action = "update"
	ActionPartialUpdate Action = "partial_update"
	ActionDestroy       Action = "destroy"
)

// WriteActions are the actions that change state.
var WriteActions = []Action{ActionCreate, ActionUpdate, ActionPartialUpdate, ActionDestroy}

// ViewSetOptions attaches middleware to selected actions.
type ViewSetOptions struct {
	Guard   func(http.Handler) http.Handler
	Guarded []Action
}

type route struct {
	action  Action
	method  string
	pattern string
	handler http.HandlerFunc
}

// MountViewSet registers vs under prefix:
//
//	GET    prefix          list
//	POST   prefix          create
//	GET    prefix/{id}     retrieve
//	PUT    prefix/{id}     update
//	PATCH  prefix/{id}     partial_update
//	DELETE prefix/{id}     destroy
func MountViewSet(r chi.Router, prefix string, vs ViewSet, opts ViewSetOptions) {
	routes := []route{
		{ActionList, http.MethodGet, "/", vs.List},
		{ActionCreate, http.MethodPost, "/", vs.Create},
		{ActionRetrieve, http.MethodGet, "/{id}", vs.Retrieve},
		{ActionUpdate, http.MethodPut, "/{id}", vs.Update},
		{ActionPartialUpdate, http.MethodPatch, "/{id}", vs.PartialUpdate},
		{ActionDestroy, http.MethodDelete, "/{id}", vs.Destroy},
	}

	r.Route(prefix, func(r chi.Router) {
		for _, rt := range routes {
			var h http.Handler = rt.handler
			if opts.Guard != nil && slices.Contains(opts.Guarded, rt.action) {
				h = opts.Guard(h)
			}
			r.Method(rt.method, rt.pattern, h)
		}
	})
}
