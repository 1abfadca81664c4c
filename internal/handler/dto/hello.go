package dto

// HelloNameRequest is the body accepted by the greeting endpoints.
type HelloNameRequest struct {
	Name string `json:"name" validate:"required,max=10"`
}

// MessageResponse is a single-message reply.
type MessageResponse struct {
	Message string `json:"message"`
}

// APIViewListResponse is the per-verb view's GET reply.
type APIViewListResponse struct {
	Message   string   `json:"message"`
	AnAPIView []string `json:"an_apiview"`
}

// ViewSetListResponse is the view set's list reply.
type ViewSetListResponse struct {
	Message  string   `json:"message"`
	AViewSet []string `json:"a_viewset"`
}

// MethodResponse echoes the verb handled by the per-verb view.
type MethodResponse struct {
	Method string `json:"method"`
}

// HTTPMethodResponse echoes the verb handled by the view set.
type HTTPMethodResponse struct {
	HTTPMethod string `json:"http_method"`
}
