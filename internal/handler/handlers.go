// Package handler is the first layer after the router.
//
// It binds requests, runs input validation through the validation package,
// and calls the service layer. It is the interface between the HTTP request
// and the gateway logic.
package handler

import (
	"github.com/deppfellow/post-gateway/internal/server"
	"github.com/deppfellow/post-gateway/internal/service"
)

// Handlers is a container that groups all HTTP handlers.
//
// Like Middlewares and Services, router setup receives one value instead of
// many.
type Handlers struct {
	Posts   *PostHandler    // Posts serves the five /posts operations.
	Health  *HealthHandler  // Health serves the /status endpoint.
	OpenAPI *OpenAPIHandler // OpenAPI serves the API documentation UI.
}

// NewHandlers constructs the handler container.
func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Posts:   NewPostHandler(s, services.Posts),
		Health:  NewHealthHandler(s),
		OpenAPI: NewOpenAPIHandler(s),
	}
}
