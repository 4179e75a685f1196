package handler

import (
	"net/http"

	"github.com/deppfellow/post-gateway/internal/server"
	"github.com/deppfellow/post-gateway/static"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// OpenAPIHandler serves the OpenAPI UI for exploring the API.
//
// The UI is a static HTML page that loads Swagger UI from a CDN and renders
// /static/openapi.json.
type OpenAPIHandler struct {
	Handler
}

// NewOpenAPIHandler constructs an OpenAPIHandler with access to shared dependencies.
func NewOpenAPIHandler(s *server.Server) *OpenAPIHandler {
	return &OpenAPIHandler{
		Handler: NewHandler(s),
	}
}

// ServeOpenAPIUI serves the embedded openapi.html.
//
// Cache-Control is set to "no-cache" so clients do not reuse old docs UI.
func (h *OpenAPIHandler) ServeOpenAPIUI(c echo.Context) error {
	page, err := static.Files.ReadFile(static.OpenAPIUI)
	if err != nil {
		return errors.Wrap(err, "failed to read OpenAPI UI template")
	}

	c.Response().Header().Set("Cache-Control", "no-cache")

	if err := c.HTMLBlob(http.StatusOK, page); err != nil {
		return errors.Wrap(err, "failed to write HTML response")
	}

	return nil
}
