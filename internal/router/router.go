// Package router initializes the HTTP router (using Echo).
//
// It registers the middlewares and defines the API route groups,
// mapping specific paths to their corresponding handlers
package router

import (
	"github.com/deppfellow/post-gateway/internal/handler"
	"github.com/deppfellow/post-gateway/internal/middleware"
	"github.com/deppfellow/post-gateway/internal/server"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// NewRouter builds the Echo instance with the middleware chain and all routes.
//
// Trailing slashes are stripped before routing, so "/posts/" lists posts.
//
// Middleware order matters:
//  1. RequestID before anything that logs
//  2. New Relic before ContextEnhancer, so the logger picks up trace ids
//  3. ContextEnhancer before RequestLogger, which reads the request logger
//  4. Metrics outside Recover, so recovered panics are counted as 500s
func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true

	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	router.Pre(echomw.RemoveTrailingSlash())

	router.Use(
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.RequestLogger(),
		middlewares.Metrics.Record(),
		middlewares.Global.Recover(),
		middlewares.Global.CORS(),
		middlewares.Global.Secure(),
	)

	registerSystemRoutes(router, h)

	h.Posts.Register(router.Group("/posts"))

	return router
}
