package middleware

import (
	"net/http"

	"github.com/deppfellow/post-gateway/internal/errs"
	"github.com/deppfellow/post-gateway/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// GlobalMiddlewares groups "global" middleware and the global error handler.
//
// Middleware functions read shared app dependencies from *server.Server,
// mostly config (CORS origins, env).
type GlobalMiddlewares struct {
	server *server.Server
}

// NewGlobalMiddlewares constructs the middleware bundle.
func NewGlobalMiddlewares(s *server.Server) *GlobalMiddlewares {
	return &GlobalMiddlewares{
		server: s,
	}
}

// CORS returns Echo's CORS middleware configured by the server config.
//
// An empty origin list falls back to Echo's default of allowing any origin.
func (global *GlobalMiddlewares) CORS() echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: global.server.Config.Server.CORSAllowedOrigins,
	})
}

// RequestLogger returns Echo's request logger middleware with a zerolog
// LogValuesFunc.
//
// It produces one "API" log line per request, with severity based on the
// final status.
func (global *GlobalMiddlewares) RequestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogError:   true,
		LogLatency: true,
		LogHost:    true,
		LogMethod:  true,
		LogURIPath: true,

		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			statusCode := v.Status

			// When a handler returns an error the global error handler has not
			// written the response yet, so v.Status still reads 200.
			// See https://github.com/labstack/echo/issues/2310#issuecomment-1288196898
			if v.Error != nil {
				statusCode = StatusFromError(v.Error)
			}

			logger := GetLogger(c)

			var e *zerolog.Event
			switch {
			case statusCode >= 500:
				e = logger.Error().Err(v.Error)
			case statusCode >= 400:
				e = logger.Warn()
			default:
				e = logger.Info()
			}

			e.
				Dur("latency", v.Latency).
				Int("status", statusCode).
				Str("uri", v.URI).
				Str("host", v.Host).
				Str("user_agent", c.Request().UserAgent()).
				Msg("API")

			return nil
		},
	})
}

// Recover returns Echo's panic recovery middleware.
//
// A recovered panic is handed to the global error handler as an error and
// answered with a 500.
func (global *GlobalMiddlewares) Recover() echo.MiddlewareFunc {
	return middleware.RecoverWithConfig(middleware.RecoverConfig{
		DisableStackAll: true,
	})
}

// Secure returns Echo's secure headers middleware.
func (global *GlobalMiddlewares) Secure() echo.MiddlewareFunc {
	return middleware.Secure()
}

// StatusFromError returns the status the global error handler answers err with.
func StatusFromError(err error) int {
	var fieldErrors errs.FieldErrors
	var httpErr *errs.HTTPError
	var echoErr *echo.HTTPError

	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &fieldErrors):
		return http.StatusBadRequest
	case errors.As(err, &httpErr):
		return httpErr.Status
	case errors.As(err, &echoErr):
		return echoErr.Code
	default:
		return http.StatusInternalServerError
	}
}

// GlobalErrorHandler is the final error funnel for the entire HTTP server.
//
// Every error returned by a handler or middleware ends up here and is
// translated into exactly one response:
//   - errs.FieldErrors: 400 with the JSON array of field errors
//   - *errs.HTTPError: its status with {message}
//   - echo's 404: 404 {message: "Route not found"}
//   - other echo errors (405, 413, ...): their status with the status text
//   - anything else: 500 {message: "Internal Server Error"}
func (global *GlobalMiddlewares) GlobalErrorHandler(err error, c echo.Context) {
	var fieldErrors errs.FieldErrors
	var httpErr *errs.HTTPError
	var echoErr *echo.HTTPError

	var status int
	var code string
	var body interface{}

	switch {
	case errors.As(err, &fieldErrors):
		status = http.StatusBadRequest
		code = "VALIDATION_FAILED"
		// A nil slice would serialize as null.
		if fieldErrors == nil {
			fieldErrors = errs.FieldErrors{}
		}
		body = fieldErrors

	case errors.As(err, &httpErr):
		status = httpErr.Status
		code = httpErr.Code
		body = httpErr

	case errors.As(err, &echoErr):
		mapped := errs.NewHTTPErrorFromStatus(echoErr.Code)
		if echoErr.Code == http.StatusNotFound {
			mapped = errs.NewNotFoundError(errs.MessageRouteNotFound)
		}
		status = mapped.Status
		code = mapped.Code
		body = mapped

	default:
		mapped := errs.NewInternalServerError()
		status = mapped.Status
		code = mapped.Code
		body = mapped
	}

	logger := GetLogger(c)

	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error().Stack()
	}
	event.
		Err(err).
		Int("status", status).
		Str("error_code", code).
		Msg("request failed")

	// Only write response if it hasn't already been written.
	if c.Response().Committed {
		return
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}

	_ = c.JSON(status, body)
}
