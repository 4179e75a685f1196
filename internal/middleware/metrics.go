package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/deppfellow/post-gateway/internal/metrics"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// unmatchedRoute labels requests no route matched, so arbitrary paths do not
// become label values.
const unmatchedRoute = "unmatched"

// MetricsMiddleware records inbound request counts and latencies.
type MetricsMiddleware struct{}

func NewMetricsMiddleware() *MetricsMiddleware {
	return &MetricsMiddleware{}
}

// Record returns the middleware. Routes are labelled by their template
// ("/posts/:postId"), never by the raw URL.
func (mm *MetricsMiddleware) Record() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			if err != nil {
				status = StatusFromError(err)
			}

			route := c.Path()
			var echoErr *echo.HTTPError
			if route == "" || (errors.As(err, &echoErr) && echoErr.Code == http.StatusNotFound) {
				route = unmatchedRoute
			}

			method := c.Request().Method
			metrics.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())

			return err
		}
	}
}
