// Package upstream contains the HTTP client for the remote post service.
//
// It is the gateway's only outbound dependency. The client is built once at
// start-up and shared by every request; it holds no per-request state.
//
// It handles:
//   - resolving resource paths against the configured base URL
//   - JSON request serialization and response buffering
//   - optional New Relic external segments (newrelic.NewRoundTripper)
//   - outbound call metrics
//
// Calls are fire-once: no retry, no backoff, no client timeout. A call ends
// when the upstream answers or when the caller's context is cancelled.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/deppfellow/post-gateway/internal/config"
	"github.com/deppfellow/post-gateway/internal/metrics"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Response is a fully buffered upstream answer.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the upstream answered with a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client talks to the upstream post service.
type Client struct {
	baseURL    *url.URL
	userAgent  string
	httpClient *http.Client
	log        *zerolog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client (tests use this to
// point at an httptest server's client).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithNewRelic wraps the transport so each outbound call is recorded as an
// external segment of the transaction found in the request context.
func WithNewRelic() Option {
	return func(c *Client) {
		transport := c.httpClient.Transport
		if transport == nil {
			transport = http.DefaultTransport
		}
		c.httpClient = &http.Client{
			Transport:     newrelic.NewRoundTripper(transport),
			CheckRedirect: c.httpClient.CheckRedirect,
			Jar:           c.httpClient.Jar,
		}
	}
}

// New creates an upstream Client for cfg.BaseURL.
//
// The default *http.Client uses a clone of http.DefaultTransport and no
// Timeout, so the transport defaults are the only limits.
func New(cfg config.UpstreamConfig, logger *zerolog.Logger, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid upstream base url")
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("invalid upstream base url %q: scheme and host are required", cfg.BaseURL)
	}

	client := &Client{
		baseURL:    base,
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()},
		log:        logger,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// BaseURL returns the resolved upstream base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Do sends one request to the upstream.
//
// path is joined onto the base URL; segments must already be escaped.
// A non-nil body is JSON encoded. A non-2xx answer is NOT an error: callers
// classify the status themselves. err is non-nil only when no complete
// answer could be obtained.
func (c *Client) Do(ctx context.Context, method, path string, body interface{}) (*Response, error) {
	start := time.Now()
	operation := method + " " + routeLabel(path)

	resp, err := c.do(ctx, method, path, body)

	outcome := "error"
	if resp != nil {
		outcome = strconv.Itoa(resp.StatusCode)
	}
	metrics.UpstreamRequestsTotal.WithLabelValues(operation, outcome).Inc()
	metrics.UpstreamRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())

	logger := zerolog.Ctx(ctx)
	if logger.GetLevel() == zerolog.Disabled && c.log != nil {
		logger = c.log
	}

	event := logger.Debug()
	if err != nil {
		event = logger.Warn().Err(err)
	}
	event.
		Str("upstream_method", method).
		Str("upstream_path", path).
		Str("upstream_outcome", outcome).
		Dur("upstream_duration", time.Since(start)).
		Msg("upstream call")

	return resp, err
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "failed to serialize upstream request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build upstream request")
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "upstream %s %s failed", method, path)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read upstream %s %s response", method, path)
	}

	return &Response{StatusCode: res.StatusCode, Body: data}, nil
}

// Ping checks that the upstream answers at all. Any HTTP status counts as
// reachable; only transport errors fail.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL.String(), nil)
	if err != nil {
		return errors.Wrap(err, "failed to build upstream ping")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "upstream unreachable")
	}
	_, _ = io.Copy(io.Discard, res.Body)
	res.Body.Close()

	return nil
}

func (c *Client) resolve(path string) string {
	return c.baseURL.String() + "/" + strings.TrimLeft(path, "/")
}

// routeLabel collapses ids out of a path for metric labels:
// "/posts/17" -> "/posts/:id".
func routeLabel(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) > 1 {
		segments = append(segments[:1], ":id")
	}
	return "/" + strings.Join(segments, "/")
}
