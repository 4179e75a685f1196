package upstream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deppfellow/post-gateway/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	logger := zerolog.Nop()
	client, err := New(config.UpstreamConfig{BaseURL: ts.URL + "/", UserAgent: "post-gateway-test"}, &logger, WithHTTPClient(ts.Client()))
	require.NoError(t, err)

	return client, ts
}

func TestNew_RejectsInvalidBaseURL(t *testing.T) {
	logger := zerolog.Nop()

	for _, raw := range []string{"", "posts.example", "://broken"} {
		_, err := New(config.UpstreamConfig{BaseURL: raw}, &logger)
		assert.Error(t, err, raw)
	}
}

func TestDo_SendsJSONRequest(t *testing.T) {
	var (
		gotMethod, gotPath, gotContentType, gotAccept, gotUserAgent string
		gotBody                                                     map[string]interface{}
	)

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotAccept = r.Header.Get("Accept")
		gotUserAgent = r.UserAgent()

		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":101}`))
	})

	resp, err := client.Do(context.Background(), http.MethodPost, "/posts", map[string]interface{}{"title": "Hello"})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/posts", gotPath)
	assert.Equal(t, "application/json; charset=UTF-8", gotContentType)
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, "post-gateway-test", gotUserAgent)
	assert.Equal(t, map[string]interface{}{"title": "Hello"}, gotBody)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, resp.OK())
	assert.JSONEq(t, `{"id":101}`, string(resp.Body))
}

func TestDo_NoBodyNoContentType(t *testing.T) {
	var gotContentType string
	var gotLength int64

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotLength = r.ContentLength
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := client.Do(context.Background(), http.MethodGet, "/posts/1", nil)
	require.NoError(t, err)

	assert.Empty(t, gotContentType)
	assert.Zero(t, gotLength)
}

func TestDo_NonSuccessIsNotAnError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{}`))
	})

	resp, err := client.Do(context.Background(), http.MethodGet, "/posts/999", nil)
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.False(t, resp.OK())
}

func TestDo_TransportError(t *testing.T) {
	client, ts := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	ts.Close()

	resp, err := client.Do(context.Background(), http.MethodGet, "/posts", nil)

	assert.Nil(t, resp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream GET /posts failed")
}

func TestDo_CancelledContext(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Do(ctx, http.MethodGet, "/posts", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDo_UnserializableBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not be sent")
	})

	_, err := client.Do(context.Background(), http.MethodPost, "/posts", map[string]interface{}{"bad": make(chan int)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to serialize upstream request body")
}

func TestPing(t *testing.T) {
	client, ts := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	assert.NoError(t, client.Ping(context.Background()), "any HTTP answer counts as reachable")

	ts.Close()
	assert.Error(t, client.Ping(context.Background()))
}

func TestBaseURLTrimsTrailingSlash(t *testing.T) {
	client, ts := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	assert.Equal(t, ts.URL, client.BaseURL())
	assert.Equal(t, ts.URL+"/posts/1", client.resolve("/posts/1"))
}

func TestRouteLabel(t *testing.T) {
	assert.Equal(t, "/posts", routeLabel("/posts"))
	assert.Equal(t, "/posts/:id", routeLabel("/posts/17"))
	assert.Equal(t, "/posts/:id", routeLabel("/posts/abc%2F1"))
}
