package router

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/deppfellow/post-gateway/internal/config"
	"github.com/deppfellow/post-gateway/internal/handler"
	"github.com/deppfellow/post-gateway/internal/repository"
	"github.com/deppfellow/post-gateway/internal/server"
	"github.com/deppfellow/post-gateway/internal/service"
	"github.com/deppfellow/post-gateway/internal/upstream"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postStore is an in-memory stand-in for the upstream post service.
type postStore struct {
	mu     sync.Mutex
	nextID int
	posts  map[string]map[string]interface{}
	calls  int
}

func newPostStore() *postStore {
	return &postStore{
		nextID: 1,
		posts: map[string]map[string]interface{}{
			"1": {"id": 1, "title": "First post", "body": "Hello there", "userId": 1},
		},
	}
}

func (s *postStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	w.Header().Set("Content-Type", "application/json")

	id := strings.TrimPrefix(r.URL.Path, "/posts/")
	switch {
	case r.URL.Path == "/posts" && r.Method == http.MethodGet:
		list := make([]map[string]interface{}, 0, len(s.posts))
		for i := 1; i <= s.nextID; i++ {
			if p, ok := s.posts[strconv.Itoa(i)]; ok {
				list = append(list, p)
			}
		}
		_ = json.NewEncoder(w).Encode(list)

	case r.URL.Path == "/posts" && r.Method == http.MethodPost:
		var post map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&post)
		s.nextID++
		post["id"] = s.nextID
		s.posts[strconv.Itoa(s.nextID)] = post
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(post)

	case strings.HasPrefix(r.URL.Path, "/posts/"):
		post, ok := s.posts[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{}`))
			return
		}

		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(post)
		case http.MethodPut:
			var changes map[string]interface{}
			_ = json.NewDecoder(r.Body).Decode(&changes)
			for k, v := range changes {
				post[k] = v
			}
			_ = json.NewEncoder(w).Encode(post)
		case http.MethodDelete:
			delete(s.posts, id)
			_, _ = w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}

	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{}`))
	}
}

func (s *postStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newGateway(t *testing.T, upstreamHandler http.Handler) (*echo.Echo, *httptest.Server) {
	t.Helper()

	ts := httptest.NewServer(upstreamHandler)
	t.Cleanup(ts.Close)

	cfg := &config.Config{
		Primary: config.Primary{Env: "test"},
		Server: config.ServerConfig{
			Port:               "0",
			ReadTimeout:        30,
			WriteTimeout:       30,
			IdleTimeout:        60,
			CORSAllowedOrigins: []string{"*"},
		},
		Upstream:      config.UpstreamConfig{BaseURL: ts.URL, UserAgent: "post-gateway-test"},
		Observability: config.DefaultObservabilityConfig(),
	}

	logger := zerolog.Nop()
	srv, err := server.New(cfg, &logger, nil, upstream.WithHTTPClient(ts.Client()))
	require.NoError(t, err)

	handlers := handler.NewHandlers(srv, service.NewServices(repository.NewRepositories(srv)))

	return NewRouter(srv, handlers), ts
}

func do(t *testing.T, e *echo.Echo, method, target, body string) (*httptest.ResponseRecorder, interface{}) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var decoded interface{}
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	}

	return rec, decoded
}

func TestListPosts(t *testing.T) {
	e, _ := newGateway(t, newPostStore())

	rec, body := do(t, e, http.MethodGet, "/posts", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	list, ok := body.([]interface{})
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.Equal(t, "First post", list[0].(map[string]interface{})["title"])
}

func TestGetPost(t *testing.T) {
	e, _ := newGateway(t, newPostStore())

	rec, _ := do(t, e, http.MethodGet, "/posts/1", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1,"title":"First post","body":"Hello there","userId":1}`, rec.Body.String())
}

func TestGetPost_UnknownIDIsRejection(t *testing.T) {
	e, _ := newGateway(t, newPostStore())

	rec, _ := do(t, e, http.MethodGet, "/posts/999", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Bad Request"}`, rec.Body.String())
}

func TestCreateThenGet(t *testing.T) {
	e, _ := newGateway(t, newPostStore())

	rec, _ := do(t, e, http.MethodPost, "/posts", `{"title":"Brand new","body":"Fresh content","userId":7}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"message":"Post was created successfully"}`, rec.Body.String())

	rec, _ = do(t, e, http.MethodGet, "/posts/2", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":2,"title":"Brand new","body":"Fresh content","userId":7}`, rec.Body.String())
}

func TestCreatePost_ValidationNeverCallsUpstream(t *testing.T) {
	store := newPostStore()
	e, _ := newGateway(t, store)

	rec, _ := do(t, e, http.MethodPost, "/posts", `{"body":"Fresh content","userId":-1}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `[
		{"path":["body","title"],"message":"Required"},
		{"path":["body","userId"],"message":"Number must be greater than or equal to 0"}
	]`, rec.Body.String())
	assert.Zero(t, store.callCount())
}

func TestCreatePost_MalformedJSON(t *testing.T) {
	e, _ := newGateway(t, newPostStore())

	rec, _ := do(t, e, http.MethodPost, "/posts", `{"title":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `[{"path":["body"],"message":"Malformed JSON body"}]`, rec.Body.String())
}

func TestUpdatePost(t *testing.T) {
	e, _ := newGateway(t, newPostStore())

	rec, _ := do(t, e, http.MethodPut, "/posts/1", `{"title":"Renamed"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{
		"message":"Post was updated successfully",
		"post":{"id":1,"title":"Renamed","body":"Hello there","userId":1}
	}`, rec.Body.String())
}

func TestUpdatePost_Invalid(t *testing.T) {
	store := newPostStore()
	e, _ := newGateway(t, store)

	rec, _ := do(t, e, http.MethodPut, "/posts/1", `{"title":"abc"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `[{"path":["body","title"],"message":"Title must be at least 4 characters"}]`, rec.Body.String())
	assert.Zero(t, store.callCount())
}

func TestDeletePost_Twice(t *testing.T) {
	e, _ := newGateway(t, newPostStore())

	rec, _ := do(t, e, http.MethodDelete, "/posts/1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Post deleted"}`, rec.Body.String())

	rec, _ = do(t, e, http.MethodDelete, "/posts/1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Bad Request"}`, rec.Body.String())
}

func TestUpstreamUnreachable(t *testing.T) {
	e, ts := newGateway(t, newPostStore())
	ts.Close()

	for _, tc := range []struct{ method, target, body string }{
		{http.MethodGet, "/posts", ""},
		{http.MethodGet, "/posts/1", ""},
		{http.MethodPost, "/posts", `{"title":"Brand new","body":"Fresh content","userId":7}`},
		{http.MethodPut, "/posts/1", `{"title":"Renamed"}`},
		{http.MethodDelete, "/posts/1", ""},
	} {
		rec, body := do(t, e, tc.method, tc.target, tc.body)

		assert.Equal(t, http.StatusInternalServerError, rec.Code, tc.method+" "+tc.target)
		message, _ := body.(map[string]interface{})["message"].(string)
		assert.NotEmpty(t, message)
		assert.NotEqual(t, "Internal Server Error", message, "transport failures carry the error description")
	}
}

func TestUpstreamGarbage(t *testing.T) {
	e, _ := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}))

	rec, _ := do(t, e, http.MethodGet, "/posts", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec, _ = do(t, e, http.MethodGet, "/posts/1", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestConcurrentRequestsDoNotShareState(t *testing.T) {
	e, _ := newGateway(t, newPostStore())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			body := fmt.Sprintf(`{"title":"Title %02d","body":"Body number %02d","userId":%d}`, i, i, i)
			if i%2 == 1 {
				body = `{"title":"no"}`
			}

			req := httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader(body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if i%2 == 1 {
				assert.Equal(t, http.StatusBadRequest, rec.Code)
			} else {
				assert.Equal(t, http.StatusCreated, rec.Code)
			}
		}(i)
	}
	wg.Wait()

	rec, body := do(t, e, http.MethodGet, "/posts", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body.([]interface{}), 11)
}

func TestUnknownRoute(t *testing.T) {
	e, _ := newGateway(t, newPostStore())

	rec, _ := do(t, e, http.MethodGet, "/nope", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Route not found"}`, rec.Body.String())
}

func TestWrongMethod(t *testing.T) {
	e, _ := newGateway(t, newPostStore())

	rec, _ := do(t, e, http.MethodPatch, "/posts", "")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.JSONEq(t, `{"message":"Method Not Allowed"}`, rec.Body.String())
}

func TestRequestIDHeader(t *testing.T) {
	e, _ := newGateway(t, newPostStore())

	rec, _ := do(t, e, http.MethodGet, "/posts/1", "")

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestStatus(t *testing.T) {
	e, ts := newGateway(t, newPostStore())

	rec, body := do(t, e, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	report := body.(map[string]interface{})
	assert.Equal(t, "healthy", report["status"])
	assert.Equal(t, "test", report["environment"])
	assert.Equal(t, "healthy", report["checks"].(map[string]interface{})["upstream"].(map[string]interface{})["status"])

	ts.Close()

	rec, body = do(t, e, http.MethodGet, "/status", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unhealthy", body.(map[string]interface{})["status"])
}

func TestDocs(t *testing.T) {
	e, _ := newGateway(t, newPostStore())

	rec, _ := do(t, e, http.MethodGet, "/docs", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMETextHTML)
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Body.String(), "/static/openapi.json")

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/openapi.json", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Contains(t, doc["paths"], "/posts/{postId}")
}

func TestMetrics(t *testing.T) {
	e, _ := newGateway(t, newPostStore())

	do(t, e, http.MethodGet, "/posts/1", "")

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_server_requests_total{method="GET",route="/posts/:postId",status="200"}`)
	assert.Contains(t, rec.Body.String(), `upstream_requests_total{operation="GET /posts/:id",outcome="200"}`)
}

func TestTrailingSlashRoutesToSameHandler(t *testing.T) {
	e, _ := newGateway(t, newPostStore())

	rec, body := do(t, e, http.MethodGet, "/posts/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.IsType(t, []interface{}{}, body)

	rec, _ = do(t, e, http.MethodGet, "/posts/1/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1,"title":"First post","body":"Hello there","userId":1}`, rec.Body.String())
}

func TestCreatePost_WholeNumberInFloatForm(t *testing.T) {
	for _, raw := range []string{`7.0`, `7e0`} {
		e, _ := newGateway(t, newPostStore())

		rec, _ := do(t, e, http.MethodPost, "/posts", `{"title":"Brand new","body":"Fresh content","userId":`+raw+`}`)
		require.Equal(t, http.StatusCreated, rec.Code, raw)

		rec, _ = do(t, e, http.MethodGet, "/posts/2", "")
		assert.JSONEq(t, `{"id":2,"title":"Brand new","body":"Fresh content","userId":7}`, rec.Body.String(), raw)
	}
}
