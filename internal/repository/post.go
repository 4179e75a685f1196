package repository

import (
	"context"
	"net/http"
	"net/url"

	"github.com/deppfellow/post-gateway/internal/model"
	"github.com/deppfellow/post-gateway/internal/upstream"
)

const postsPath = "/posts"

// Doer is the slice of the upstream client the repository needs.
type Doer interface {
	Do(ctx context.Context, method, path string, body interface{}) (*upstream.Response, error)
}

// PostRepository maps post operations onto upstream REST calls. Each method
// issues exactly one request.
type PostRepository struct {
	client Doer
}

func NewPostRepository(client Doer) *PostRepository {
	return &PostRepository{client: client}
}

func (r *PostRepository) List(ctx context.Context) (*upstream.Response, error) {
	return r.client.Do(ctx, http.MethodGet, postsPath, nil)
}

func (r *PostRepository) Get(ctx context.Context, postID string) (*upstream.Response, error) {
	return r.client.Do(ctx, http.MethodGet, postPath(postID), nil)
}

func (r *PostRepository) Create(ctx context.Context, post model.Post) (*upstream.Response, error) {
	return r.client.Do(ctx, http.MethodPost, postsPath, post)
}

// Update sends a PUT carrying only the fields present in post.
func (r *PostRepository) Update(ctx context.Context, postID string, post model.Post) (*upstream.Response, error) {
	return r.client.Do(ctx, http.MethodPut, postPath(postID), post)
}

func (r *PostRepository) Delete(ctx context.Context, postID string) (*upstream.Response, error) {
	return r.client.Do(ctx, http.MethodDelete, postPath(postID), nil)
}

// postPath escapes the caller-supplied id so it stays one path segment.
func postPath(postID string) string {
	return postsPath + "/" + url.PathEscape(postID)
}
