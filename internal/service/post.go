package service

import (
	"context"
	"encoding/json"

	"github.com/deppfellow/post-gateway/internal/errs"
	"github.com/deppfellow/post-gateway/internal/model"
	"github.com/deppfellow/post-gateway/internal/upstream"
	"github.com/pkg/errors"
)

// PostRepository is the upstream access the post service depends on.
type PostRepository interface {
	List(ctx context.Context) (*upstream.Response, error)
	Get(ctx context.Context, postID string) (*upstream.Response, error)
	Create(ctx context.Context, post model.Post) (*upstream.Response, error)
	Update(ctx context.Context, postID string, post model.Post) (*upstream.Response, error)
	Delete(ctx context.Context, postID string) (*upstream.Response, error)
}

// PostService translates upstream answers for the five post operations.
//
// Every operation has three outcomes:
//   - success: upstream answered 2xx with a usable payload
//   - rejection: upstream answered non-2xx -> 400 {message: "Bad Request"}
//   - failure: no usable answer -> 500 {message: <error>}
type PostService struct {
	posts PostRepository
}

func NewPostService(posts PostRepository) *PostService {
	return &PostService{posts: posts}
}

// ListPosts returns the upstream collection unchanged. The payload must be a
// JSON array.
func (s *PostService) ListPosts(ctx context.Context) ([]json.RawMessage, error) {
	resp, err := s.posts.List(ctx)
	if err := classify(resp, err); err != nil {
		return nil, err
	}

	var posts []json.RawMessage
	if err := json.Unmarshal(resp.Body, &posts); err != nil {
		return nil, errs.NewTransportError(errors.Wrap(err, "invalid upstream post list"))
	}
	if posts == nil {
		// JSON null decodes without error but is not a collection.
		return nil, errs.NewTransportError(errors.New("invalid upstream post list: not an array"))
	}

	return posts, nil
}

// GetPost returns the upstream representation of one post unchanged.
func (s *PostService) GetPost(ctx context.Context, postID string) (json.RawMessage, error) {
	resp, err := s.posts.Get(ctx, postID)
	if err := classify(resp, err); err != nil {
		return nil, err
	}

	post, err := rawJSON(resp.Body, "invalid upstream post")
	if err != nil {
		return nil, err
	}

	return post, nil
}

// CreatePost forwards {title, body, userId}. The upstream answer must be
// valid JSON but is not returned to the caller.
func (s *PostService) CreatePost(ctx context.Context, post model.Post) (*model.MessageResponse, error) {
	resp, err := s.posts.Create(ctx, post)
	if err := classify(resp, err); err != nil {
		return nil, err
	}

	if _, err := rawJSON(resp.Body, "invalid upstream create response"); err != nil {
		return nil, err
	}

	return &model.MessageResponse{Message: model.MessagePostCreated}, nil
}

// UpdatePost forwards the fields present in post and returns the upstream's
// updated representation.
func (s *PostService) UpdatePost(ctx context.Context, postID string, post model.Post) (*model.UpdatePostResponse, error) {
	resp, err := s.posts.Update(ctx, postID, post)
	if err := classify(resp, err); err != nil {
		return nil, err
	}

	updated, err := rawJSON(resp.Body, "invalid upstream update response")
	if err != nil {
		return nil, err
	}

	return &model.UpdatePostResponse{
		Message: model.MessagePostUpdated,
		Post:    updated,
	}, nil
}

// DeletePost removes one post. The upstream body is ignored.
func (s *PostService) DeletePost(ctx context.Context, postID string) (*model.MessageResponse, error) {
	resp, err := s.posts.Delete(ctx, postID)
	if err := classify(resp, err); err != nil {
		return nil, err
	}

	return &model.MessageResponse{Message: model.MessagePostDeleted}, nil
}

// classify applies the single success policy: any 2xx is success.
func classify(resp *upstream.Response, err error) error {
	if err != nil {
		return errs.NewTransportError(err)
	}
	if resp == nil {
		return errs.NewTransportError(errors.New("upstream returned no response"))
	}
	if !resp.OK() {
		return errs.NewUpstreamRejectionError(resp.StatusCode)
	}
	return nil
}

// rawJSON checks that body is one valid JSON value and returns it verbatim.
func rawJSON(body []byte, what string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errs.NewTransportError(errors.Wrap(err, what))
	}
	return raw, nil
}
