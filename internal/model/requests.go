package model

import (
	"github.com/deppfellow/post-gateway/internal/validation"
)

// ListPostsRequest carries nothing; it exists so every route goes through
// the same binding pipeline.
type ListPostsRequest struct{}

func (r *ListPostsRequest) Validate() error {
	return nil
}

// PostIDRequest addresses a single post (get-by-id, delete).
//
// The id is forwarded as-is; the upstream decides whether it exists.
type PostIDRequest struct {
	PostID string `param:"postId"`
}

func (r *PostIDRequest) Validate() error {
	return nil
}

// CreatePostRequest is the body of POST /posts. All fields are required.
//
// userId accepts any non-negative JSON number, so 1, 1.0 and 1e0 are all
// valid and forwarded as the same value.
//
// Field order is the order errors are reported in.
type CreatePostRequest struct {
	Title  *string  `json:"title" validate:"required,min=4"`
	Body   *string  `json:"body" validate:"required,min=6"`
	UserID *float64 `json:"userId" validate:"required,gte=0"`
}

func (r *CreatePostRequest) Validate() error {
	return validation.Struct(r)
}

// Post returns the outbound representation {title, body, userId}.
func (r *CreatePostRequest) Post() Post {
	return Post{
		Title:  r.Title,
		Body:   r.Body,
		UserID: r.UserID,
	}
}

// UpdatePostRequest is PUT /posts/:postId. Body fields are optional (partial
// update) but keep the create rules when present; postId is required.
type UpdatePostRequest struct {
	Title  *string  `json:"title" validate:"omitnil,min=4"`
	Body   *string  `json:"body" validate:"omitnil,min=6"`
	UserID *float64 `json:"userId" validate:"omitnil,gte=0"`

	PostID string `json:"-" param:"postId" validate:"required,min=1"`
}

func (r *UpdatePostRequest) Validate() error {
	return validation.Struct(r)
}

// Post returns the outbound representation; fields the caller did not send
// are omitted.
func (r *UpdatePostRequest) Post() Post {
	return Post{
		Title:  r.Title,
		Body:   r.Body,
		UserID: r.UserID,
	}
}
