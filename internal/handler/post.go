package handler

import (
	"encoding/json"
	"net/http"

	"github.com/deppfellow/post-gateway/internal/model"
	"github.com/deppfellow/post-gateway/internal/server"
	"github.com/deppfellow/post-gateway/internal/service"
	"github.com/labstack/echo/v4"
)

// PostHandler exposes the post CRUD operations.
type PostHandler struct {
	Handler
	posts *service.PostService
}

func NewPostHandler(s *server.Server, posts *service.PostService) *PostHandler {
	return &PostHandler{
		Handler: NewHandler(s),
		posts:   posts,
	}
}

// ListPosts handles GET /posts.
func (h *PostHandler) ListPosts(c echo.Context, _ *model.ListPostsRequest) ([]json.RawMessage, error) {
	return h.posts.ListPosts(c.Request().Context())
}

// GetPost handles GET /posts/:postId.
func (h *PostHandler) GetPost(c echo.Context, req *model.PostIDRequest) (json.RawMessage, error) {
	return h.posts.GetPost(c.Request().Context(), req.PostID)
}

// CreatePost handles POST /posts.
func (h *PostHandler) CreatePost(c echo.Context, req *model.CreatePostRequest) (*model.MessageResponse, error) {
	return h.posts.CreatePost(c.Request().Context(), req.Post())
}

// UpdatePost handles PUT /posts/:postId.
func (h *PostHandler) UpdatePost(c echo.Context, req *model.UpdatePostRequest) (*model.UpdatePostResponse, error) {
	return h.posts.UpdatePost(c.Request().Context(), req.PostID, req.Post())
}

// DeletePost handles DELETE /posts/:postId.
func (h *PostHandler) DeletePost(c echo.Context, req *model.PostIDRequest) (*model.MessageResponse, error) {
	return h.posts.DeletePost(c.Request().Context(), req.PostID)
}

// Register mounts the post routes on g.
func (h *PostHandler) Register(g *echo.Group) {
	g.GET("", Handle(h.ListPosts, http.StatusOK, func() *model.ListPostsRequest {
		return &model.ListPostsRequest{}
	}))
	g.GET("/:postId", Handle(h.GetPost, http.StatusOK, func() *model.PostIDRequest {
		return &model.PostIDRequest{}
	}))
	g.POST("", Handle(h.CreatePost, http.StatusCreated, func() *model.CreatePostRequest {
		return &model.CreatePostRequest{}
	}))
	g.PUT("/:postId", Handle(h.UpdatePost, http.StatusCreated, func() *model.UpdatePostRequest {
		return &model.UpdatePostRequest{}
	}))
	g.DELETE("/:postId", Handle(h.DeletePost, http.StatusOK, func() *model.PostIDRequest {
		return &model.PostIDRequest{}
	}))
}
