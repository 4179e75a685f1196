package repository

import (
	"github.com/deppfellow/post-gateway/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Posts *PostRepository
}

// NewRepositories constructs the repository container on top of the shared
// upstream client held by s.
func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		Posts: NewPostRepository(s.Upstream),
	}
}
