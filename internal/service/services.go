package service

import (
	"github.com/deppfellow/post-gateway/internal/repository"
)

type Services struct {
	Posts *PostService
}

func NewServices(repos *repository.Repositories) *Services {
	return &Services{
		Posts: NewPostService(repos.Posts),
	}
}
