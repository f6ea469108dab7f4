package service

import (
	"context"

	"github.com/yoohoo-guru/yoohoo-api/internal/domain/model"
	apperrors "github.com/yoohoo-guru/yoohoo-api/internal/errors"
	"github.com/yoohoo-guru/yoohoo-api/internal/ports"
)

// PostServiceOptions groups dependencies for PostService.
type PostServiceOptions struct {
	Store ports.PostStore
}

// PostService lists a tenant's published blog posts.
type PostService struct {
	store ports.PostStore
}

// NewPostService constructs a new PostService.
func NewPostService(opts PostServiceOptions) *PostService {
	if opts.Store == nil {
		panic("PostService requires a PostStore")
	}
	return &PostService{store: opts.Store}
}

// List returns one page of posts, newest first. Page and Limit must be set;
// out-of-range values are validation errors.
func (s *PostService) List(ctx context.Context, opts model.PostsListOptions) (*model.PostsPage, error) {
	if err := opts.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	posts, err := s.store.ListByTenant(ctx, opts)
	if err != nil {
		return nil, err
	}
	page := &model.PostsPage{Page: opts.Page, Limit: opts.Limit, Posts: posts}
	if len(posts) > opts.Limit {
		page.Posts = posts[:opts.Limit]
		page.HasMore = true
	}
	if page.Posts == nil {
		page.Posts = []model.Post{}
	}
	return page, nil
}
