package ports

import (
	"context"
	"time"

	"github.com/yoohoo-guru/yoohoo-api/internal/domain/model"
)

// PostStore reads published blog posts for a tenant.
type PostStore interface {
	// ListByTenant returns up to opts.Limit+1 posts so callers can detect a next page.
	ListByTenant(ctx context.Context, opts model.PostsListOptions) ([]model.Post, error)
}

// EventDeduper records processed webhook event ids.
type EventDeduper interface {
	// FirstSeen records id and reports whether this is its first delivery within ttl.
	FirstSeen(ctx context.Context, id string, ttl time.Duration) (bool, error)
	// Forget drops a recorded id so a later delivery is processed again.
	Forget(ctx context.Context, id string) error
}
