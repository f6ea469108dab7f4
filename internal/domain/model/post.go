//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"math"
	"strings"
	"time"
)

const (
	// DefaultPostsLimit is used when a listing does not specify a limit.
	DefaultPostsLimit = 10
	// MaxPostsLimit bounds the page size of post listings.
	MaxPostsLimit = 100
	// MaxPostsPage keeps Offset from overflowing at any valid limit.
	MaxPostsPage = math.MaxInt32 / MaxPostsLimit
)

// Post is a published blog post belonging to a tenant subdomain.
type Post struct {
	ID          string    `json:"id"           db:"id"`
	Tenant      string    `json:"tenant"       db:"tenant"`
	Slug        string    `json:"slug"         db:"slug"`
	Title       string    `json:"title"        db:"title"`
	Excerpt     string    `json:"excerpt"      db:"excerpt"`
	Author      string    `json:"author"       db:"author"`
	PublishedAt time.Time `json:"published_at" db:"published_at"`
}

// PostsListOptions controls paging of a tenant's posts. Page is 1-based.
type PostsListOptions struct {
	Tenant string
	Page   int
	Limit  int
}

// Validate checks tenant and paging bounds.
func (o PostsListOptions) Validate() error {
	if strings.TrimSpace(o.Tenant) == "" {
		return errors.New("tenant is required")
	}
	if o.Page < 1 || o.Page > MaxPostsPage {
		return errors.New("page out of range")
	}
	if o.Limit < 1 || o.Limit > MaxPostsLimit {
		return errors.New("limit must be between 1 and 100")
	}
	return nil
}

// Offset returns the row offset for the requested page.
func (o PostsListOptions) Offset() int {
	return (o.Page - 1) * o.Limit
}

// PostsPage is one page of posts plus paging metadata.
type PostsPage struct {
	Posts   []Post `json:"posts"`
	Page    int    `json:"page"`
	Limit   int    `json:"limit"`
	HasMore bool   `json:"has_more"`
}
