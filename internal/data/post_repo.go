package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/jackc/pgx/v5"

	"github.com/yoohoo-guru/yoohoo-api/internal/data/pgxutil"
	"github.com/yoohoo-guru/yoohoo-api/internal/domain/model"
	apperrors "github.com/yoohoo-guru/yoohoo-api/internal/errors"
	"github.com/yoohoo-guru/yoohoo-api/internal/ports"
)

var _ ports.PostStore = (*PostRepo)(nil)

// PostRepo reads and writes published blog posts.
type PostRepo struct {
	DB *sql.DB
}

// NewPostRepo creates a new PostRepo.
func NewPostRepo(db *sql.DB) *PostRepo {
	return &PostRepo{DB: db}
}

// ListByTenant returns up to opts.Limit+1 posts for the tenant, newest first.
func (r *PostRepo) ListByTenant(ctx context.Context, opts model.PostsListOptions) ([]model.Post, error) {
	if err := opts.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	var out []model.Post
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT id, tenant, slug, title, excerpt, author, published_at
			FROM posts
			WHERE tenant = $1 AND published_at <= now()
			ORDER BY published_at DESC, id DESC
			LIMIT $2 OFFSET $3`,
			opts.Tenant, opts.Limit+1, opts.Offset(),
		)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Post])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", apperrors.MapDBError(err))
	}
	if out == nil {
		out = []model.Post{}
	}
	return out, nil
}

// Create inserts a post. An empty slug is derived from the title.
// Used by seeding tools and tests.
func (r *PostRepo) Create(ctx context.Context, p model.Post) (*model.Post, error) {
	if strings.TrimSpace(p.Slug) == "" {
		p.Slug = slug.Make(p.Title)
	}
	if strings.TrimSpace(p.Tenant) == "" || p.Slug == "" || strings.TrimSpace(p.Title) == "" {
		return nil, errors.New("tenant and title are required")
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.PublishedAt.IsZero() {
		p.PublishedAt = time.Now().UTC()
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO posts (id, tenant, slug, title, excerpt, author, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.Tenant, p.Slug, p.Title, p.Excerpt, p.Author, p.PublishedAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", apperrors.MapDBError(err))
	}
	return &p, nil
}
