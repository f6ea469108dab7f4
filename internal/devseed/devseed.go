// Package devseed loads a predictable development dataset: one account per
// role and a handful of posts for every tenant subdomain.
package devseed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/gosimple/slug"

	"github.com/yoohoo-guru/yoohoo-api/internal/data"
	domainauth "github.com/yoohoo-guru/yoohoo-api/internal/domain/auth"
	"github.com/yoohoo-guru/yoohoo-api/internal/domain/model"
	apperrors "github.com/yoohoo-guru/yoohoo-api/internal/errors"
)

// DevPassword is the password of every seeded account.
const DevPassword = "yoohoo-dev-password"

// AccountCreator creates accounts, including admin ones.
type AccountCreator interface {
	Create(ctx context.Context, req *model.CreateAccountRequest) (*model.Account, error)
}

// PostCreator inserts posts.
type PostCreator interface {
	Create(ctx context.Context, p model.Post) (*model.Post, error)
}

// Services bundles the dependencies needed for development seeding.
type Services struct {
	Accounts AccountCreator
	Posts    PostCreator
}

// NewServices constructs the seeding dependencies on db. A low bcrypt cost
// keeps seeding fast; the accounts are for local use only.
func NewServices(db *sql.DB) Services {
	return Services{
		Accounts: data.NewAccountRepoWithOptions(db, data.AccountRepoOptions{BcryptCost: 10}),
		Posts:    data.NewPostRepo(db),
	}
}

// Run seeds accounts then posts. Existing rows are left alone, so running it
// twice is harmless; any other failure is logged and counted.
func Run(ctx context.Context, svcs Services, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	failures := seedAccounts(ctx, svcs.Accounts, logger)
	failures += seedPosts(ctx, svcs.Posts, logger)
	if failures > 0 {
		return fmt.Errorf("%d seed errors; check logs", failures)
	}
	return nil
}

// DefaultAccounts returns one account per role at <role>@dev.yoohoo.guru.
func DefaultAccounts() []model.CreateAccountRequest {
	roles := domainauth.Roles()
	out := make([]model.CreateAccountRequest, 0, len(roles))
	for _, role := range roles {
		out = append(out, model.CreateAccountRequest{
			Email:    string(role) + "@dev.yoohoo.guru",
			Name:     "Dev " + string(role),
			Password: DevPassword,
			Role:     role,
		})
	}
	return out
}

func seedAccounts(ctx context.Context, accounts AccountCreator, logger *slog.Logger) int {
	failures := 0
	for _, req := range DefaultAccounts() {
		acct, err := accounts.Create(ctx, &req)
		switch {
		case apperrors.IsConflict(err):
			logger.InfoContext(ctx, "account already exists", "email", req.Email)
		case err != nil:
			logger.ErrorContext(ctx, "failed to create account", "email", req.Email, "error", err)
			failures++
		default:
			logger.InfoContext(ctx, "account created", "email", acct.Email, "role", acct.Role)
		}
	}
	return failures
}

type postSeed struct {
	title   string
	excerpt string
	age     time.Duration
}

var tenantPosts = map[string][]postSeed{
	"gunu": {
		{"Booking your first session", "What to expect the first time you learn with a guru.", 72 * time.Hour},
		{"Picking a skill path", "How to choose what to learn next.", 24 * time.Hour},
	},
	"guru": {
		{"Teaching online that sticks", "Short lessons with clear goals and fast feedback.", 48 * time.Hour},
		{"Pricing your sessions", "A simple way to set and adjust rates.", 12 * time.Hour},
	},
	"angel": {
		{"Posting a job that gets answers", "Scope, budget and timeline in a few lines.", 36 * time.Hour},
	},
	"heroes": {
		{"Free tutoring this season", "Volunteer gurus open their calendars.", 6 * time.Hour},
	},
}

// seedEpoch anchors post dates so reseeding yields the same ordering.
var seedEpoch = time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)

// DefaultPosts returns the development posts for every tenant.
func DefaultPosts() []model.Post {
	var out []model.Post
	for tenant, seeds := range tenantPosts {
		for _, s := range seeds {
			out = append(out, model.Post{
				Tenant:      tenant,
				Slug:        slug.Make(s.title),
				Title:       s.title,
				Excerpt:     s.excerpt,
				Author:      "YooHoo.Guru Team",
				PublishedAt: seedEpoch.Add(-s.age),
			})
		}
	}
	return out
}

func seedPosts(ctx context.Context, posts PostCreator, logger *slog.Logger) int {
	failures := 0
	for _, p := range DefaultPosts() {
		_, err := posts.Create(ctx, p)
		switch {
		case apperrors.IsConflict(err):
			logger.DebugContext(ctx, "post already exists", "tenant", p.Tenant, "slug", p.Slug)
		case err != nil:
			logger.ErrorContext(ctx, "failed to create post", "tenant", p.Tenant, "slug", p.Slug, "error", err)
			failures++
		}
	}
	return failures
}
