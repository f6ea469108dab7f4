package data

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	domainauth "github.com/yoohoo-guru/yoohoo-api/internal/domain/auth"
	"github.com/yoohoo-guru/yoohoo-api/internal/domain/model"
	apperrors "github.com/yoohoo-guru/yoohoo-api/internal/errors"
	"github.com/yoohoo-guru/yoohoo-api/internal/testutil"
)

func newTestAccountRepo(t *testing.T) *AccountRepo {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return NewAccountRepoWithOptions(db, AccountRepoOptions{
		BcryptCost:   bcrypt.MinCost,
		TimeProvider: NewFixedTimeProvider(time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)),
	})
}

func TestAccountRepo_CreateAndAuthenticate(t *testing.T) {
	repo := newTestAccountRepo(t)
	ctx := context.Background()

	acc, err := repo.Create(ctx, &model.CreateAccountRequest{
		Email: "Angel@Example.com", Name: "Angel", Password: "password123", Role: domainauth.RoleAngel,
	})
	require.NoError(t, err)
	assert.Equal(t, "angel@example.com", acc.Email)
	assert.NotEqual(t, "password123", acc.PasswordHash)

	id, err := repo.Authenticate(ctx, "ANGEL@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, id.ID)
	assert.Equal(t, domainauth.RoleAngel, id.Role)

	_, err = repo.Authenticate(ctx, "angel@example.com", "wrong-password")
	require.ErrorIs(t, err, domainauth.ErrAuthenticationFailed)

	_, err = repo.Authenticate(ctx, "nobody@example.com", "password123")
	require.ErrorIs(t, err, domainauth.ErrAuthenticationFailed)
}

func TestAccountRepo_DuplicateEmailConflict(t *testing.T) {
	repo := newTestAccountRepo(t)
	ctx := context.Background()
	req := func() *model.CreateAccountRequest {
		return &model.CreateAccountRequest{Email: "dup@example.com", Name: "Dup", Password: "password123", Role: domainauth.RoleGunu}
	}

	_, err := repo.Create(ctx, req())
	require.NoError(t, err)
	_, err = repo.Create(ctx, req())
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.Equal(t, "email", apperrors.GetField(err))
}

func TestAccountRepo_GetAndSetRole(t *testing.T) {
	repo := newTestAccountRepo(t)
	ctx := context.Background()

	acc, err := repo.Create(ctx, &model.CreateAccountRequest{
		Email: "ops@example.com", Name: "Ops", Password: "password123", Role: domainauth.RoleAdmin,
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, got.Role)

	require.NoError(t, repo.SetRole(ctx, acc.ID, domainauth.RoleGuru))
	got, err = repo.GetByEmail(ctx, "OPS@example.com")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleGuru, got.Role)

	_, err = repo.GetByID(ctx, "not-a-uuid")
	assert.True(t, apperrors.IsNotFound(err))
	_, err = repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
	assert.True(t, apperrors.IsNotFound(err))
	assert.True(t, apperrors.IsValidation(repo.SetRole(ctx, acc.ID, "root")))
}

func TestPostRepo_ListByTenant(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewPostRepo(db)
	ctx := context.Background()
	base := time.Now().UTC().Add(-48 * time.Hour).Truncate(time.Second)

	for i := 0; i < 3; i++ {
		_, err := repo.Create(ctx, model.Post{
			Tenant: "angel", Slug: fmt.Sprintf("p-%d", i), Title: "T", PublishedAt: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, model.Post{Tenant: "guru", Slug: "other", Title: "T", PublishedAt: base})
	require.NoError(t, err)

	posts, err := repo.ListByTenant(ctx, model.PostsListOptions{Tenant: "angel", Page: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "p-2", posts[0].Slug)

	posts, err = repo.ListByTenant(ctx, model.PostsListOptions{Tenant: "angel", Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "p-0", posts[0].Slug)

	_, err = repo.Create(ctx, model.Post{Tenant: "angel", Slug: "p-0", Title: "dup"})
	assert.True(t, apperrors.IsConflict(err))

	created, err := repo.Create(ctx, model.Post{Tenant: "angel", Title: "Hire a Guru, Fast!"})
	require.NoError(t, err)
	assert.Equal(t, "hire-a-guru-fast", created.Slug)
}
