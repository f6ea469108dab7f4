package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/yoohoo-guru/yoohoo-api/internal/domain/auth"
	"github.com/yoohoo-guru/yoohoo-api/internal/domain/model"
	apperrors "github.com/yoohoo-guru/yoohoo-api/internal/errors"
	"github.com/yoohoo-guru/yoohoo-api/internal/ports"
)

func TestMockAuthProvider_Begin_Defaults(t *testing.T) {
	provider := NewMockAuthProvider()
	ctx := context.Background()

	input := ports.BeginInput{RedirectURL: "http://localhost:8080/callback"}
	authURL, state, nonce, err := provider.Begin(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "https://mock-idp/auth", authURL)
	assert.Equal(t, "state-1", state)
	assert.Equal(t, "nonce-1", nonce)

	// Second call should increment counters
	_, state2, nonce2, err := provider.Begin(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "state-2", state2)
	assert.Equal(t, "nonce-2", nonce2)
}

func TestMockAuthProvider_Exchange_Default(t *testing.T) {
	provider := NewMockAuthProvider()
	user, err := provider.Exchange(context.Background(), ports.ExchangeInput{Code: "c"})
	require.NoError(t, err)
	assert.Equal(t, "mock.user@example.com", user.Email)
	assert.True(t, user.EmailVerified)
}

func TestMemoryIdentityStore_Authenticate(t *testing.T) {
	store := NewMemoryIdentityStore()
	acc := store.Add("Guru@Example.com", "Guru", "password123", domainauth.RoleGuru)

	id, err := store.Authenticate(context.Background(), "guru@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, id.ID)
	assert.Equal(t, domainauth.RoleGuru, id.Role)

	_, err = store.Authenticate(context.Background(), "guru@example.com", "wrong")
	require.ErrorIs(t, err, domainauth.ErrAuthenticationFailed)
}

func TestMemoryIdentityStore_CreateConflict(t *testing.T) {
	store := NewMemoryIdentityStore()
	req := &model.CreateAccountRequest{Email: "a@example.com", Name: "A", Password: "password123", Role: domainauth.RoleGunu}
	_, err := store.Create(context.Background(), req)
	require.NoError(t, err)

	dup := &model.CreateAccountRequest{Email: "A@example.com", Name: "A", Password: "password123", Role: domainauth.RoleGunu}
	_, err = store.Create(context.Background(), dup)
	assert.True(t, apperrors.IsConflict(err))
}

func TestMemoryPostStore_ListByTenant(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryPostStore(
		model.Post{ID: "1", Tenant: "angel", PublishedAt: base},
		model.Post{ID: "2", Tenant: "angel", PublishedAt: base.Add(time.Hour)},
		model.Post{ID: "3", Tenant: "guru", PublishedAt: base},
	)

	posts, err := store.ListByTenant(context.Background(), model.PostsListOptions{Tenant: "angel", Page: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, posts, 2) // limit+1
	assert.Equal(t, "2", posts[0].ID)
}

func TestMemoryDeduper(t *testing.T) {
	d := NewMemoryDeduper()
	first, err := d.FirstSeen(context.Background(), "evt_1", time.Hour)
	require.NoError(t, err)
	assert.True(t, first)
	again, err := d.FirstSeen(context.Background(), "evt_1", time.Hour)
	require.NoError(t, err)
	assert.False(t, again)
}
