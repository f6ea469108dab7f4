package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr error
	}{
		{in: "gunu", want: RoleGunu},
		{in: "Guru", want: RoleGuru},
		{in: " angel ", want: RoleAngel},
		{in: "hero-guru", want: RoleHeroGuru},
		{in: "admin", want: RoleAdmin},
		{in: "", wantErr: ErrRoleMissing},
		{in: "gurun", wantErr: ErrUnknownRole},
		{in: "superuser", wantErr: ErrUnknownRole},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewSession_FixedWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 500, time.UTC)
	s := NewSession("jti", Identity{ID: "u1", Role: RoleGuru}, now)

	assert.Equal(t, now.Truncate(time.Second), s.IssuedAt)
	assert.Equal(t, s.IssuedAt.Add(30*24*time.Hour), s.ExpiresAt)
	assert.False(t, s.Expired(s.ExpiresAt))
	assert.False(t, s.Expired(s.ExpiresAt.Add(-time.Second)))
	assert.True(t, s.Expired(s.ExpiresAt.Add(time.Second)))
}

func TestContextFromSession(t *testing.T) {
	s := NewSession("jti", Identity{ID: "u1", Email: "a@b.c", Name: "A", Role: RoleAdmin}, time.Now())
	c := ContextFromSession(s)
	assert.Equal(t, "u1", c.UserID)
	assert.Equal(t, RoleAdmin, c.Role)
	assert.True(t, c.IsAdmin())

	var nilCtx *SessionContext
	assert.False(t, nilCtx.IsAdmin())
}
