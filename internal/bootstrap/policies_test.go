package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/yoohoo-guru/yoohoo-api/internal/domain/auth"
	httpx "github.com/yoohoo-guru/yoohoo-api/internal/http"
)

func TestBuildPolicyRegistry(t *testing.T) {
	reg, err := BuildPolicyRegistry(map[string]string{
		"angel": "angel",
		"guru":  "guru,hero-guru",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"admin", "dashboard", "profile@angel", "profile@guru"}, reg.Routes())

	guru, ok := reg.Policy(httpx.ProfileRoute("guru"))
	require.True(t, ok)
	assert.Equal(t, []domainauth.Role{domainauth.RoleGuru, domainauth.RoleHeroGuru}, guru.Roles())
	assert.Equal(t, "/dashboard", guru.Fallback())

	admin, ok := reg.Policy(httpx.RouteAdmin)
	require.True(t, ok)
	assert.Equal(t, []domainauth.Role{domainauth.RoleAdmin}, admin.Roles())
}

func TestBuildPolicyRegistry_RejectsBadTenants(t *testing.T) {
	for name, roles := range map[string]string{
		"unknown role": "angel,wizard",
		"empty roles":  " , ",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := BuildPolicyRegistry(map[string]string{"angel": roles})
			require.ErrorIs(t, err, domainauth.ErrConfiguration)
		})
	}
}
