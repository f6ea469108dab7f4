package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yoohoo-guru/yoohoo-api/internal/adapters/sessiontoken"
	"github.com/yoohoo-guru/yoohoo-api/internal/data"
	domainauth "github.com/yoohoo-guru/yoohoo-api/internal/domain/auth"
	"github.com/yoohoo-guru/yoohoo-api/internal/domain/model"
	authmocks "github.com/yoohoo-guru/yoohoo-api/internal/mocks/auth"
	"github.com/yoohoo-guru/yoohoo-api/internal/service"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type routerFixture struct {
	handler  http.Handler
	auth     *service.AuthService
	store    *authmocks.MemoryIdentityStore
	posts    *authmocks.MemoryPostStore
	provider *authmocks.MockAuthProvider
	clock    *data.FixedTimeProvider
	cookies  CookiePolicy
	registry *PolicyRegistry
}

func newPolicyRegistry(t *testing.T) *PolicyRegistry {
	t.Helper()
	reg := NewPolicyRegistry()
	require.NoError(t, reg.Register(RouteDashboard, domainauth.Roles(), ""))
	require.NoError(t, reg.Register(RouteAdmin, []domainauth.Role{domainauth.RoleAdmin}, ""))
	require.NoError(t, reg.Register(ProfileRoute("guru"), []domainauth.Role{domainauth.RoleGuru}, ""))
	require.NoError(t, reg.Register(ProfileRoute("angel"), []domainauth.Role{domainauth.RoleAngel}, ""))
	return reg
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	codec, err := sessiontoken.NewCodec([]byte(testSecret), "")
	require.NoError(t, err)

	clock := data.NewFixedTimeProvider(testNow)
	store := authmocks.NewMemoryIdentityStore()
	store.Now = clock.Now
	provider := authmocks.NewMockAuthProvider()
	auth := service.NewAuthService(service.AuthServiceOptions{
		Codec:      codec,
		Identities: store,
		Provider:   provider,
		Clock:      clock,
	})
	posts := authmocks.NewMemoryPostStore()

	cookies, err := NewCookiePolicy(CookieOptions{ParentDomain: "yoohoo.guru"})
	require.NoError(t, err)

	reg := newPolicyRegistry(t)
	handler, err := NewRouter(RouterServices{
		Auth:     auth,
		Posts:    service.NewPostService(service.PostServiceOptions{Store: posts}),
		Policies: reg,
		Cookies:  cookies,
		Tenants:  TenantResolver{BaseDomain: "yoohoo.guru"},
	})
	require.NoError(t, err)

	return &routerFixture{
		handler:  handler,
		auth:     auth,
		store:    store,
		posts:    posts,
		provider: provider,
		clock:    clock,
		cookies:  cookies,
		registry: reg,
	}
}

// signIn seeds an account with role and returns its session cookie.
func (f *routerFixture) signIn(t *testing.T, role domainauth.Role) (model.Account, *http.Cookie) {
	t.Helper()
	acc := f.store.Add(string(role)+"@example.com", "Test "+string(role), "password123", role)
	issued, err := f.auth.Issue(context.Background(), acc.Identity())
	require.NoError(t, err)
	return acc, f.cookies.SessionCookie(issued.Token, issued.Session.ExpiresAt)
}

func (f *routerFixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}
