package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/yoohoo-guru/yoohoo-api/internal/domain/auth"
)

func profileRequest(host string, cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "http://"+host+"/profile", nil)
	req.Header.Set("Accept", "text/html")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func TestProfile_GuruOnAngelSiteRedirectsToDashboard(t *testing.T) {
	f := newRouterFixture(t)
	_, cookie := f.signIn(t, domainauth.RoleGuru)

	rec := f.do(profileRequest("angel.yoohoo.guru", cookie))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func TestProfile_GuruOnGuruSiteIsAllowed(t *testing.T) {
	f := newRouterFixture(t)
	acc, cookie := f.signIn(t, domainauth.RoleGuru)

	rec := f.do(profileRequest("guru.yoohoo.guru", cookie))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "guru", body["tenant"])
	user := body["user"].(map[string]any)
	assert.Equal(t, acc.ID, user["id"])
	assert.Equal(t, "guru", user["role"])
}

func TestProfile_AdminAllowedOnEveryTenant(t *testing.T) {
	f := newRouterFixture(t)
	_, cookie := f.signIn(t, domainauth.RoleAdmin)

	for _, host := range []string{"guru.yoohoo.guru", "angel.yoohoo.guru"} {
		rec := f.do(profileRequest(host, cookie))
		assert.Equal(t, http.StatusOK, rec.Code, host)
	}
}

func TestProfile_AnonymousRedirectsToLogin(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(profileRequest("angel.yoohoo.guru", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?redirect_uri=%2Fprofile", rec.Header().Get("Location"))
}

func TestProfile_APIClientGetsJSONDenial(t *testing.T) {
	f := newRouterFixture(t)
	_, cookie := f.signIn(t, domainauth.RoleGunu)
	req := profileRequest("angel.yoohoo.guru", cookie)
	req.Header.Set("Accept", "application/json")

	rec := f.do(req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "insufficient_role", body["error"])
	assert.Equal(t, "/dashboard", body["redirect_to"])
}

func TestProfile_UnknownTenantIsNotFound(t *testing.T) {
	f := newRouterFixture(t)
	_, cookie := f.signIn(t, domainauth.RoleGuru)

	for _, host := range []string{"hero.yoohoo.guru", "yoohoo.guru", "guru.example.com", "a.b.yoohoo.guru"} {
		rec := f.do(profileRequest(host, cookie))
		assert.Equal(t, http.StatusNotFound, rec.Code, host)
	}
}

func TestProfile_SessionExpiryBoundary(t *testing.T) {
	f := newRouterFixture(t)
	_, cookie := f.signIn(t, domainauth.RoleGuru)

	f.clock.SetTime(testNow.Add(domainauth.SessionLifetime - time.Second))
	assert.Equal(t, http.StatusOK, f.do(profileRequest("guru.yoohoo.guru", cookie)).Code)

	f.clock.SetTime(testNow.Add(domainauth.SessionLifetime + time.Second))
	rec := f.do(profileRequest("guru.yoohoo.guru", cookie))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "/login?")
}

func TestProfile_TamperedCookieIsAnonymous(t *testing.T) {
	f := newRouterFixture(t)
	_, cookie := f.signIn(t, domainauth.RoleGuru)
	b := []byte(cookie.Value)
	mid := len(b) / 2
	if b[mid] == 'x' {
		b[mid] = 'y'
	} else {
		b[mid] = 'x'
	}
	cookie.Value = string(b)

	rec := f.do(profileRequest("guru.yoohoo.guru", cookie))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "/login?")
}

func TestProfile_CrossSubdomainSessionIsShared(t *testing.T) {
	f := newRouterFixture(t)
	_, cookie := f.signIn(t, domainauth.RoleAngel)

	// the same cookie value is sent to every subdomain of the parent domain
	assert.Equal(t, "yoohoo.guru", cookie.Domain)
	assert.Equal(t, http.StatusOK, f.do(profileRequest("angel.yoohoo.guru", cookie)).Code)
	assert.Equal(t, http.StatusFound, f.do(profileRequest("guru.yoohoo.guru", cookie)).Code)
}

func TestPages_DashboardAndAdmin(t *testing.T) {
	f := newRouterFixture(t)
	_, guru := f.signIn(t, domainauth.RoleGuru)
	_, admin := f.signIn(t, domainauth.RoleAdmin)

	tests := []struct {
		name     string
		path     string
		cookie   *http.Cookie
		status   int
		location string
	}{
		{"anonymous dashboard", "/dashboard", nil, http.StatusFound, "/login?redirect_uri=%2Fdashboard"},
		{"guru dashboard", "/dashboard", guru, http.StatusOK, ""},
		{"guru admin", "/admin", guru, http.StatusFound, "/dashboard"},
		{"admin admin", "/admin", admin, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			rec := f.do(req)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.location, rec.Header().Get("Location"))
		})
	}
}

func TestLoginPage(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/login?redirect_uri=%2Fprofile", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="redirect_uri" value="/profile"`)
	assert.Contains(t, rec.Body.String(), "/auth/oauth/login")

	_, cookie := f.signIn(t, domainauth.RoleGunu)
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(cookie)
	rec = f.do(req)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func TestNewRouter_RequiresGatedPolicies(t *testing.T) {
	f := newRouterFixture(t)
	reg := NewPolicyRegistry()
	require.NoError(t, reg.Register(RouteDashboard, domainauth.Roles(), ""))

	_, err := NewRouter(RouterServices{Auth: f.auth, Policies: reg, Cookies: f.cookies})

	require.ErrorIs(t, err, domainauth.ErrConfiguration)
}

func TestProfileLoader_MemoizesWithinRequest(t *testing.T) {
	f := newRouterFixture(t)
	acc, _ := f.signIn(t, domainauth.RoleGuru)
	loader := NewProfileLoader(f.auth)
	sc := &domainauth.SessionContext{UserID: acc.ID, Role: acc.Role}

	h := loader.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for range 3 {
			got, err := loader.Load(r)
			require.NoError(t, err)
			assert.Equal(t, acc.ID, got.ID)
		}
	}))

	for range 2 {
		req := httptest.NewRequest(http.MethodGet, "/profile", nil)
		req = req.WithContext(SetSessionInContext(req.Context(), sc))
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, 2, f.store.Lookups, "one lookup per request, none shared across requests")
}

func TestProfileLoader_HonoursCancellation(t *testing.T) {
	f := newRouterFixture(t)
	acc, _ := f.signIn(t, domainauth.RoleGuru)
	loader := NewProfileLoader(f.auth)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ctx = SetSessionInContext(ctx, &domainauth.SessionContext{UserID: acc.ID, Role: acc.Role})
	req := httptest.NewRequest(http.MethodGet, "/profile", nil).WithContext(ctx)

	_, err := loader.Load(req)
	require.ErrorIs(t, err, context.Canceled)
}
