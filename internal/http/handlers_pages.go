package httpx

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	domainauth "github.com/yoohoo-guru/yoohoo-api/internal/domain/auth"
)

var pageTmpl = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="en"><head><meta charset="utf-8"><title>{{.Title}} | YooHoo.Guru</title></head>
<body><main><h1>{{.Title}}</h1><p>Signed in as {{.Name}} ({{.Role}})</p>
<form method="post" action="/api/auth/logout"><button type="submit">Sign out</button></form></main></body></html>
`))

var loginTmpl = template.Must(template.New("login").Parse(`<!doctype html>
<html lang="en"><head><meta charset="utf-8"><title>Sign in | YooHoo.Guru</title></head>
<body><main><h1>Sign in</h1>{{if .Failed}}<p role="alert">Invalid email or password.</p>{{end}}
<form method="post" action="/api/auth/login">
<input type="hidden" name="redirect_uri" value="{{.RedirectURI}}">
<label>Email <input type="email" name="email" required></label>
<label>Password <input type="password" name="password" required></label>
<button type="submit">Sign in</button></form>
{{if .Federated}}<p><a href="/auth/oauth/login?redirect_uri={{.RedirectURI}}">Sign in with your organisation</a></p>{{end}}
</main></body></html>
`))

type loginData struct {
	RedirectURI string
	Failed      bool
	Federated   bool
}

type pageData struct {
	Title string
	Name  string
	Role  domainauth.Role
}

// PageHandlers serves the role-gated landing pages. Gating happens in the
// router; handlers assume a session is present.
type PageHandlers struct {
	Federated bool
	Logger    *slog.Logger
}

// Login renders the sign-in form. Signed-in visitors go straight to their
// destination.
// GET /login?redirect_uri=<path>.
func (h *PageHandlers) Login(w http.ResponseWriter, r *http.Request) {
	redirectURI := safeRedirectPath(r.URL.Query().Get("redirect_uri"))
	if GetSessionFromContext(r.Context()) != nil {
		dest := redirectURI
		if dest == "/" {
			dest = domainauth.DefaultFallbackPath
		}
		http.Redirect(w, r, dest, http.StatusFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	data := loginData{
		RedirectURI: redirectURI,
		Failed:      r.URL.Query().Get("error") != "",
		Federated:   h.Federated,
	}
	if err := loginTmpl.Execute(w, data); err != nil {
		h.logger().ErrorContext(r.Context(), "render login", "error", err)
	}
}

func (h *PageHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Dashboard renders the landing page for any signed-in role.
// GET /dashboard.
func (h *PageHandlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "Dashboard")
}

// Admin renders the admin console landing page.
// GET /admin.
func (h *PageHandlers) Admin(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "Admin")
}

func (h *PageHandlers) render(w http.ResponseWriter, r *http.Request, title string) {
	sc := GetSessionFromContext(r.Context())
	if sc == nil {
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "authentication_required", Err: domainauth.ErrNoSession})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := pageTmpl.Execute(w, pageData{Title: title, Name: sc.Name, Role: sc.Role}); err != nil {
		h.logger().ErrorContext(r.Context(), "render page", "title", title, "error", err)
	}
}

// ProfileHandlers serves tenant profile pages. Each tenant subdomain has its
// own policy in the registry.
type ProfileHandlers struct {
	Registry *PolicyRegistry
	Tenants  TenantResolver
	Profiles *ProfileLoader
	Logger   *slog.Logger
}

// Profile returns the signed-in account on a tenant subdomain.
// GET /profile.
func (h *ProfileHandlers) Profile(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.Tenants.tenantFromHost(r.Host, r.Header.Get("X-Forwarded-Host"))
	if !ok {
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: errors.New("unknown tenant")})
		return
	}
	route := ProfileRoute(tenant)
	policy, ok := h.Registry.Policy(route)
	if !ok {
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: errors.New("unknown tenant")})
		return
	}
	if !h.Registry.enforce(w, r, route, policy) {
		return
	}

	acc, err := h.Profiles.Load(r)
	if err != nil {
		if r.Context().Err() == nil {
			logger := h.Logger
			if logger == nil {
				logger = slog.Default()
			}
			logger.WarnContext(r.Context(), "load profile", "tenant", tenant, "error", err)
		}
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	WriteJSON(w, http.StatusOK, map[string]any{
		"tenant": tenant,
		"user": sessionUser{
			ID:    acc.ID,
			Email: acc.Email,
			Name:  acc.Name,
			Role:  acc.Role,
		},
		"member_since": acc.CreatedAt,
	})
}
