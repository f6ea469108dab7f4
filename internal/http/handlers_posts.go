package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/yoohoo-guru/yoohoo-api/internal/domain/model"
)

// PostServiceInterface lists published posts.
type PostServiceInterface interface {
	List(ctx context.Context, opts model.PostsListOptions) (*model.PostsPage, error)
}

// PostHandlers serves the public blog listing.
type PostHandlers struct {
	Svc     PostServiceInterface
	Tenants TenantResolver
}

// List returns one page of a tenant's posts, newest first.
// GET /api/blog/posts?tenant=<tenant>&page=<n>&limit=<n>.
func (h *PostHandlers) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, ok := parseIntParam(w, q, "page", 1)
	if !ok {
		return
	}
	limit, ok := parseIntParam(w, q, "limit", model.DefaultPostsLimit)
	if !ok {
		return
	}

	tenant := strings.ToLower(strings.TrimSpace(q.Get("tenant")))
	if tenant == "" {
		tenant, _ = h.Tenants.tenantFromHost(r.Host, r.Header.Get("X-Forwarded-Host"))
	}
	if tenant == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation", Err: errors.New("tenant is required")})
		return
	}

	res, err := h.Svc.List(r.Context(), model.PostsListOptions{Tenant: tenant, Page: page, Limit: limit})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=60")
	WriteJSON(w, http.StatusOK, res)
}

// parseIntParam parses an optional integer query value. def applies only
// when the parameter is absent; an explicit value is returned as given.
func parseIntParam(w http.ResponseWriter, q url.Values, name string, def int) (int, bool) {
	if !q.Has(name) {
		return def, true
	}
	n, err := strconv.Atoi(q.Get(name))
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "validation",
			Err:     errors.New(name + " must be an integer"),
		})
		return 0, false
	}
	return n, true
}
