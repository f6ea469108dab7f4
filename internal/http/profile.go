package httpx

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/yoohoo-guru/yoohoo-api/internal/domain/model"
)

// AccountLoader fetches the full account behind a verified session.
type AccountLoader interface {
	Account(ctx context.Context, userID string) (*model.Account, error)
}

// ProfileLoader resolves the signed-in account at most once per request.
// The memo lives in the request context and is never shared across requests.
type ProfileLoader struct {
	loader AccountLoader
}

// NewProfileLoader returns a loader backed by l.
func NewProfileLoader(l AccountLoader) *ProfileLoader {
	return &ProfileLoader{loader: l}
}

type profileMemoKey struct{}

type profileMemo struct {
	once sync.Once
	acc  *model.Account
	err  error
}

var errNoProfile = errors.New("no session")

// Middleware installs an empty per-request memo.
func (p *ProfileLoader) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), profileMemoKey{}, &profileMemo{})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Load returns the account for the request's session. Concurrent and repeated
// calls within one request share a single lookup. Requests that did not pass
// through Middleware fall back to an uncached lookup.
func (p *ProfileLoader) Load(r *http.Request) (*model.Account, error) {
	ctx := r.Context()
	sc := GetSessionFromContext(ctx)
	if sc == nil {
		return nil, errNoProfile
	}
	memo, ok := ctx.Value(profileMemoKey{}).(*profileMemo)
	if !ok {
		return p.loader.Account(ctx, sc.UserID)
	}
	memo.once.Do(func() {
		memo.acc, memo.err = p.loader.Account(ctx, sc.UserID)
	})
	return memo.acc, memo.err
}
