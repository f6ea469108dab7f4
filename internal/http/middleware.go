package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/yoohoo-guru/yoohoo-api/internal/domain/auth"
)

// SessionVerifier turns a raw cookie value into a verified session, or nil.
type SessionVerifier interface {
	VerifySession(ctx context.Context, raw string) *domainauth.SessionContext
}

// Logging returns a middleware that assigns a request id and logs each request.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := r.Header.Get("X-Request-ID")
			if reqID == "" || len(reqID) > 64 {
				reqID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", reqID)
			rl := &requestLog{}
			ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
			r = r.WithContext(context.WithValue(ctx, requestLogKey{}, rl))

			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			attrs := []any{
				slog.String("request_id", reqID),
				slog.String("method", r.Method),
				slog.String("host", r.Host),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			}
			if rl.userID != "" {
				attrs = append(attrs, slog.String("user_id", rl.userID))
			}
			logger.InfoContext(r.Context(), "http", attrs...)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.ErrorContext(r.Context(), "panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					WriteError(w, ErrorParams{
						Code:    http.StatusInternalServerError,
						ErrCode: "internal_error",
						Err:     errors.New("internal server error"),
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// OptionalSession verifies the session cookie, when present, and attaches the
// resulting SessionContext to the request context. Invalid, expired and
// missing cookies all continue anonymously.
func OptionalSession(v SessionVerifier, cookies CookiePolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw := cookies.Token(r); raw != "" {
				if sc := v.VerifySession(r.Context(), raw); sc != nil {
					noteUserID(r.Context(), sc.UserID)
					r = r.WithContext(SetSessionInContext(r.Context(), sc))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePolicy gates a handler on policy. It reads the session attached by
// OptionalSession; the handler only runs when the decision is Allowed.
func RequirePolicy(policy domainauth.RoutePolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if enforce(w, r, policy) != domainauth.Allowed {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// enforce applies policy to the request and writes the denial response.
// The caller may proceed only on domainauth.Allowed.
func enforce(w http.ResponseWriter, r *http.Request, policy domainauth.RoutePolicy) domainauth.Decision {
	sc := GetSessionFromContext(r.Context())
	d := domainauth.Authorize(sc, policy)
	switch d {
	case domainauth.Allowed:
	case domainauth.DeniedRole:
		slog.Default().InfoContext(r.Context(), "route denied for role",
			"user_id", sc.UserID, "role", sc.Role, "path", r.URL.Path, "request_id", RequestIDFromContext(r.Context()))
		deny(w, r, denial{
			status:   http.StatusForbidden,
			errCode:  "insufficient_role",
			err:      domainauth.ErrDeniedRole,
			location: policy.Fallback(),
		})
	default:
		deny(w, r, denial{
			status:   http.StatusUnauthorized,
			errCode:  "authentication_required",
			err:      domainauth.ErrNoSession,
			location: loginURL(r),
		})
	}
	return d
}

type denial struct {
	status   int
	errCode  string
	err      error
	location string
}

// deny answers API requests with JSON carrying redirect_to and browser
// requests with a 302 to the same location.
func deny(w http.ResponseWriter, r *http.Request, d denial) {
	w.Header().Set("Cache-Control", "no-store")
	if !IsBrowserRequest(r) {
		WriteError(w, ErrorParams{Code: d.status, ErrCode: d.errCode, Err: d.err, RedirectTo: d.location})
		return
	}
	http.Redirect(w, r, d.location, http.StatusFound)
}

func loginURL(r *http.Request) string {
	q := url.Values{}
	q.Set("redirect_uri", safeRedirectPath(r.URL.RequestURI()))
	return domainauth.DefaultLoginPath + "?" + q.Encode()
}

// browserRequestKey is an unexported context key type for browser request detection.
type browserRequestKey struct{}

// BrowserDetection returns a middleware that records whether the request
// comes from a browser (redirects) or an API client (JSON).
func BrowserDetection() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), browserRequestKey{}, isBrowserRequest(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IsBrowserRequest returns true if the current request is from a browser.
func IsBrowserRequest(r *http.Request) bool {
	if isBrowser, ok := r.Context().Value(browserRequestKey{}).(bool); ok {
		return isBrowser
	}
	return isBrowserRequest(r)
}

// isBrowserRequest treats /api/ paths and JSON-only clients as API requests.
func isBrowserRequest(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return false
	}
	if strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest") {
		return false
	}
	accept := r.Header.Get("Accept")
	if accept == "" {
		return true
	}
	return strings.Contains(accept, "text/html") || strings.Contains(accept, "*/*")
}

// safeRedirectPath ensures the provided redirect is a same-origin relative path
// starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(candidate, "//") {
		return "/"
	}
	return candidate
}
