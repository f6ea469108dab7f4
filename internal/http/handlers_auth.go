package httpx

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"

	domainauth "github.com/yoohoo-guru/yoohoo-api/internal/domain/auth"
	"github.com/yoohoo-guru/yoohoo-api/internal/domain/model"
	apperrors "github.com/yoohoo-guru/yoohoo-api/internal/errors"
	"github.com/yoohoo-guru/yoohoo-api/internal/service"
)

const (
	oauthStateCookie    = "oauth_state"
	oauthNonceCookie    = "oauth_nonce"
	oauthRedirectCookie = "post_login_redirect"
)

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password string) (*service.IssuedSession, error)
	Register(ctx context.Context, req *model.CreateAccountRequest) (*model.Account, *service.IssuedSession, error)
	VerifySession(ctx context.Context, raw string) *domainauth.SessionContext
	Account(ctx context.Context, userID string) (*model.Account, error)
	FederatedEnabled() bool
	BeginLogin(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error)
	CompleteOAuthLogin(ctx context.Context, input service.CompleteLoginInput) (*service.IssuedSession, error)
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc     AuthServiceInterface
	Cookies CookiePolicy
	Logger  *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionUser struct {
	ID    string          `json:"id"`
	Email string          `json:"email"`
	Name  string          `json:"name"`
	Role  domainauth.Role `json:"role"`
}

func userFromSession(s domainauth.Session) sessionUser {
	return sessionUser{ID: s.UserID, Email: s.Email, Name: s.Name, Role: s.Role}
}

// Login authenticates email/password credentials and sets the session cookie.
// POST /api/auth/login (JSON or form encoded).
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	form := isFormRequest(r)
	if form {
		if err := r.ParseForm(); err != nil {
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_form", Err: err})
			return
		}
		req.Email = r.PostFormValue("email")
		req.Password = r.PostFormValue("password")
	} else if !DecodeJSON(w, r, &req) {
		return
	}

	issued, err := h.Svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domainauth.ErrAuthenticationFailed) {
			if form {
				q := url.Values{}
				q.Set("error", "authentication_failed")
				q.Set("redirect_uri", safeRedirectPath(r.PostFormValue("redirect_uri")))
				http.Redirect(w, r, domainauth.DefaultLoginPath+"?"+q.Encode(), http.StatusSeeOther)
				return
			}
			WriteError(w, ErrorParams{
				Code:    http.StatusUnauthorized,
				ErrCode: "authentication_failed",
				Err:     domainauth.ErrAuthenticationFailed,
			})
			return
		}
		h.logger().ErrorContext(r.Context(), "login failed", "error", err)
		writeServiceError(w, err)
		return
	}

	h.Cookies.SetSession(w, issued.Token, issued.Session.ExpiresAt)
	w.Header().Set("Cache-Control", "no-store")
	if form {
		// HTML form posts land on the page that sent the visitor to login
		dest := safeRedirectPath(r.PostFormValue("redirect_uri"))
		if dest == "/" {
			dest = domainauth.DefaultFallbackPath
		}
		http.Redirect(w, r, dest, http.StatusSeeOther)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"user":       userFromSession(issued.Session),
		"expires_at": issued.Session.ExpiresAt,
	})
}

// Register creates a non-admin account and signs it in.
// POST /api/auth/register.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req model.CreateAccountRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	acc, issued, err := h.Svc.Register(r.Context(), &req)
	if err != nil {
		if apperrors.GetCode(err) == "" {
			h.logger().ErrorContext(r.Context(), "register failed", "error", err)
		}
		writeServiceError(w, err)
		return
	}

	h.Cookies.SetSession(w, issued.Token, issued.Session.ExpiresAt)
	w.Header().Set("Cache-Control", "no-store")
	WriteJSON(w, http.StatusCreated, map[string]any{
		"user":       sessionUser{ID: acc.ID, Email: acc.Email, Name: acc.Name, Role: acc.Role},
		"expires_at": issued.Session.ExpiresAt,
	})
}

// Logout clears the session cookie. Tokens are stateless, so nothing is
// invalidated server-side.
// POST /api/auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.Cookies.ClearSession(w)
	w.Header().Set("Cache-Control", "no-store")
	WriteJSON(w, http.StatusOK, map[string]string{
		"status":      "success",
		"redirect_to": domainauth.DefaultLoginPath,
	})
}

// Session reports the current session.
// GET /api/auth/session.
func (h *AuthHandlers) Session(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	sc := GetSessionFromContext(r.Context())
	if sc == nil {
		// a stale cookie is dropped so the browser stops sending it
		if h.Cookies.Token(r) != "" {
			h.Cookies.ClearSession(w)
		}
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user": sessionUser{
			ID:    sc.UserID,
			Email: sc.Email,
			Name:  sc.Name,
			Role:  sc.Role,
		},
		"expires_at": sc.ExpiresAt,
	})
}

// OAuthLogin starts the federated login flow.
// GET /auth/oauth/login?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) OAuthLogin(w http.ResponseWriter, r *http.Request) {
	redirectURI := safeRedirectPath(r.URL.Query().Get("redirect_uri"))

	result, err := h.Svc.BeginLogin(r.Context(), redirectURI)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "begin federated login failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     errors.New("unable to start login"),
		})
		return
	}

	h.Cookies.setFlowCookie(w, oauthStateCookie, result.State)
	h.Cookies.setFlowCookie(w, oauthNonceCookie, result.Nonce)
	h.Cookies.setFlowCookie(w, oauthRedirectCookie, redirectURI)
	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// OAuthCallback completes the federated login flow.
// GET /auth/oauth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_code",
			Err:     errors.New("authorization code is required"),
		})
		return
	}
	stateCookie, err := r.Cookie(oauthStateCookie)
	if state == "" || err != nil || stateCookie.Value != state {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_state",
			Err:     errors.New("invalid or missing state parameter"),
		})
		return
	}
	nonceCookie, err := r.Cookie(oauthNonceCookie)
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_nonce",
			Err:     errors.New("missing nonce parameter"),
		})
		return
	}

	issued, err := h.Svc.CompleteOAuthLogin(r.Context(), service.CompleteLoginInput{
		Code:  code,
		State: state,
		Nonce: nonceCookie.Value,
	})
	h.Cookies.clearFlowCookie(w, oauthStateCookie)
	h.Cookies.clearFlowCookie(w, oauthNonceCookie)
	if err != nil {
		if !errors.Is(err, domainauth.ErrAuthenticationFailed) {
			h.logger().ErrorContext(r.Context(), "federated login failed", "error", err)
		}
		h.Cookies.clearFlowCookie(w, oauthRedirectCookie)
		q := url.Values{}
		q.Set("error", "authentication_failed")
		http.Redirect(w, r, domainauth.DefaultLoginPath+"?"+q.Encode(), http.StatusFound)
		return
	}

	h.Cookies.SetSession(w, issued.Token, issued.Session.ExpiresAt)
	http.Redirect(w, r, h.postLoginRedirect(w, r), http.StatusFound)
}

// postLoginRedirect returns the stored post-login destination and clears its cookie.
func (h *AuthHandlers) postLoginRedirect(w http.ResponseWriter, r *http.Request) string {
	redirectURI := domainauth.DefaultFallbackPath
	if c, err := r.Cookie(oauthRedirectCookie); err == nil {
		if candidate := safeRedirectPath(c.Value); candidate != "/" {
			redirectURI = candidate
		}
		h.Cookies.clearFlowCookie(w, oauthRedirectCookie)
	}
	return redirectURI
}

func isFormRequest(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mt == "application/x-www-form-urlencoded" || strings.HasPrefix(mt, "multipart/")
}
