package auth

import "errors"

var (
	// ErrConfiguration marks a missing secret or an invalid route policy. Fatal at startup.
	ErrConfiguration = errors.New("auth configuration error")
	// ErrInvalidSession marks a token with a bad signature or malformed content.
	ErrInvalidSession = errors.New("invalid session")
	// ErrExpiredSession marks a correctly signed token past its expiry.
	ErrExpiredSession = errors.New("expired session")
	// ErrNoSession is the collapsed "no valid session" outcome handed to callers.
	ErrNoSession = errors.New("no session")
	// ErrAuthenticationFailed is returned by the identity store for bad credentials.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrDeniedRole marks an authenticated identity without a permitted role.
	ErrDeniedRole = errors.New("role not permitted")
	// ErrRoleMissing marks an identity or token that carries no role at all.
	ErrRoleMissing = errors.New("role missing")
	// ErrUnknownRole marks a role string outside the closed set.
	ErrUnknownRole = errors.New("unknown role")
)
