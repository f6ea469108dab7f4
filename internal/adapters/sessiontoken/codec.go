package sessiontoken

// Package sessiontoken signs and verifies stateless session tokens (HS256 JWTs).

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	domainauth "github.com/yoohoo-guru/yoohoo-api/internal/domain/auth"
)

// MinSecretLen is the minimum accepted signing secret length in bytes.
const MinSecretLen = 32

// DefaultIssuer is used when no issuer is configured.
const DefaultIssuer = "yoohoo.guru"

// Codec implements ports.SessionCodec with an HMAC-SHA256 signed JWT.
// It is safe for concurrent use; its state is read-only after construction.
type Codec struct {
	secret []byte
	issuer string
	parser *jwt.Parser
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// NewCodec builds a codec. A missing or short secret is a configuration error.
func NewCodec(secret []byte, issuer string) (*Codec, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: session signing secret is not set", domainauth.ErrConfiguration)
	}
	if len(secret) < MinSecretLen {
		return nil, fmt.Errorf("%w: session signing secret must be at least %d bytes", domainauth.ErrConfiguration, MinSecretLen)
	}
	if issuer == "" {
		issuer = DefaultIssuer
	}
	return &Codec{
		secret: append([]byte(nil), secret...),
		issuer: issuer,
		// Claims are validated in Decode so that the expiry boundary matches
		// domainauth.Session.Expired exactly.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithStrictDecoding(),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

// Encode signs sess into a compact token.
func (c *Codec) Encode(sess domainauth.Session) (string, error) {
	if sess.UserID == "" {
		return "", errors.New("session subject is required")
	}
	if !sess.Role.Valid() {
		return "", fmt.Errorf("session role %q is invalid", sess.Role)
	}
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Subject:   sess.UserID,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(sess.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
		Role:  string(sess.Role),
		Email: sess.Email,
		Name:  sess.Name,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return signed, nil
}

// Decode verifies token and returns its session. It never mutates or
// re-signs anything. Signature or format problems yield ErrInvalidSession;
// a token past its expiry at now yields ErrExpiredSession.
func (c *Codec) Decode(token string, now time.Time) (domainauth.Session, error) {
	if token == "" {
		return domainauth.Session{}, domainauth.ErrInvalidSession
	}

	var claims sessionClaims
	if _, err := c.parser.ParseWithClaims(token, &claims, c.keyFunc); err != nil {
		return domainauth.Session{}, fmt.Errorf("%w: %w", domainauth.ErrInvalidSession, err)
	}

	sess, err := c.sessionFromClaims(&claims)
	if err != nil {
		return domainauth.Session{}, err
	}
	if sess.Expired(now) {
		return domainauth.Session{}, domainauth.ErrExpiredSession
	}
	return sess, nil
}

func (c *Codec) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return c.secret, nil
}

func (c *Codec) sessionFromClaims(claims *sessionClaims) (domainauth.Session, error) {
	invalid := func(reason string) (domainauth.Session, error) {
		return domainauth.Session{}, fmt.Errorf("%w: %s", domainauth.ErrInvalidSession, reason)
	}

	if claims.Issuer != c.issuer {
		return invalid("issuer mismatch")
	}
	if claims.Subject == "" {
		return invalid("missing subject")
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return invalid("missing iat or exp")
	}
	if !claims.ExpiresAt.After(claims.IssuedAt.Time) {
		return invalid("exp not after iat")
	}
	role, err := domainauth.ParseRole(claims.Role)
	if err != nil {
		return invalid(err.Error())
	}

	return domainauth.Session{
		ID:        claims.ID,
		UserID:    claims.Subject,
		Email:     claims.Email,
		Name:      claims.Name,
		Role:      role,
		IssuedAt:  claims.IssuedAt.UTC(),
		ExpiresAt: claims.ExpiresAt.UTC(),
	}, nil
}
