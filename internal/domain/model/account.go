//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	domainauth "github.com/yoohoo-guru/yoohoo-api/internal/domain/auth"
)

const (
	maxAccountNameLen  = 120
	minPasswordLen     = 8
	maxPasswordLen     = 72 // bcrypt input limit
	maxAccountEmailLen = 254
)

// Account is a persisted user record. PasswordHash never leaves the data layer.
type Account struct {
	ID           string          `json:"id"         db:"id"`
	Email        string          `json:"email"      db:"email"`
	Name         string          `json:"name"       db:"name"`
	Role         domainauth.Role `json:"role"       db:"role"`
	PasswordHash string          `json:"-"          db:"password_hash"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// Identity projects the account onto the session core's identity shape.
func (a Account) Identity() domainauth.Identity {
	return domainauth.Identity{ID: a.ID, Email: a.Email, Name: a.Name, Role: a.Role}
}

// CreateAccountRequest carries self-service registration input.
type CreateAccountRequest struct {
	Email    string          `json:"email"`
	Name     string          `json:"name"`
	Password string          `json:"password"`
	Role     domainauth.Role `json:"role"`
}

// Normalize trims inputs and lowercases the email.
func (r *CreateAccountRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Name = strings.TrimSpace(r.Name)
	r.Role = domainauth.Role(strings.ToLower(strings.TrimSpace(string(r.Role))))
}

// Validate checks the registration request. Admin accounts cannot self-register.
func (r *CreateAccountRequest) Validate() error {
	if r.Email == "" {
		return errors.New("email is required")
	}
	if len(r.Email) > maxAccountEmailLen {
		return errors.New("email is too long")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return errors.New("email is invalid")
	}
	if r.Name == "" {
		return errors.New("name is required")
	}
	if utf8.RuneCountInString(r.Name) > maxAccountNameLen {
		return errors.New("name is too long")
	}
	if len(r.Password) < minPasswordLen {
		return errors.New("password must be at least 8 characters")
	}
	if len(r.Password) > maxPasswordLen {
		return errors.New("password must be at most 72 bytes")
	}
	if !r.Role.Valid() {
		return errors.New("role is invalid")
	}
	if r.Role == domainauth.RoleAdmin {
		return errors.New("admin accounts cannot be self-registered")
	}
	return nil
}
