//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/yoohoo-guru/yoohoo-api/internal/domain/auth"
)

func validAccountRequest() CreateAccountRequest {
	return CreateAccountRequest{
		Email:    "  Learner@Example.com ",
		Name:     " Lee ",
		Password: "correct horse",
		Role:     "GUNU",
	}
}

func TestCreateAccountRequest_NormalizeAndValidate(t *testing.T) {
	req := validAccountRequest()
	req.Normalize()
	require.NoError(t, req.Validate())
	assert.Equal(t, "learner@example.com", req.Email)
	assert.Equal(t, "Lee", req.Name)
	assert.Equal(t, domainauth.RoleGunu, req.Role)
}

func TestCreateAccountRequest_Rejects(t *testing.T) {
	cases := map[string]func(r *CreateAccountRequest){
		"missing email":  func(r *CreateAccountRequest) { r.Email = "" },
		"bad email":      func(r *CreateAccountRequest) { r.Email = "not-an-email" },
		"missing name":   func(r *CreateAccountRequest) { r.Name = "" },
		"short password": func(r *CreateAccountRequest) { r.Password = "short" },
		"long password":  func(r *CreateAccountRequest) { r.Password = strings.Repeat("x", 73) },
		"unknown role":   func(r *CreateAccountRequest) { r.Role = "wizard" },
		"missing role":   func(r *CreateAccountRequest) { r.Role = "" },
		"admin role":     func(r *CreateAccountRequest) { r.Role = domainauth.RoleAdmin },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := validAccountRequest()
			req.Normalize()
			mutate(&req)
			assert.Error(t, req.Validate())
		})
	}
}

func TestAccount_Identity(t *testing.T) {
	a := Account{ID: "u1", Email: "g@x.io", Name: "G", Role: domainauth.RoleGuru, PasswordHash: "h"}
	id := a.Identity()
	assert.Equal(t, domainauth.Identity{ID: "u1", Email: "g@x.io", Name: "G", Role: domainauth.RoleGuru}, id)
}
