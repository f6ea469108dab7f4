// Package mocks provides gomock-generated mocks for the yoohoo ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	store := mocks.NewMockIdentityStore(ctrl)
//	store.EXPECT().Authenticate(gomock.Any(), "a@b.c", "pw").Return(identity, nil)
package mocks

// Generate mock for IdentityStore interface from internal/ports package.
// This creates MockIdentityStore with methods: Authenticate, GetByID, GetByEmail, Create
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=identity_store_mock.go github.com/yoohoo-guru/yoohoo-api/internal/ports IdentityStore
