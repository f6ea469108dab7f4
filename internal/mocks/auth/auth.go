package auth

// Package auth contains simple hand-written test doubles for auth and content ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	domainauth "github.com/yoohoo-guru/yoohoo-api/internal/domain/auth"
	"github.com/yoohoo-guru/yoohoo-api/internal/domain/model"
	apperrors "github.com/yoohoo-guru/yoohoo-api/internal/errors"
	"github.com/yoohoo-guru/yoohoo-api/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthProvider  = (*MockAuthProvider)(nil)
	_ ports.IdentityStore = (*MemoryIdentityStore)(nil)
	_ ports.PostStore     = (*MemoryPostStore)(nil)
	_ ports.EventDeduper  = (*MemoryDeduper)(nil)
)

// MockAuthProvider simulates an IdP for tests with deterministic state/nonce handling.
type MockAuthProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.FederatedIdentity, error)

	// Deterministic values for predictable testing
	AuthURL     string
	StatePrefix string
	NoncePrefix string
	DefaultUser domainauth.FederatedIdentity

	callCount int
}

// NewMockAuthProvider creates a MockAuthProvider with sensible defaults.
func NewMockAuthProvider() *MockAuthProvider {
	return &MockAuthProvider{
		AuthURL:     "https://mock-idp/auth",
		StatePrefix: "state",
		NoncePrefix: "nonce",
		DefaultUser: domainauth.FederatedIdentity{
			Subject:       "mock-subject-1",
			Email:         "mock.user@example.com",
			EmailVerified: true,
			Name:          "Mock User",
		},
	}
}

func (m *MockAuthProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}

	m.callCount++
	authURL := m.AuthURL
	if authURL == "" {
		authURL = "https://mock-idp/auth"
	}
	statePrefix := m.StatePrefix
	if statePrefix == "" {
		statePrefix = "state"
	}
	noncePrefix := m.NoncePrefix
	if noncePrefix == "" {
		noncePrefix = "nonce"
	}

	return authURL, fmt.Sprintf("%s-%d", statePrefix, m.callCount), fmt.Sprintf("%s-%d", noncePrefix, m.callCount), nil
}

func (m *MockAuthProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.FederatedIdentity, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}
	if m.DefaultUser.Email == "" {
		return domainauth.FederatedIdentity{
			Subject:       "mock-subject-1",
			Email:         "mock.user@example.com",
			EmailVerified: true,
			Name:          "Mock User",
		}, nil
	}
	return m.DefaultUser, nil
}

type storedAccount struct {
	account  model.Account
	password string
}

// MemoryIdentityStore is an in-memory IdentityStore. Passwords are kept in
// plain text; it never hashes.
type MemoryIdentityStore struct {
	mu       sync.Mutex
	byID     map[string]*storedAccount
	byEmail  map[string]*storedAccount
	nextID   int
	Lookups  int // GetByID/GetByEmail calls, for memoization assertions
	Now      func() time.Time
	AuthFunc func(ctx context.Context, email, password string) (domainauth.Identity, error)
}

// NewMemoryIdentityStore creates an empty store.
func NewMemoryIdentityStore() *MemoryIdentityStore {
	return &MemoryIdentityStore{
		byID:    make(map[string]*storedAccount),
		byEmail: make(map[string]*storedAccount),
		Now:     time.Now,
	}
}

// Add seeds an account with an explicit role, including admin.
func (m *MemoryIdentityStore) Add(email, name, password string, role domainauth.Role) model.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	now := m.Now().UTC()
	acc := model.Account{
		ID:        fmt.Sprintf("acct-%d", m.nextID),
		Email:     strings.ToLower(email),
		Name:      name,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	rec := &storedAccount{account: acc, password: password}
	m.byID[acc.ID] = rec
	m.byEmail[acc.Email] = rec
	return acc
}

func (m *MemoryIdentityStore) Authenticate(ctx context.Context, email, password string) (domainauth.Identity, error) {
	if m.AuthFunc != nil {
		return m.AuthFunc(ctx, email, password)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok || rec.password != password {
		return domainauth.Identity{}, domainauth.ErrAuthenticationFailed
	}
	return rec.account.Identity(), nil
}

func (m *MemoryIdentityStore) GetByID(ctx context.Context, id string) (*model.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Lookups++
	rec, ok := m.byID[id]
	if !ok {
		return nil, apperrors.NotFound("account not found")
	}
	acc := rec.account
	return &acc, nil
}

func (m *MemoryIdentityStore) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Lookups++
	rec, ok := m.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, apperrors.NotFound("account not found")
	}
	acc := rec.account
	return &acc, nil
}

func (m *MemoryIdentityStore) Create(ctx context.Context, req *model.CreateAccountRequest) (*model.Account, error) {
	if req == nil {
		return nil, apperrors.Validation("request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	m.mu.Lock()
	_, exists := m.byEmail[req.Email]
	m.mu.Unlock()
	if exists {
		return nil, &apperrors.AppError{Code: apperrors.ErrCodeConflict, Message: "email already registered", Field: "email"}
	}
	acc := m.Add(req.Email, req.Name, req.Password, req.Role)
	return &acc, nil
}

// MemoryPostStore is an in-memory PostStore ordered by PublishedAt descending.
type MemoryPostStore struct {
	mu    sync.Mutex
	posts []model.Post
	Err   error
}

// NewMemoryPostStore creates a store seeded with posts.
func NewMemoryPostStore(posts ...model.Post) *MemoryPostStore {
	return &MemoryPostStore{posts: append([]model.Post(nil), posts...)}
}

func (m *MemoryPostStore) ListByTenant(ctx context.Context, opts model.PostsListOptions) ([]model.Post, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []model.Post
	for _, p := range m.posts {
		if p.Tenant == opts.Tenant {
			matched = append(matched, p)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].PublishedAt.After(matched[j].PublishedAt) })

	start := opts.Offset()
	if start >= len(matched) {
		return []model.Post{}, nil
	}
	end := start + opts.Limit + 1
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

// MemoryDeduper is an in-memory EventDeduper. TTL is ignored.
type MemoryDeduper struct {
	mu   sync.Mutex
	seen map[string]struct{}
	Err  error
}

// NewMemoryDeduper creates an empty deduper.
func NewMemoryDeduper() *MemoryDeduper {
	return &MemoryDeduper{seen: make(map[string]struct{})}
}

func (m *MemoryDeduper) FirstSeen(_ context.Context, id string, _ time.Duration) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.seen[id]; ok {
		return false, nil
	}
	m.seen[id] = struct{}{}
	return true, nil
}

func (m *MemoryDeduper) Forget(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.seen, id)
	return nil
}
