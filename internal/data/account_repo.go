package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/yoohoo-guru/yoohoo-api/internal/data/pgxutil"
	domainauth "github.com/yoohoo-guru/yoohoo-api/internal/domain/auth"
	"github.com/yoohoo-guru/yoohoo-api/internal/domain/model"
	apperrors "github.com/yoohoo-guru/yoohoo-api/internal/errors"
	"github.com/yoohoo-guru/yoohoo-api/internal/ports"
)

const accountColumns = `id, email, name, role, password_hash, created_at, updated_at`

var _ ports.IdentityStore = (*AccountRepo)(nil)

// dummyHash is compared against when an email is unknown so the response
// time does not reveal whether an account exists.
var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

func dummyPasswordHash(cost int) []byte {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("yoohoo-dummy-password"), cost)
	})
	return dummyHash
}

// AccountRepoOptions configures an AccountRepo.
type AccountRepoOptions struct {
	BcryptCost   int // bcrypt.DefaultCost when zero
	TimeProvider ports.Clock
}

// AccountRepo is the PostgreSQL-backed identity store.
type AccountRepo struct {
	DB           *sql.DB
	cost         int
	timeProvider ports.Clock
}

// NewAccountRepo creates a new AccountRepo with real time and default bcrypt cost.
func NewAccountRepo(db *sql.DB) *AccountRepo {
	return NewAccountRepoWithOptions(db, AccountRepoOptions{})
}

// NewAccountRepoWithOptions creates a new AccountRepo with custom options (useful for tests).
func NewAccountRepoWithOptions(db *sql.DB, opts AccountRepoOptions) *AccountRepo {
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	tp := opts.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &AccountRepo{DB: db, cost: cost, timeProvider: tp}
}

// Create inserts a new account with a bcrypt-hashed password.
// A duplicate email is a Conflict error on field "email".
func (r *AccountRepo) Create(ctx context.Context, req *model.CreateAccountRequest) (*model.Account, error) {
	if req == nil {
		return nil, errors.New("create account request is required")
	}
	req.Normalize()
	if err := validateNewAccount(req); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), r.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := r.timeProvider.Now().UTC()
	var out model.Account
	err = pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, qErr := conn.Query(ctx, `
			INSERT INTO accounts (id, email, name, role, password_hash, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $6)
			RETURNING `+accountColumns,
			uuid.NewString(), req.Email, req.Name, string(req.Role), string(hash), now,
		)
		if qErr != nil {
			return qErr
		}
		defer rows.Close()
		out, qErr = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Account])
		return qErr
	})
	if err != nil {
		mapped := apperrors.MapDBError(err)
		if apperrors.IsConflict(mapped) {
			return nil, &apperrors.AppError{
				Code:    apperrors.ErrCodeConflict,
				Message: "An account with this email already exists.",
				Field:   "email",
				Cause:   err,
			}
		}
		return nil, fmt.Errorf("create account: %w", mapped)
	}
	return &out, nil
}

// validateNewAccount applies the registration rules, except that admin
// accounts may be created here (operator tooling goes through the repo).
func validateNewAccount(req *model.CreateAccountRequest) error {
	if req.Role == domainauth.RoleAdmin {
		probe := *req
		probe.Role = domainauth.RoleGunu
		return probe.Validate()
	}
	return req.Validate()
}

// GetByID retrieves an account by id.
func (r *AccountRepo) GetByID(ctx context.Context, id string) (*model.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NotFound("account not found")
	}
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

// GetByEmail retrieves an account by email (case-insensitive).
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, normalizeEmail(email))
}

// Authenticate verifies email and password. Unknown emails and wrong
// passwords both yield domainauth.ErrAuthenticationFailed after equal bcrypt work.
func (r *AccountRepo) Authenticate(ctx context.Context, email, password string) (domainauth.Identity, error) {
	acc, err := r.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			_ = bcrypt.CompareHashAndPassword(dummyPasswordHash(r.cost), []byte(password))
			return domainauth.Identity{}, domainauth.ErrAuthenticationFailed
		}
		return domainauth.Identity{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return domainauth.Identity{}, domainauth.ErrAuthenticationFailed
	}
	return acc.Identity(), nil
}

// SetRole changes an account's role. Sessions already issued keep their
// role snapshot until they expire.
func (r *AccountRepo) SetRole(ctx context.Context, id string, role domainauth.Role) error {
	if !role.Valid() {
		return apperrors.ValidationField("role", "role is invalid")
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE accounts SET role = $2, updated_at = $3 WHERE id = $1`,
		id, string(role), r.timeProvider.Now().UTC())
	if err != nil {
		return fmt.Errorf("set role: %w", apperrors.MapDBError(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NotFound("account not found")
	}
	return nil
}

func (r *AccountRepo) getOne(ctx context.Context, query string, arg any) (*model.Account, error) {
	var out model.Account
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, qErr := conn.Query(ctx, query, arg)
		if qErr != nil {
			return qErr
		}
		defer rows.Close()
		out, qErr = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Account])
		return qErr
	})
	if err != nil {
		mapped := apperrors.MapDBError(err)
		if apperrors.IsNotFound(mapped) {
			return nil, apperrors.NotFound("account not found")
		}
		return nil, fmt.Errorf("get account: %w", mapped)
	}
	return &out, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
