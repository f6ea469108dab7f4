package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapDBError_NilError(t *testing.T) {
	if err := MapDBError(nil); err != nil {
		t.Errorf("MapDBError(nil) = %v, want nil", err)
	}
}

func TestMapDBError_ContextErrors(t *testing.T) {
	if got := GetCode(MapDBError(context.DeadlineExceeded)); got != ErrCodeTimeout {
		t.Errorf("deadline code = %v", got)
	}
	if got := GetCode(MapDBError(fmt.Errorf("query: %w", context.Canceled))); got != ErrCodeCanceled {
		t.Errorf("canceled code = %v", got)
	}
}

func TestMapDBError_NoRows(t *testing.T) {
	if !IsNotFound(MapDBError(pgx.ErrNoRows)) {
		t.Error("pgx.ErrNoRows should map to NotFound")
	}
}

func TestMapDBError_UniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           pgerrcode.UniqueViolation,
		Detail:         "Key (email)=(a@b.c) already exists.",
		ConstraintName: "accounts_email_key",
	}
	err := MapDBError(fmt.Errorf("insert account: %w", pgErr))
	if !IsConflict(err) {
		t.Fatalf("code = %v, want conflict", GetCode(err))
	}
	if GetField(err) != "email" {
		t.Errorf("field = %q, want email", GetField(err))
	}
}

func TestMapDBError_CheckAndNotNull(t *testing.T) {
	check := MapDBError(&pgconn.PgError{Code: pgerrcode.CheckViolation, ColumnName: "role"})
	if !IsValidation(check) || GetField(check) != "role" {
		t.Errorf("check violation mapped to %v/%q", GetCode(check), GetField(check))
	}
	notNull := MapDBError(&pgconn.PgError{Code: pgerrcode.NotNullViolation, ColumnName: "name"})
	if !IsValidation(notNull) {
		t.Errorf("not-null violation mapped to %v", GetCode(notNull))
	}
}

func TestMapDBError_Passthrough(t *testing.T) {
	plain := errors.New("plain")
	if got := MapDBError(plain); !errors.Is(got, plain) || GetCode(got) != "" {
		t.Errorf("plain error should pass through unchanged, got %v", got)
	}
	if got := MapDBError(&pgconn.PgError{Code: pgerrcode.DeadlockDetected}); GetCode(got) != ErrCodeInternal {
		t.Errorf("unknown pg error code = %v, want internal", GetCode(got))
	}
}
