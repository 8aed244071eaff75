package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"content-tracker/internal/apperrors"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	if !isUniqueViolation(dup) {
		t.Error("expected wrapped 23505 to be a unique violation")
	}

	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Error("foreign key violation is not a unique violation")
	}

	if isUniqueViolation(errors.New("connection refused")) {
		t.Error("plain error is not a unique violation")
	}
}

func TestStoreErrorKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := storeError("select", cause)

	if !errors.Is(err, apperrors.ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}

	if !errors.Is(err, cause) {
		t.Errorf("expected cause to be preserved, got %v", err)
	}
}
