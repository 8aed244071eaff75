package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"content-tracker/internal/apperrors"
)

const uniqueViolationCode = "23505"

// RepoExtension is satisfied by both *pgxpool.Pool and pgx.Tx, so every query can join a transaction.
type RepoExtension interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// storeError tags a driver failure so callers can tell an outage from a domain outcome.
func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", apperrors.ErrStoreUnavailable, op, err)
}
