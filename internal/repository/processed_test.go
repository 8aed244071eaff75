package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"content-tracker/internal/apperrors"
	"content-tracker/internal/model"
)

type execOnly struct {
	tag pgconn.CommandTag
	err error
}

func (e execOnly) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return e.tag, e.err
}

func (execOnly) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (execOnly) QueryRow(context.Context, string, ...any) pgx.Row {
	return nil
}

func TestProcessedInsert(t *testing.T) {
	repo := NewProcessedRepository(nil)
	record := model.ProcessedContent{ContentID: "999", AccountID: uuid.New()}

	tests := []struct {
		name string
		ext  execOnly
		want error
	}{
		{name: "inserted", ext: execOnly{tag: pgconn.NewCommandTag("INSERT 0 1")}},
		{name: "conflict skipped", ext: execOnly{tag: pgconn.NewCommandTag("INSERT 0 0")}, want: apperrors.ErrDuplicateContent},
		{name: "unique violation", ext: execOnly{err: &pgconn.PgError{Code: "23505"}}, want: apperrors.ErrDuplicateContent},
		{name: "outage", ext: execOnly{err: errors.New("connection refused")}, want: apperrors.ErrStoreUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Insert(context.Background(), tt.ext, record)

			if tt.want == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
