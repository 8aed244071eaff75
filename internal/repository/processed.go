package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"content-tracker/internal/apperrors"
	"content-tracker/internal/model"
)

type ProcessedRepository struct {
	db *pgxpool.Pool
}

func NewProcessedRepository(db *pgxpool.Pool) *ProcessedRepository {
	return &ProcessedRepository{
		db: db,
	}
}

func (r *ProcessedRepository) Pool() *pgxpool.Pool {
	return r.db
}

func (r *ProcessedRepository) Exists(ctx context.Context, ext RepoExtension, contentID string) (bool, error) {
	if ext == nil {
		ext = r.db
	}

	const query = `
		SELECT EXISTS (SELECT 1 FROM tracker.processed_content WHERE content_id = $1);
	`

	var exists bool
	if err := ext.QueryRow(ctx, query, contentID).Scan(&exists); err != nil {
		return false, storeError("check processed content", err)
	}

	return exists, nil
}

// Insert records the content as processed. A concurrent writer that got there first
// yields ErrDuplicateContent.
func (r *ProcessedRepository) Insert(ctx context.Context, ext RepoExtension, record model.ProcessedContent) error {
	if ext == nil {
		ext = r.db
	}

	const query = `
		INSERT INTO tracker.processed_content (content_id, account_id)
		VALUES ($1, $2)
		ON CONFLICT (content_id) DO NOTHING;
	`

	tag, err := ext.Exec(ctx, query, record.ContentID, record.AccountID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicateContent
		}

		return storeError("insert processed content", err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrDuplicateContent
	}

	return nil
}
