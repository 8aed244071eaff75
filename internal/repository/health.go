package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type HealthRepository struct {
	db *pgxpool.Pool
}

func NewHealthRepository(db *pgxpool.Pool) *HealthRepository {
	return &HealthRepository{
		db: db,
	}
}

func (r *HealthRepository) Ping(ctx context.Context, ext RepoExtension) error {
	if ext == nil {
		ext = r.db
	}

	const query = `SELECT 1;`

	var one int
	if err := ext.QueryRow(ctx, query).Scan(&one); err != nil {
		return storeError("ping", err)
	}

	return nil
}
