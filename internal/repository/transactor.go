package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Transactor struct {
	db *pgxpool.Pool
}

func NewTransactor(db *pgxpool.Pool) *Transactor {
	return &Transactor{db: db}
}

// WithinTx runs fn in one transaction. It commits when fn returns nil and rolls back otherwise.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ext RepoExtension) error) (err error) {
	tx, err := t.db.Begin(ctx)
	if err != nil {
		return storeError("begin transaction", err)
	}

	defer func() {
		if err != nil {
			if rErr := tx.Rollback(ctx); rErr != nil {
				err = fmt.Errorf("%w, failed to rollback transaction: %w", err, rErr)
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return storeError("commit transaction", err)
	}

	return nil
}
