package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"content-tracker/internal/apperrors"
	"content-tracker/internal/model"
)

type AccountRepository struct {
	db *pgxpool.Pool
}

func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{
		db: db,
	}
}

func (r *AccountRepository) SelectActive(ctx context.Context, ext RepoExtension) ([]model.TrackedAccount, error) {
	if ext == nil {
		ext = r.db
	}

	const query = `
		SELECT id, username, platform, active, last_checked_at, created_at
		FROM tracker.accounts
		WHERE active = TRUE
		ORDER BY username;
	`

	rows, err := ext.Query(ctx, query)
	if err != nil {
		return nil, storeError("select active accounts", err)
	}

	defer rows.Close()

	var accounts []model.TrackedAccount

	for rows.Next() {
		var account model.TrackedAccount
		if err := rows.Scan(
			&account.ID,
			&account.Username,
			&account.Platform,
			&account.Active,
			&account.LastCheckedAt,
			&account.CreatedAt,
		); err != nil {
			return nil, storeError("scan account", err)
		}

		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, storeError("select active accounts", err)
	}

	return accounts, nil
}

func (r *AccountRepository) SelectByUsername(ctx context.Context, ext RepoExtension, username string) (*model.TrackedAccount, error) {
	if ext == nil {
		ext = r.db
	}

	const query = `
		SELECT id, username, platform, active, last_checked_at, created_at
		FROM tracker.accounts
		WHERE username = $1;
	`

	var account model.TrackedAccount

	if err := ext.QueryRow(ctx, query, username).Scan(
		&account.ID,
		&account.Username,
		&account.Platform,
		&account.Active,
		&account.LastCheckedAt,
		&account.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrAccountNotFound
		}

		return nil, storeError("select account", err)
	}

	return &account, nil
}

func (r *AccountRepository) UpdateLastChecked(ctx context.Context, ext RepoExtension, accountID uuid.UUID, checkedAt time.Time) error {
	if ext == nil {
		ext = r.db
	}

	const query = `
		UPDATE tracker.accounts
		SET last_checked_at = $2
		WHERE id = $1;
	`

	if _, err := ext.Exec(ctx, query, accountID, checkedAt); err != nil {
		return storeError("update last checked", err)
	}

	return nil
}

// Upsert creates the account or reactivates an existing one with the same username.
// Usernames are unique across platforms, and an existing account keeps its platform.
func (r *AccountRepository) Upsert(ctx context.Context, ext RepoExtension, username, platform string) (*model.TrackedAccount, error) {
	if ext == nil {
		ext = r.db
	}

	if platform == "" {
		platform = model.DefaultPlatform
	}

	const query = `
		INSERT INTO tracker.accounts (username, platform)
		VALUES ($1, $2)
		ON CONFLICT (username) DO UPDATE SET active = TRUE
		RETURNING id, username, platform, active, last_checked_at, created_at;
	`

	var account model.TrackedAccount

	if err := ext.QueryRow(ctx, query, username, platform).Scan(
		&account.ID,
		&account.Username,
		&account.Platform,
		&account.Active,
		&account.LastCheckedAt,
		&account.CreatedAt,
	); err != nil {
		return nil, storeError("upsert account", err)
	}

	return &account, nil
}
