package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"content-tracker/internal/model"
)

type SubscriptionRepository struct {
	db *pgxpool.Pool
}

func NewSubscriptionRepository(db *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{
		db: db,
	}
}

// SelectActiveSubscribers returns each active subscriber of the account once.
func (r *SubscriptionRepository) SelectActiveSubscribers(ctx context.Context, ext RepoExtension, username string) ([]model.Subscriber, error) {
	if ext == nil {
		ext = r.db
	}

	const query = `
		SELECT DISTINCT s.id, s.address, s.active
		FROM tracker.subscribers s
		JOIN tracker.subscriptions sub ON sub.subscriber_id = s.id
		JOIN tracker.accounts a ON a.id = sub.account_id
		WHERE a.username = $1 AND s.active = TRUE
		ORDER BY s.address;
	`

	rows, err := ext.Query(ctx, query, username)
	if err != nil {
		return nil, storeError("select subscribers", err)
	}

	defer rows.Close()

	var subscribers []model.Subscriber

	for rows.Next() {
		var subscriber model.Subscriber
		if err := rows.Scan(&subscriber.ID, &subscriber.Address, &subscriber.Active); err != nil {
			return nil, storeError("scan subscriber", err)
		}

		subscribers = append(subscribers, subscriber)
	}

	if err := rows.Err(); err != nil {
		return nil, storeError("select subscribers", err)
	}

	return subscribers, nil
}

func (r *SubscriptionRepository) Insert(ctx context.Context, ext RepoExtension, subscriberID, accountID uuid.UUID) error {
	if ext == nil {
		ext = r.db
	}

	const query = `
		INSERT INTO tracker.subscriptions (subscriber_id, account_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING;
	`

	if _, err := ext.Exec(ctx, query, subscriberID, accountID); err != nil {
		return storeError("insert subscription", err)
	}

	return nil
}

func (r *SubscriptionRepository) UpsertSubscriber(ctx context.Context, ext RepoExtension, address string) (*model.Subscriber, error) {
	if ext == nil {
		ext = r.db
	}

	const query = `
		INSERT INTO tracker.subscribers (address)
		VALUES ($1)
		ON CONFLICT (address) DO UPDATE SET active = TRUE
		RETURNING id, address, active;
	`

	var subscriber model.Subscriber
	if err := ext.QueryRow(ctx, query, address).Scan(&subscriber.ID, &subscriber.Address, &subscriber.Active); err != nil {
		return nil, storeError("upsert subscriber", err)
	}

	return &subscriber, nil
}
