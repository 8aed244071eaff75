package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"content-tracker/internal/model"
)

// InboxRepository remembers which events a consumer group already handled.
type InboxRepository struct {
	db *pgxpool.Pool
}

func NewInboxRepository(db *pgxpool.Pool) *InboxRepository {
	return &InboxRepository{db: db}
}

func (r *InboxRepository) Exists(ctx context.Context, ext RepoExtension, eventID uuid.UUID, group string) (bool, error) {
	if ext == nil {
		ext = r.db
	}

	const query = `
		SELECT EXISTS (
			SELECT 1 FROM messages.handled_events
			WHERE event_id = $1 AND consumer_group = $2
		);
	`

	var exists bool
	if err := ext.QueryRow(ctx, query, eventID, group).Scan(&exists); err != nil {
		return false, storeError("check handled event", err)
	}

	return exists, nil
}

func (r *InboxRepository) Insert(ctx context.Context, ext RepoExtension, event model.HandledEvent) error {
	if ext == nil {
		ext = r.db
	}

	const query = `
		INSERT INTO messages.handled_events (event_id, consumer_group, event_name)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING;
	`

	if _, err := ext.Exec(ctx, query, event.EventID, event.ConsumerGroup, event.EventName); err != nil {
		return storeError("insert handled event", err)
	}

	return nil
}
