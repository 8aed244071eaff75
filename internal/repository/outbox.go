package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"content-tracker/internal/model"
)

type OutboxRepository struct {
	db *pgxpool.Pool
}

func NewOutboxRepository(db *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{
		db: db,
	}
}

func (r *OutboxRepository) Insert(ctx context.Context, ext RepoExtension, event model.OutboxEvent) error {
	if ext == nil {
		ext = r.db
	}

	const query = `
		INSERT INTO messages.outbox_messages (id, topic, payload)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING;
	`

	if _, err := ext.Exec(ctx, query, event.ID, event.Topic, event.Payload); err != nil {
		return storeError("insert outbox event", err)
	}

	return nil
}

func (r *OutboxRepository) UpdateAsSent(ctx context.Context, ext RepoExtension, eventID uuid.UUID) error {
	if ext == nil {
		ext = r.db
	}

	const query = `
		UPDATE messages.outbox_messages
		SET sent = TRUE, sent_at = NOW()
		WHERE id = $1;
	`

	if _, err := ext.Exec(ctx, query, eventID); err != nil {
		return storeError("mark outbox event sent", err)
	}

	return nil
}

// SelectUnsentBatch locks the returned rows so concurrent relays never pick the same event.
// Pass a transaction as ext to hold the locks until the batch is marked.
func (r *OutboxRepository) SelectUnsentBatch(ctx context.Context, ext RepoExtension, batchSize int) ([]model.OutboxEvent, error) {
	if ext == nil {
		ext = r.db
	}

	const query = `
		SELECT id, topic, payload, created_at, sent, sent_at
		FROM messages.outbox_messages
		WHERE sent = FALSE
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED;
	`

	rows, err := ext.Query(ctx, query, batchSize)
	if err != nil {
		return nil, storeError("select unsent outbox events", err)
	}

	defer rows.Close()

	var events []model.OutboxEvent

	for rows.Next() {
		var event model.OutboxEvent
		if err := rows.Scan(
			&event.ID,
			&event.Topic,
			&event.Payload,
			&event.CreatedAt,
			&event.Sent,
			&event.SentAt,
		); err != nil {
			return nil, storeError("scan outbox event", err)
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, storeError("select unsent outbox events", err)
	}

	return events, nil
}
