package model

import (
	"time"

	"github.com/google/uuid"
)

// HandledEvent is a consumer inbox row: an event a consumer group has already fanned out.
type HandledEvent struct {
	EventID       uuid.UUID `db:"event_id"`
	EventName     string    `db:"event_name"`
	ConsumerGroup string    `db:"consumer_group"`
	HandledAt     time.Time `db:"handled_at"`
}
