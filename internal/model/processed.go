package model

import (
	"time"

	"github.com/google/uuid"
)

// ProcessedContent marks a platform item as already announced. It is never updated or deleted.
type ProcessedContent struct {
	ContentID string    `db:"content_id"`
	AccountID uuid.UUID `db:"account_id"`
	CreatedAt time.Time `db:"created_at"`
}
