package model

import (
	"time"

	"github.com/google/uuid"
)

// Subscriber is a notification target. Address is an email for the email sink.
type Subscriber struct {
	ID      uuid.UUID `db:"id" json:"id"`
	Address string    `db:"address" json:"address"`
	Active  bool      `db:"active" json:"active"`
}

type Subscription struct {
	SubscriberID uuid.UUID `db:"subscriber_id" json:"subscriberId"`
	AccountID    uuid.UUID `db:"account_id" json:"accountId"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}
