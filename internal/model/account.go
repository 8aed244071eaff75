package model

import (
	"time"

	"github.com/google/uuid"
)

const DefaultPlatform = "tiktok"

type TrackedAccount struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	Username      string     `db:"username" json:"username"`
	Platform      string     `db:"platform" json:"platform"`
	Active        bool       `db:"active" json:"active"`
	LastCheckedAt *time.Time `db:"last_checked_at" json:"lastCheckedAt,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
}
