package model

import (
	"time"

	"github.com/google/uuid"
)

// Ack is the broker acknowledgement of a published event.
type Ack struct {
	Topic     string `json:"topic"`
	Partition int32  `json:"partition"`
	Offset    int64  `json:"offset"`
}

type AccountError struct {
	Account string `json:"account"`
	Error   string `json:"error"`
}

// SweepResult
// @Description Counters of one discovery pass over all active accounts.
type SweepResult struct {
	AccountsScanned int            `json:"accountsScanned"`
	ItemsFound      int            `json:"itemsFound"`
	EventsPublished int            `json:"eventsPublished"`
	EventsQueued    int            `json:"eventsQueued"` // handed to the outbox relay
	Duplicates      int            `json:"duplicates"`
	Invalid         int            `json:"invalid"`
	PublishFailures int            `json:"publishFailures"`
	Errors          []AccountError `json:"errors,omitempty"`
	StartedAt       time.Time      `json:"startedAt"`
	FinishedAt      time.Time      `json:"finishedAt"`
} // @Name SweepResult

// Add merges the counters of a single account scan.
func (r *SweepResult) Add(o SweepResult) {
	r.AccountsScanned += o.AccountsScanned
	r.ItemsFound += o.ItemsFound
	r.EventsPublished += o.EventsPublished
	r.EventsQueued += o.EventsQueued
	r.Duplicates += o.Duplicates
	r.Invalid += o.Invalid
	r.PublishFailures += o.PublishFailures
	r.Errors = append(r.Errors, o.Errors...)
}

type DeliveryFailure struct {
	SubscriberID uuid.UUID `json:"subscriberId"`
	Address      string    `json:"address"`
	Error        string    `json:"error"`
}

// FanOutResult
// @Description Outcome of notifying the subscribers of one event.
type FanOutResult struct {
	EventID     uuid.UUID         `json:"eventId"`
	ContentID   string            `json:"contentId"`
	Account     string            `json:"account"`
	Subscribers int               `json:"subscribers"`
	Delivered   int               `json:"delivered"`
	Failures    []DeliveryFailure `json:"failures,omitempty"`
	Skipped     bool              `json:"skipped"`
} // @Name FanOutResult
