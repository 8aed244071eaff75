// Package sink delivers a notification about new content to one subscriber.
package sink

import (
	"context"

	"content-tracker/internal/model"
)

// Sink failures are wrapped with apperrors.ErrSinkDeliveryFailed.
type Sink interface {
	Deliver(ctx context.Context, subscriber model.Subscriber, content model.DiscoveredContent) error
}
