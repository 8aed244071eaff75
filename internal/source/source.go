// Package source provides the drivers that discover new content of a tracked account.
package source

import (
	"context"

	"content-tracker/internal/model"
)

// Source returns the currently visible items of an account. Items may repeat between
// calls; deduplication is the caller's job. Any transport failure is wrapped with
// apperrors.ErrTransportUnavailable.
type Source interface {
	FetchCandidates(ctx context.Context, username string) ([]model.DiscoveredContent, error)
}
