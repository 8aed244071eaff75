package sink

import (
	"context"

	"go.uber.org/zap"

	"content-tracker/internal/model"
)

// Log writes notifications to the application log. Used for local runs.
type Log struct {
	log *zap.Logger
}

func NewLog(log *zap.Logger) *Log {
	return &Log{log: log.Named("sink")}
}

func (s *Log) Deliver(_ context.Context, subscriber model.Subscriber, content model.DiscoveredContent) error {
	s.log.Info("Notification",
		zap.String("to", subscriber.Address),
		zap.String("author", content.AuthorUsername),
		zap.String("content_id", content.PlatformID),
		zap.String("url", content.VideoURL),
	)

	return nil
}
