package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"content-tracker/internal/model"
	"content-tracker/internal/repository"
	"content-tracker/internal/sink"
)

type SubscriptionRepository interface {
	SelectActiveSubscribers(ctx context.Context, ext repository.RepoExtension, username string) ([]model.Subscriber, error)
}

type InboxRepository interface {
	Exists(ctx context.Context, ext repository.RepoExtension, eventID uuid.UUID, group string) (bool, error)
	Insert(ctx context.Context, ext repository.RepoExtension, event model.HandledEvent) error
}

// Broadcaster receives every fan-out outcome, e.g. for the live ops stream.
type Broadcaster interface {
	Broadcast(result model.FanOutResult)
}

type FanOutService struct {
	log           *zap.Logger
	consumerGroup string
	subscriptions SubscriptionRepository
	inbox         InboxRepository
	sink          sink.Sink
	broadcaster   Broadcaster
}

func NewFanOutService(
	log *zap.Logger,
	consumerGroup string,
	subscriptions SubscriptionRepository,
	inbox InboxRepository,
	snk sink.Sink,
	broadcaster Broadcaster,
) *FanOutService {
	return &FanOutService{
		log:           log.Named("fanout"),
		consumerGroup: consumerGroup,
		subscriptions: subscriptions,
		inbox:         inbox,
		sink:          snk,
		broadcaster:   broadcaster,
	}
}

// HandleMessage decodes a raw broker message and fans it out.
func (s *FanOutService) HandleMessage(ctx context.Context, raw []byte) error {
	event, err := model.DecodeEvent(raw)
	if err != nil {
		return err
	}

	_, err = s.Handle(ctx, event)

	return err
}

// Handle notifies every active subscriber of the event's account once.
// A failed delivery is recorded in the result and does not stop the others.
// Only malformed payloads and store failures are returned as errors.
func (s *FanOutService) Handle(ctx context.Context, event model.Event) (model.FanOutResult, error) {
	result := model.FanOutResult{EventID: event.EventID}

	content, err := event.Content()
	if err != nil {
		return result, err
	}

	result.ContentID = content.PlatformID
	result.Account = content.AuthorUsername

	log := s.log.With(
		zap.String("event_id", event.EventID.String()),
		zap.String("content_id", content.PlatformID),
		zap.String("account", content.AuthorUsername),
	)

	handled, err := s.inbox.Exists(ctx, nil, event.EventID, s.consumerGroup)
	if err != nil {
		return result, err
	}

	if handled {
		log.Info("Event already handled, skipping")
		result.Skipped = true

		return result, nil
	}

	subscribers, err := s.subscriptions.SelectActiveSubscribers(ctx, nil, content.AuthorUsername)
	if err != nil {
		return result, err
	}

	result.Subscribers = len(subscribers)

	for _, subscriber := range subscribers {
		if err := s.sink.Deliver(ctx, subscriber, content); err != nil {
			log.Warn("Failed to notify subscriber",
				zap.String("subscriber_id", subscriber.ID.String()),
				zap.Error(err),
			)

			result.Failures = append(result.Failures, model.DeliveryFailure{
				SubscriberID: subscriber.ID,
				Address:      subscriber.Address,
				Error:        err.Error(),
			})

			continue
		}

		result.Delivered++
	}

	if err := s.inbox.Insert(ctx, nil, model.HandledEvent{
		EventID:       event.EventID,
		EventName:     event.EventName,
		ConsumerGroup: s.consumerGroup,
	}); err != nil {
		return result, fmt.Errorf("failed to record handled event: %w", err)
	}

	log.Info("Event fanned out",
		zap.Int("subscribers", result.Subscribers),
		zap.Int("delivered", result.Delivered),
		zap.Int("failed", len(result.Failures)),
	)

	if s.broadcaster != nil {
		s.broadcaster.Broadcast(result)
	}

	return result, nil
}
