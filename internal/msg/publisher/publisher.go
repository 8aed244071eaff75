// Package publisher sends domain events to the broker, one topic per event name.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"content-tracker/internal/apperrors"
	"content-tracker/internal/model"
	"content-tracker/pkg/kafka"
)

// Dialer opens a producer connection. It is called by Connect.
type Dialer func() (kafka.Producer, error)

type Publisher struct {
	log  *zap.Logger
	dial Dialer

	mu       sync.RWMutex
	producer kafka.Producer
}

func New(log *zap.Logger, dial Dialer) *Publisher {
	return &Publisher{
		log:  log.Named("publisher"),
		dial: dial,
	}
}

// NewDialer returns a Dialer for a durable sync producer: every write waits for all in-sync replicas.
func NewDialer(brokers []string, clientID string, opts ...kafka.ProducerOption) Dialer {
	return func() (kafka.Producer, error) {
		all := append([]kafka.ProducerOption{
			kafka.WithClientID(clientID),
			kafka.WithBalancer(kafka.Hash),
			kafka.WithRequiredAcks(kafka.RequireAll),
		}, opts...)

		return kafka.NewProducer(brokers, all...)
	}
}

func (p *Publisher) Connect(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.producer != nil {
		return nil
	}

	producer, err := p.dial()
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrTransportUnavailable, err)
	}

	p.producer = producer
	p.log.Info("Publisher connected")

	return nil
}

// Publish writes the event to the topic named after it and waits for the broker ack.
//
// ErrTransportUnavailable means the event was certainly not written.
// ErrDeliveryUncertain means it may or may not have been.
func (p *Publisher) Publish(ctx context.Context, event model.Event) (model.Ack, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.producer == nil {
		return model.Ack{}, apperrors.ErrNotConnected
	}

	if event.EventName == "" {
		return model.Ack{}, fmt.Errorf("%w: event_name is empty", apperrors.ErrMalformedEvent)
	}

	data, err := event.Encode()
	if err != nil {
		return model.Ack{}, err
	}

	topic := event.EventName

	partition, offset, err := p.producer.PushMessage(ctx, []byte(event.EventID.String()), data, topic)
	if err != nil {
		return model.Ack{}, classify(err)
	}

	p.log.Debug("Event published",
		zap.String("event_id", event.EventID.String()),
		zap.String("topic", topic),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)

	return model.Ack{Topic: topic, Partition: partition, Offset: offset}, nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.producer == nil {
		return nil
	}

	err := p.producer.Close()
	p.producer = nil

	if err != nil {
		return fmt.Errorf("failed to close producer: %w", err)
	}

	return nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// PushMessage checks the context before handing the message to sarama.
		return fmt.Errorf("%w: %w", apperrors.ErrTransportUnavailable, err)
	case errors.Is(err, sarama.ErrOutOfBrokers),
		errors.Is(err, sarama.ErrNotConnected),
		errors.Is(err, sarama.ErrClosedClient),
		errors.Is(err, sarama.ErrShuttingDown),
		errors.Is(err, sarama.ErrUnknownTopicOrPartition),
		errors.Is(err, sarama.ErrMessageSizeTooLarge):
		return fmt.Errorf("%w: %w", apperrors.ErrTransportUnavailable, err)
	default:
		return fmt.Errorf("%w: %w", apperrors.ErrDeliveryUncertain, err)
	}
}
