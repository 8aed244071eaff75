package subscriber

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"content-tracker/internal/apperrors"
	"content-tracker/pkg/kafka"
)

const (
	headerError             = "x-error"
	headerAttempts          = "x-attempts"
	headerOriginalTopic     = "x-original-topic"
	headerOriginalPartition = "x-original-partition"
	headerOriginalOffset    = "x-original-offset"

	deadLetterTimeout = 10 * time.Second
)

// Handler processes one raw message value. Errors wrapping apperrors.ErrMalformedEvent are never retried,
// errors wrapping apperrors.ErrStoreUnavailable are retried until they clear.
type Handler func(ctx context.Context, value []byte) error

type Config struct {
	Name            string
	MaxAttempts     int
	InitialBackoff  time.Duration
	MaxBackoff      time.Duration
	DeadLetterTopic string
}

// Subscriber drives a consumer group and decides what happens to a message the handler rejects.
// A message is acknowledged only once it was handled, dropped as malformed, or parked in the dead letter topic.
type Subscriber struct {
	l        *zap.Logger
	cfg      Config
	consumer kafka.ConsumerGroupRunner
	dlq      kafka.Producer
	handler  Handler
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewSubscriber(l *zap.Logger, cfg Config, consumer kafka.ConsumerGroupRunner, dlq kafka.Producer, handler Handler) *Subscriber {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 100 * time.Millisecond
	}

	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = cfg.InitialBackoff
	}

	return &Subscriber{
		l:        l.Named(cfg.Name),
		cfg:      cfg,
		consumer: consumer,
		dlq:      dlq,
		handler:  handler,
		sleep:    sleepCtx,
	}
}

// Run consumes until ctx is cancelled.
func (s *Subscriber) Run(ctx context.Context) error {
	go func() {
		select {
		case msg := <-s.consumer.Info():
			s.l.Info(msg)
		case <-ctx.Done():
		}
	}()

	s.l.Info("Subscriber started")

	if err := s.consumer.Run(ctx, s.Handle); err != nil {
		return err
	}

	s.l.Info("Subscriber stopped")

	return nil
}

func (s *Subscriber) Close() error {
	return s.consumer.Close()
}

// Handle applies the retry policy to one message. A nil return lets the offset be committed.
func (s *Subscriber) Handle(ctx context.Context, msg *kafka.Message) error {
	log := s.l.With(
		zap.String("topic", msg.Topic),
		zap.Int32("partition", msg.Partition),
		zap.Int64("offset", msg.Offset),
	)

	// The handler finishes its current attempt even when a rebalance or shutdown starts.
	work := context.WithoutCancel(ctx)

	attempts := 0
	storeRetries := 0

	for {
		err := s.handler(work, msg.Value)
		if err == nil {
			return nil
		}

		switch {
		case errors.Is(err, apperrors.ErrMalformedEvent):
			log.Error("Dropping malformed message", zap.Error(err))

			return nil
		case errors.Is(err, apperrors.ErrStoreUnavailable):
			storeRetries++

			log.Warn("Store unavailable, retrying", zap.Int("retry", storeRetries), zap.Error(err))

			if err := s.sleep(ctx, s.backoff(storeRetries)); err != nil {
				return err
			}

			continue
		}

		attempts++

		if attempts >= s.cfg.MaxAttempts {
			return s.deadLetter(ctx, log, msg, attempts, err)
		}

		log.Warn("Failed to handle message, retrying", zap.Int("attempt", attempts), zap.Error(err))

		if err := s.sleep(ctx, s.backoff(attempts)); err != nil {
			return err
		}
	}
}

func (s *Subscriber) deadLetter(ctx context.Context, log *zap.Logger, msg *kafka.Message, attempts int, cause error) error {
	if s.cfg.DeadLetterTopic == "" || s.dlq == nil {
		log.Error("Giving up on message", zap.Int("attempts", attempts), zap.Error(cause))

		return nil
	}

	headers := []kafka.Header{
		{Key: []byte(headerError), Value: []byte(cause.Error())},
		{Key: []byte(headerAttempts), Value: []byte(strconv.Itoa(attempts))},
		{Key: []byte(headerOriginalTopic), Value: []byte(msg.Topic)},
		{Key: []byte(headerOriginalPartition), Value: []byte(strconv.FormatInt(int64(msg.Partition), 10))},
		{Key: []byte(headerOriginalOffset), Value: []byte(strconv.FormatInt(msg.Offset, 10))},
	}

	dlqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deadLetterTimeout)
	defer cancel()

	partition, offset, err := s.dlq.PushMessage(dlqCtx, msg.Key, msg.Value, s.cfg.DeadLetterTopic, headers...)
	if err != nil {
		// Leave the offset alone so the message comes back after a restart.
		return fmt.Errorf("failed to dead-letter message: %w", err)
	}

	log.Error("Message moved to dead letter topic",
		zap.String("dlq_topic", s.cfg.DeadLetterTopic),
		zap.Int32("dlq_partition", partition),
		zap.Int64("dlq_offset", offset),
		zap.Int("attempts", attempts),
		zap.Error(cause),
	)

	return nil
}

func (s *Subscriber) backoff(attempt int) time.Duration {
	d := s.cfg.InitialBackoff

	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= s.cfg.MaxBackoff {
			return s.cfg.MaxBackoff
		}
	}

	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
