package outbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"content-tracker/internal/apperrors"
	"content-tracker/internal/model"
	"content-tracker/internal/repository"
)

type Repository interface {
	UpdateAsSent(ctx context.Context, ext repository.RepoExtension, eventID uuid.UUID) error
	SelectUnsentBatch(ctx context.Context, ext repository.RepoExtension, batchSize int) ([]model.OutboxEvent, error)
}

type Transactor interface {
	WithinTx(ctx context.Context, fn func(ext repository.RepoExtension) error) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event model.Event) (model.Ack, error)
}

type Config struct {
	WorkerCount  int
	PollInterval time.Duration
	BatchSize    int
}

// Relay publishes the events queued next to their dedup records.
// Each worker claims its own batch with row locks, so workers never send the same event twice.
type Relay struct {
	l          *zap.Logger
	cfg        Config
	publisher  EventPublisher
	outboxRepo Repository
	tx         Transactor
}

func NewRelay(l *zap.Logger, cfg Config, publisher EventPublisher, outboxRepo Repository, tx Transactor) *Relay {
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}

	return &Relay{
		l:          l.Named("outbox"),
		cfg:        cfg,
		publisher:  publisher,
		outboxRepo: outboxRepo,
		tx:         tx,
	}
}

// Run polls until ctx is done.
func (r *Relay) Run(ctx context.Context) {
	var wg sync.WaitGroup

	for i := 0; i < r.cfg.WorkerCount; i++ {
		wg.Add(1)

		go func(id int) {
			defer wg.Done()
			r.worker(ctx, id)
		}(i)
	}

	wg.Wait()
	r.l.Info("Outbox relay stopped")
}

func (r *Relay) worker(ctx context.Context, id int) {
	r.l.Info("Outbox worker started", zap.Int("id", id))

	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.l.Info("Worker stopping", zap.Int("id", id))

			return
		case <-ticker.C:
			sent, err := r.RelayBatch(ctx)
			if err != nil {
				r.l.Error("Failed to relay outbox batch", zap.Int("id", id), zap.Error(err))
				continue
			}

			if sent > 0 {
				r.l.Debug("Outbox batch relayed", zap.Int("id", id), zap.Int("sent", sent))
			}
		}
	}
}

// RelayBatch claims up to BatchSize unsent events, publishes them and marks the ones that went out.
// An event that fails to publish stays unsent and is retried on a later poll.
func (r *Relay) RelayBatch(ctx context.Context) (int, error) {
	sent := 0

	err := r.tx.WithinTx(ctx, func(ext repository.RepoExtension) error {
		events, err := r.outboxRepo.SelectUnsentBatch(ctx, ext, r.cfg.BatchSize)
		if err != nil {
			return err
		}

		for _, e := range events {
			if err := r.sendAndMark(ctx, ext, e); err != nil {
				if errors.Is(err, apperrors.ErrStoreUnavailable) {
					return err
				}

				r.l.Error("Failed to send outbox event", zap.String("event_id", e.ID.String()), zap.Error(err))

				continue
			}

			sent++
		}

		return nil
	})

	return sent, err
}

func (r *Relay) sendAndMark(ctx context.Context, ext repository.RepoExtension, e model.OutboxEvent) error {
	event, err := model.DecodeEvent(e.Payload)
	if err != nil {
		// Never publishable; mark it so it does not block the queue.
		r.l.Error("Dropping malformed outbox event", zap.String("event_id", e.ID.String()), zap.Error(err))

		return r.outboxRepo.UpdateAsSent(ctx, ext, e.ID)
	}

	ack, err := r.publisher.Publish(ctx, event)
	if err != nil {
		return fmt.Errorf("failed to publish: %w", err)
	}

	if err := r.outboxRepo.UpdateAsSent(ctx, ext, e.ID); err != nil {
		return err
	}

	r.l.Info("Outbox event sent",
		zap.String("event_id", e.ID.String()),
		zap.String("topic", ack.Topic),
		zap.Int32("partition", ack.Partition),
		zap.Int64("offset", ack.Offset),
	)

	return nil
}
