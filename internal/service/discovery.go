package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"content-tracker/internal/apperrors"
	"content-tracker/internal/model"
	"content-tracker/internal/repository"
	"content-tracker/internal/source"
)

const publishTimeout = 15 * time.Second

type AccountRepository interface {
	SelectActive(ctx context.Context, ext repository.RepoExtension) ([]model.TrackedAccount, error)
	UpdateLastChecked(ctx context.Context, ext repository.RepoExtension, accountID uuid.UUID, checkedAt time.Time) error
}

type ProcessedRepository interface {
	Exists(ctx context.Context, ext repository.RepoExtension, contentID string) (bool, error)
	Insert(ctx context.Context, ext repository.RepoExtension, record model.ProcessedContent) error
}

type OutboxRepository interface {
	Insert(ctx context.Context, ext repository.RepoExtension, event model.OutboxEvent) error
}

type Transactor interface {
	WithinTx(ctx context.Context, fn func(ext repository.RepoExtension) error) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event model.Event) (model.Ack, error)
}

type DiscoveryConfig struct {
	Concurrency  int
	FetchTimeout time.Duration
	// UseOutbox stores events next to the dedup record instead of publishing them inline.
	UseOutbox bool
}

type DiscoveryService struct {
	log       *zap.Logger
	cfg       DiscoveryConfig
	source    source.Source
	accounts  AccountRepository
	processed ProcessedRepository
	outbox    OutboxRepository
	tx        Transactor
	publisher EventPublisher
	now       func() time.Time
}

func NewDiscoveryService(
	log *zap.Logger,
	cfg DiscoveryConfig,
	src source.Source,
	accounts AccountRepository,
	processed ProcessedRepository,
	outbox OutboxRepository,
	tx Transactor,
	publisher EventPublisher,
) *DiscoveryService {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	return &DiscoveryService{
		log:       log.Named("discovery"),
		cfg:       cfg,
		source:    src,
		accounts:  accounts,
		processed: processed,
		outbox:    outbox,
		tx:        tx,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type itemOutcome int

const (
	outcomeDuplicate itemOutcome = iota
	outcomePublished
	outcomeQueued
	outcomePublishFailed
)

// Sweep runs one discovery pass over every active account.
//
// A failing content source only skips its account. A failing store aborts the pass,
// and the partial result is returned together with the error.
func (s *DiscoveryService) Sweep(ctx context.Context) (model.SweepResult, error) {
	result := model.SweepResult{StartedAt: s.now()}

	accounts, err := s.accounts.SelectActive(ctx, nil)
	if err != nil {
		result.FinishedAt = s.now()
		return result, fmt.Errorf("failed to load accounts: %w", err)
	}

	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for _, account := range accounts {
		g.Go(func() error {
			partial, err := s.scanAccount(gctx, account)

			mu.Lock()
			result.Add(partial)
			mu.Unlock()

			return err
		})
	}

	err = g.Wait()
	result.FinishedAt = s.now()

	s.log.Info("Sweep finished",
		zap.Int("accounts", result.AccountsScanned),
		zap.Int("found", result.ItemsFound),
		zap.Int("published", result.EventsPublished),
		zap.Int("queued", result.EventsQueued),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("invalid", result.Invalid),
		zap.Int("publish_failures", result.PublishFailures),
		zap.Int("account_errors", len(result.Errors)),
		zap.Duration("took", result.FinishedAt.Sub(result.StartedAt)),
		zap.Error(err),
	)

	return result, err
}

func (s *DiscoveryService) scanAccount(ctx context.Context, account model.TrackedAccount) (model.SweepResult, error) {
	result := model.SweepResult{AccountsScanned: 1}
	log := s.log.With(zap.String("account", account.Username))

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	items, err := s.source.FetchCandidates(fetchCtx, account.Username)
	cancel()

	if err != nil {
		log.Warn("Failed to fetch candidates", zap.Error(err))
		result.Errors = append(result.Errors, model.AccountError{Account: account.Username, Error: err.Error()})

		return result, nil
	}

	result.ItemsFound = len(items)

	for _, item := range items {
		item = item.Normalize(account.Username)

		if err := item.Validate(); err != nil {
			log.Warn("Skipping invalid candidate", zap.String("content_id", item.PlatformID), zap.Error(err))
			result.Invalid++

			continue
		}

		outcome, err := s.processItem(ctx, account, item)
		if err != nil {
			return result, fmt.Errorf("account %s, content %s: %w", account.Username, item.PlatformID, err)
		}

		switch outcome {
		case outcomeDuplicate:
			result.Duplicates++
		case outcomePublished:
			result.EventsPublished++
		case outcomeQueued:
			result.EventsQueued++
		case outcomePublishFailed:
			result.PublishFailures++
		}
	}

	if err := s.accounts.UpdateLastChecked(ctx, nil, account.ID, s.now()); err != nil {
		return result, fmt.Errorf("account %s: %w", account.Username, err)
	}

	return result, nil
}

// processItem records the item before announcing it, so a crash in between loses at most
// one notification and never sends two.
func (s *DiscoveryService) processItem(ctx context.Context, account model.TrackedAccount, item model.DiscoveredContent) (itemOutcome, error) {
	exists, err := s.processed.Exists(ctx, nil, item.PlatformID)
	if err != nil {
		return 0, err
	}

	if exists {
		return outcomeDuplicate, nil
	}

	event, err := model.NewVideoFoundEvent(item)
	if err != nil {
		return 0, err
	}

	record := model.ProcessedContent{ContentID: item.PlatformID, AccountID: account.ID}

	if s.cfg.UseOutbox {
		return s.queue(ctx, record, event)
	}

	if err := s.processed.Insert(ctx, nil, record); err != nil {
		if errors.Is(err, apperrors.ErrDuplicateContent) {
			return outcomeDuplicate, nil
		}

		return 0, err
	}

	// The record is committed; publishing must not be cut short by sweep cancellation.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	ack, err := s.publisher.Publish(pubCtx, event)
	if err != nil {
		s.log.Error("Failed to publish event, notification is lost",
			zap.String("account", account.Username),
			zap.String("content_id", item.PlatformID),
			zap.String("event_id", event.EventID.String()),
			zap.Bool("uncertain", errors.Is(err, apperrors.ErrDeliveryUncertain)),
			zap.Error(err),
		)

		return outcomePublishFailed, nil
	}

	s.log.Info("New content announced",
		zap.String("account", account.Username),
		zap.String("content_id", item.PlatformID),
		zap.String("event_id", event.EventID.String()),
		zap.Int32("partition", ack.Partition),
		zap.Int64("offset", ack.Offset),
	)

	return outcomePublished, nil
}

func (s *DiscoveryService) queue(ctx context.Context, record model.ProcessedContent, event model.Event) (itemOutcome, error) {
	data, err := event.Encode()
	if err != nil {
		return 0, err
	}

	err = s.tx.WithinTx(ctx, func(ext repository.RepoExtension) error {
		if err := s.processed.Insert(ctx, ext, record); err != nil {
			return err
		}

		return s.outbox.Insert(ctx, ext, model.OutboxEvent{
			ID:      event.EventID,
			Topic:   event.EventName,
			Payload: data,
		})
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicateContent) {
			return outcomeDuplicate, nil
		}

		return 0, err
	}

	return outcomeQueued, nil
}
