// Package scheduler runs discovery sweeps on a fixed interval and on demand.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"content-tracker/internal/apperrors"
	"content-tracker/internal/model"
)

type Sweeper interface {
	Sweep(ctx context.Context) (model.SweepResult, error)
}

// Locker guards a sweep across instances. Acquire reports ok=false when another holder owns the lock.
type Locker interface {
	Acquire(ctx context.Context) (token string, ok bool, err error)
	Release(ctx context.Context, token string) error
}

type Config struct {
	Interval       time.Duration
	RunImmediately bool
}

type Runner struct {
	l       *zap.Logger
	cfg     Config
	sweeper Sweeper
	locker  Locker

	running sync.Mutex

	mu      sync.RWMutex
	last    *model.SweepResult
	lastErr error
}

// NewRunner creates a runner; locker may be nil when only one instance runs.
func NewRunner(l *zap.Logger, cfg Config, sweeper Sweeper, locker Locker) *Runner {
	return &Runner{
		l:       l.Named("scheduler"),
		cfg:     cfg,
		sweeper: sweeper,
		locker:  locker,
	}
}

// Run sweeps every Interval until ctx is done. A tick that finds a sweep still running is skipped.
func (r *Runner) Run(ctx context.Context) {
	r.l.Info("Scheduler started", zap.Duration("interval", r.cfg.Interval))

	if r.cfg.RunImmediately {
		r.tick(ctx)
	}

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.l.Info("Scheduler stopped")

			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Runner) tick(ctx context.Context) {
	_, err := r.TriggerNow(ctx)

	switch {
	case err == nil:
	case ctx.Err() != nil:
	case errors.Is(err, apperrors.ErrSweepInProgress):
		r.l.Warn("Previous sweep still running, skipping tick")
	default:
		r.l.Error("Sweep failed", zap.Error(err))
	}
}

// TriggerNow runs one sweep right away. It returns apperrors.ErrSweepInProgress without waiting
// when a sweep is already running here or, with a Locker, on another instance.
func (r *Runner) TriggerNow(ctx context.Context) (model.SweepResult, error) {
	if !r.running.TryLock() {
		return model.SweepResult{}, apperrors.ErrSweepInProgress
	}
	defer r.running.Unlock()

	if r.locker != nil {
		token, ok, err := r.locker.Acquire(ctx)
		if err != nil {
			return model.SweepResult{}, err
		}

		if !ok {
			return model.SweepResult{}, apperrors.ErrSweepInProgress
		}

		defer func() {
			if err := r.locker.Release(context.WithoutCancel(ctx), token); err != nil {
				r.l.Warn("Failed to release sweep lock", zap.Error(err))
			}
		}()
	}

	result, err := r.sweeper.Sweep(ctx)

	r.mu.Lock()
	r.last = &result
	r.lastErr = err
	r.mu.Unlock()

	return result, err
}

// LastResult returns the outcome of the latest finished sweep, or nil before the first one.
func (r *Runner) LastResult() (*model.SweepResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.last == nil {
		return nil, nil
	}

	result := *r.last

	return &result, r.lastErr
}
