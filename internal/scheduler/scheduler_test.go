package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"content-tracker/internal/apperrors"
	"content-tracker/internal/model"
)

type fakeSweeper struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (f *fakeSweeper) Sweep(ctx context.Context) (model.SweepResult, error) {
	n := f.calls.Add(1)

	if f.started != nil {
		f.started <- struct{}{}
	}

	if f.release != nil {
		<-f.release
	}

	return model.SweepResult{AccountsScanned: int(n)}, nil
}

type fakeLocker struct {
	held     bool
	released int
}

func (l *fakeLocker) Acquire(context.Context) (string, bool, error) {
	if l.held {
		return "", false, nil
	}

	l.held = true

	return "token", true, nil
}

func (l *fakeLocker) Release(context.Context, string) error {
	l.held = false
	l.released++

	return nil
}

func TestTriggerNowRecordsLastResult(t *testing.T) {
	r := NewRunner(zaptest.NewLogger(t), Config{Interval: time.Hour}, &fakeSweeper{}, nil)

	if last, _ := r.LastResult(); last != nil {
		t.Fatal("no result expected before the first sweep")
	}

	res, err := r.TriggerNow(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	last, lastErr := r.LastResult()
	if last == nil || lastErr != nil || last.AccountsScanned != res.AccountsScanned {
		t.Fatalf("unexpected last result: %+v, %v", last, lastErr)
	}
}

func TestTriggerNowRejectsOverlap(t *testing.T) {
	sw := &fakeSweeper{started: make(chan struct{}), release: make(chan struct{})}
	r := NewRunner(zaptest.NewLogger(t), Config{Interval: time.Hour}, sw, nil)

	done := make(chan error, 1)

	go func() {
		_, err := r.TriggerNow(context.Background())
		done <- err
	}()

	<-sw.started

	if _, err := r.TriggerNow(context.Background()); !errors.Is(err, apperrors.ErrSweepInProgress) {
		t.Fatalf("expected ErrSweepInProgress, got %v", err)
	}

	close(sw.release)

	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sw.calls.Load() != 1 {
		t.Fatalf("expected 1 sweep, got %d", sw.calls.Load())
	}
}

func TestTriggerNowHonoursDistributedLock(t *testing.T) {
	sw := &fakeSweeper{}
	lock := &fakeLocker{held: true}
	r := NewRunner(zaptest.NewLogger(t), Config{Interval: time.Hour}, sw, lock)

	if _, err := r.TriggerNow(context.Background()); !errors.Is(err, apperrors.ErrSweepInProgress) {
		t.Fatalf("expected ErrSweepInProgress, got %v", err)
	}

	lock.held = false

	if _, err := r.TriggerNow(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if lock.released != 1 || lock.held {
		t.Fatalf("lock was not released")
	}
}

func TestRunSweepsImmediatelyAndStops(t *testing.T) {
	sw := &fakeSweeper{}
	r := NewRunner(zaptest.NewLogger(t), Config{Interval: time.Hour, RunImmediately: true}, sw, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		r.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)

	for sw.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("no immediate sweep")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}
}
