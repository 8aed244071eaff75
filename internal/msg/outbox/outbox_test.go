package outbox

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"

	"content-tracker/internal/apperrors"
	"content-tracker/internal/model"
	"content-tracker/internal/repository"
)

type fakeRepo struct {
	mu     sync.Mutex
	events []model.OutboxEvent
	sent   map[uuid.UUID]bool
}

func (f *fakeRepo) UpdateAsSent(_ context.Context, _ repository.RepoExtension, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sent[id] = true

	return nil
}

func (f *fakeRepo) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.sent)
}

func (f *fakeRepo) SelectUnsentBatch(_ context.Context, _ repository.RepoExtension, size int) ([]model.OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []model.OutboxEvent

	for _, e := range f.events {
		if !f.sent[e.ID] && len(out) < size {
			out = append(out, e)
		}
	}

	return out, nil
}

type fakeTx struct{}

func (fakeTx) WithinTx(_ context.Context, fn func(ext repository.RepoExtension) error) error {
	return fn(nil)
}

type fakePublisher struct {
	failFor map[uuid.UUID]bool
	events  []model.Event
}

func (f *fakePublisher) Publish(_ context.Context, e model.Event) (model.Ack, error) {
	if f.failFor[e.EventID] {
		return model.Ack{}, fmt.Errorf("%w: broker down", apperrors.ErrTransportUnavailable)
	}

	f.events = append(f.events, e)

	return model.Ack{Topic: e.EventName}, nil
}

func queued(t *testing.T, id string) model.OutboxEvent {
	t.Helper()

	ev, err := model.NewVideoFoundEvent(model.DiscoveredContent{
		PlatformID:     id,
		AuthorUsername: "mrbeast",
		VideoURL:       "https://www.tiktok.com/@mrbeast/video/" + id,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := ev.Encode()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return model.OutboxEvent{ID: ev.EventID, Topic: ev.EventName, Payload: data}
}

func TestRelayBatchSendsAndMarks(t *testing.T) {
	repo := &fakeRepo{sent: map[uuid.UUID]bool{}}
	repo.events = []model.OutboxEvent{queued(t, "1"), queued(t, "2"), queued(t, "3")}

	pub := &fakePublisher{failFor: map[uuid.UUID]bool{repo.events[1].ID: true}}
	relay := NewRelay(zaptest.NewLogger(t), Config{BatchSize: 10, PollInterval: time.Second}, pub, repo, fakeTx{})

	sent, err := relay.RelayBatch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sent != 2 || len(pub.events) != 2 {
		t.Fatalf("expected 2 sent, got %d", sent)
	}

	if repo.sent[repo.events[1].ID] {
		t.Fatalf("failed event must stay unsent")
	}

	pub.failFor = nil

	sent, err = relay.RelayBatch(context.Background())
	if err != nil || sent != 1 {
		t.Fatalf("retry: sent %d, err %v", sent, err)
	}

	if pub.events[2].EventID != repo.events[1].ID {
		t.Errorf("event id changed on relay")
	}
}

func TestRelayBatchDropsMalformed(t *testing.T) {
	bad := model.OutboxEvent{ID: uuid.New(), Topic: model.EventVideoFound, Payload: []byte("{")}
	repo := &fakeRepo{sent: map[uuid.UUID]bool{}, events: []model.OutboxEvent{bad}}
	pub := &fakePublisher{}

	relay := NewRelay(zaptest.NewLogger(t), Config{BatchSize: 10, PollInterval: time.Second}, pub, repo, fakeTx{})

	if _, err := relay.RelayBatch(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !repo.sent[bad.ID] || len(pub.events) != 0 {
		t.Fatalf("malformed row should be marked without publishing")
	}
}

func TestRelayRunStopsOnCancel(t *testing.T) {
	repo := &fakeRepo{sent: map[uuid.UUID]bool{}, events: []model.OutboxEvent{queued(t, "1")}}
	pub := &fakePublisher{}
	relay := NewRelay(zaptest.NewLogger(t), Config{WorkerCount: 1, BatchSize: 10, PollInterval: 5 * time.Millisecond}, pub, repo, fakeTx{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		relay.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)

	for repo.sentCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("event was not relayed")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop")
	}
}
