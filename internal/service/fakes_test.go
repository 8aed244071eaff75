package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"content-tracker/internal/apperrors"
	"content-tracker/internal/model"
	"content-tracker/internal/repository"
)

type fakeAccounts struct {
	mu       sync.Mutex
	accounts []model.TrackedAccount
	checked  map[uuid.UUID]time.Time
	err      error
}

func newFakeAccounts(usernames ...string) *fakeAccounts {
	f := &fakeAccounts{checked: make(map[uuid.UUID]time.Time)}

	for _, u := range usernames {
		f.accounts = append(f.accounts, model.TrackedAccount{
			ID:       uuid.New(),
			Username: u,
			Platform: model.DefaultPlatform,
			Active:   true,
		})
	}

	return f
}

func (f *fakeAccounts) SelectActive(_ context.Context, _ repository.RepoExtension) ([]model.TrackedAccount, error) {
	if f.err != nil {
		return nil, f.err
	}

	return f.accounts, nil
}

func (f *fakeAccounts) UpdateLastChecked(_ context.Context, _ repository.RepoExtension, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.checked[id] = at

	return nil
}

type fakeProcessed struct {
	mu        sync.Mutex
	records   map[string]model.ProcessedContent
	existsErr error
	insertErr error
	// stale makes Exists always miss, like a check that lost the race to another writer.
	stale bool
}

func newFakeProcessed() *fakeProcessed {
	return &fakeProcessed{records: make(map[string]model.ProcessedContent)}
}

func (f *fakeProcessed) Exists(_ context.Context, _ repository.RepoExtension, contentID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.existsErr != nil {
		return false, f.existsErr
	}

	if f.stale {
		return false, nil
	}

	_, ok := f.records[contentID]

	return ok, nil
}

func (f *fakeProcessed) Insert(_ context.Context, _ repository.RepoExtension, record model.ProcessedContent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.insertErr != nil {
		return f.insertErr
	}

	if _, ok := f.records[record.ContentID]; ok {
		return apperrors.ErrDuplicateContent
	}

	f.records[record.ContentID] = record

	return nil
}

func (f *fakeProcessed) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.records)
}

type fakeOutbox struct {
	mu     sync.Mutex
	events []model.OutboxEvent
}

func (f *fakeOutbox) Insert(_ context.Context, _ repository.RepoExtension, event model.OutboxEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.events = append(f.events, event)

	return nil
}

type fakeTx struct{}

func (fakeTx) WithinTx(_ context.Context, fn func(ext repository.RepoExtension) error) error {
	return fn(nil)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []model.Event
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, event model.Event) (model.Ack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return model.Ack{}, f.err
	}

	f.events = append(f.events, event)

	return model.Ack{Topic: event.EventName, Offset: int64(len(f.events) - 1)}, nil
}

func (f *fakePublisher) published() []model.Event {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]model.Event, len(f.events))
	copy(out, f.events)

	return out
}

type fakeSource struct {
	items map[string][]model.DiscoveredContent
	fail  map[string]bool
}

func (f *fakeSource) FetchCandidates(_ context.Context, username string) ([]model.DiscoveredContent, error) {
	if f.fail[username] {
		return nil, fmt.Errorf("%w: connection refused", apperrors.ErrTransportUnavailable)
	}

	return f.items[username], nil
}

type fakeSubscriptions struct {
	byAccount map[string][]model.Subscriber
	err       error
}

func (f *fakeSubscriptions) SelectActiveSubscribers(_ context.Context, _ repository.RepoExtension, username string) ([]model.Subscriber, error) {
	if f.err != nil {
		return nil, f.err
	}

	return f.byAccount[username], nil
}

type inboxKey struct {
	id    uuid.UUID
	group string
}

type fakeInbox struct {
	mu      sync.Mutex
	handled map[inboxKey]model.HandledEvent
}

func newFakeInbox() *fakeInbox {
	return &fakeInbox{handled: make(map[inboxKey]model.HandledEvent)}
}

func (f *fakeInbox) Exists(_ context.Context, _ repository.RepoExtension, id uuid.UUID, group string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, ok := f.handled[inboxKey{id, group}]

	return ok, nil
}

func (f *fakeInbox) Insert(_ context.Context, _ repository.RepoExtension, event model.HandledEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.handled[inboxKey{event.EventID, event.ConsumerGroup}] = event

	return nil
}

type delivery struct {
	address   string
	contentID string
}

type fakeSink struct {
	mu         sync.Mutex
	deliveries []delivery
	failFor    map[string]bool
}

func (f *fakeSink) Deliver(_ context.Context, subscriber model.Subscriber, content model.DiscoveredContent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failFor[subscriber.Address] {
		return fmt.Errorf("%w: mailbox unavailable", apperrors.ErrSinkDeliveryFailed)
	}

	f.deliveries = append(f.deliveries, delivery{address: subscriber.Address, contentID: content.PlatformID})

	return nil
}

type fakeBroadcaster struct {
	results []model.FanOutResult
}

func (f *fakeBroadcaster) Broadcast(result model.FanOutResult) {
	f.results = append(f.results, result)
}

type fakeIndex struct {
	indexed []model.DiscoveredContent
	err     error
}

func (f *fakeIndex) Index(_ context.Context, content model.DiscoveredContent) error {
	if f.err != nil {
		return f.err
	}

	f.indexed = append(f.indexed, content)

	return nil
}

func (f *fakeIndex) Search(_ context.Context, _, _ string, _ int) ([]model.ContentSearchHit, error) {
	hits := make([]model.ContentSearchHit, 0, len(f.indexed))
	for _, c := range f.indexed {
		hits = append(hits, model.ContentSearchHit{Content: c})
	}

	return hits, nil
}

var errStoreDown = fmt.Errorf("%w: connection reset", apperrors.ErrStoreUnavailable)

func isStoreDown(err error) bool {
	return errors.Is(err, apperrors.ErrStoreUnavailable)
}
