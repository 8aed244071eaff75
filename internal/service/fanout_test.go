package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"

	"content-tracker/internal/apperrors"
	"content-tracker/internal/model"
)

const testGroup = "notifier"

type fanOutFixture struct {
	subs        *fakeSubscriptions
	inbox       *fakeInbox
	sink        *fakeSink
	broadcaster *fakeBroadcaster
	svc         *FanOutService
}

func newFanOutFixture(t *testing.T) *fanOutFixture {
	t.Helper()

	f := &fanOutFixture{
		subs:        &fakeSubscriptions{byAccount: map[string][]model.Subscriber{}},
		inbox:       newFakeInbox(),
		sink:        &fakeSink{failFor: map[string]bool{}},
		broadcaster: &fakeBroadcaster{},
	}

	f.svc = NewFanOutService(zaptest.NewLogger(t), testGroup, f.subs, f.inbox, f.sink, f.broadcaster)

	return f
}

func subscriber(address string) model.Subscriber {
	return model.Subscriber{ID: uuid.New(), Address: address, Active: true}
}

func mustEvent(t *testing.T, c model.DiscoveredContent) model.Event {
	t.Helper()

	ev, err := model.NewVideoFoundEvent(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return ev
}

func TestFanOutNotifiesEverySubscriber(t *testing.T) {
	f := newFanOutFixture(t)
	f.subs.byAccount["mrbeast"] = []model.Subscriber{subscriber("a@example.com"), subscriber("b@example.com")}

	res, err := f.svc.Handle(context.Background(), mustEvent(t, video("999", "mrbeast")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Subscribers != 2 || res.Delivered != 2 || len(res.Failures) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}

	if len(f.sink.deliveries) != 2 || f.sink.deliveries[0].contentID != "999" {
		t.Fatalf("unexpected deliveries: %+v", f.sink.deliveries)
	}

	if len(f.broadcaster.results) != 1 {
		t.Errorf("result was not broadcast")
	}
}

func TestFanOutWithoutSubscribers(t *testing.T) {
	f := newFanOutFixture(t)

	res, err := f.svc.Handle(context.Background(), mustEvent(t, video("1", "nobody")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Subscribers != 0 || len(f.sink.deliveries) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestFanOutIsolatesSinkFailures(t *testing.T) {
	f := newFanOutFixture(t)
	f.subs.byAccount["mrbeast"] = []model.Subscriber{
		subscriber("a@example.com"),
		subscriber("broken@example.com"),
		subscriber("c@example.com"),
	}
	f.sink.failFor["broken@example.com"] = true

	res, err := f.svc.Handle(context.Background(), mustEvent(t, video("1", "mrbeast")))
	if err != nil {
		t.Fatalf("a sink failure must not fail the event: %v", err)
	}

	if res.Delivered != 2 || len(res.Failures) != 1 || res.Failures[0].Address != "broken@example.com" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestFanOutSkipsHandledEvent(t *testing.T) {
	f := newFanOutFixture(t)
	f.subs.byAccount["mrbeast"] = []model.Subscriber{subscriber("a@example.com")}

	ev := mustEvent(t, video("1", "mrbeast"))

	if _, err := f.svc.Handle(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err := f.svc.Handle(context.Background(), ev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !res.Skipped || len(f.sink.deliveries) != 1 {
		t.Fatalf("redelivered event must be skipped: %+v, deliveries %d", res, len(f.sink.deliveries))
	}
}

func TestFanOutRejectsMalformedMessage(t *testing.T) {
	f := newFanOutFixture(t)

	err := f.svc.HandleMessage(context.Background(), []byte(`{"event_name":"video.found"}`))
	if !errors.Is(err, apperrors.ErrMalformedEvent) {
		t.Fatalf("expected ErrMalformedEvent, got %v", err)
	}
}

func TestFanOutHandleRejectsInvalidContent(t *testing.T) {
	f := newFanOutFixture(t)

	bad := video("1", "mrbeast")
	bad.VideoURL = "ftp://example.com/1"

	ev := mustEvent(t, bad)

	if _, err := f.svc.Handle(context.Background(), ev); !errors.Is(err, apperrors.ErrMalformedEvent) {
		t.Fatalf("expected ErrMalformedEvent, got %v", err)
	}

	if len(f.sink.deliveries) != 0 {
		t.Fatalf("invalid content must not be delivered, got %d", len(f.sink.deliveries))
	}
}

func TestFanOutReturnsStoreFailure(t *testing.T) {
	f := newFanOutFixture(t)
	f.subs.err = errStoreDown

	ev := mustEvent(t, video("1", "mrbeast"))

	if _, err := f.svc.Handle(context.Background(), ev); !isStoreDown(err) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}

	if ok, _ := f.inbox.Exists(context.Background(), nil, ev.EventID, testGroup); ok {
		t.Fatalf("a failed event must not be marked as handled")
	}
}

func TestFanOutHandleMessage(t *testing.T) {
	f := newFanOutFixture(t)
	f.subs.byAccount["mrbeast"] = []model.Subscriber{subscriber("a@example.com")}

	data, err := mustEvent(t, video("5", "mrbeast")).Encode()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := f.svc.HandleMessage(context.Background(), data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.sink.deliveries) != 1 {
		t.Fatalf("expected one delivery, got %d", len(f.sink.deliveries))
	}
}
