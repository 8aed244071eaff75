package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"go.uber.org/zap"

	"content-tracker/internal/apperrors"
	"content-tracker/internal/model"
	"content-tracker/pkg/kafka"
)

func newEvent(t *testing.T) model.Event {
	t.Helper()

	ev, err := model.NewVideoFoundEvent(model.DiscoveredContent{
		PlatformID:     "999",
		AuthorUsername: "mrbeast",
		VideoURL:       "https://www.tiktok.com/@mrbeast/video/999",
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return ev
}

func connected(t *testing.T, sp *mocks.SyncProducer) *Publisher {
	t.Helper()

	p := New(zap.NewNop(), func() (kafka.Producer, error) { return kafka.WrapSyncProducer(sp), nil })
	if err := p.Connect(context.Background()); err != nil {
		t.Fatalf("unexpected connect error: %v", err)
	}

	t.Cleanup(func() { _ = p.Close() })

	return p
}

func TestPublishBeforeConnect(t *testing.T) {
	p := New(zap.NewNop(), func() (kafka.Producer, error) { return nil, errors.New("unused") })

	if _, err := p.Publish(context.Background(), newEvent(t)); !errors.Is(err, apperrors.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestPublishAfterClose(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	p := New(zap.NewNop(), func() (kafka.Producer, error) { return kafka.WrapSyncProducer(sp), nil })

	if err := p.Connect(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := p.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}

	if _, err := p.Publish(context.Background(), newEvent(t)); !errors.Is(err, apperrors.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestConnectFailure(t *testing.T) {
	p := New(zap.NewNop(), func() (kafka.Producer, error) { return nil, sarama.ErrOutOfBrokers })

	if err := p.Connect(context.Background()); !errors.Is(err, apperrors.ErrTransportUnavailable) {
		t.Fatalf("expected ErrTransportUnavailable, got %v", err)
	}
}

func TestPublishWritesEnvelopeToEventTopic(t *testing.T) {
	ev := newEvent(t)

	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got model.Event
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}

		if got.EventID != ev.EventID || got.EventName != model.EventVideoFound {
			return errors.New("unexpected envelope")
		}

		return nil
	})

	p := connected(t, sp)

	ack, err := p.Publish(context.Background(), ev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ack.Topic != model.EventVideoFound {
		t.Errorf("topic = %q, want %q", ack.Topic, model.EventVideoFound)
	}
}

func TestPublishErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "no brokers", err: sarama.ErrOutOfBrokers, want: apperrors.ErrTransportUnavailable},
		{name: "not connected", err: sarama.ErrNotConnected, want: apperrors.ErrTransportUnavailable},
		{name: "timeout after write", err: sarama.ErrRequestTimedOut, want: apperrors.ErrDeliveryUncertain},
		{name: "not enough replicas", err: sarama.ErrNotEnoughReplicasAfterAppend, want: apperrors.ErrDeliveryUncertain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sp := mocks.NewSyncProducer(t, nil)
			sp.ExpectSendMessageAndFail(tt.err)

			p := connected(t, sp)

			_, err := p.Publish(context.Background(), newEvent(t))
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestPublishCancelledContext(t *testing.T) {
	p := connected(t, mocks.NewSyncProducer(t, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Publish(ctx, newEvent(t)); !errors.Is(err, apperrors.ErrTransportUnavailable) {
		t.Fatalf("expected ErrTransportUnavailable, got %v", err)
	}
}
