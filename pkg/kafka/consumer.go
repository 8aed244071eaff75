package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/IBM/sarama"
)

type BalanceStrategy = sarama.BalanceStrategy

var (
	RoundrobinBalanceStrategy = sarama.NewBalanceStrategyRoundRobin()
	RangeBalanceStrategy      = sarama.NewBalanceStrategyRange()
	StickyBalanceStrategy     = sarama.NewBalanceStrategySticky()
)

type Message = sarama.ConsumerMessage

// HandlerFunc processes one message. Returning nil marks the offset; an error leaves it
// unmarked and ends the claim so the message is delivered again.
type HandlerFunc func(ctx context.Context, msg *Message) error

type ConsumerGroupRunner interface {
	Run(ctx context.Context, handler HandlerFunc) error
	Info() <-chan string
	Close() error
}

type ConsumerOption func(cfg *sarama.Config)

func WithBalancerConsumer(strategy BalanceStrategy) ConsumerOption {
	return func(cfg *sarama.Config) {
		cfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{strategy}
	}
}

func WithInitialOffset(offset int64) ConsumerOption {
	return func(cfg *sarama.Config) {
		cfg.Consumer.Offsets.Initial = offset
	}
}

type consumerGroupRunner struct {
	group   sarama.ConsumerGroup
	groupID string
	topics  []string
	info    chan string
	once    sync.Once
}

func NewConsumerGroupRunner(brokers []string, groupID string, topics []string, opts ...ConsumerOption) (ConsumerGroupRunner, error) {
	cfg := sarama.NewConfig()
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	cfg.Consumer.Offsets.AutoCommit.Enable = true

	for _, opt := range opts {
		opt(cfg)
	}

	group, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group %s: %w", groupID, err)
	}

	return &consumerGroupRunner{
		group:   group,
		groupID: groupID,
		topics:  topics,
		info:    make(chan string, 1),
	}, nil
}

func (r *consumerGroupRunner) Info() <-chan string {
	return r.info
}

// Run joins the group and consumes until ctx is cancelled or the group is closed.
// Each claimed partition is consumed sequentially in its own goroutine.
func (r *consumerGroupRunner) Run(ctx context.Context, handler HandlerFunc) error {
	h := &groupHandler{runner: r, handle: handler}

	for {
		if err := r.group.Consume(ctx, r.topics, h); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}

			return fmt.Errorf("consumer group %s: %w", r.groupID, err)
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

func (r *consumerGroupRunner) Close() error {
	return r.group.Close()
}

type groupHandler struct {
	runner *consumerGroupRunner
	handle HandlerFunc
}

func (h *groupHandler) Setup(session sarama.ConsumerGroupSession) error {
	h.runner.once.Do(func() {
		h.runner.info <- fmt.Sprintf("Consumer group %s is up and running, member %s", h.runner.groupID, session.MemberID())
	})

	return nil
}

func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}

			if err := h.handle(session.Context(), msg); err != nil {
				return err
			}

			session.MarkMessage(msg, "")
		case <-session.Context().Done():
			return nil
		}
	}
}
