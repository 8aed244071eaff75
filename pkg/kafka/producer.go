package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"
)

type (
	Balancer     func(topic string) sarama.Partitioner
	RequiredAcks = sarama.RequiredAcks
	Header       = sarama.RecordHeader
)

var (
	RoundRobin Balancer = sarama.NewRoundRobinPartitioner
	Hash       Balancer = sarama.NewHashPartitioner
)

const (
	RequireNone = sarama.NoResponse
	RequireOne  = sarama.WaitForLocal
	RequireAll  = sarama.WaitForAll
)

type Producer interface {
	PushMessage(ctx context.Context, key, value []byte, topic string, headers ...Header) (partition int32, offset int64, err error)
	Close() error
}

type ProducerOption func(cfg *sarama.Config)

func WithBalancer(b Balancer) ProducerOption {
	return func(cfg *sarama.Config) {
		cfg.Producer.Partitioner = sarama.PartitionerConstructor(b)
	}
}

func WithRequiredAcks(acks RequiredAcks) ProducerOption {
	return func(cfg *sarama.Config) {
		cfg.Producer.RequiredAcks = acks
	}
}

func WithRetry(maxRetries int, backoff time.Duration) ProducerOption {
	return func(cfg *sarama.Config) {
		cfg.Producer.Retry.Max = maxRetries

		if backoff > 0 {
			cfg.Producer.Retry.Backoff = backoff
		}
	}
}

func WithTimeout(timeout time.Duration) ProducerOption {
	return func(cfg *sarama.Config) {
		if timeout > 0 {
			cfg.Producer.Timeout = timeout
			cfg.Net.DialTimeout = timeout
		}
	}
}

func WithClientID(id string) ProducerOption {
	return func(cfg *sarama.Config) {
		if id != "" {
			cfg.ClientID = id
		}
	}
}

// NewProducerConfig returns the sarama config a sync producer needs plus the given options.
func NewProducerConfig(opts ...ProducerOption) *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Partitioner = sarama.NewHashPartitioner

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

type producer struct {
	sp sarama.SyncProducer
}

func NewProducer(brokers []string, opts ...ProducerOption) (Producer, error) {
	sp, err := sarama.NewSyncProducer(brokers, NewProducerConfig(opts...))
	if err != nil {
		return nil, fmt.Errorf("failed to create sync producer: %w", err)
	}

	return &producer{sp: sp}, nil
}

// WrapSyncProducer adapts an existing sarama producer, e.g. one from sarama/mocks.
func WrapSyncProducer(sp sarama.SyncProducer) Producer {
	return &producer{sp: sp}
}

// PushMessage blocks until the broker acknowledges the message or the producer gives up.
// The sarama error is wrapped so callers can match it with errors.Is.
func (p *producer) PushMessage(ctx context.Context, key, value []byte, topic string, headers ...Header) (int32, int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	msg := &sarama.ProducerMessage{
		Topic:   topic,
		Value:   sarama.ByteEncoder(value),
		Headers: headers,
	}

	if key != nil {
		msg.Key = sarama.ByteEncoder(key)
	}

	partition, offset, err := p.sp.SendMessage(msg)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to send message to %s: %w", topic, err)
	}

	return partition, offset, nil
}

func (p *producer) Close() error {
	return p.sp.Close()
}

// Ping dials the cluster and fetches metadata once.
func Ping(brokers []string, timeout time.Duration) error {
	cfg := sarama.NewConfig()
	cfg.Net.DialTimeout = timeout
	cfg.Metadata.Retry.Max = 0

	client, err := sarama.NewClient(brokers, cfg)
	if err != nil {
		return fmt.Errorf("failed to reach brokers: %w", err)
	}

	return client.Close()
}
