// Package kafka owns the broker connection and the outbox relay that moves
// committed lifecycle events from PostgreSQL onto the wire.
package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"pactum/internal/platform/config"
)

// Client wraps a franz-go producer bound to the lifecycle topic.
type Client struct {
	kgo   *kgo.Client
	topic string
}

// New connects to the configured brokers. Returns nil if no brokers are
// configured (Kafka disabled; outbox rows simply accumulate unpublished).
func New(cfg config.KafkaConfig) (*Client, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	return &Client{kgo: client, topic: cfg.Topic}, nil
}

// EnsureTopic creates the lifecycle topic if it does not exist yet.
func (c *Client) EnsureTopic(ctx context.Context) error {
	adm := kadm.NewClient(c.kgo)

	resp, err := adm.CreateTopics(ctx, 3, 1, nil, c.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", c.topic, err)
	}
	for _, res := range resp.Sorted() {
		if res.Err != nil && !errors.Is(res.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", res.Topic, res.Err)
		}
	}
	return nil
}

// Publish produces one record synchronously. Key is the aggregate ID so all
// events for a transaction land in the same partition, preserving order.
func (c *Client) Publish(ctx context.Context, key string, value []byte) error {
	record := &kgo.Record{
		Topic: c.topic,
		Key:   []byte(key),
		Value: value,
	}
	if err := c.kgo.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", c.topic, err)
	}
	return nil
}

// Close flushes buffered records and tears down the connection.
func (c *Client) Close() {
	c.kgo.Close()
}
