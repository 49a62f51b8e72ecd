// Package kafka publishes audit events to a Kafka topic. Delivery is
// fire-and-forget: an audit outage must not fail the business operation, so
// produce errors are logged rather than returned.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/twmb/franz-go/pkg/kgo"

	"dugout/internal/audit"
)

const defaultTopic = "dugout.audit"

// Publisher emits audit events to Kafka.
type Publisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// New constructs a Kafka-backed audit publisher from a comma-separated
// broker list.
func New(brokers string, logger *slog.Logger) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(strings.Split(brokers, ",")...),
		kgo.DefaultProduceTopic(defaultTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Publisher{client: client, topic: defaultTopic, logger: logger}, nil
}

func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.PlayerID),
		Value: payload,
	}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil && p.logger != nil {
			p.logger.Error("audit publish failed",
				"action", event.Action,
				"player_id", event.PlayerID,
				"error", err,
			)
		}
	})
	return nil
}

// Close flushes buffered records and releases the client.
func (p *Publisher) Close(ctx context.Context) error {
	if err := p.client.Flush(ctx); err != nil {
		return fmt.Errorf("flush kafka producer: %w", err)
	}
	p.client.Close()
	return nil
}
