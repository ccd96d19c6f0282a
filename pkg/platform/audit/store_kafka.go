package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaStore appends audit events to a Kafka topic. Used as the worker's
// store in deployments where a downstream SIEM or warehouse consumes the
// audit trail.
type KafkaStore struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewKafkaStore dials the brokers and returns a store producing to topic.
func NewKafkaStore(brokers []string, topic string, logger *slog.Logger) (*KafkaStore, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaStore{client: client, topic: topic, logger: logger}, nil
}

// Append produces one event. Delivery is asynchronous; produce errors are
// logged from the callback since the audit path is best-effort.
func (s *KafkaStore) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.SessionID),
		Value: payload,
	}
	s.client.Produce(ctx, record, func(r *kgo.Record, err error) {
		if err != nil {
			s.logger.Error("failed to produce audit event", "action", event.Action, "error", err)
		}
	})
	return nil
}

// Close flushes pending records and releases the client.
func (s *KafkaStore) Close(ctx context.Context) error {
	if err := s.client.Flush(ctx); err != nil {
		return err
	}
	s.client.Close()
	return nil
}
