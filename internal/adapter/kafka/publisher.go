// Package kafka publishes pipeline snapshots to a Kafka topic for downstream
// consumers (alerting, archival, map tile refresh).
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/terrain-risk-service/internal/domain"
	"github.com/couchcryptid/terrain-risk-service/internal/observability"
)

// Publisher produces one message per snapshot. It implements
// pipeline.SnapshotSink.
type Publisher struct {
	writer  *kafkago.Writer
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewPublisher creates a Kafka producer for the snapshot topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger, metrics *observability.Metrics) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger, metrics: metrics}
}

// StoreSnapshot serializes and publishes one snapshot. Keyed by snapshot ID,
// which is deterministic per observation, so replays land on the same
// partition and consumers can deduplicate.
func (p *Publisher) StoreSnapshot(ctx context.Context, snap domain.Snapshot) error {
	msg, err := serializeToMessage(snap)
	if err != nil {
		p.metrics.SnapshotsStored.WithLabelValues("kafka", "error").Inc()
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.metrics.SnapshotsStored.WithLabelValues("kafka", "error").Inc()
		return fmt.Errorf("publish snapshot %s: %w", snap.ID, err)
	}
	p.metrics.SnapshotsStored.WithLabelValues("kafka", "ok").Inc()
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a Snapshot into a Kafka message. Risk level and
// production time ride in headers so consumers can filter without decoding
// the payload.
func serializeToMessage(snap domain.Snapshot) (kafkago.Message, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize snapshot: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(snap.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "risk_level", Value: []byte(snap.RiskLevel.String())},
			{Key: "produced_at", Value: []byte(snap.ProducedAt.Format(time.RFC3339))},
		},
	}, nil
}
