package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"staffhub/backend/internal/telemetry"
)

const (
	defaultBatchTimeout = 50 * time.Millisecond
	defaultWriteTimeout = 5 * time.Second
)

// messageWriter is the part of *kafka.Writer the producer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducer writes audit events to a Kafka topic as JSON.
type KafkaProducer struct {
	writer       messageWriter
	topic        string
	writeTimeout time.Duration
}

// NewKafkaProducer returns a producer for topic, or nil, nil when brokers or topic is empty.
// A nil *KafkaProducer is a valid no-op sink.
func NewKafkaProducer(brokers []string, topic string) (*KafkaProducer, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, nil
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           defaultBatchTimeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return newKafkaProducer(w, topic), nil
}

func newKafkaProducer(w messageWriter, topic string) *KafkaProducer {
	return &KafkaProducer{writer: w, topic: topic, writeTimeout: defaultWriteTimeout}
}

// Emit writes event keyed by user id, so one user's trail stays ordered within a partition. Anonymous
// events (failed logins, OTP requests) are keyed by event id and spread across partitions.
func (p *KafkaProducer) Emit(ctx context.Context, event *telemetry.Event) error {
	if p == nil || p.writer == nil || event == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: encode event: %w", err)
	}
	key := event.UserID
	if key == "" {
		key = event.ID
	}
	ctx, cancel := context.WithTimeout(ctx, p.writeTimeout)
	defer cancel()
	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "source", Value: []byte(event.Source)},
		},
		Time: event.CreatedAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write to %s: %w", p.topic, err)
	}
	return nil
}

// Close flushes pending messages. Safe to call on a nil producer.
func (p *KafkaProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
