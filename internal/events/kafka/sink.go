// Package kafka delivers outbox events to a Kafka topic.
package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/tinoosan/ledgerd/internal/outbox"
)

// MessageWriter is the subset of *kafka.Writer the sink uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Sink struct {
	w MessageWriter
}

// NewWriter builds a writer for topic with hash balancing, so every event of
// one aggregate lands on the same partition.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
}

func NewSink(w MessageWriter) *Sink { return &Sink{w: w} }

// Message maps an event onto a Kafka record keyed by aggregate ID.
func Message(evt outbox.Event) kafka.Message {
	return kafka.Message{
		Key:   []byte(evt.AggregateID.String()),
		Value: evt.Payload,
		Time:  evt.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(evt.ID)},
			{Key: "event_type", Value: []byte(evt.EventType)},
			{Key: "aggregate_type", Value: []byte(evt.AggregateType)},
		},
	}
}

func (s *Sink) Send(ctx context.Context, evt outbox.Event) error {
	return s.w.WriteMessages(ctx, Message(evt))
}

func (s *Sink) Close() error { return s.w.Close() }
