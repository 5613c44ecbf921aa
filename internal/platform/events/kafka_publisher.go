// Package events contains the outbound reconciliation event publishers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	portsevents "github.com/SscSPs/bank_reconciliation/internal/core/ports/events"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the part of kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON to a single topic, keyed by aggregate id
// so that all events of one match, transfer or period stay ordered.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

var _ portsevents.Publisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher creates a publisher for topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafkago.Writer{
			Addr:         kafkago.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafkago.Hash{},
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: kafkago.RequireAll,
		},
		topic: topic,
	}
}

// Publish sends events in one batch.
func (p *KafkaPublisher) Publish(ctx context.Context, events ...domain.ReconciliationEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, 0, len(events))
	for _, ev := range events {
		value, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("encode event %s: %w", ev.EventID, err)
		}
		msgs = append(msgs, kafkago.Message{
			Key:   []byte(ev.WorkplaceID + ":" + ev.AggregateID),
			Value: value,
			Headers: []kafkago.Header{
				{Key: "event-type", Value: []byte(ev.EventType)},
				{Key: "event-id", Value: []byte(ev.EventID)},
				{Key: "content-type", Value: []byte("application/json")},
			},
			Time: ev.OccurredAt,
		})
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("kafka publish to %s: %w", p.topic, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
