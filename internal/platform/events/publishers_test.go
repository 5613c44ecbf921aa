package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	"github.com/SscSPs/bank_reconciliation/internal/middleware"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	written []kafkago.Message
	err     error
	closed  bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func sampleEvent() domain.ReconciliationEvent {
	return domain.NewReconciliationEvent(domain.EventMatchConfirmed, "wp-1", "match", "m-1", "user-1", map[string]string{"status": "matched"})
}

func TestKafkaPublisherEncodesEvents(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, topic: "recon"}
	ev := sampleEvent()

	require.NoError(t, p.Publish(context.Background(), ev))
	require.Len(t, w.written, 1)

	msg := w.written[0]
	assert.Equal(t, "wp-1:m-1", string(msg.Key))
	assert.Equal(t, kafkago.Header{Key: "event-type", Value: []byte(domain.EventMatchConfirmed)}, msg.Headers[0])

	var decoded domain.ReconciliationEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, ev.EventID, decoded.EventID)
	assert.Equal(t, "user-1", decoded.Actor)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisherWrapsWriteError(t *testing.T) {
	p := &KafkaPublisher{writer: &fakeWriter{err: errors.New("broker down")}, topic: "recon"}
	err := p.Publish(context.Background(), sampleEvent())
	assert.ErrorContains(t, err, "kafka publish to recon")
}

func TestKafkaPublisherSkipsEmptyBatch(t *testing.T) {
	w := &fakeWriter{err: errors.New("must not be called")}
	p := &KafkaPublisher{writer: w, topic: "recon"}
	assert.NoError(t, p.Publish(context.Background()))
}

func TestLogPublisherUsesContextLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx := middleware.WithLogger(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, LogPublisher{}.Publish(ctx, sampleEvent()))
	assert.Contains(t, buf.String(), `"event_type":"match.confirmed"`)
}

type failingPublisher struct{ err error }

func (f failingPublisher) Publish(context.Context, ...domain.ReconciliationEvent) error { return f.err }

func TestFanOutJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	err := FanOut{LogPublisher{}, failingPublisher{err: boom}}.Publish(context.Background(), sampleEvent())
	assert.ErrorIs(t, err, boom)

	assert.NoError(t, FanOut{LogPublisher{}}.Publish(context.Background(), sampleEvent()))
}
