package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/tinoosan/ledgerd/internal/outbox"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestSinkWritesKeyedMessage(t *testing.T) {
	agg := uuid.New()
	evt, err := outbox.NewEvent(outbox.AggregateStatement, agg, outbox.EventAccountStatementGenerated, map[string]string{"k": "v"}, time.Now())
	if err != nil {
		t.Fatalf("new event: %v", err)
	}
	w := &fakeWriter{}
	if err := NewSink(w).Send(context.Background(), evt); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.msgs))
	}
	m := w.msgs[0]
	if string(m.Key) != agg.String() {
		t.Fatalf("key = %s", m.Key)
	}
	if string(m.Value) != `{"k":"v"}` {
		t.Fatalf("value = %s", m.Value)
	}
	var typ string
	for _, h := range m.Headers {
		if h.Key == "event_type" {
			typ = string(h.Value)
		}
	}
	if typ != outbox.EventAccountStatementGenerated {
		t.Fatalf("event_type header = %q", typ)
	}
}

func TestSinkPropagatesWriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	evt, _ := outbox.NewEvent(outbox.AggregateStatement, uuid.New(), outbox.EventAccountStatementGenerated, nil, time.Now())
	if err := NewSink(w).Send(context.Background(), evt); err == nil {
		t.Fatalf("expected error")
	}
}
