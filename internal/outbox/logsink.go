package outbox

import (
	"context"
	"log/slog"
)

// LogSink writes events to the structured log. Used when no broker is configured.
type LogSink struct {
	Log *slog.Logger
}

func (s LogSink) Send(ctx context.Context, evt Event) error {
	l := s.Log
	if l == nil {
		l = slog.Default()
	}
	l.InfoContext(ctx, "event",
		"event_id", evt.ID,
		"event_type", evt.EventType,
		"aggregate_type", evt.AggregateType,
		"aggregate_id", evt.AggregateID,
		"payload", string(evt.Payload),
	)
	return nil
}
