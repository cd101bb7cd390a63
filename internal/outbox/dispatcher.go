package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Subsystem: "outbox",
			Name:      "dispatched_total",
			Help:      "Outbox events delivered to the sink",
		},
		[]string{"event_type"},
	)
	eventsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledger",
			Subsystem: "outbox",
			Name:      "failed_total",
			Help:      "Outbox delivery attempts that failed",
		},
		[]string{"event_type"},
	)
	eventsPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ledger",
			Subsystem: "outbox",
			Name:      "pending",
			Help:      "Events due for delivery at the last poll",
		},
	)
)

// DispatcherConfig tunes polling and backoff. Zero values take defaults.
type DispatcherConfig struct {
	PollInterval time.Duration
	BatchSize    int
	BaseBackoff  time.Duration
	MaxBackoff   time.Duration
}

func (c DispatcherConfig) withDefaults() DispatcherConfig {
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 5 * time.Minute
	}
	return c
}

// Dispatcher moves pending events from a Store to a Sink.
type Dispatcher struct {
	store Store
	sink  Sink
	cfg   DispatcherConfig
	log   *slog.Logger
	now   func() time.Time
}

func NewDispatcher(store Store, sink Sink, cfg DispatcherConfig, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		store: store,
		sink:  sink,
		cfg:   cfg.withDefaults(),
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Run polls until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	t := time.NewTicker(d.cfg.PollInterval)
	defer t.Stop()
	d.log.Info("outbox dispatcher started", "poll_interval", d.cfg.PollInterval.String())
	for {
		if _, err := d.DispatchOnce(ctx); err != nil && ctx.Err() == nil {
			d.log.Error("outbox poll failed", "err", err)
		}
		select {
		case <-ctx.Done():
			d.log.Info("outbox dispatcher stopped")
			return ctx.Err()
		case <-t.C:
		}
	}
}

// DispatchOnce delivers one batch and reports how many events were sent.
// A failed send is rescheduled; it never aborts the batch.
func (d *Dispatcher) DispatchOnce(ctx context.Context) (int, error) {
	now := d.now()
	events, err := d.store.PendingEvents(ctx, d.cfg.BatchSize, now)
	if err != nil {
		return 0, err
	}
	eventsPending.Set(float64(len(events)))
	sent := 0
	for _, evt := range events {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		if err := d.sink.Send(ctx, evt); err != nil {
			attempts := evt.Attempts + 1
			next := now.Add(d.Backoff(attempts))
			eventsFailed.WithLabelValues(evt.EventType).Inc()
			d.log.Warn("outbox send failed", "event_id", evt.ID, "event_type", evt.EventType, "attempts", attempts, "retry_at", next, "err", err)
			if merr := d.store.MarkFailed(ctx, evt.ID, attempts, next, err.Error()); merr != nil {
				return sent, merr
			}
			continue
		}
		if err := d.store.MarkDispatched(ctx, evt.ID, d.now()); err != nil {
			return sent, err
		}
		eventsDispatched.WithLabelValues(evt.EventType).Inc()
		sent++
	}
	return sent, nil
}

// Backoff returns base * 2^(attempts-1), capped at MaxBackoff.
func (d *Dispatcher) Backoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	b := d.cfg.BaseBackoff
	for i := 1; i < attempts; i++ {
		b *= 2
		if b >= d.cfg.MaxBackoff {
			return d.cfg.MaxBackoff
		}
	}
	if b > d.cfg.MaxBackoff {
		return d.cfg.MaxBackoff
	}
	return b
}
