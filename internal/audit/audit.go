// Package audit keeps an append-only trail of changes to accounts, entries,
// transactions, transaction lines and statements.
package audit

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tinoosan/ledgerd/internal/errs"
	"github.com/tinoosan/ledgerd/internal/ledger"
	"github.com/tinoosan/ledgerd/internal/meta"
)

var writeFailures = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "ledger",
		Subsystem: "audit",
		Name:      "write_failures_total",
		Help:      "Audit records that could not be stored",
	},
	[]string{"entity_type"},
)

// Store persists audit records. Records are never updated or deleted.
type Store interface {
	AppendAudit(ctx context.Context, rec ledger.AuditRecord) error
	// AuditTrail returns matching records oldest first.
	AuditTrail(ctx context.Context, q ledger.AuditQuery) ([]ledger.AuditRecord, error)
}

// Recorder is what the services write to.
type Recorder interface {
	Record(ctx context.Context, entity ledger.AuditEntity, id uuid.UUID, action ledger.AuditAction, details map[string]string)
}

type nop struct{}

func (nop) Record(context.Context, ledger.AuditEntity, uuid.UUID, ledger.AuditAction, map[string]string) {
}

// Nop discards every record.
var Nop Recorder = nop{}

type actorKey struct{}

// WithActor tags ctx with the principal responsible for changes made under it.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the principal stored by WithActor, or "system".
func ActorFrom(ctx context.Context) string {
	if a, ok := ctx.Value(actorKey{}).(string); ok && strings.TrimSpace(a) != "" {
		return a
	}
	return "system"
}

// Log writes records to a Store. A failed write is logged and counted but
// never fails the change being recorded.
type Log struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

func New(store Store, log *slog.Logger) *Log {
	if log == nil {
		log = slog.Default()
	}
	return &Log{store: store, log: log, now: func() time.Time { return time.Now().UTC() }}
}

func (l *Log) Record(ctx context.Context, entity ledger.AuditEntity, id uuid.UUID, action ledger.AuditAction, details map[string]string) {
	now := l.now()
	rec := ledger.AuditRecord{
		ID:         ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		EntityType: entity,
		EntityID:   id,
		Action:     action,
		Actor:      ActorFrom(ctx),
		Details:    meta.New(details),
		RecordedAt: now,
	}
	if err := l.store.AppendAudit(ctx, rec); err != nil {
		writeFailures.WithLabelValues(string(entity)).Inc()
		l.log.WarnContext(ctx, "audit write failed", "entity_type", entity, "entity_id", id, "action", action, "err", err)
	}
}

// Trail lists records for an entity and/or entity type.
func (l *Log) Trail(ctx context.Context, q ledger.AuditQuery) ([]ledger.AuditRecord, error) {
	if q.EntityType != "" {
		t, err := ParseEntity(string(q.EntityType))
		if err != nil {
			return nil, err
		}
		q.EntityType = t
	}
	q.Page = q.Page.Normalize()
	out, err := l.store.AuditTrail(ctx, q)
	if err != nil {
		return nil, errs.Upstream("audit trail", err)
	}
	return out, nil
}

func ParseEntity(s string) (ledger.AuditEntity, error) {
	e := ledger.AuditEntity(strings.ToUpper(strings.TrimSpace(s)))
	switch e {
	case ledger.AuditAccount, ledger.AuditEntry, ledger.AuditTransaction, ledger.AuditTransactionLine, ledger.AuditStatement:
		return e, nil
	}
	return "", errs.Invalid("unknown audit entity type " + s)
}
