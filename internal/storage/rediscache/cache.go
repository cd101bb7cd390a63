// Package rediscache keeps reconciliation records in Redis in front of the
// durable record store. Redis failures never fail a call; the durable store
// stays the source of truth.
package rediscache

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/tinoosan/ledgerd/internal/ledger"
	"github.com/tinoosan/ledgerd/internal/reconciliation"
)

const DefaultPrefix = "ledger:recon:"

// Client is the subset of redis.Cmdable the cache uses.
type Client interface {
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// NewClient dials nothing; go-redis connects lazily on first use.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
}

type Option func(*RecordStore)

// WithTTL expires cached records after ttl; zero keeps them forever.
func WithTTL(ttl time.Duration) Option { return func(r *RecordStore) { r.ttl = ttl } }

func WithPrefix(p string) Option { return func(r *RecordStore) { r.prefix = p } }

// RecordStore wraps a reconciliation.RecordStore with a read-through cache.
// Only positive records are cached: a record never goes back to unreconciled.
type RecordStore struct {
	next   reconciliation.RecordStore
	client Client
	log    *slog.Logger
	prefix string
	ttl    time.Duration
}

var _ reconciliation.RecordStore = (*RecordStore)(nil)

func New(next reconciliation.RecordStore, client Client, log *slog.Logger, opts ...Option) *RecordStore {
	if log == nil {
		log = slog.Default()
	}
	r := &RecordStore{next: next, client: client, log: log, prefix: DefaultPrefix}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *RecordStore) key(id uuid.UUID) string { return r.prefix + id.String() }

// Ready pings Redis.
func (r *RecordStore) Ready(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// MarkReconciled writes through to the durable store, then caches whatever
// timestamp the store kept.
func (r *RecordStore) MarkReconciled(ctx context.Context, txID uuid.UUID, at time.Time) error {
	if err := r.next.MarkReconciled(ctx, txID, at); err != nil {
		return err
	}
	recs, err := r.next.ReconciliationRecords(ctx, []uuid.UUID{txID})
	if err != nil {
		r.log.WarnContext(ctx, "reconciliation cache refresh failed", "transaction_id", txID, "err", err)
		return nil
	}
	if rec, ok := recs[txID]; ok {
		r.put(ctx, rec)
	}
	return nil
}

// ReconciliationRecords answers from Redis and asks the durable store only
// for the ids Redis does not hold.
func (r *RecordStore) ReconciliationRecords(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]ledger.ReconciliationRecord, error) {
	out := make(map[uuid.UUID]ledger.ReconciliationRecord, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(id)
	}
	misses := ids
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		r.log.WarnContext(ctx, "reconciliation cache read failed", "err", err)
	} else {
		misses = make([]uuid.UUID, 0)
		for i, v := range vals {
			rec, ok := decode(ids[i], v)
			if !ok {
				misses = append(misses, ids[i])
				continue
			}
			out[ids[i]] = rec
		}
	}
	if len(misses) == 0 {
		return out, nil
	}
	found, err := r.next.ReconciliationRecords(ctx, misses)
	if err != nil {
		return nil, err
	}
	for id, rec := range found {
		out[id] = rec
		r.put(ctx, rec)
	}
	return out, nil
}

func (r *RecordStore) put(ctx context.Context, rec ledger.ReconciliationRecord) {
	if !rec.Reconciled {
		return
	}
	if err := r.client.Set(ctx, r.key(rec.TransactionID), rec.ReconciledAt.UTC().Format(time.RFC3339Nano), r.ttl).Err(); err != nil {
		r.log.WarnContext(ctx, "reconciliation cache write failed", "transaction_id", rec.TransactionID, "err", err)
	}
}

func decode(id uuid.UUID, v interface{}) (ledger.ReconciliationRecord, bool) {
	s, ok := v.(string)
	if !ok {
		return ledger.ReconciliationRecord{}, false
	}
	at, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return ledger.ReconciliationRecord{}, false
	}
	return ledger.ReconciliationRecord{TransactionID: id, Reconciled: true, ReconciledAt: at}, true
}
