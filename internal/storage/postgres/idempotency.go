package postgres

import (
	"context"

	"github.com/tinoosan/ledgerd/internal/ledger"
)

func (s *Store) GetIdempotency(ctx context.Context, scope, key string) (ledger.IdempotencyRecord, error) {
	rec := ledger.IdempotencyRecord{Scope: scope, Key: key}
	err := s.pool.QueryRow(ctx, `
		select body_hash, status, payload, created_at from idempotency_keys where scope = $1 and key = $2
	`, scope, key).Scan(&rec.BodyHash, &rec.Status, &rec.Payload, &rec.CreatedAt)
	if err != nil {
		return ledger.IdempotencyRecord{}, mapErr(err)
	}
	return rec, nil
}

// SaveIdempotency keeps the first record stored under a scope and key.
func (s *Store) SaveIdempotency(ctx context.Context, rec ledger.IdempotencyRecord) error {
	_, err := s.pool.Exec(ctx, `
		insert into idempotency_keys (scope, key, body_hash, status, payload, created_at)
		values ($1,$2,$3,$4,$5,$6)
		on conflict (scope, key) do nothing
	`, rec.Scope, rec.Key, rec.BodyHash, rec.Status, rec.Payload, rec.CreatedAt)
	return mapErr(err)
}
