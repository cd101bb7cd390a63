package memory

import (
	"context"

	"github.com/tinoosan/ledgerd/internal/errs"
	"github.com/tinoosan/ledgerd/internal/ledger"
)

func idemKey(scope, key string) string { return scope + "\x00" + key }

func (s *Store) GetIdempotency(_ context.Context, scope, key string) (ledger.IdempotencyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.idempotency[idemKey(scope, key)]
	if !ok {
		return ledger.IdempotencyRecord{}, errs.ErrNotFound
	}
	return rec, nil
}

// SaveIdempotency keeps the first record stored under a scope and key.
func (s *Store) SaveIdempotency(_ context.Context, rec ledger.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := idemKey(rec.Scope, rec.Key)
	if _, ok := s.idempotency[k]; ok {
		return nil
	}
	rec.Payload = append([]byte(nil), rec.Payload...)
	s.idempotency[k] = rec
	return nil
}
