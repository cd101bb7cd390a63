package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/ledgerd/internal/ledger"
)

// MarkReconciled records the first reconciliation of txID; later calls keep
// the original timestamp.
func (s *Store) MarkReconciled(_ context.Context, txID uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.recon[txID]; ok && r.Reconciled {
		return nil
	}
	s.recon[txID] = ledger.ReconciliationRecord{TransactionID: txID, Reconciled: true, ReconciledAt: at}
	return nil
}

// ReconciliationRecords returns the records that exist among ids.
func (s *Store) ReconciliationRecords(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]ledger.ReconciliationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uuid.UUID]ledger.ReconciliationRecord, len(ids))
	for _, id := range ids {
		if r, ok := s.recon[id]; ok {
			out[id] = r
		}
	}
	return out, nil
}
