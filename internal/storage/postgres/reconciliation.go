package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/ledgerd/internal/ledger"
)

// MarkReconciled records the first reconciliation of txID; later calls keep
// the original timestamp.
func (s *Store) MarkReconciled(ctx context.Context, txID uuid.UUID, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
		insert into reconciliation_records (transaction_id, reconciled, reconciled_at)
		values ($1, true, $2)
		on conflict (transaction_id) do nothing
	`, txID, at)
	return err
}

// ReconciliationRecords returns the records that exist among ids.
func (s *Store) ReconciliationRecords(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]ledger.ReconciliationRecord, error) {
	out := make(map[uuid.UUID]ledger.ReconciliationRecord, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx, `
		select transaction_id, reconciled, reconciled_at
		from reconciliation_records
		where transaction_id = any($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var r ledger.ReconciliationRecord
		if err := rows.Scan(&r.TransactionID, &r.Reconciled, &r.ReconciledAt); err != nil {
			return nil, err
		}
		out[r.TransactionID] = r
	}
	return out, rows.Err()
}
