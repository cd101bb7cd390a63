package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/tinoosan/ledgerd/internal/ledger"
)

func (s *Store) AppendAudit(_ context.Context, rec ledger.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.Details = rec.Details.Clone()
	s.audit = append(s.audit, rec)
	return nil
}

// AuditTrail returns matching records in append order.
func (s *Store) AuditTrail(_ context.Context, q ledger.AuditQuery) ([]ledger.AuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.AuditRecord, 0)
	skipped := 0
	for _, rec := range s.audit {
		if q.EntityID != uuid.Nil && rec.EntityID != q.EntityID {
			continue
		}
		if q.EntityType != "" && rec.EntityType != q.EntityType {
			continue
		}
		if skipped < q.Page.Offset {
			skipped++
			continue
		}
		if q.Page.Limit > 0 && len(out) == q.Page.Limit {
			break
		}
		rec.Details = rec.Details.Clone()
		out = append(out, rec)
	}
	return out, nil
}
