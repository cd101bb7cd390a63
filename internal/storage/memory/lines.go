package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/tinoosan/ledgerd/internal/errs"
	"github.com/tinoosan/ledgerd/internal/ledger"
)

func (s *Store) GetTransactionLine(_ context.Context, txID uuid.UUID) (ledger.TransactionLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lines[txID]
	if !ok {
		return ledger.TransactionLine{}, errs.ErrNotFound
	}
	return cloneLine(l), nil
}

func (s *Store) SaveTransactionLine(_ context.Context, l ledger.TransactionLine) (ledger.TransactionLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txs[l.TransactionID]; !ok {
		return ledger.TransactionLine{}, errs.ErrNotFound
	}
	s.lines[l.TransactionID] = cloneLine(l)
	return l, nil
}

func (s *Store) DeleteTransactionLine(_ context.Context, txID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lines[txID]; !ok {
		return errs.ErrNotFound
	}
	delete(s.lines, txID)
	return nil
}

// cloneLine copies the detail pointers so callers cannot mutate stored lines.
func cloneLine(l ledger.TransactionLine) ledger.TransactionLine {
	if l.Wire != nil {
		w := *l.Wire
		l.Wire = &w
	}
	if l.DirectDebit != nil {
		d := *l.DirectDebit
		l.DirectDebit = &d
	}
	if l.StandingOrder != nil {
		o := *l.StandingOrder
		if o.EndDate != nil {
			end := *o.EndDate
			o.EndDate = &end
		}
		l.StandingOrder = &o
	}
	return l
}
