package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/ledgerd/internal/errs"
	"github.com/tinoosan/ledgerd/internal/ledger"
)

func (s *Store) CreateTransaction(_ context.Context, tx ledger.Transaction) (ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.txs[tx.ID]; dup {
		return ledger.Transaction{}, errs.ErrConflict
	}
	tx.Metadata = tx.Metadata.Clone()
	s.txs[tx.ID] = tx
	return tx, nil
}

func (s *Store) GetTransaction(_ context.Context, id uuid.UUID) (ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.txs[id]
	if !ok {
		return ledger.Transaction{}, errs.ErrNotFound
	}
	return tx, nil
}

func (s *Store) UpdateTransaction(_ context.Context, tx ledger.Transaction) (ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txs[tx.ID]; !ok {
		return ledger.Transaction{}, errs.ErrNotFound
	}
	tx.Metadata = tx.Metadata.Clone()
	s.txs[tx.ID] = tx
	return tx, nil
}

// TransactionsByTarget returns the transactions of an account, or of an
// account space when isSpace is set, with TransactionDate in [from, to),
// ordered by TransactionDate then ID.
func (s *Store) TransactionsByTarget(_ context.Context, targetID uuid.UUID, isSpace bool, from, to time.Time) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Transaction, 0)
	for _, tx := range s.txs {
		if isSpace {
			if tx.AccountSpaceID == nil || *tx.AccountSpaceID != targetID {
				continue
			}
		} else if tx.AccountID != targetID {
			continue
		}
		if tx.TransactionDate.Before(from) || !tx.TransactionDate.Before(to) {
			continue
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TransactionDate.Equal(out[j].TransactionDate) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].TransactionDate.Before(out[j].TransactionDate)
	})
	return out, nil
}
