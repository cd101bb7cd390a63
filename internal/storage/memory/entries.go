package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/ledgerd/internal/errs"
	"github.com/tinoosan/ledgerd/internal/ledger"
)

// CreateEntries stores all entries or none.
func (s *Store) CreateEntries(_ context.Context, entries []ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		if _, ok := s.accounts[e.AccountID]; !ok {
			return errs.NotFound("account " + e.AccountID.String())
		}
		if _, dup := s.entries[e.ID]; dup {
			return errs.ErrConflict
		}
	}
	for _, e := range entries {
		s.entries[e.ID] = e
		s.insertEntryIndexLocked(e.AccountID, entryKey{PostedAt: e.PostedAt, ID: e.ID})
	}
	return nil
}

func (s *Store) GetEntry(_ context.Context, id uuid.UUID) (ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return ledger.Entry{}, errs.ErrNotFound
	}
	return e, nil
}

// UpdateEntry replaces an entry and moves it in the index when its account
// or posting time changed.
func (s *Store) UpdateEntry(_ context.Context, e ledger.Entry) (ledger.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.entries[e.ID]
	if !ok {
		return ledger.Entry{}, errs.ErrNotFound
	}
	if _, ok := s.accounts[e.AccountID]; !ok {
		return ledger.Entry{}, errs.NotFound("account " + e.AccountID.String())
	}
	if prev.AccountID != e.AccountID || !prev.PostedAt.Equal(e.PostedAt) {
		s.removeEntryIndexLocked(prev.AccountID, entryKey{PostedAt: prev.PostedAt, ID: prev.ID})
		s.insertEntryIndexLocked(e.AccountID, entryKey{PostedAt: e.PostedAt, ID: e.ID})
	}
	s.entries[e.ID] = e
	return e, nil
}

func (s *Store) DeleteEntry(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return errs.ErrNotFound
	}
	s.removeEntryIndexLocked(e.AccountID, entryKey{PostedAt: e.PostedAt, ID: e.ID})
	delete(s.entries, id)
	return nil
}

// ListEntriesByAccount returns the account's entries in posting order.
func (s *Store) ListEntriesByAccount(ctx context.Context, accountID uuid.UUID) ([]ledger.Entry, error) {
	out := make([]ledger.Entry, 0)
	err := s.StreamAccountEntries(ctx, accountID, nil, func(e ledger.Entry) error {
		out = append(out, e)
		return nil
	})
	return out, err
}

// StreamAccountEntries visits the account's entries in (PostedAt, ID) order,
// stopping before the first entry posted at or after before. The visited
// range is copied under the read lock so fn may call back into the store.
func (s *Store) StreamAccountEntries(ctx context.Context, accountID uuid.UUID, before *time.Time, fn func(ledger.Entry) error) error {
	s.mu.RLock()
	keys := s.entryKeysByAccount[accountID]
	end := len(keys)
	if before != nil {
		cut := *before
		end = sort.Search(len(keys), func(i int) bool { return !keys[i].PostedAt.Before(cut) })
	}
	batch := make([]ledger.Entry, 0, end)
	for _, k := range keys[:end] {
		batch = append(batch, s.entries[k.ID])
	}
	s.mu.RUnlock()
	for _, e := range batch {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

// insertEntryIndexLocked keeps the per-account index sorted. Caller holds the write lock.
func (s *Store) insertEntryIndexLocked(accountID uuid.UUID, k entryKey) {
	keys := s.entryKeysByAccount[accountID]
	i := sort.Search(len(keys), func(i int) bool { return k.less(keys[i]) })
	if i == len(keys) {
		s.entryKeysByAccount[accountID] = append(keys, k)
		return
	}
	keys = append(keys, entryKey{})
	copy(keys[i+1:], keys[i:])
	keys[i] = k
	s.entryKeysByAccount[accountID] = keys
}

func (s *Store) removeEntryIndexLocked(accountID uuid.UUID, k entryKey) {
	keys := s.entryKeysByAccount[accountID]
	i := sort.Search(len(keys), func(i int) bool { return !keys[i].less(k) })
	if i < len(keys) && keys[i].ID == k.ID {
		s.entryKeysByAccount[accountID] = append(keys[:i], keys[i+1:]...)
	}
}
