package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/ledgerd/internal/errs"
	"github.com/tinoosan/ledgerd/internal/ledger"
	"github.com/tinoosan/ledgerd/internal/outbox"
)

// SaveStatement stores the statement row and its event under one lock.
func (s *Store) SaveStatement(_ context.Context, st ledger.Statement, evt outbox.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.statements[st.ID]; dup {
		return errs.ErrConflict
	}
	if _, dup := s.events[evt.ID]; dup {
		return errs.ErrConflict
	}
	s.statements[st.ID] = st
	s.events[evt.ID] = evt
	return nil
}

func (s *Store) GetStatement(_ context.Context, id uuid.UUID) (ledger.Statement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.statements[id]
	if !ok {
		return ledger.Statement{}, errs.ErrNotFound
	}
	return st, nil
}

// ListStatements returns the query's window, newest first.
func (s *Store) ListStatements(_ context.Context, q ledger.StatementQuery) ([]ledger.Statement, error) {
	s.mu.RLock()
	all := make([]ledger.Statement, 0)
	for _, st := range s.statements {
		if st.TargetID != q.TargetID || st.AccountSpace != q.AccountSpace {
			continue
		}
		if q.From != nil && st.PeriodStart.Before(*q.From) {
			continue
		}
		if q.To != nil && st.PeriodEnd.After(*q.To) {
			continue
		}
		all = append(all, st)
	}
	s.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool {
		if all[i].GeneratedAt.Equal(all[j].GeneratedAt) {
			return all[i].ID.String() > all[j].ID.String()
		}
		return all[i].GeneratedAt.After(all[j].GeneratedAt)
	})
	p := q.Page.Normalize()
	if p.Offset >= len(all) {
		return []ledger.Statement{}, nil
	}
	end := p.Offset + p.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[p.Offset:end], nil
}

func (s *Store) Enqueue(_ context.Context, evt outbox.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.events[evt.ID]; dup {
		return errs.ErrConflict
	}
	s.events[evt.ID] = evt
	return nil
}

// PendingEvents returns undelivered events due at now in ID order.
func (s *Store) PendingEvents(_ context.Context, limit int, now time.Time) ([]outbox.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]outbox.Event, 0)
	for _, e := range s.events {
		if e.DispatchedAt == nil && !e.NextAttemptAt.After(now) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) MarkDispatched(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return errs.ErrNotFound
	}
	e.DispatchedAt = &at
	s.events[id] = e
	return nil
}

func (s *Store) MarkFailed(_ context.Context, id string, attempts int, next time.Time, lastErr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return errs.ErrNotFound
	}
	e.Attempts = attempts
	e.NextAttemptAt = next
	e.LastError = lastErr
	s.events[id] = e
	return nil
}

// Events returns a snapshot of every event, in ID order.
func (s *Store) Events() []outbox.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]outbox.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
