// Package memory provides an in-memory implementation of every store the
// service needs. It backs local development and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/ledgerd/internal/errs"
	"github.com/tinoosan/ledgerd/internal/ledger"
	"github.com/tinoosan/ledgerd/internal/outbox"
)

// entryKey orders entries per account ascending by (PostedAt, ID).
type entryKey struct {
	PostedAt time.Time
	ID       uuid.UUID
}

func (k entryKey) less(o entryKey) bool {
	if k.PostedAt.Equal(o.PostedAt) {
		return k.ID.String() < o.ID.String()
	}
	return k.PostedAt.Before(o.PostedAt)
}

// Store is guarded by a single RWMutex.
type Store struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]ledger.Account
	codes    map[string]uuid.UUID
	entries  map[uuid.UUID]ledger.Entry
	// Per-account sorted index backing range queries for balances.
	entryKeysByAccount map[uuid.UUID][]entryKey
	txs                map[uuid.UUID]ledger.Transaction
	statements         map[uuid.UUID]ledger.Statement
	recon              map[uuid.UUID]ledger.ReconciliationRecord
	events             map[string]outbox.Event
	lines              map[uuid.UUID]ledger.TransactionLine
	audit              []ledger.AuditRecord
	idempotency        map[string]ledger.IdempotencyRecord
}

func New() *Store {
	s := &Store{}
	s.Reset()
	return s
}

// Reset drops all data.
func (s *Store) Reset() {
	s.mu.Lock()
	s.accounts = map[uuid.UUID]ledger.Account{}
	s.codes = map[string]uuid.UUID{}
	s.entries = map[uuid.UUID]ledger.Entry{}
	s.entryKeysByAccount = map[uuid.UUID][]entryKey{}
	s.txs = map[uuid.UUID]ledger.Transaction{}
	s.statements = map[uuid.UUID]ledger.Statement{}
	s.recon = map[uuid.UUID]ledger.ReconciliationRecord{}
	s.events = map[string]outbox.Event{}
	s.lines = map[uuid.UUID]ledger.TransactionLine{}
	s.audit = nil
	s.idempotency = map[string]ledger.IdempotencyRecord{}
	s.mu.Unlock()
}

// Ready always succeeds.
func (s *Store) Ready(context.Context) error { return nil }

func codeKey(code string) string { return strings.ToUpper(code) }

func (s *Store) CreateAccount(_ context.Context, a ledger.Account) (ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.codes[codeKey(a.Code)]; ok {
		return ledger.Account{}, errs.ErrConflict
	}
	a.Metadata = a.Metadata.Clone()
	s.accounts[a.ID] = a
	s.codes[codeKey(a.Code)] = a.ID
	return a, nil
}

func (s *Store) UpdateAccount(_ context.Context, a ledger.Account) (ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.accounts[a.ID]
	if !ok {
		return ledger.Account{}, errs.ErrNotFound
	}
	if codeKey(prev.Code) != codeKey(a.Code) {
		if _, taken := s.codes[codeKey(a.Code)]; taken {
			return ledger.Account{}, errs.ErrConflict
		}
		delete(s.codes, codeKey(prev.Code))
		s.codes[codeKey(a.Code)] = a.ID
	}
	a.Metadata = a.Metadata.Clone()
	s.accounts[a.ID] = a
	return a, nil
}

func (s *Store) GetAccount(_ context.Context, id uuid.UUID) (ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return ledger.Account{}, errs.ErrNotFound
	}
	return a, nil
}

func (s *Store) GetAccountByCode(_ context.Context, code string) (ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.codes[codeKey(code)]
	if !ok {
		return ledger.Account{}, errs.ErrNotFound
	}
	return s.accounts[id], nil
}

// ListAccounts returns every account ordered by code.
func (s *Store) ListAccounts(_ context.Context) ([]ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	sortAccounts(out)
	return out, nil
}

func (s *Store) ListAccountsByType(_ context.Context, t ledger.AccountType) ([]ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Account, 0)
	for _, a := range s.accounts {
		if a.Type == t {
			out = append(out, a)
		}
	}
	sortAccounts(out)
	return out, nil
}

func sortAccounts(as []ledger.Account) {
	sort.Slice(as, func(i, j int) bool { return as[i].Code < as[j].Code })
}
