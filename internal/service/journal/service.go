// Package journal posts ledger entries. Single entries are accepted as-is;
// journals must balance.
package journal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"
	"github.com/shopspring/decimal"

	"github.com/tinoosan/ledgerd/internal/audit"
	"github.com/tinoosan/ledgerd/internal/errs"
	"github.com/tinoosan/ledgerd/internal/ledger"
)

// Repo defines read operations needed by the service.
type Repo interface {
	GetAccount(ctx context.Context, id uuid.UUID) (ledger.Account, error)
	GetEntry(ctx context.Context, id uuid.UUID) (ledger.Entry, error)
	ListEntriesByAccount(ctx context.Context, accountID uuid.UUID) ([]ledger.Entry, error)
}

// Writer defines write operations needed by the service. CreateEntries is
// all-or-nothing.
type Writer interface {
	CreateEntries(ctx context.Context, entries []ledger.Entry) error
	UpdateEntry(ctx context.Context, e ledger.Entry) (ledger.Entry, error)
	DeleteEntry(ctx context.Context, id uuid.UUID) error
}

type Service interface {
	ValidateEntry(ctx context.Context, e ledger.Entry) (ledger.Entry, error)
	PostEntry(ctx context.Context, e ledger.Entry) (ledger.Entry, error)
	PostJournal(ctx context.Context, txID uuid.UUID, lines []ledger.Entry) ([]ledger.Entry, error)
	Get(ctx context.Context, id uuid.UUID) (ledger.Entry, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]ledger.Entry, error)
	Update(ctx context.Context, e ledger.Entry) (ledger.Entry, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo   Repo
	writer Writer
	audit  audit.Recorder
	log    *slog.Logger
	now    func() time.Time
}

type Option func(*service)

// WithAudit records postings, edits and deletions to r.
func WithAudit(r audit.Recorder) Option { return func(s *service) { s.audit = r } }

func New(repo Repo, writer Writer, log *slog.Logger, opts ...Option) Service {
	if log == nil {
		log = slog.Default()
	}
	s := &service{repo: repo, writer: writer, audit: audit.Nop, log: log, now: func() time.Time { return time.Now().UTC() }}
	for _, o := range opts {
		o(s)
	}
	return s
}

func entryDetails(e ledger.Entry) map[string]string {
	return map[string]string{
		"account_id":     e.AccountID.String(),
		"transaction_id": e.TransactionID.String(),
		"side":           string(e.Side),
		"amount":         e.Amount.String(),
		"currency":       e.Currency,
	}
}

func fieldErr(i int, msg string) error { return errs.Invalid(fmt.Sprintf("lines[%d]: %s", i, msg)) }

// normalizeCurrency upper-cases code and checks it against ISO 4217.
func normalizeCurrency(code string) (string, error) {
	cur, err := money.ParseCurr(strings.TrimSpace(code))
	if err != nil {
		return "", errs.Invalid("unknown currency " + code)
	}
	return cur.Code(), nil
}

// ValidateEntry checks one entry and returns it normalised. It does not
// assign IDs.
func (s *service) ValidateEntry(ctx context.Context, e ledger.Entry) (ledger.Entry, error) {
	if e.AccountID == uuid.Nil {
		return ledger.Entry{}, errs.Invalid("account_id required")
	}
	side, err := ledger.ParseSide(string(e.Side))
	if err != nil {
		return ledger.Entry{}, err
	}
	e.Side = side
	if e.Amount.IsNegative() {
		return ledger.Entry{}, errs.Invalid("amount must not be negative")
	}
	if e.Currency, err = normalizeCurrency(e.Currency); err != nil {
		return ledger.Entry{}, err
	}
	if e.ExchangeRate != nil && !e.ExchangeRate.IsPositive() {
		return ledger.Entry{}, errs.Invalid("exchange_rate must be positive")
	}
	if _, err := s.repo.GetAccount(ctx, e.AccountID); err != nil {
		return ledger.Entry{}, errs.Upstream("account "+e.AccountID.String(), err)
	}
	return e, nil
}

func (s *service) stamp(e ledger.Entry) ledger.Entry {
	now := s.now()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.TransactionID == uuid.Nil {
		e.TransactionID = uuid.New()
	}
	if e.PostedAt.IsZero() {
		e.PostedAt = now
	}
	e.CreatedAt = now
	return e
}

// PostEntry records a single posting. Double-entry balance is the caller's concern.
func (s *service) PostEntry(ctx context.Context, e ledger.Entry) (ledger.Entry, error) {
	e, err := s.ValidateEntry(ctx, e)
	if err != nil {
		return ledger.Entry{}, err
	}
	e = s.stamp(e)
	if err := s.writer.CreateEntries(ctx, []ledger.Entry{e}); err != nil {
		return ledger.Entry{}, errs.Upstream("post entry", err)
	}
	s.log.InfoContext(ctx, "entry posted", "entry_id", e.ID, "account_id", e.AccountID, "side", e.Side, "amount", e.Amount.String(), "currency", e.Currency)
	s.audit.Record(ctx, ledger.AuditEntry, e.ID, ledger.AuditCreate, entryDetails(e))
	return e, nil
}

// PostJournal posts at least two lines under one transaction ID. Debits and
// credits must be equal and every line must share a currency.
func (s *service) PostJournal(ctx context.Context, txID uuid.UUID, lines []ledger.Entry) ([]ledger.Entry, error) {
	if len(lines) < 2 {
		return nil, errs.Invalid("a journal needs at least 2 lines")
	}
	if txID == uuid.Nil {
		txID = uuid.New()
	}
	debits, credits := decimal.Zero, decimal.Zero
	out := make([]ledger.Entry, 0, len(lines))
	postedAt := s.now()
	for i, ln := range lines {
		v, err := s.ValidateEntry(ctx, ln)
		if err != nil {
			return nil, fmt.Errorf("lines[%d]: %w", i, err)
		}
		if !v.Amount.IsPositive() {
			return nil, fieldErr(i, "amount must be > 0")
		}
		if i > 0 && v.Currency != out[0].Currency {
			return nil, fieldErr(i, "currency mismatch")
		}
		if v.Side == ledger.SideDebit {
			debits = debits.Add(v.Amount)
		} else {
			credits = credits.Add(v.Amount)
		}
		v.TransactionID = txID
		if v.PostedAt.IsZero() {
			v.PostedAt = postedAt
		}
		out = append(out, s.stamp(v))
	}
	if !debits.Equal(credits) {
		return nil, errs.Invalid("sum(debits) must equal sum(credits)")
	}
	if err := s.writer.CreateEntries(ctx, out); err != nil {
		return nil, errs.Upstream("post journal", err)
	}
	s.log.InfoContext(ctx, "journal posted", "transaction_id", txID, "lines", len(out), "amount", debits.String())
	for _, e := range out {
		s.audit.Record(ctx, ledger.AuditEntry, e.ID, ledger.AuditCreate, entryDetails(e))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (ledger.Entry, error) {
	e, err := s.repo.GetEntry(ctx, id)
	if err != nil {
		return ledger.Entry{}, errs.Upstream("entry "+id.String(), err)
	}
	return e, nil
}

func (s *service) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]ledger.Entry, error) {
	if _, err := s.repo.GetAccount(ctx, accountID); err != nil {
		return nil, errs.Upstream("account "+accountID.String(), err)
	}
	return s.repo.ListEntriesByAccount(ctx, accountID)
}

// Update replaces an entry's fields. Like Delete it bypasses journal
// balancing; corrections that must keep books balanced should post a new journal.
func (s *service) Update(ctx context.Context, e ledger.Entry) (ledger.Entry, error) {
	cur, err := s.Get(ctx, e.ID)
	if err != nil {
		return ledger.Entry{}, err
	}
	v, err := s.ValidateEntry(ctx, e)
	if err != nil {
		return ledger.Entry{}, err
	}
	if v.TransactionID == uuid.Nil {
		v.TransactionID = cur.TransactionID
	}
	if v.PostedAt.IsZero() {
		v.PostedAt = cur.PostedAt
	}
	v.CreatedAt = cur.CreatedAt
	updated, err := s.writer.UpdateEntry(ctx, v)
	if err != nil {
		return ledger.Entry{}, errs.Upstream("update entry "+e.ID.String(), err)
	}
	s.log.WarnContext(ctx, "entry updated in place", "entry_id", e.ID, "account_id", v.AccountID)
	details := entryDetails(updated)
	details["previous_amount"] = cur.Amount.String()
	details["previous_account_id"] = cur.AccountID.String()
	s.audit.Record(ctx, ledger.AuditEntry, e.ID, ledger.AuditUpdate, details)
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	cur, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.writer.DeleteEntry(ctx, id); err != nil {
		return errs.Upstream("delete entry "+id.String(), err)
	}
	s.log.WarnContext(ctx, "entry deleted", "entry_id", id)
	s.audit.Record(ctx, ledger.AuditEntry, id, ledger.AuditDelete, entryDetails(cur))
	return nil
}
