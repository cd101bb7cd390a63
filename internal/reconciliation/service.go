// Package reconciliation tracks which transactions have been matched against
// an external source and reports what is still open for an account.
package reconciliation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/tinoosan/ledgerd/internal/errs"
	"github.com/tinoosan/ledgerd/internal/ledger"
)

var marksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "reconciliation_marks_total",
		Help:      "Transactions marked as reconciled, by outcome",
	},
	[]string{"outcome"},
)

// RecordStore is the durable home of reconciliation records.
type RecordStore interface {
	MarkReconciled(ctx context.Context, txID uuid.UUID, at time.Time) error
	ReconciliationRecords(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]ledger.ReconciliationRecord, error)
}

// Repo reads accounts and the per-account entry index.
type Repo interface {
	GetAccount(ctx context.Context, id uuid.UUID) (ledger.Account, error)
	StreamAccountEntries(ctx context.Context, accountID uuid.UUID, before *time.Time, fn func(ledger.Entry) error) error
}

// Balances is the slice of the balance engine the report needs.
type Balances interface {
	BalanceAsOf(ctx context.Context, accountID uuid.UUID, cutoff time.Time) (decimal.Decimal, error)
}

type Service struct {
	repo     Repo
	records  RecordStore
	balances Balances
	log      *slog.Logger
	now      func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func New(repo Repo, records RecordStore, balances Balances, log *slog.Logger, opts ...Option) *Service {
	if log == nil {
		log = slog.Default()
	}
	s := &Service{repo: repo, records: records, balances: balances, log: log, now: func() time.Time { return time.Now().UTC() }}
	for _, o := range opts {
		o(s)
	}
	return s
}

// endOfDay returns the last representable instant of t's calendar day.
func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func (s *Service) account(ctx context.Context, accountID uuid.UUID) (ledger.Account, error) {
	acc, err := s.repo.GetAccount(ctx, accountID)
	if err != nil {
		return ledger.Account{}, errs.Upstream("account "+accountID.String(), err)
	}
	return acc, nil
}

// distinctTransactions lists the transaction IDs referenced by the account's
// entries posted in [from, to], first occurrence order. Nil bounds are open.
func (s *Service) distinctTransactions(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]uuid.UUID, error) {
	var before *time.Time
	if to != nil {
		b := to.Add(time.Nanosecond)
		before = &b
	}
	seen := make(map[uuid.UUID]struct{})
	out := make([]uuid.UUID, 0)
	err := s.repo.StreamAccountEntries(ctx, accountID, before, func(e ledger.Entry) error {
		if from != nil && e.PostedAt.Before(*from) {
			return nil
		}
		if _, ok := seen[e.TransactionID]; ok {
			return nil
		}
		seen[e.TransactionID] = struct{}{}
		out = append(out, e.TransactionID)
		return nil
	})
	if err != nil {
		return nil, errs.Upstream("entries for account "+accountID.String(), err)
	}
	return out, nil
}

// ReconcileAccount marks every transaction touching the account between
// start and the end of end's day as reconciled now, and returns the account.
func (s *Service) ReconcileAccount(ctx context.Context, accountID uuid.UUID, start, end time.Time) (ledger.Account, error) {
	acc, err := s.account(ctx, accountID)
	if err != nil {
		return ledger.Account{}, err
	}
	eod := endOfDay(end)
	ids, err := s.distinctTransactions(ctx, accountID, &start, &eod)
	if err != nil {
		return ledger.Account{}, err
	}
	now := s.now()
	for _, id := range ids {
		s.MarkTransactionAsReconciled(ctx, id, now)
	}
	s.log.InfoContext(ctx, "account reconciled", "account_id", accountID, "transactions", len(ids), "start", start, "end", eod)
	return acc, nil
}

// FindUnreconciledTransactions returns, in posting order, the transactions of
// the account that have no reconciliation record. It is recomputed every call.
func (s *Service) FindUnreconciledTransactions(ctx context.Context, accountID uuid.UUID) ([]uuid.UUID, error) {
	if _, err := s.account(ctx, accountID); err != nil {
		return nil, err
	}
	return s.unreconciled(ctx, accountID)
}

func (s *Service) unreconciled(ctx context.Context, accountID uuid.UUID) ([]uuid.UUID, error) {
	ids, err := s.distinctTransactions(ctx, accountID, nil, nil)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return ids, nil
	}
	recs, err := s.records.ReconciliationRecords(ctx, ids)
	if err != nil {
		return nil, errs.Upstream("reconciliation records", err)
	}
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if r, ok := recs[id]; ok && r.Reconciled {
			continue
		}
		out = append(out, id)
	}
	return out, nil
}

// MarkTransactionAsReconciled is idempotent. It reports false only when the
// record could not be written; the cause is logged.
func (s *Service) MarkTransactionAsReconciled(ctx context.Context, txID uuid.UUID, when time.Time) bool {
	if err := s.records.MarkReconciled(ctx, txID, when); err != nil {
		marksTotal.WithLabelValues("error").Inc()
		s.log.ErrorContext(ctx, "mark reconciled failed", "transaction_id", txID, "err", err)
		return false
	}
	marksTotal.WithLabelValues("ok").Inc()
	return true
}

// Report is the data behind a reconciliation report.
type Report struct {
	AccountID      uuid.UUID
	AccountName    string
	AccountCode    string
	Start          time.Time
	End            time.Time
	OpeningBalance decimal.Decimal
	ClosingBalance decimal.Decimal
	Unreconciled   []uuid.UUID
}

// BuildReport gathers the report figures. Opening and closing balances are
// computed concurrently.
func (s *Service) BuildReport(ctx context.Context, accountID uuid.UUID, start, end time.Time) (Report, error) {
	acc, err := s.account(ctx, accountID)
	if err != nil {
		return Report{}, err
	}
	r := Report{AccountID: acc.ID, AccountName: acc.Name, AccountCode: acc.Code, Start: start, End: end}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := s.balances.BalanceAsOf(gctx, accountID, start)
		r.OpeningBalance = b
		return err
	})
	g.Go(func() error {
		b, err := s.balances.BalanceAsOf(gctx, accountID, end)
		r.ClosingBalance = b
		return err
	})
	g.Go(func() error {
		ids, err := s.unreconciled(gctx, accountID)
		r.Unreconciled = ids
		return err
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	return r, nil
}

// GenerateReconciliationReport renders BuildReport as text.
func (s *Service) GenerateReconciliationReport(ctx context.Context, accountID uuid.UUID, start, end time.Time) (string, error) {
	r, err := s.BuildReport(ctx, accountID, start, end)
	if err != nil {
		return "", err
	}
	return r.Text(), nil
}

func (r Report) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reconciliation Report\n")
	fmt.Fprintf(&b, "Account: %s (%s)\n", r.AccountName, r.AccountCode)
	fmt.Fprintf(&b, "Period: %s to %s\n", r.Start.Format(time.DateOnly), r.End.Format(time.DateOnly))
	fmt.Fprintf(&b, "Opening Balance: %s\n", r.OpeningBalance.StringFixed(2))
	fmt.Fprintf(&b, "Closing Balance: %s\n", r.ClosingBalance.StringFixed(2))
	fmt.Fprintf(&b, "Unreconciled Transactions: %d\n", len(r.Unreconciled))
	for _, id := range r.Unreconciled {
		fmt.Fprintf(&b, "  - %s\n", id)
	}
	return b.String()
}
