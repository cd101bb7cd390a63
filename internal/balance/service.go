// Package balance folds ledger entries into account balances. Balances are
// never stored; every call streams the account's entries from the index.
package balance

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tinoosan/ledgerd/internal/errs"
	"github.com/tinoosan/ledgerd/internal/ledger"
)

// Repo is the read side the engine needs. StreamAccountEntries must visit
// entries in (PostedAt, ID) order and, when before is non-nil, stop at the
// first entry posted at or after it.
type Repo interface {
	GetAccount(ctx context.Context, id uuid.UUID) (ledger.Account, error)
	ListAccountsByType(ctx context.Context, t ledger.AccountType) ([]ledger.Account, error)
	StreamAccountEntries(ctx context.Context, accountID uuid.UUID, before *time.Time, fn func(ledger.Entry) error) error
}

type Service struct {
	repo Repo
	log  *slog.Logger
}

func New(repo Repo, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, log: log}
}

// CurrentBalance folds every entry of the account. An account with no
// entries, including one that does not exist, has a zero balance.
func (s *Service) CurrentBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	return s.fold(ctx, accountID, nil)
}

// BalanceAsOf folds the entries posted strictly before cutoff.
func (s *Service) BalanceAsOf(ctx context.Context, accountID uuid.UUID, cutoff time.Time) (decimal.Decimal, error) {
	return s.fold(ctx, accountID, &cutoff)
}

func (s *Service) fold(ctx context.Context, accountID uuid.UUID, before *time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	err := s.repo.StreamAccountEntries(ctx, accountID, before, func(e ledger.Entry) error {
		total = total.Add(e.Signed())
		return nil
	})
	if err != nil {
		return decimal.Zero, errs.Upstream("balance for account "+accountID.String(), err)
	}
	return total, nil
}

// TotalBalanceByAccountType sums the current balance of every account of type t.
func (s *Service) TotalBalanceByAccountType(ctx context.Context, t ledger.AccountType) (decimal.Decimal, error) {
	if !t.Valid() {
		return decimal.Zero, errs.Invalid("unknown account type " + string(t))
	}
	accounts, err := s.repo.ListAccountsByType(ctx, t)
	if err != nil {
		return decimal.Zero, errs.Upstream("list "+string(t)+" accounts", err)
	}
	total := decimal.Zero
	for _, a := range accounts {
		b, err := s.CurrentBalance(ctx, a.ID)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(b)
	}
	return total, nil
}

// UpdateBalance accepts a balance movement for the account and returns it.
// Balances are derived from entries, so nothing is written; the movement
// itself must be recorded by posting an entry.
func (s *Service) UpdateBalance(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, isCredit bool) (ledger.Account, error) {
	if amount.IsNegative() {
		return ledger.Account{}, errs.Invalid("amount must not be negative")
	}
	acc, err := s.repo.GetAccount(ctx, accountID)
	if err != nil {
		return ledger.Account{}, errs.Upstream("update balance for account "+accountID.String(), err)
	}
	side := ledger.SideDebit
	if isCredit {
		side = ledger.SideCredit
	}
	s.log.DebugContext(ctx, "balance update requested", "account_id", accountID, "side", side, "amount", amount.String())
	return acc, nil
}
