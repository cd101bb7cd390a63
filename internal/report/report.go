// Package report builds the financial statements of the ledger from
// per-account balances.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/tinoosan/ledgerd/internal/errs"
	"github.com/tinoosan/ledgerd/internal/ledger"
)

// AccountLister enumerates ledger accounts.
type AccountLister interface {
	ListAccounts(ctx context.Context) ([]ledger.Account, error)
	ListAccountsByType(ctx context.Context, t ledger.AccountType) ([]ledger.Account, error)
}

type Balances interface {
	BalanceAsOf(ctx context.Context, accountID uuid.UUID, cutoff time.Time) (decimal.Decimal, error)
}

type Service struct {
	accounts AccountLister
	balances Balances
	log      *slog.Logger
}

func New(accounts AccountLister, balances Balances, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{accounts: accounts, balances: balances, log: log}
}

// AccountAmount is one account's figure inside a report section.
type AccountAmount struct {
	AccountID uuid.UUID          `json:"account_id"`
	Code      string             `json:"code"`
	Name      string             `json:"name"`
	Type      ledger.AccountType `json:"type"`
	Amount    decimal.Decimal    `json:"amount"`
}

type TrialBalanceRow struct {
	AccountID uuid.UUID          `json:"account_id"`
	Code      string             `json:"code"`
	Name      string             `json:"name"`
	Type      ledger.AccountType `json:"type"`
	Debit     decimal.Decimal    `json:"debit"`
	Credit    decimal.Decimal    `json:"credit"`
}

type TrialBalance struct {
	Start       time.Time         `json:"start"`
	End         time.Time         `json:"end"`
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal   `json:"total_debit"`
	TotalCredit decimal.Decimal   `json:"total_credit"`
	// Balanced is informational; an unbalanced ledger still produces a report.
	Balanced bool `json:"balanced"`
}

type IncomeStatement struct {
	Start         time.Time       `json:"start"`
	End           time.Time       `json:"end"`
	Revenue       []AccountAmount `json:"revenue"`
	Expenses      []AccountAmount `json:"expenses"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	NetIncome     decimal.Decimal `json:"net_income"`
}

type BalanceSheet struct {
	AsOf                      time.Time       `json:"as_of"`
	Assets                    []AccountAmount `json:"assets"`
	Liabilities               []AccountAmount `json:"liabilities"`
	Equity                    []AccountAmount `json:"equity"`
	TotalAssets               decimal.Decimal `json:"total_assets"`
	TotalLiabilities          decimal.Decimal `json:"total_liabilities"`
	TotalEquity               decimal.Decimal `json:"total_equity"`
	TotalLiabilitiesAndEquity decimal.Decimal `json:"total_liabilities_and_equity"`
}

type CashFlowLine struct {
	AccountID uuid.UUID       `json:"account_id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Opening   decimal.Decimal `json:"opening"`
	Closing   decimal.Decimal `json:"closing"`
	NetChange decimal.Decimal `json:"net_change"`
}

type CashFlow struct {
	Start     time.Time       `json:"start"`
	End       time.Time       `json:"end"`
	Accounts  []CashFlowLine  `json:"accounts"`
	NetChange decimal.Decimal `json:"net_change"`
}

// balanceAt fetches every account's balance as of t.
func (s *Service) balanceAt(ctx context.Context, accs []ledger.Account, t time.Time) ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, len(accs))
	for i, a := range accs {
		b, err := s.balances.BalanceAsOf(ctx, a.ID, t)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

// balancesAt fetches balances at start and end concurrently.
func (s *Service) balancesAt(ctx context.Context, accs []ledger.Account, start, end time.Time) (opening, closing []decimal.Decimal, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		opening, err = s.balanceAt(gctx, accs, start)
		return err
	})
	g.Go(func() error {
		var err error
		closing, err = s.balanceAt(gctx, accs, end)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return opening, closing, nil
}

func (s *Service) byType(ctx context.Context, t ledger.AccountType) ([]ledger.Account, error) {
	accs, err := s.accounts.ListAccountsByType(ctx, t)
	if err != nil {
		return nil, errs.Upstream("list "+string(t)+" accounts", err)
	}
	return accs, nil
}

func checkRange(start, end time.Time) error {
	if end.Before(start) {
		return errs.Invalid("end before start")
	}
	return nil
}

// TrialBalance lists every account's balance as of end. Positive balances go
// in the debit column and negative ones, as absolute values, in the credit column.
func (s *Service) TrialBalance(ctx context.Context, start, end time.Time) (TrialBalance, error) {
	if err := checkRange(start, end); err != nil {
		return TrialBalance{}, err
	}
	accs, err := s.accounts.ListAccounts(ctx)
	if err != nil {
		return TrialBalance{}, errs.Upstream("list accounts", err)
	}
	bals, err := s.balanceAt(ctx, accs, end)
	if err != nil {
		return TrialBalance{}, err
	}
	tb := TrialBalance{Start: start, End: end, Rows: make([]TrialBalanceRow, 0, len(accs)), TotalDebit: decimal.Zero, TotalCredit: decimal.Zero}
	for i, a := range accs {
		row := TrialBalanceRow{AccountID: a.ID, Code: a.Code, Name: a.Name, Type: a.Type, Debit: decimal.Zero, Credit: decimal.Zero}
		if bals[i].IsPositive() {
			row.Debit = bals[i]
		} else {
			row.Credit = bals[i].Abs()
		}
		tb.TotalDebit = tb.TotalDebit.Add(row.Debit)
		tb.TotalCredit = tb.TotalCredit.Add(row.Credit)
		tb.Rows = append(tb.Rows, row)
	}
	sortByTypeThenCode(tb.Rows)
	tb.Balanced = tb.TotalDebit.Equal(tb.TotalCredit)
	return tb, nil
}

func sortByTypeThenCode(rows []TrialBalanceRow) {
	rank := make(map[ledger.AccountType]int, len(ledger.AccountTypes))
	for i, t := range ledger.AccountTypes {
		rank[t] = i
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rank[rows[i].Type] != rank[rows[j].Type] {
			return rank[rows[i].Type] < rank[rows[j].Type]
		}
		return rows[i].Code < rows[j].Code
	})
}

// periodMovements returns bal(end) - bal(start) for every account of type t.
func (s *Service) periodMovements(ctx context.Context, t ledger.AccountType, start, end time.Time) ([]AccountAmount, decimal.Decimal, error) {
	accs, err := s.byType(ctx, t)
	if err != nil {
		return nil, decimal.Zero, err
	}
	opening, closing, err := s.balancesAt(ctx, accs, start, end)
	if err != nil {
		return nil, decimal.Zero, err
	}
	total := decimal.Zero
	out := make([]AccountAmount, 0, len(accs))
	for i, a := range accs {
		mv := closing[i].Sub(opening[i])
		total = total.Add(mv)
		out = append(out, AccountAmount{AccountID: a.ID, Code: a.Code, Name: a.Name, Type: a.Type, Amount: mv})
	}
	return out, total, nil
}

// IncomeStatement nets the period movement of income against expenses.
func (s *Service) IncomeStatement(ctx context.Context, start, end time.Time) (IncomeStatement, error) {
	if err := checkRange(start, end); err != nil {
		return IncomeStatement{}, err
	}
	rev, totalRev, err := s.periodMovements(ctx, ledger.AccountTypeIncome, start, end)
	if err != nil {
		return IncomeStatement{}, err
	}
	exp, totalExp, err := s.periodMovements(ctx, ledger.AccountTypeExpense, start, end)
	if err != nil {
		return IncomeStatement{}, err
	}
	return IncomeStatement{
		Start:         start,
		End:           end,
		Revenue:       rev,
		Expenses:      exp,
		TotalRevenue:  totalRev,
		TotalExpenses: totalExp,
		NetIncome:     totalRev.Sub(totalExp),
	}, nil
}

func (s *Service) section(ctx context.Context, t ledger.AccountType, asOf time.Time) ([]AccountAmount, decimal.Decimal, error) {
	accs, err := s.byType(ctx, t)
	if err != nil {
		return nil, decimal.Zero, err
	}
	bals, err := s.balanceAt(ctx, accs, asOf)
	if err != nil {
		return nil, decimal.Zero, err
	}
	total := decimal.Zero
	out := make([]AccountAmount, 0, len(accs))
	for i, a := range accs {
		total = total.Add(bals[i])
		out = append(out, AccountAmount{AccountID: a.ID, Code: a.Code, Name: a.Name, Type: a.Type, Amount: bals[i]})
	}
	return out, total, nil
}

// BalanceSheet sums assets, liabilities and equity as of asOf.
func (s *Service) BalanceSheet(ctx context.Context, asOf time.Time) (BalanceSheet, error) {
	bs := BalanceSheet{AsOf: asOf}
	var err error
	if bs.Assets, bs.TotalAssets, err = s.section(ctx, ledger.AccountTypeAsset, asOf); err != nil {
		return BalanceSheet{}, err
	}
	if bs.Liabilities, bs.TotalLiabilities, err = s.section(ctx, ledger.AccountTypeLiability, asOf); err != nil {
		return BalanceSheet{}, err
	}
	if bs.Equity, bs.TotalEquity, err = s.section(ctx, ledger.AccountTypeEquity, asOf); err != nil {
		return BalanceSheet{}, err
	}
	bs.TotalLiabilitiesAndEquity = bs.TotalLiabilities.Add(bs.TotalEquity)
	return bs, nil
}

// CashFlow reports the opening, closing and net change of every cash asset.
func (s *Service) CashFlow(ctx context.Context, start, end time.Time) (CashFlow, error) {
	if err := checkRange(start, end); err != nil {
		return CashFlow{}, err
	}
	assets, err := s.byType(ctx, ledger.AccountTypeAsset)
	if err != nil {
		return CashFlow{}, err
	}
	cash := make([]ledger.Account, 0, len(assets))
	for _, a := range assets {
		if a.IsCash() {
			cash = append(cash, a)
		}
	}
	opening, closing, err := s.balancesAt(ctx, cash, start, end)
	if err != nil {
		return CashFlow{}, err
	}
	cf := CashFlow{Start: start, End: end, Accounts: make([]CashFlowLine, 0, len(cash)), NetChange: decimal.Zero}
	for i, a := range cash {
		net := closing[i].Sub(opening[i])
		cf.Accounts = append(cf.Accounts, CashFlowLine{AccountID: a.ID, Code: a.Code, Name: a.Name, Opening: opening[i], Closing: closing[i], NetChange: net})
		cf.NetChange = cf.NetChange.Add(net)
	}
	return cf, nil
}

// Custom echoes its inputs. No custom report kinds exist yet.
func (s *Service) Custom(reportType string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	fmt.Fprintf(&b, "Custom Report: %s\n", reportType)
	fmt.Fprintf(&b, "Parameters:\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "  %s: %s\n", k, params[k])
	}
	return b.String()
}
