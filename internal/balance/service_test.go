package balance_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tinoosan/ledgerd/internal/balance"
	"github.com/tinoosan/ledgerd/internal/errs"
	"github.com/tinoosan/ledgerd/internal/ledger"
	"github.com/tinoosan/ledgerd/internal/storage/memory"
)

var day1 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*memory.Store, *balance.Service) {
	t.Helper()
	store := memory.New()
	return store, balance.New(store, nil)
}

func seedAccount(t *testing.T, store *memory.Store, code, name string, typ ledger.AccountType) ledger.Account {
	t.Helper()
	a := ledger.Account{ID: uuid.New(), Code: code, Name: name, Type: typ, Active: true}
	if _, err := store.CreateAccount(context.Background(), a); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return a
}

func post(t *testing.T, store *memory.Store, acc uuid.UUID, side ledger.Side, amount string, at time.Time) ledger.Entry {
	t.Helper()
	e := ledger.Entry{
		ID:            uuid.New(),
		AccountID:     acc,
		TransactionID: uuid.New(),
		Side:          side,
		Amount:        decimal.RequireFromString(amount),
		Currency:      "USD",
		PostedAt:      at,
	}
	if err := store.CreateEntries(context.Background(), []ledger.Entry{e}); err != nil {
		t.Fatalf("post entry: %v", err)
	}
	return e
}

func TestCurrentBalanceFoldsCreditsMinusDebits(t *testing.T) {
	store, svc := setup(t)
	acc := seedAccount(t, store, "1000", "Cash", ledger.AccountTypeAsset)
	post(t, store, acc.ID, ledger.SideDebit, "100", day1)
	post(t, store, acc.ID, ledger.SideCredit, "50", day1.Add(time.Hour))

	got, err := svc.CurrentBalance(context.Background(), acc.ID)
	if err != nil {
		t.Fatalf("current balance: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(-50)) {
		t.Fatalf("expected -50, got %s", got)
	}
}

func TestCurrentBalanceUnknownAccountIsZero(t *testing.T) {
	_, svc := setup(t)
	got, err := svc.CurrentBalance(context.Background(), uuid.New())
	if err != nil || !got.IsZero() {
		t.Fatalf("expected zero, got %s %v", got, err)
	}
}

func TestBalanceAsOfExcludesCutoff(t *testing.T) {
	store, svc := setup(t)
	acc := seedAccount(t, store, "1000", "Cash", ledger.AccountTypeAsset)
	post(t, store, acc.ID, ledger.SideCredit, "100.00", day1)
	day2 := day1.AddDate(0, 0, 1)
	post(t, store, acc.ID, ledger.SideDebit, "30.00", day2)
	ctx := context.Background()

	cur, _ := svc.CurrentBalance(ctx, acc.ID)
	if !cur.Equal(decimal.RequireFromString("70.00")) {
		t.Fatalf("current: expected 70.00, got %s", cur)
	}
	asOf, err := svc.BalanceAsOf(ctx, acc.ID, day2)
	if err != nil {
		t.Fatalf("as of: %v", err)
	}
	if !asOf.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("cutoff must be exclusive: got %s", asOf)
	}
	after, _ := svc.BalanceAsOf(ctx, acc.ID, day2.Add(time.Microsecond))
	if !after.Equal(cur) {
		t.Fatalf("entry 1µs before cutoff must count: got %s", after)
	}
	if none, _ := svc.BalanceAsOf(ctx, acc.ID, day1); !none.IsZero() {
		t.Fatalf("nothing posted before day1, got %s", none)
	}
}

func TestBalanceAsOfMonotoneUnderAppend(t *testing.T) {
	store, svc := setup(t)
	acc := seedAccount(t, store, "1000", "Cash", ledger.AccountTypeAsset)
	ctx := context.Background()
	cutoff := day1.AddDate(0, 0, 5)
	post(t, store, acc.ID, ledger.SideCredit, "10", day1)
	before, _ := svc.BalanceAsOf(ctx, acc.ID, cutoff)
	post(t, store, acc.ID, ledger.SideCredit, "999", cutoff)
	post(t, store, acc.ID, ledger.SideDebit, "5", cutoff.Add(time.Hour))
	after, _ := svc.BalanceAsOf(ctx, acc.ID, cutoff)
	if !before.Equal(after) {
		t.Fatalf("entries at or after cutoff changed as-of balance: %s -> %s", before, after)
	}
}

func TestTotalBalanceByAccountType(t *testing.T) {
	store, svc := setup(t)
	a := seedAccount(t, store, "4000", "Sales", ledger.AccountTypeIncome)
	b := seedAccount(t, store, "4100", "Interest Income", ledger.AccountTypeIncome)
	c := seedAccount(t, store, "5000", "Rent", ledger.AccountTypeExpense)
	post(t, store, a.ID, ledger.SideCredit, "200", day1)
	post(t, store, b.ID, ledger.SideCredit, "15.5", day1)
	post(t, store, c.ID, ledger.SideDebit, "80", day1)

	got, err := svc.TotalBalanceByAccountType(context.Background(), ledger.AccountTypeIncome)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if !got.Equal(decimal.RequireFromString("215.5")) {
		t.Fatalf("expected 215.5, got %s", got)
	}
	if _, err := svc.TotalBalanceByAccountType(context.Background(), ledger.AccountType("REVENUE")); !errors.Is(err, errs.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestUpdateBalanceIsPassThrough(t *testing.T) {
	store, svc := setup(t)
	acc := seedAccount(t, store, "1000", "Cash", ledger.AccountTypeAsset)
	ctx := context.Background()
	got, err := svc.UpdateBalance(ctx, acc.ID, decimal.NewFromInt(10), true)
	if err != nil || got.ID != acc.ID {
		t.Fatalf("update balance: %+v %v", got, err)
	}
	if bal, _ := svc.CurrentBalance(ctx, acc.ID); !bal.IsZero() {
		t.Fatalf("update must not change the derived balance, got %s", bal)
	}
	if _, err := svc.UpdateBalance(ctx, uuid.New(), decimal.NewFromInt(1), false); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.UpdateBalance(ctx, acc.ID, decimal.NewFromInt(-1), false); !errors.Is(err, errs.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}
