package postgres

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tinoosan/ledgerd/internal/errs"
	"github.com/tinoosan/ledgerd/internal/ledger"
	"github.com/tinoosan/ledgerd/internal/outbox"
)

func getTestDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping Postgres store tests")
	}
	return dsn
}

func mustOpen(t *testing.T, dsn string) *Store {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := Open(ctx, dsn, WithMaxConns(4))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

// setup migrates the schema (resolved relative to this file) and empties it.
func setup(t *testing.T) *Store {
	t.Helper()
	dsn := getTestDSN(t)
	_, thisFile, _, _ := runtime.Caller(0)
	dir := filepath.Clean(filepath.Join(filepath.Dir(thisFile), "../../../db/migrations"))
	if err := Migrate(dsn, dir); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	s := mustOpen(t, dsn)
	ctx := context.Background()
	if _, err := s.pool.Exec(ctx, `truncate table idempotency_keys, audit_log, transaction_lines, outbox_events, reconciliation_records, statements, transactions, ledger_entries, accounts cascade`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return s
}

func TestMigrateURL(t *testing.T) {
	cases := map[string]string{
		"postgres://u:p@h:5432/db": "pgx5://u:p@h:5432/db",
		"postgresql://h/db?x=1":    "pgx5://h/db?x=1",
		"pgx5://already/converted": "pgx5://already/converted",
	}
	for in, want := range cases {
		if got := migrateURL(in); got != want {
			t.Fatalf("migrateURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStore_AccountsAndEntries(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	if err := s.Ready(ctx); err != nil {
		t.Fatalf("ready: %v", err)
	}
	now := time.Now().UTC().Truncate(time.Microsecond)
	cash := ledger.Account{ID: uuid.New(), Code: "1000", Name: "Cash", Type: ledger.AccountTypeAsset, CashEquivalent: true, Active: true, CreatedAt: now, UpdatedAt: now}
	sales := ledger.Account{ID: uuid.New(), Code: "4000", Name: "Sales", Type: ledger.AccountTypeIncome, Active: true, CreatedAt: now, UpdatedAt: now}
	for _, a := range []ledger.Account{cash, sales} {
		if _, err := s.CreateAccount(ctx, a); err != nil {
			t.Fatalf("create account: %v", err)
		}
	}
	dup := cash
	dup.ID = uuid.New()
	if _, err := s.CreateAccount(ctx, dup); !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("duplicate code: expected ErrConflict, got %v", err)
	}
	got, err := s.GetAccountByCode(ctx, "1000")
	if err != nil || got.ID != cash.ID || !got.IsCash() {
		t.Fatalf("get by code: %+v %v", got, err)
	}
	assets, _ := s.ListAccountsByType(ctx, ledger.AccountTypeAsset)
	if len(assets) != 1 {
		t.Fatalf("expected 1 asset, got %d", len(assets))
	}

	txID := uuid.New()
	t1 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	entries := []ledger.Entry{
		{ID: uuid.New(), AccountID: cash.ID, TransactionID: txID, Side: ledger.SideCredit, Amount: decimal.RequireFromString("100.25"), Currency: "USD", PostedAt: t1, CreatedAt: now},
		{ID: uuid.New(), AccountID: cash.ID, TransactionID: txID, Side: ledger.SideDebit, Amount: decimal.RequireFromString("0.25"), Currency: "USD", PostedAt: t1.Add(time.Hour), CreatedAt: now},
	}
	if err := s.CreateEntries(ctx, entries); err != nil {
		t.Fatalf("create entries: %v", err)
	}
	orphan := []ledger.Entry{{ID: uuid.New(), AccountID: uuid.New(), TransactionID: txID, Side: ledger.SideDebit, Amount: decimal.NewFromInt(1), Currency: "USD", PostedAt: t1}}
	if err := s.CreateEntries(ctx, orphan); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("unknown account: expected ErrNotFound, got %v", err)
	}

	cut := t1.Add(time.Hour)
	var seen []ledger.Entry
	if err := s.StreamAccountEntries(ctx, cash.ID, &cut, func(e ledger.Entry) error {
		seen = append(seen, e)
		return nil
	}); err != nil {
		t.Fatalf("stream: %v", err)
	}
	if len(seen) != 1 || !seen[0].Amount.Equal(decimal.RequireFromString("100.25")) {
		t.Fatalf("cutoff must be exclusive: %+v", seen)
	}

	e := entries[1]
	e.AccountID = sales.ID
	if _, err := s.UpdateEntry(ctx, e); err != nil {
		t.Fatalf("update entry: %v", err)
	}
	if moved, _ := s.ListEntriesByAccount(ctx, sales.ID); len(moved) != 1 {
		t.Fatalf("expected entry moved to sales")
	}
	if err := s.DeleteEntry(ctx, e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetEntry(ctx, e.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_StatementsOutboxAndReconciliation(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	acc := uuid.New()
	day := time.Date(2023, 6, 10, 0, 0, 0, 0, time.UTC)
	tx := ledger.Transaction{ID: uuid.New(), AccountID: acc, Type: ledger.TypeDeposit, Status: ledger.StatusCompleted, Amount: decimal.NewFromInt(500),
		Currency: "EUR", TransactionDate: day, ValueDate: day, BookingDate: day, CreatedAt: day}
	if _, err := s.CreateTransaction(ctx, tx); err != nil {
		t.Fatalf("create tx: %v", err)
	}
	list, err := s.TransactionsByTarget(ctx, acc, false, day, day.AddDate(0, 0, 1))
	if err != nil || len(list) != 1 || !list[0].Amount.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("transactions by target: %+v %v", list, err)
	}

	st := ledger.Statement{ID: uuid.New(), TargetID: acc, PeriodStart: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), PeriodEnd: time.Date(2023, 6, 30, 0, 0, 0, 0, time.UTC),
		GeneratedAt: day, Format: ledger.FormatPDF, TransactionCount: 1}
	evt, err := outbox.NewEvent(outbox.AggregateStatement, st.ID, outbox.EventAccountStatementGenerated, map[string]string{"statement_id": st.ID.String()}, day)
	if err != nil {
		t.Fatalf("event: %v", err)
	}
	if err := s.SaveStatement(ctx, st, evt); err != nil {
		t.Fatalf("save statement: %v", err)
	}
	from := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	got, err := s.ListStatements(ctx, ledger.StatementQuery{TargetID: acc, From: &from})
	if err != nil || len(got) != 1 || !got[0].PeriodEnd.Equal(st.PeriodEnd) {
		t.Fatalf("list statements: %+v %v", got, err)
	}

	pending, err := s.PendingEvents(ctx, 10, day)
	if err != nil || len(pending) != 1 {
		t.Fatalf("pending: %d %v", len(pending), err)
	}
	if err := s.MarkFailed(ctx, evt.ID, 1, day.Add(time.Minute), "boom"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if pending, _ := s.PendingEvents(ctx, 10, day); len(pending) != 0 {
		t.Fatalf("event should wait for its backoff")
	}
	if err := s.MarkDispatched(ctx, evt.ID, day.Add(2*time.Minute)); err != nil {
		t.Fatalf("mark dispatched: %v", err)
	}

	first := day.Add(time.Hour)
	if err := s.MarkReconciled(ctx, tx.ID, first); err != nil {
		t.Fatalf("mark reconciled: %v", err)
	}
	_ = s.MarkReconciled(ctx, tx.ID, first.Add(time.Hour))
	recs, err := s.ReconciliationRecords(ctx, []uuid.UUID{tx.ID, uuid.New()})
	if err != nil || len(recs) != 1 || !recs[tx.ID].ReconciledAt.Equal(first) {
		t.Fatalf("records: %+v %v", recs, err)
	}
}

func TestStore_LinesAuditAndIdempotency(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	tx := ledger.Transaction{ID: uuid.New(), AccountID: uuid.New(), Type: ledger.TypeStandingOrder, Status: ledger.StatusPending, Amount: decimal.NewFromInt(-75),
		Currency: "EUR", TransactionDate: day, ValueDate: day, BookingDate: day, CreatedAt: day}
	if _, err := s.CreateTransaction(ctx, tx); err != nil {
		t.Fatalf("create tx: %v", err)
	}
	end := day.AddDate(1, 0, 0)
	line := ledger.TransactionLine{TransactionID: tx.ID, Kind: ledger.TypeStandingOrder, CreatedAt: day, UpdatedAt: day,
		StandingOrder: &ledger.StandingOrder{Frequency: ledger.FrequencyMonthly, NextExecutionDate: day.AddDate(0, 1, 0), EndDate: &end}}
	if _, err := s.SaveTransactionLine(ctx, line); err != nil {
		t.Fatalf("save line: %v", err)
	}
	got, err := s.GetTransactionLine(ctx, tx.ID)
	if err != nil || got.StandingOrder == nil || got.StandingOrder.Frequency != ledger.FrequencyMonthly || got.StandingOrder.EndDate == nil || !got.StandingOrder.EndDate.Equal(end) {
		t.Fatalf("get line: %+v %v", got, err)
	}
	if _, err := s.SaveTransactionLine(ctx, ledger.TransactionLine{TransactionID: uuid.New(), Kind: ledger.TypeDirectDebit,
		DirectDebit: &ledger.DirectDebit{MandateID: "M1", CreditorID: "C1"}, CreatedAt: day, UpdatedAt: day}); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("line for unknown transaction: expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteTransactionLine(ctx, tx.ID); err != nil {
		t.Fatalf("delete line: %v", err)
	}
	if err := s.DeleteTransactionLine(ctx, tx.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}

	for i, action := range []ledger.AuditAction{ledger.AuditCreate, ledger.AuditUpdate} {
		rec := ledger.AuditRecord{ID: uuid.NewString(), EntityType: ledger.AuditTransaction, EntityID: tx.ID, Action: action,
			Actor: "system", RecordedAt: day.Add(time.Duration(i) * time.Minute)}
		if err := s.AppendAudit(ctx, rec); err != nil {
			t.Fatalf("append audit: %v", err)
		}
	}
	trail, err := s.AuditTrail(ctx, ledger.AuditQuery{EntityID: tx.ID, Page: ledger.Page{}.Normalize()})
	if err != nil || len(trail) != 2 || trail[0].Action != ledger.AuditCreate || trail[1].Action != ledger.AuditUpdate {
		t.Fatalf("audit trail: %+v %v", trail, err)
	}

	rec := ledger.IdempotencyRecord{Scope: "entries", Key: "k1", BodyHash: "h1", Status: 201, Payload: []byte(`{"id":"x"}`), CreatedAt: day}
	if err := s.SaveIdempotency(ctx, rec); err != nil {
		t.Fatalf("save idempotency: %v", err)
	}
	rec.BodyHash = "h2"
	if err := s.SaveIdempotency(ctx, rec); err != nil {
		t.Fatalf("second save: %v", err)
	}
	stored, err := s.GetIdempotency(ctx, "entries", "k1")
	if err != nil || stored.BodyHash != "h1" || string(stored.Payload) != `{"id":"x"}` {
		t.Fatalf("first record should win: %+v %v", stored, err)
	}
	if _, err := s.GetIdempotency(ctx, "journals", "k1"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("scopes must not share keys: %v", err)
	}
}
