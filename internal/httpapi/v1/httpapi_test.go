package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tinoosan/ledgerd/internal/audit"
	"github.com/tinoosan/ledgerd/internal/balance"
	"github.com/tinoosan/ledgerd/internal/ledger"
	"github.com/tinoosan/ledgerd/internal/outbox"
	"github.com/tinoosan/ledgerd/internal/reconciliation"
	"github.com/tinoosan/ledgerd/internal/report"
	"github.com/tinoosan/ledgerd/internal/service/account"
	"github.com/tinoosan/ledgerd/internal/service/journal"
	"github.com/tinoosan/ledgerd/internal/service/transaction"
	"github.com/tinoosan/ledgerd/internal/statement"
	"github.com/tinoosan/ledgerd/internal/storage/memory"
)

var _ IdempotencyStore = (*memory.Store)(nil)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type errResp struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type acctResp struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type entryResp struct {
	ID            string `json:"id"`
	AccountID     string `json:"account_id"`
	TransactionID string `json:"transaction_id"`
	Side          string `json:"side"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
}

func newHandler(t *testing.T, store *memory.Store, auth AuthConfig) http.Handler {
	t.Helper()
	log := testLogger()
	bal := balance.New(store, log)
	trail := audit.New(store, log)
	deps := Deps{
		Accounts:       account.New(store, store, log, account.WithAudit(trail)),
		Journal:        journal.New(store, store, log, journal.WithAudit(trail)),
		Transactions:   transaction.New(store, store, log, transaction.WithAudit(trail)),
		Balances:       bal,
		Reconciliation: reconciliation.New(store, store, bal, log),
		Reports:        report.New(store, bal, log),
		Statements:     statement.New(store, store, log, statement.WithAudit(trail)),
		Audit:          trail,
		Idempotency:    store,
		Ready:          []ReadyChecker{store},
		Auth:           auth,
	}
	return New(deps, log).Handler()
}

func setup(t *testing.T) (*memory.Store, http.Handler, ledger.Account, ledger.Account) {
	t.Helper()
	store := memory.New()
	ctx := context.Background()
	cash := ledger.Account{ID: uuid.New(), Code: "1000", Name: "Cash", Type: ledger.AccountTypeAsset, CashEquivalent: true, Active: true}
	sales := ledger.Account{ID: uuid.New(), Code: "4000", Name: "Sales", Type: ledger.AccountTypeIncome, Active: true}
	for _, a := range []ledger.Account{cash, sales} {
		if _, err := store.CreateAccount(ctx, a); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return store, newHandler(t, store, AuthConfig{}), cash, sales
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return doKeyed(t, h, method, path, "", body)
}

// doKeyed sends body with an Idempotency-Key header when key is set.
func doKeyed(t *testing.T, h http.Handler, method, path, key string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func postJournal(t *testing.T, h http.Handler, debit, credit uuid.UUID, amount string, at time.Time) []entryResp {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/v1/journals", map[string]any{
		"lines": []map[string]any{
			{"account_id": debit.String(), "side": "debit", "amount": amount, "currency": "USD", "posted_at": at.Format(time.RFC3339)},
			{"account_id": credit.String(), "side": "credit", "amount": amount, "currency": "USD", "posted_at": at.Format(time.RFC3339)},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("post journal: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Items []entryResp `json:"items"`
	}
	decode(t, rec, &out)
	return out.Items
}

func TestAccounts_CreateListAndConflict(t *testing.T) {
	_, h, _, _ := setup(t)

	rec := do(t, h, http.MethodPost, "/v1/accounts", map[string]any{"code": "2000", "name": "Accounts Payable", "type": "liability"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var acc acctResp
	decode(t, rec, &acc)
	if acc.Type != "LIABILITY" || acc.Code != "2000" {
		t.Fatalf("unexpected account: %+v", acc)
	}

	rec = do(t, h, http.MethodPost, "/v1/accounts", map[string]any{"code": "2000", "name": "Dup", "type": "LIABILITY"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate code: expected 409, got %d", rec.Code)
	}
	rec = do(t, h, http.MethodPost, "/v1/accounts", map[string]any{"code": "3000", "name": "X", "type": "REVENUE"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad type: expected 400, got %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/v1/accounts?type=LIABILITY", nil)
	var list struct {
		Items []acctResp `json:"items"`
	}
	decode(t, rec, &list)
	if len(list.Items) != 1 || list.Items[0].ID != acc.ID {
		t.Fatalf("type filter: %+v", list.Items)
	}

	rec = do(t, h, http.MethodPatch, "/v1/accounts/"+acc.ID, map[string]any{"name": "Trade Payables"})
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Trade Payables") {
		t.Fatalf("patch: %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, h, http.MethodDelete, "/v1/accounts/"+acc.ID, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("deactivate: expected 204, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/v1/accounts/"+uuid.NewString(), nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown account: expected 404, got %d", rec.Code)
	}
}

func TestJournalAndBalances(t *testing.T) {
	_, h, cash, sales := setup(t)
	day := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	lines := postJournal(t, h, cash.ID, sales.ID, "100.50", day)
	if len(lines) != 2 || lines[0].TransactionID != lines[1].TransactionID {
		t.Fatalf("journal lines must share a transaction: %+v", lines)
	}

	rec := do(t, h, http.MethodPost, "/v1/journals", map[string]any{
		"lines": []map[string]any{
			{"account_id": cash.ID.String(), "side": "DEBIT", "amount": "10", "currency": "USD"},
			{"account_id": sales.ID.String(), "side": "CREDIT", "amount": "9", "currency": "USD"},
		},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unbalanced: expected 400, got %d", rec.Code)
	}

	var bal struct {
		Balance string `json:"balance"`
	}
	decode(t, do(t, h, http.MethodGet, "/v1/accounts/"+cash.ID.String()+"/balance", nil), &bal)
	if bal.Balance != "-100.5" {
		t.Fatalf("debit must reduce balance, got %s", bal.Balance)
	}
	decode(t, do(t, h, http.MethodGet, "/v1/accounts/"+cash.ID.String()+"/balance?as_of="+day.Format(time.RFC3339), nil), &bal)
	if bal.Balance != "0" {
		t.Fatalf("as_of cutoff is exclusive, got %s", bal.Balance)
	}
	var total struct {
		Total string `json:"total"`
	}
	decode(t, do(t, h, http.MethodGet, "/v1/balances/by-type/income", nil), &total)
	if total.Total != "100.5" {
		t.Fatalf("income total: %s", total.Total)
	}

	var entries struct {
		Items []entryResp `json:"items"`
	}
	decode(t, do(t, h, http.MethodGet, "/v1/entries?account_id="+cash.ID.String(), nil), &entries)
	if len(entries.Items) != 1 || entries.Items[0].Side != "DEBIT" {
		t.Fatalf("entries by account: %+v", entries.Items)
	}
	rec = do(t, h, http.MethodPatch, "/v1/entries/"+entries.Items[0].ID, map[string]any{"amount": "90"})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch entry: %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, h, http.MethodDelete, "/v1/entries/"+entries.Items[0].ID, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete entry: %d", rec.Code)
	}
}

func TestTransactionsAndStatements(t *testing.T) {
	store, h, _, _ := setup(t)
	acc := uuid.New()
	txs := []map[string]any{
		{"account_id": acc, "type": "deposit", "status": "COMPLETED", "amount": "500", "currency": "EUR", "transaction_date": "2023-06-10T00:00:00Z"},
		{"account_id": acc, "type": "payment", "status": "COMPLETED", "amount": "-120", "currency": "EUR", "transaction_date": "2023-06-20T00:00:00Z"},
		{"account_id": acc, "type": "fee", "amount": "-5", "currency": "EUR", "transaction_date": "2023-06-25T00:00:00Z"},
	}
	for _, tx := range txs {
		if rec := do(t, h, http.MethodPost, "/v1/transactions", tx); rec.Code != http.StatusCreated {
			t.Fatalf("create transaction: %d %s", rec.Code, rec.Body.String())
		}
	}
	var listed struct {
		Items []struct {
			Status string `json:"status"`
		} `json:"items"`
	}
	decode(t, do(t, h, http.MethodGet, "/v1/transactions?account_id="+acc.String()+"&from=2023-06-01&to=2023-07-01", nil), &listed)
	if len(listed.Items) != 3 || listed.Items[2].Status != "PENDING" {
		t.Fatalf("list transactions: %+v", listed.Items)
	}

	rec := do(t, h, http.MethodPost, "/v1/accounts/"+acc.String()+"/statements", map[string]any{"period_type": "MONTHLY", "month": 6, "year": 2023, "include_details": true})
	if rec.Code != http.StatusCreated {
		t.Fatalf("generate: %d %s", rec.Code, rec.Body.String())
	}
	var det struct {
		Statement struct {
			ID               string `json:"id"`
			PeriodStart      string `json:"period_start"`
			PeriodEnd        string `json:"period_end"`
			Format           string `json:"format"`
			TransactionCount int    `json:"transaction_count"`
		} `json:"statement"`
		OpeningBalance string `json:"opening_balance"`
		ClosingBalance string `json:"closing_balance"`
		Entries        []struct {
			RunningBalance string `json:"running_balance"`
		} `json:"entries"`
	}
	decode(t, rec, &det)
	if det.Statement.PeriodStart != "2023-06-01" || det.Statement.PeriodEnd != "2023-06-30" || det.Statement.Format != "PDF" {
		t.Fatalf("statement period/format: %+v", det.Statement)
	}
	if det.Statement.TransactionCount != 2 || det.OpeningBalance != "0" || det.ClosingBalance != "380" {
		t.Fatalf("pending must be excluded: %+v", det)
	}
	if len(det.Entries) != 2 || det.Entries[0].RunningBalance != "500" {
		t.Fatalf("running balance: %+v", det.Entries)
	}

	evts := store.Events()
	if len(evts) != 1 || evts[0].EventType != outbox.EventAccountStatementGenerated {
		t.Fatalf("expected one statement event, got %+v", evts)
	}

	var sts struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	decode(t, do(t, h, http.MethodGet, "/v1/accounts/"+acc.String()+"/statements?from=2023-01-01&to=2023-12-31", nil), &sts)
	if len(sts.Items) != 1 || sts.Items[0].ID != det.Statement.ID {
		t.Fatalf("list statements: %+v", sts.Items)
	}
	if rec := do(t, h, http.MethodGet, "/v1/statements/"+det.Statement.ID+"/details", nil); rec.Code != http.StatusOK {
		t.Fatalf("details: %d", rec.Code)
	}
	rec = do(t, h, http.MethodPost, "/v1/account-spaces/"+acc.String()+"/statements", map[string]any{"period_type": "CUSTOM", "start_date": "2023-06-30", "end_date": "2023-06-01"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("inverted custom period: expected 400, got %d", rec.Code)
	}
}

func TestReconciliationFlow(t *testing.T) {
	_, h, cash, sales := setup(t)
	day := time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC)
	lines := postJournal(t, h, sales.ID, cash.ID, "75", day)
	txID := lines[0].TransactionID

	var un struct {
		TransactionIDs []string `json:"transaction_ids"`
	}
	decode(t, do(t, h, http.MethodGet, "/v1/accounts/"+cash.ID.String()+"/unreconciled", nil), &un)
	if len(un.TransactionIDs) != 1 || un.TransactionIDs[0] != txID {
		t.Fatalf("unreconciled: %+v", un)
	}
	if rec := do(t, h, http.MethodPost, "/v1/transactions/"+txID+"/reconcile", nil); rec.Code != http.StatusOK {
		t.Fatalf("mark: %d %s", rec.Code, rec.Body.String())
	}
	decode(t, do(t, h, http.MethodGet, "/v1/accounts/"+cash.ID.String()+"/unreconciled", nil), &un)
	if len(un.TransactionIDs) != 0 {
		t.Fatalf("expected nothing left, got %+v", un)
	}

	rec := do(t, h, http.MethodGet, "/v1/accounts/"+cash.ID.String()+"/reconciliation-report?start=2024-04-01&end=2024-04-30&format=text", nil)
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("text report: %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), "Closing Balance: 75.00") {
		t.Fatalf("report body: %s", rec.Body.String())
	}

	rec = do(t, h, http.MethodPost, "/v1/accounts/"+cash.ID.String()+"/reconcile", map[string]any{"start": "2024-04-01", "end": "2024-04-02"})
	if rec.Code != http.StatusOK {
		t.Fatalf("reconcile account: %d %s", rec.Code, rec.Body.String())
	}
}

func TestReports(t *testing.T) {
	_, h, cash, sales := setup(t)
	postJournal(t, h, sales.ID, cash.ID, "40", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))

	var tb struct {
		Balanced bool `json:"balanced"`
		Rows     []struct {
			Code string `json:"code"`
		} `json:"rows"`
	}
	decode(t, do(t, h, http.MethodGet, "/v1/reports/trial-balance?start=2024-01-01&end=2024-02-01", nil), &tb)
	if !tb.Balanced || len(tb.Rows) != 2 || tb.Rows[0].Code != "1000" {
		t.Fatalf("trial balance: %+v", tb)
	}
	rec := do(t, h, http.MethodGet, "/v1/reports/cash-flow?start=2024-01-01&end=2024-02-01&format=text", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Cash") {
		t.Fatalf("cash flow text: %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, h, http.MethodGet, "/v1/reports/income-statement?start=2024-02-01&end=2024-01-01", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("inverted range: expected 400, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/v1/reports/trial-balance", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing range: expected 400, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/v1/reports/balance-sheet", nil); rec.Code != http.StatusOK {
		t.Fatalf("balance sheet: %d", rec.Code)
	}
	rec = do(t, h, http.MethodPost, "/v1/reports/custom", map[string]any{"report_type": "aging", "params": map[string]string{"b": "2", "a": "1"}})
	var custom struct {
		Report string `json:"report"`
	}
	decode(t, rec, &custom)
	if !strings.HasPrefix(custom.Report, "Custom Report: aging") || strings.Index(custom.Report, "a: 1") > strings.Index(custom.Report, "b: 2") {
		t.Fatalf("custom report: %q", custom.Report)
	}
}

func TestUnsupportedMediaType(t *testing.T) {
	_, h, _, _ := setup(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/accounts", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", rec.Code)
	}
	var er errResp
	decode(t, rec, &er)
	if er.Code != "unsupported_media_type" {
		t.Fatalf("unexpected error code: %+v", er)
	}
}

func TestJWTAuth(t *testing.T) {
	store := memory.New()
	const secret = "test-secret"
	h := newHandler(t, store, AuthConfig{Secret: secret, Issuer: "ledger-tests"})

	if rec := do(t, h, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Fatalf("healthz must stay open: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/v1/dictionary/chart?type=asset", nil); rec.Code != http.StatusOK {
		t.Fatalf("dictionary must stay open: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/v1/accounts", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	sign := func(iss string) string {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Issuer:    iss,
			Subject:   "tester",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		s, err := tok.SignedString([]byte(secret))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}
	call := func(token string) int {
		req := httptest.NewRequest(http.MethodGet, "/v1/accounts", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	if code := call(sign("ledger-tests")); code != http.StatusOK {
		t.Fatalf("valid token: expected 200, got %d", code)
	}
	if code := call(sign("someone-else")); code != http.StatusUnauthorized {
		t.Fatalf("wrong issuer: expected 401, got %d", code)
	}
}

func TestReadyz(t *testing.T) {
	_, h, _, _ := setup(t)
	if rec := do(t, h, http.MethodGet, "/readyz", nil); rec.Code != http.StatusOK {
		t.Fatalf("readyz: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/metrics", nil); rec.Code != http.StatusOK {
		t.Fatalf("metrics: %d", rec.Code)
	}
}

func TestIdempotencyKeys_Entries(t *testing.T) {
	_, h, cash, _ := setup(t)
	body := map[string]any{"account_id": cash.ID.String(), "side": "credit", "amount": "10", "currency": "USD"}

	rec := doKeyed(t, h, http.MethodPost, "/v1/entries", "entry-1", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var first entryResp
	decode(t, rec, &first)

	rec = doKeyed(t, h, http.MethodPost, "/v1/entries", "entry-1", body)
	if rec.Code != http.StatusOK || rec.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatalf("replay: expected 200 replayed, got %d %q", rec.Code, rec.Header().Get("Idempotent-Replayed"))
	}
	var again entryResp
	decode(t, rec, &again)
	if again.ID != first.ID {
		t.Fatalf("replay must return the stored entry: %s vs %s", again.ID, first.ID)
	}

	changed := map[string]any{"account_id": cash.ID.String(), "side": "credit", "amount": "11", "currency": "USD"}
	rec = doKeyed(t, h, http.MethodPost, "/v1/entries", "entry-1", changed)
	var er errResp
	decode(t, rec, &er)
	if rec.Code != http.StatusConflict || er.Code != "idempotency_mismatch" {
		t.Fatalf("different body: expected 409 idempotency_mismatch, got %d %+v", rec.Code, er)
	}

	rec = do(t, h, http.MethodPost, "/v1/entries", body)
	var unkeyed entryResp
	decode(t, rec, &unkeyed)
	if rec.Code != http.StatusCreated || unkeyed.ID == first.ID {
		t.Fatalf("no key must create a new entry: %d %s", rec.Code, unkeyed.ID)
	}

	var bal struct {
		Balance string `json:"balance"`
	}
	decode(t, do(t, h, http.MethodGet, "/v1/accounts/"+cash.ID.String()+"/balance", nil), &bal)
	if bal.Balance != "20" {
		t.Fatalf("expected two postings, balance %s", bal.Balance)
	}
}

func TestIdempotencyKeys_FailuresAreNotStored(t *testing.T) {
	_, h, cash, _ := setup(t)
	bad := map[string]any{"account_id": uuid.NewString(), "side": "credit", "amount": "10", "currency": "USD"}
	if rec := doKeyed(t, h, http.MethodPost, "/v1/entries", "retry-me", bad); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown account: expected 404, got %d", rec.Code)
	}
	if rec := doKeyed(t, h, http.MethodPost, "/v1/entries", "retry-me", bad); rec.Code != http.StatusNotFound {
		t.Fatalf("failed request must run again, got %d", rec.Code)
	}
	good := map[string]any{"account_id": cash.ID.String(), "side": "credit", "amount": "10", "currency": "USD"}
	if rec := doKeyed(t, h, http.MethodPost, "/v1/entries", "fresh", good); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestIdempotencyKeys_JournalsAndStatements(t *testing.T) {
	store, h, cash, sales := setup(t)
	body := map[string]any{
		"lines": []map[string]any{
			{"account_id": cash.ID.String(), "side": "debit", "amount": "5", "currency": "USD"},
			{"account_id": sales.ID.String(), "side": "credit", "amount": "5", "currency": "USD"},
		},
	}
	var a, b struct {
		Items []entryResp `json:"items"`
	}
	decode(t, doKeyed(t, h, http.MethodPost, "/v1/journals", "j-1", body), &a)
	rec := doKeyed(t, h, http.MethodPost, "/v1/journals", "j-1", body)
	decode(t, rec, &b)
	if rec.Code != http.StatusOK || len(a.Items) != 2 || len(b.Items) != 2 || a.Items[0].TransactionID != b.Items[0].TransactionID {
		t.Fatalf("journal replay: %d %+v %+v", rec.Code, a.Items, b.Items)
	}

	// The same key on another endpoint is a separate request.
	entry := map[string]any{"account_id": cash.ID.String(), "side": "credit", "amount": "5", "currency": "USD"}
	if rec := doKeyed(t, h, http.MethodPost, "/v1/entries", "j-1", entry); rec.Code != http.StatusCreated {
		t.Fatalf("key scoped per endpoint: expected 201, got %d", rec.Code)
	}

	acc := uuid.New()
	req := map[string]any{"period_type": "MONTHLY", "month": 6, "year": 2023}
	var s1, s2 struct {
		Statement struct {
			ID string `json:"id"`
		} `json:"statement"`
	}
	rec = doKeyed(t, h, http.MethodPost, "/v1/accounts/"+acc.String()+"/statements", "st-1", req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("generate: %d %s", rec.Code, rec.Body.String())
	}
	decode(t, rec, &s1)
	rec = doKeyed(t, h, http.MethodPost, "/v1/accounts/"+acc.String()+"/statements", "st-1", req)
	decode(t, rec, &s2)
	if rec.Code != http.StatusOK || s1.Statement.ID != s2.Statement.ID {
		t.Fatalf("statement replay: %d %s vs %s", rec.Code, s1.Statement.ID, s2.Statement.ID)
	}
	if evts := store.Events(); len(evts) != 1 {
		t.Fatalf("replay must not emit a second event, got %d", len(evts))
	}
}

type auditResp struct {
	Items []struct {
		EntityType string            `json:"entity_type"`
		EntityID   string            `json:"entity_id"`
		Action     string            `json:"action"`
		Actor      string            `json:"actor"`
		Details    map[string]string `json:"details"`
	} `json:"items"`
}

func TestAuditTrail(t *testing.T) {
	_, h, cash, sales := setup(t)

	rec := do(t, h, http.MethodPost, "/v1/accounts", map[string]any{"code": "2000", "name": "Payables", "type": "liability"})
	var acc acctResp
	decode(t, rec, &acc)
	do(t, h, http.MethodPatch, "/v1/accounts/"+acc.ID, map[string]any{"name": "Trade Payables"})
	do(t, h, http.MethodDelete, "/v1/accounts/"+acc.ID, nil)

	var trail auditResp
	decode(t, do(t, h, http.MethodGet, "/v1/audit?entity_id="+acc.ID, nil), &trail)
	if len(trail.Items) != 3 {
		t.Fatalf("expected create, update, deactivate; got %+v", trail.Items)
	}
	if trail.Items[0].Action != "CREATE" || trail.Items[1].Action != "UPDATE" || trail.Items[1].Details["name"] != "Trade Payables" {
		t.Fatalf("unexpected trail: %+v", trail.Items)
	}
	if trail.Items[2].Details["active"] != "false" || trail.Items[0].Actor != "system" {
		t.Fatalf("unexpected trail: %+v", trail.Items)
	}

	lines := postJournal(t, h, cash.ID, sales.ID, "12", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	decode(t, do(t, h, http.MethodGet, "/v1/audit?entity_type=entry", nil), &trail)
	if len(trail.Items) != 2 || trail.Items[0].EntityID != lines[0].ID {
		t.Fatalf("entry trail: %+v", trail.Items)
	}
	if rec := do(t, h, http.MethodDelete, "/v1/entries/"+lines[0].ID, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete entry: %d", rec.Code)
	}
	decode(t, do(t, h, http.MethodGet, "/v1/audit?entity_id="+lines[0].ID, nil), &trail)
	if len(trail.Items) != 2 || trail.Items[1].Action != "DELETE" {
		t.Fatalf("delete must be recorded: %+v", trail.Items)
	}

	if rec := do(t, h, http.MethodGet, "/v1/audit", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing filter: expected 400, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/v1/audit?entity_type=invoice", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown entity type: expected 400, got %d", rec.Code)
	}
}

func TestAuditActorFromToken(t *testing.T) {
	store := memory.New()
	const secret = "test-secret"
	h := newHandler(t, store, AuthConfig{Secret: secret})
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	send := func(method, path string, body string) *httptest.ResponseRecorder {
		var rdr io.Reader
		if body != "" {
			rdr = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, path, rdr)
		req.Header.Set("Authorization", "Bearer "+tok)
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}
	rec := send(http.MethodPost, "/v1/accounts", `{"code":"1100","name":"Bank","type":"asset"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	var acc acctResp
	decode(t, rec, &acc)
	var trail auditResp
	decode(t, send(http.MethodGet, "/v1/audit?entity_id="+acc.ID, ""), &trail)
	if len(trail.Items) != 1 || trail.Items[0].Actor != "alice" {
		t.Fatalf("actor should come from the token subject: %+v", trail.Items)
	}
}

func TestTransactionLines(t *testing.T) {
	_, h, _, _ := setup(t)
	acc := uuid.New()
	rec := do(t, h, http.MethodPost, "/v1/transactions", map[string]any{"account_id": acc, "type": "wire_transfer", "amount": "-250", "currency": "EUR"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	var tx struct {
		ID string `json:"id"`
	}
	decode(t, rec, &tx)
	path := "/v1/transactions/" + tx.ID + "/line"

	if rec := do(t, h, http.MethodGet, path, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("no line yet: expected 404, got %d", rec.Code)
	}
	rec = do(t, h, http.MethodPut, path, map[string]any{
		"wire_transfer": map[string]any{"beneficiary_name": "Ada Lovelace", "iban": "gb82 west 1234 5698 7654 32", "bic": "NWBKGB2L"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("put: %d %s", rec.Code, rec.Body.String())
	}
	var line struct {
		Kind         string `json:"kind"`
		WireTransfer struct {
			IBAN string `json:"iban"`
		} `json:"wire_transfer"`
	}
	decode(t, do(t, h, http.MethodGet, path, nil), &line)
	if line.Kind != "WIRE_TRANSFER" || line.WireTransfer.IBAN != "GB82WEST12345698765432" {
		t.Fatalf("stored line: %+v", line)
	}

	if rec := do(t, h, http.MethodPut, path, map[string]any{"direct_debit": map[string]any{"mandate_id": "M-1", "creditor_id": "C-1"}}); rec.Code != http.StatusBadRequest {
		t.Fatalf("kind mismatch: expected 400, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPut, path, map[string]any{"wire_transfer": map[string]any{"beneficiary_name": "Ada", "iban": "not-an-iban"}}); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad iban: expected 400, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPut, "/v1/transactions/"+uuid.NewString()+"/line", map[string]any{"wire_transfer": map[string]any{"beneficiary_name": "Ada", "iban": "GB82WEST12345698765432"}}); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown transaction: expected 404, got %d", rec.Code)
	}

	if rec := do(t, h, http.MethodDelete, path, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, path, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("after delete: expected 404, got %d", rec.Code)
	}

	var trail auditResp
	decode(t, do(t, h, http.MethodGet, "/v1/audit?entity_id="+tx.ID+"&entity_type=transaction_line", nil), &trail)
	if len(trail.Items) != 2 || trail.Items[0].Action != "CREATE" || trail.Items[1].Action != "DELETE" {
		t.Fatalf("line trail: %+v", trail.Items)
	}
}

func TestStatementCustomDatesKeepCallerDay(t *testing.T) {
	_, h, _, _ := setup(t)
	acc := uuid.New()
	rec := do(t, h, http.MethodPost, "/v1/accounts/"+acc.String()+"/statements", map[string]any{
		"period_type": "CUSTOM",
		"start_date":  "2023-06-01T00:30:00+02:00",
		"end_date":    "2023-06-30T23:00:00-05:00",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("generate: %d %s", rec.Code, rec.Body.String())
	}
	var det struct {
		Statement struct {
			PeriodStart string `json:"period_start"`
			PeriodEnd   string `json:"period_end"`
		} `json:"statement"`
	}
	decode(t, rec, &det)
	if det.Statement.PeriodStart != "2023-06-01" || det.Statement.PeriodEnd != "2023-06-30" {
		t.Fatalf("period shifted: %+v", det.Statement)
	}
}

func TestReconciliationReportExcludesEndDay(t *testing.T) {
	_, h, cash, sales := setup(t)
	postJournal(t, h, sales.ID, cash.ID, "75", time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC))

	var rep struct {
		ClosingBalance string `json:"closing_balance"`
	}
	decode(t, do(t, h, http.MethodGet, "/v1/accounts/"+cash.ID.String()+"/reconciliation-report?start=2024-04-01&end=2024-04-02", nil), &rep)
	if rep.ClosingBalance != "0" {
		t.Fatalf("posting on the end day must not count, got %s", rep.ClosingBalance)
	}
	decode(t, do(t, h, http.MethodGet, "/v1/accounts/"+cash.ID.String()+"/reconciliation-report?start=2024-04-01&end=2024-04-03", nil), &rep)
	if rep.ClosingBalance != "75" {
		t.Fatalf("closing balance: %s", rep.ClosingBalance)
	}
}
