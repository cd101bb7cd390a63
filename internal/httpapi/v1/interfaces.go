package v1

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tinoosan/ledgerd/internal/ledger"
	"github.com/tinoosan/ledgerd/internal/reconciliation"
	"github.com/tinoosan/ledgerd/internal/report"
)

// ReadyChecker is optionally implemented by stores to indicate readiness.
type ReadyChecker interface {
	Ready(ctx context.Context) error
}

// BalanceService derives balances from posted entries.
type BalanceService interface {
	CurrentBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error)
	BalanceAsOf(ctx context.Context, accountID uuid.UUID, cutoff time.Time) (decimal.Decimal, error)
	TotalBalanceByAccountType(ctx context.Context, t ledger.AccountType) (decimal.Decimal, error)
}

type ReconciliationService interface {
	ReconcileAccount(ctx context.Context, accountID uuid.UUID, start, end time.Time) (ledger.Account, error)
	FindUnreconciledTransactions(ctx context.Context, accountID uuid.UUID) ([]uuid.UUID, error)
	MarkTransactionAsReconciled(ctx context.Context, txID uuid.UUID, when time.Time) bool
	BuildReport(ctx context.Context, accountID uuid.UUID, start, end time.Time) (reconciliation.Report, error)
}

type ReportService interface {
	TrialBalance(ctx context.Context, start, end time.Time) (report.TrialBalance, error)
	IncomeStatement(ctx context.Context, start, end time.Time) (report.IncomeStatement, error)
	BalanceSheet(ctx context.Context, asOf time.Time) (report.BalanceSheet, error)
	CashFlow(ctx context.Context, start, end time.Time) (report.CashFlow, error)
	Custom(reportType string, params map[string]string) string
}

type StatementService interface {
	Generate(ctx context.Context, targetID uuid.UUID, isAccountSpace bool, req ledger.StatementRequest) (ledger.Statement, ledger.StatementBody, error)
	GetStatement(ctx context.Context, id uuid.UUID) (ledger.Statement, error)
	StatementDetails(ctx context.Context, id uuid.UUID) (ledger.Statement, ledger.StatementBody, error)
	ListStatements(ctx context.Context, targetID uuid.UUID, isSpace bool, page ledger.Page) ([]ledger.Statement, error)
	ListStatementsByDateRange(ctx context.Context, targetID uuid.UUID, isSpace bool, from, to time.Time, page ledger.Page) ([]ledger.Statement, error)
}

// AuditService reads the change trail.
type AuditService interface {
	Trail(ctx context.Context, q ledger.AuditQuery) ([]ledger.AuditRecord, error)
}

// IdempotencyStore keeps the responses of keyed POSTs for replay.
// SaveIdempotency must keep the first record under a scope and key.
type IdempotencyStore interface {
	GetIdempotency(ctx context.Context, scope, key string) (ledger.IdempotencyRecord, error)
	SaveIdempotency(ctx context.Context, rec ledger.IdempotencyRecord) error
}
