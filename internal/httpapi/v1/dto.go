package v1

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tinoosan/ledgerd/internal/ledger"
	"github.com/tinoosan/ledgerd/internal/meta"
)

// Amounts travel as decimal strings in both directions.

// Accounts

type postAccountRequest struct {
	Code           string            `json:"code"`
	Name           string            `json:"name"`
	Type           string            `json:"type"`
	ParentID       *uuid.UUID        `json:"parent_id,omitempty"`
	CashEquivalent bool              `json:"cash_equivalent"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

type patchAccountRequest struct {
	Code           *string           `json:"code"`
	Name           *string           `json:"name"`
	Type           *string           `json:"type"`
	ParentID       *uuid.UUID        `json:"parent_id"`
	ClearParent    bool              `json:"clear_parent"`
	Active         *bool             `json:"active"`
	CashEquivalent *bool             `json:"cash_equivalent"`
	Metadata       map[string]string `json:"metadata"`
}

type accountResponse struct {
	ID             uuid.UUID          `json:"id"`
	Code           string             `json:"code"`
	Name           string             `json:"name"`
	Type           ledger.AccountType `json:"type"`
	ParentID       *uuid.UUID         `json:"parent_id,omitempty"`
	CashEquivalent bool               `json:"cash_equivalent"`
	Active         bool               `json:"active"`
	Metadata       meta.Metadata      `json:"metadata,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

func toAccountResponse(a ledger.Account) accountResponse {
	return accountResponse{
		ID: a.ID, Code: a.Code, Name: a.Name, Type: a.Type, ParentID: a.ParentID,
		CashEquivalent: a.CashEquivalent, Active: a.Active, Metadata: a.Metadata,
		CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt,
	}
}

type listAccountsResponse struct {
	Items []accountResponse `json:"items"`
}

// Balances

type balanceResponse struct {
	AccountID uuid.UUID       `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
	AsOf      *time.Time      `json:"as_of,omitempty"`
}

type typeBalanceResponse struct {
	Type  ledger.AccountType `json:"type"`
	Total decimal.Decimal    `json:"total"`
}

// Entries

type postEntryRequest struct {
	AccountID     uuid.UUID        `json:"account_id"`
	TransactionID *uuid.UUID       `json:"transaction_id,omitempty"`
	Side          string           `json:"side"`
	Amount        decimal.Decimal  `json:"amount"`
	Currency      string           `json:"currency"`
	PostedAt      *time.Time       `json:"posted_at,omitempty"`
	ExchangeRate  *decimal.Decimal `json:"exchange_rate,omitempty"`
	CostCenterID  *uuid.UUID       `json:"cost_center_id,omitempty"`
	Notes         string           `json:"notes,omitempty"`
}

func (req postEntryRequest) toDomain() ledger.Entry {
	e := ledger.Entry{
		AccountID:    req.AccountID,
		Side:         ledger.Side(req.Side),
		Amount:       req.Amount,
		Currency:     req.Currency,
		ExchangeRate: req.ExchangeRate,
		CostCenterID: req.CostCenterID,
		Notes:        req.Notes,
	}
	if req.TransactionID != nil {
		e.TransactionID = *req.TransactionID
	}
	if req.PostedAt != nil {
		e.PostedAt = req.PostedAt.UTC()
	}
	return e
}

type postJournalRequest struct {
	TransactionID *uuid.UUID         `json:"transaction_id,omitempty"`
	Lines         []postEntryRequest `json:"lines"`
}

type patchEntryRequest struct {
	AccountID    *uuid.UUID       `json:"account_id"`
	Side         *string          `json:"side"`
	Amount       *decimal.Decimal `json:"amount"`
	Currency     *string          `json:"currency"`
	PostedAt     *time.Time       `json:"posted_at"`
	ExchangeRate *decimal.Decimal `json:"exchange_rate"`
	CostCenterID *uuid.UUID       `json:"cost_center_id"`
	Notes        *string          `json:"notes"`
}

type entryResponse struct {
	ID            uuid.UUID        `json:"id"`
	AccountID     uuid.UUID        `json:"account_id"`
	TransactionID uuid.UUID        `json:"transaction_id"`
	Side          ledger.Side      `json:"side"`
	Amount        decimal.Decimal  `json:"amount"`
	Currency      string           `json:"currency"`
	PostedAt      time.Time        `json:"posted_at"`
	ExchangeRate  *decimal.Decimal `json:"exchange_rate,omitempty"`
	CostCenterID  *uuid.UUID       `json:"cost_center_id,omitempty"`
	Notes         string           `json:"notes,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

func toEntryResponse(e ledger.Entry) entryResponse {
	return entryResponse{
		ID: e.ID, AccountID: e.AccountID, TransactionID: e.TransactionID, Side: e.Side,
		Amount: e.Amount, Currency: e.Currency, PostedAt: e.PostedAt, ExchangeRate: e.ExchangeRate,
		CostCenterID: e.CostCenterID, Notes: e.Notes, CreatedAt: e.CreatedAt,
	}
}

func toEntryResponses(es []ledger.Entry) []entryResponse {
	out := make([]entryResponse, 0, len(es))
	for _, e := range es {
		out = append(out, toEntryResponse(e))
	}
	return out
}

type listEntriesResponse struct {
	Items []entryResponse `json:"items"`
}

// Transactions

type postTransactionRequest struct {
	AccountID           uuid.UUID         `json:"account_id"`
	AccountSpaceID      *uuid.UUID        `json:"account_space_id,omitempty"`
	Type                string            `json:"type"`
	Status              string            `json:"status,omitempty"`
	Amount              decimal.Decimal   `json:"amount"`
	Currency            string            `json:"currency"`
	Description         string            `json:"description,omitempty"`
	TransactionDate     *time.Time        `json:"transaction_date,omitempty"`
	ValueDate           *time.Time        `json:"value_date,omitempty"`
	BookingDate         *time.Time        `json:"booking_date,omitempty"`
	CounterpartyName    string            `json:"counterparty_name,omitempty"`
	CounterpartyAccount string            `json:"counterparty_account,omitempty"`
	CounterpartyBank    string            `json:"counterparty_bank,omitempty"`
	Reference           string            `json:"reference,omitempty"`
	Metadata            map[string]string `json:"metadata,omitempty"`
}

func utcOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}

func (req postTransactionRequest) toDomain() ledger.Transaction {
	return ledger.Transaction{
		AccountID:           req.AccountID,
		AccountSpaceID:      req.AccountSpaceID,
		Type:                ledger.TransactionType(req.Type),
		Status:              ledger.TransactionStatus(req.Status),
		Amount:              req.Amount,
		Currency:            req.Currency,
		Description:         req.Description,
		TransactionDate:     utcOrZero(req.TransactionDate),
		ValueDate:           utcOrZero(req.ValueDate),
		BookingDate:         utcOrZero(req.BookingDate),
		CounterpartyName:    req.CounterpartyName,
		CounterpartyAccount: req.CounterpartyAccount,
		CounterpartyBank:    req.CounterpartyBank,
		Reference:           req.Reference,
		Metadata:            meta.New(req.Metadata),
	}
}

type transactionResponse struct {
	ID                  uuid.UUID                `json:"id"`
	AccountID           uuid.UUID                `json:"account_id"`
	AccountSpaceID      *uuid.UUID               `json:"account_space_id,omitempty"`
	Type                ledger.TransactionType   `json:"type"`
	Status              ledger.TransactionStatus `json:"status"`
	Amount              decimal.Decimal          `json:"amount"`
	Currency            string                   `json:"currency"`
	Description         string                   `json:"description,omitempty"`
	TransactionDate     time.Time                `json:"transaction_date"`
	ValueDate           time.Time                `json:"value_date"`
	BookingDate         time.Time                `json:"booking_date"`
	CounterpartyName    string                   `json:"counterparty_name,omitempty"`
	CounterpartyAccount string                   `json:"counterparty_account,omitempty"`
	CounterpartyBank    string                   `json:"counterparty_bank,omitempty"`
	Reference           string                   `json:"reference,omitempty"`
	Metadata            meta.Metadata            `json:"metadata,omitempty"`
	CreatedAt           time.Time                `json:"created_at"`
}

func toTransactionResponse(tx ledger.Transaction) transactionResponse {
	return transactionResponse{
		ID: tx.ID, AccountID: tx.AccountID, AccountSpaceID: tx.AccountSpaceID, Type: tx.Type, Status: tx.Status,
		Amount: tx.Amount, Currency: tx.Currency, Description: tx.Description,
		TransactionDate: tx.TransactionDate, ValueDate: tx.ValueDate, BookingDate: tx.BookingDate,
		CounterpartyName: tx.CounterpartyName, CounterpartyAccount: tx.CounterpartyAccount, CounterpartyBank: tx.CounterpartyBank,
		Reference: tx.Reference, Metadata: tx.Metadata, CreatedAt: tx.CreatedAt,
	}
}

type listTransactionsResponse struct {
	Items []transactionResponse `json:"items"`
}

type transactionStatusRequest struct {
	Status string `json:"status"`
}

// Reconciliation

type reconcileRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type reconcileResponse struct {
	Account      accountResponse `json:"account"`
	Unreconciled []uuid.UUID     `json:"unreconciled"`
}

type unreconciledResponse struct {
	AccountID      uuid.UUID   `json:"account_id"`
	TransactionIDs []uuid.UUID `json:"transaction_ids"`
}

type markReconciledResponse struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	Reconciled    bool      `json:"reconciled"`
}

type reconciliationReportResponse struct {
	AccountID      uuid.UUID       `json:"account_id"`
	AccountName    string          `json:"account_name"`
	AccountCode    string          `json:"account_code"`
	Start          time.Time       `json:"start"`
	End            time.Time       `json:"end"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	Unreconciled   []uuid.UUID     `json:"unreconciled"`
}

// Reports

type customReportRequest struct {
	ReportType string            `json:"report_type"`
	Params     map[string]string `json:"params"`
}

type customReportResponse struct {
	ReportType string `json:"report_type"`
	Report     string `json:"report"`
}

// Statements

type statementRequest struct {
	PeriodType     string  `json:"period_type"`
	Month          *int    `json:"month,omitempty"`
	Year           *int    `json:"year,omitempty"`
	Quarter        *int    `json:"quarter,omitempty"`
	StartDate      *string `json:"start_date,omitempty"`
	EndDate        *string `json:"end_date,omitempty"`
	IncludePending bool    `json:"include_pending"`
	IncludeDetails bool    `json:"include_details"`
	Format         string  `json:"format,omitempty"`
}

type statementResponse struct {
	ID               uuid.UUID              `json:"id"`
	TargetID         uuid.UUID              `json:"target_id"`
	AccountSpace     bool                   `json:"account_space"`
	PeriodStart      string                 `json:"period_start"`
	PeriodEnd        string                 `json:"period_end"`
	GeneratedAt      time.Time              `json:"generated_at"`
	Format           ledger.StatementFormat `json:"format"`
	IncludedPending  bool                   `json:"included_pending"`
	IncludedDetails  bool                   `json:"included_details"`
	TransactionCount int                    `json:"transaction_count"`
}

func toStatementResponse(st ledger.Statement) statementResponse {
	return statementResponse{
		ID: st.ID, TargetID: st.TargetID, AccountSpace: st.AccountSpace,
		PeriodStart: st.PeriodStart.Format(time.DateOnly), PeriodEnd: st.PeriodEnd.Format(time.DateOnly),
		GeneratedAt: st.GeneratedAt, Format: st.Format, IncludedPending: st.IncludedPending,
		IncludedDetails: st.IncludedDetails, TransactionCount: st.TransactionCount,
	}
}

type statementEntryResponse struct {
	TransactionID       uuid.UUID                `json:"transaction_id"`
	TransactionDate     time.Time                `json:"transaction_date"`
	ValueDate           time.Time                `json:"value_date"`
	BookingDate         time.Time                `json:"booking_date"`
	Type                ledger.TransactionType   `json:"type"`
	Status              ledger.TransactionStatus `json:"status"`
	Amount              decimal.Decimal          `json:"amount"`
	Currency            string                   `json:"currency"`
	Description         string                   `json:"description,omitempty"`
	CounterpartyName    string                   `json:"counterparty_name,omitempty"`
	CounterpartyAccount string                   `json:"counterparty_account,omitempty"`
	CounterpartyBank    string                   `json:"counterparty_bank,omitempty"`
	RunningBalance      decimal.Decimal          `json:"running_balance"`
}

type statementDetailsResponse struct {
	Statement      statementResponse        `json:"statement"`
	OpeningBalance decimal.Decimal          `json:"opening_balance"`
	ClosingBalance decimal.Decimal          `json:"closing_balance"`
	TotalCredits   decimal.Decimal          `json:"total_credits"`
	TotalDebits    decimal.Decimal          `json:"total_debits"`
	Entries        []statementEntryResponse `json:"entries,omitempty"`
}

// toStatementDetails includes per-transaction lines only when asked to.
func toStatementDetails(st ledger.Statement, body ledger.StatementBody, withEntries bool) statementDetailsResponse {
	out := statementDetailsResponse{
		Statement:      toStatementResponse(st),
		OpeningBalance: body.OpeningBalance,
		ClosingBalance: body.ClosingBalance,
		TotalCredits:   body.TotalCredits,
		TotalDebits:    body.TotalDebits,
	}
	if !withEntries {
		return out
	}
	out.Entries = make([]statementEntryResponse, 0, len(body.Entries))
	for _, e := range body.Entries {
		out.Entries = append(out.Entries, statementEntryResponse{
			TransactionID: e.TransactionID, TransactionDate: e.TransactionDate, ValueDate: e.ValueDate, BookingDate: e.BookingDate,
			Type: e.Type, Status: e.Status, Amount: e.Amount, Currency: e.Currency, Description: e.Description,
			CounterpartyName: e.CounterpartyName, CounterpartyAccount: e.CounterpartyAccount, CounterpartyBank: e.CounterpartyBank,
			RunningBalance: e.RunningBalance,
		})
	}
	return out
}

type listStatementsResponse struct {
	Items []statementResponse `json:"items"`
}
