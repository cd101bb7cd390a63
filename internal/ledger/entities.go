package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tinoosan/ledgerd/internal/errs"
	"github.com/tinoosan/ledgerd/internal/meta"
)

// Side represents the accounting position of a ledger entry.
type Side string

const (
	SideDebit  Side = "DEBIT"
	SideCredit Side = "CREDIT"
)

// ParseSide accepts either case.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToUpper(strings.TrimSpace(s))) {
	case SideDebit:
		return SideDebit, nil
	case SideCredit:
		return SideCredit, nil
	}
	return "", errs.Invalid("side must be DEBIT or CREDIT")
}

// Sign returns the multiplier applied when folding an entry into a balance.
// Credits add and debits subtract for every account type, assets included,
// so an asset funded by debits carries a negative balance. Reports read
// balances with this single convention rather than per-type normal sides.
func (s Side) Sign() int {
	if s == SideCredit {
		return 1
	}
	return -1
}

// AccountType enumerates the broad classification of an account in the ledger.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeIncome    AccountType = "INCOME"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// AccountTypes lists the recognised types in reporting order.
var AccountTypes = []AccountType{AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeIncome, AccountTypeExpense}

// ParseAccountType maps s onto one of the five types, ignoring case.
func ParseAccountType(s string) (AccountType, error) {
	t := AccountType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", errs.Invalid("unknown account type " + s)
	}
	return t, nil
}

func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeIncome, AccountTypeExpense:
		return true
	}
	return false
}

// Account is a named bucket that accumulates entries.
type Account struct {
	ID       uuid.UUID
	Code     string
	Name     string
	Type     AccountType
	ParentID *uuid.UUID
	// CashEquivalent tags accounts that take part in the cash-flow statement.
	CashEquivalent bool
	Active         bool
	Metadata       meta.Metadata
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsCash reports whether the account is reported in the cash-flow statement.
// The name match covers accounts created before the explicit flag existed.
func (a Account) IsCash() bool {
	if a.Type != AccountTypeAsset {
		return false
	}
	return a.CashEquivalent || strings.Contains(strings.ToLower(a.Name), "cash")
}

// Entry is one posting against a ledger account. Amount is never negative;
// the sign comes from Side.
type Entry struct {
	ID            uuid.UUID
	AccountID     uuid.UUID
	TransactionID uuid.UUID
	Side          Side
	Amount        decimal.Decimal
	Currency      string
	PostedAt      time.Time
	ExchangeRate  *decimal.Decimal
	CostCenterID  *uuid.UUID
	Notes         string
	CreatedAt     time.Time
}

// Signed returns the amount with the side's sign applied.
func (e Entry) Signed() decimal.Decimal {
	if e.Side == SideCredit {
		return e.Amount
	}
	return e.Amount.Neg()
}

// Before orders entries by posting time, then ID.
func (e Entry) Before(o Entry) bool {
	if e.PostedAt.Equal(o.PostedAt) {
		return e.ID.String() < o.ID.String()
	}
	return e.PostedAt.Before(o.PostedAt)
}

// ReconciliationRecord marks a transaction as matched against an external source.
type ReconciliationRecord struct {
	TransactionID uuid.UUID
	Reconciled    bool
	ReconciledAt  time.Time
}
