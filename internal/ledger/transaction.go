package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tinoosan/ledgerd/internal/errs"
	"github.com/tinoosan/ledgerd/internal/meta"
)

// TransactionStatus tracks the lifecycle of a business transaction.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusFailed    TransactionStatus = "FAILED"
	StatusCancelled TransactionStatus = "CANCELLED"
	StatusReversed  TransactionStatus = "REVERSED"
)

func ParseTransactionStatus(s string) (TransactionStatus, error) {
	st := TransactionStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatusPending, StatusCompleted, StatusFailed, StatusCancelled, StatusReversed:
		return st, nil
	}
	return "", errs.Invalid("unknown transaction status " + s)
}

// TransactionType classifies the business event. The last three are the
// payment-instrument kinds whose details live in a TransactionLine.
type TransactionType string

const (
	TypeDeposit       TransactionType = "DEPOSIT"
	TypeWithdrawal    TransactionType = "WITHDRAWAL"
	TypeTransfer      TransactionType = "TRANSFER"
	TypePayment       TransactionType = "PAYMENT"
	TypeFee           TransactionType = "FEE"
	TypeInterest      TransactionType = "INTEREST"
	TypeWireTransfer  TransactionType = "WIRE_TRANSFER"
	TypeDirectDebit   TransactionType = "DIRECT_DEBIT"
	TypeStandingOrder TransactionType = "STANDING_ORDER"
)

func ParseTransactionType(s string) (TransactionType, error) {
	tt := TransactionType(strings.ToUpper(strings.TrimSpace(s)))
	switch tt {
	case TypeDeposit, TypeWithdrawal, TypeTransfer, TypePayment, TypeFee, TypeInterest,
		TypeWireTransfer, TypeDirectDebit, TypeStandingOrder:
		return tt, nil
	}
	return "", errs.Invalid("unknown transaction type " + s)
}

// Transaction is a business-level event scoped to an account and optionally
// to one of its account spaces. Amount is signed: inflows positive.
type Transaction struct {
	ID                  uuid.UUID
	AccountID           uuid.UUID
	AccountSpaceID      *uuid.UUID
	Type                TransactionType
	Status              TransactionStatus
	Amount              decimal.Decimal
	Currency            string
	Description         string
	TransactionDate     time.Time
	ValueDate           time.Time
	BookingDate         time.Time
	CounterpartyName    string
	CounterpartyAccount string
	CounterpartyBank    string
	Reference           string
	Metadata            meta.Metadata
	CreatedAt           time.Time
}
