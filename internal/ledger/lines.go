package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/ledgerd/internal/errs"
)

// Frequency is how often a standing order executes.
type Frequency string

const (
	FrequencyWeekly    Frequency = "WEEKLY"
	FrequencyMonthly   Frequency = "MONTHLY"
	FrequencyQuarterly Frequency = "QUARTERLY"
	FrequencyYearly    Frequency = "YEARLY"
)

func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToUpper(strings.TrimSpace(s)))
	switch f {
	case FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return f, nil
	}
	return "", errs.Invalid("unknown frequency " + s)
}

// Next returns the execution date following t.
func (f Frequency) Next(t time.Time) time.Time {
	switch f {
	case FrequencyWeekly:
		return t.AddDate(0, 0, 7)
	case FrequencyQuarterly:
		return t.AddDate(0, 3, 0)
	case FrequencyYearly:
		return t.AddDate(1, 0, 0)
	default:
		return t.AddDate(0, 1, 0)
	}
}

type WireTransfer struct {
	BeneficiaryName string
	IBAN            string
	BIC             string
	BankName        string
}

type DirectDebit struct {
	MandateID  string
	CreditorID string
}

type StandingOrder struct {
	Frequency         Frequency
	NextExecutionDate time.Time
	EndDate           *time.Time
}

// TransactionLine carries the instrument details of a WIRE_TRANSFER,
// DIRECT_DEBIT or STANDING_ORDER transaction. Exactly one detail pointer is
// set and it matches Kind. A transaction has at most one line.
type TransactionLine struct {
	TransactionID uuid.UUID
	Kind          TransactionType
	Wire          *WireTransfer
	DirectDebit   *DirectDebit
	StandingOrder *StandingOrder
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasLine reports whether transactions of type t carry instrument details.
func (t TransactionType) HasLine() bool {
	switch t {
	case TypeWireTransfer, TypeDirectDebit, TypeStandingOrder:
		return true
	}
	return false
}
