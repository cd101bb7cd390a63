package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tinoosan/ledgerd/internal/errs"
)

// PeriodType selects how a statement period is derived from a request.
type PeriodType string

const (
	PeriodMonthly   PeriodType = "MONTHLY"
	PeriodQuarterly PeriodType = "QUARTERLY"
	PeriodYearly    PeriodType = "YEARLY"
	PeriodCustom    PeriodType = "CUSTOM"
)

func ParsePeriodType(s string) (PeriodType, error) {
	p := PeriodType(strings.ToUpper(strings.TrimSpace(s)))
	switch p {
	case PeriodMonthly, PeriodQuarterly, PeriodYearly, PeriodCustom:
		return p, nil
	}
	return "", errs.Invalid("unknown period type " + s)
}

type StatementFormat string

const (
	FormatPDF  StatementFormat = "PDF"
	FormatCSV  StatementFormat = "CSV"
	FormatJSON StatementFormat = "JSON"
	FormatText StatementFormat = "TEXT"
)

func ParseStatementFormat(s string) (StatementFormat, error) {
	if strings.TrimSpace(s) == "" {
		return FormatPDF, nil
	}
	f := StatementFormat(strings.ToUpper(strings.TrimSpace(s)))
	switch f {
	case FormatPDF, FormatCSV, FormatJSON, FormatText:
		return f, nil
	}
	return "", errs.Invalid("unknown statement format " + s)
}

// StatementRequest describes the period and options of a statement. Nil
// month/year/quarter fall back to the current date.
type StatementRequest struct {
	PeriodType     PeriodType
	Month          *int
	Year           *int
	Quarter        *int
	StartDate      *time.Time
	EndDate        *time.Time
	IncludePending bool
	IncludeDetails bool
	Format         StatementFormat
}

// Statement is the persisted metadata of a generated statement. PeriodEnd is
// the last day included.
type Statement struct {
	ID               uuid.UUID
	TargetID         uuid.UUID
	AccountSpace     bool
	PeriodStart      time.Time
	PeriodEnd        time.Time
	GeneratedAt      time.Time
	Format           StatementFormat
	IncludedPending  bool
	IncludedDetails  bool
	TransactionCount int
}

// StatementBody is recomputed from the transaction source every time.
type StatementBody struct {
	OpeningBalance decimal.Decimal
	ClosingBalance decimal.Decimal
	TotalCredits   decimal.Decimal
	TotalDebits    decimal.Decimal
	Entries        []StatementEntry
}

// StatementEntry is one transaction line with the balance right after it.
type StatementEntry struct {
	TransactionID       uuid.UUID
	TransactionDate     time.Time
	ValueDate           time.Time
	BookingDate         time.Time
	Type                TransactionType
	Status              TransactionStatus
	Amount              decimal.Decimal
	Currency            string
	Description         string
	CounterpartyName    string
	CounterpartyAccount string
	CounterpartyBank    string
	RunningBalance      decimal.Decimal
}

// Page is a limit/offset window over a listing.
type Page struct {
	Limit  int
	Offset int
}

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

// Normalize clamps the window to sane bounds.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// StatementQuery selects statements of one target. From and To, when set,
// keep only statements whose whole period lies inside [From, To].
type StatementQuery struct {
	TargetID     uuid.UUID
	AccountSpace bool
	From         *time.Time
	To           *time.Time
	Page         Page
}
