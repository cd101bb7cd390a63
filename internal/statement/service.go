// Package statement generates account and account-space statements: the
// period's transactions with a running balance, persisted as metadata plus
// an outbox event.
package statement

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"github.com/tinoosan/ledgerd/internal/audit"
	"github.com/tinoosan/ledgerd/internal/errs"
	"github.com/tinoosan/ledgerd/internal/ledger"
	"github.com/tinoosan/ledgerd/internal/outbox"
)

var statementsGenerated = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "statements_generated_total",
		Help:      "Statements generated, by target kind",
	},
	[]string{"kind"},
)

// TransactionSource returns the transactions of a target with
// TransactionDate in [from, to).
type TransactionSource interface {
	TransactionsByTarget(ctx context.Context, targetID uuid.UUID, isSpace bool, from, to time.Time) ([]ledger.Transaction, error)
}

// Store persists statement metadata. SaveStatement writes the row and the
// event in one unit of work.
type Store interface {
	SaveStatement(ctx context.Context, st ledger.Statement, evt outbox.Event) error
	GetStatement(ctx context.Context, id uuid.UUID) (ledger.Statement, error)
	ListStatements(ctx context.Context, q ledger.StatementQuery) ([]ledger.Statement, error)
}

type Service struct {
	txs   TransactionSource
	store Store
	audit audit.Recorder
	log   *slog.Logger
	now   func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithAudit records generated statements to r.
func WithAudit(r audit.Recorder) Option { return func(s *Service) { s.audit = r } }

func New(txs TransactionSource, store Store, log *slog.Logger, opts ...Option) *Service {
	if log == nil {
		log = slog.Default()
	}
	s := &Service{txs: txs, store: store, audit: audit.Nop, log: log, now: func() time.Time { return time.Now().UTC() }}
	for _, o := range opts {
		o(s)
	}
	return s
}

// GeneratedPayload is the body of a statement-generated event.
type GeneratedPayload struct {
	StatementID      uuid.UUID              `json:"statement_id"`
	TargetID         uuid.UUID              `json:"target_id"`
	AccountSpace     bool                   `json:"account_space"`
	PeriodStart      string                 `json:"period_start"`
	PeriodEnd        string                 `json:"period_end"`
	Format           ledger.StatementFormat `json:"format"`
	TransactionCount int                    `json:"transaction_count"`
	OpeningBalance   decimal.Decimal        `json:"opening_balance"`
	ClosingBalance   decimal.Decimal        `json:"closing_balance"`
	GeneratedAt      time.Time              `json:"generated_at"`
}

// Generate builds the statement for the requested period, persists its
// metadata and enqueues the generated event.
func (s *Service) Generate(ctx context.Context, targetID uuid.UUID, isAccountSpace bool, req ledger.StatementRequest) (ledger.Statement, ledger.StatementBody, error) {
	if targetID == uuid.Nil {
		return ledger.Statement{}, ledger.StatementBody{}, errs.Invalid("target id is required")
	}
	if req.Format == "" {
		req.Format = ledger.FormatPDF
	}
	now := s.now()
	p, err := ResolvePeriod(req, now)
	if err != nil {
		return ledger.Statement{}, ledger.StatementBody{}, err
	}
	body, err := s.compute(ctx, targetID, isAccountSpace, p, req.IncludePending)
	if err != nil {
		return ledger.Statement{}, ledger.StatementBody{}, err
	}
	st := ledger.Statement{
		ID:               uuid.New(),
		TargetID:         targetID,
		AccountSpace:     isAccountSpace,
		PeriodStart:      p.Start,
		PeriodEnd:        p.End,
		GeneratedAt:      now,
		Format:           req.Format,
		IncludedPending:  req.IncludePending,
		IncludedDetails:  req.IncludeDetails,
		TransactionCount: len(body.Entries),
	}
	kind, eventType := "account", outbox.EventAccountStatementGenerated
	if isAccountSpace {
		kind, eventType = "account_space", outbox.EventAccountSpaceStatementGenerated
	}
	evt, err := outbox.NewEvent(outbox.AggregateStatement, st.ID, eventType, GeneratedPayload{
		StatementID:      st.ID,
		TargetID:         targetID,
		AccountSpace:     isAccountSpace,
		PeriodStart:      p.Start.Format(time.DateOnly),
		PeriodEnd:        p.End.Format(time.DateOnly),
		Format:           st.Format,
		TransactionCount: st.TransactionCount,
		OpeningBalance:   body.OpeningBalance,
		ClosingBalance:   body.ClosingBalance,
		GeneratedAt:      now,
	}, now)
	if err != nil {
		return ledger.Statement{}, ledger.StatementBody{}, err
	}
	if err := s.store.SaveStatement(ctx, st, evt); err != nil {
		return ledger.Statement{}, ledger.StatementBody{}, errs.Upstream("save statement", err)
	}
	statementsGenerated.WithLabelValues(kind).Inc()
	s.log.InfoContext(ctx, "statement generated",
		"statement_id", st.ID, "target_id", targetID, "kind", kind,
		"period_start", p.Start.Format(time.DateOnly), "period_end", p.End.Format(time.DateOnly),
		"transactions", st.TransactionCount)
	s.audit.Record(ctx, ledger.AuditStatement, st.ID, ledger.AuditCreate, map[string]string{
		"target_id":    targetID.String(),
		"kind":         kind,
		"period_start": p.Start.Format(time.DateOnly),
		"period_end":   p.End.Format(time.DateOnly),
	})
	return st, body, nil
}

// compute folds the period's transactions into a statement body.
func (s *Service) compute(ctx context.Context, targetID uuid.UUID, isSpace bool, p Period, includePending bool) (ledger.StatementBody, error) {
	txs, err := s.txs.TransactionsByTarget(ctx, targetID, isSpace, p.Start, p.End.AddDate(0, 0, 1))
	if err != nil {
		return ledger.StatementBody{}, errs.Upstream("transactions for "+targetID.String(), err)
	}
	kept := make([]ledger.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Status == ledger.StatusPending && !includePending {
			continue
		}
		kept = append(kept, tx)
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].ValueDate.Before(kept[j].ValueDate) })
	return Fold(kept), nil
}

// Fold computes running balances over txs in the given order. The running
// balance starts at zero, so the opening balance is the first running
// balance minus the first amount.
func Fold(txs []ledger.Transaction) ledger.StatementBody {
	body := ledger.StatementBody{
		OpeningBalance: decimal.Zero,
		ClosingBalance: decimal.Zero,
		TotalCredits:   decimal.Zero,
		TotalDebits:    decimal.Zero,
		Entries:        make([]ledger.StatementEntry, 0, len(txs)),
	}
	running := decimal.Zero
	for _, tx := range txs {
		running = running.Add(tx.Amount)
		if tx.Amount.IsPositive() {
			body.TotalCredits = body.TotalCredits.Add(tx.Amount)
		} else {
			body.TotalDebits = body.TotalDebits.Add(tx.Amount.Abs())
		}
		body.Entries = append(body.Entries, ledger.StatementEntry{
			TransactionID:       tx.ID,
			TransactionDate:     tx.TransactionDate,
			ValueDate:           tx.ValueDate,
			BookingDate:         tx.BookingDate,
			Type:                tx.Type,
			Status:              tx.Status,
			Amount:              tx.Amount,
			Currency:            tx.Currency,
			Description:         tx.Description,
			CounterpartyName:    tx.CounterpartyName,
			CounterpartyAccount: tx.CounterpartyAccount,
			CounterpartyBank:    tx.CounterpartyBank,
			RunningBalance:      running,
		})
	}
	if n := len(body.Entries); n > 0 {
		body.OpeningBalance = body.Entries[0].RunningBalance.Sub(body.Entries[0].Amount)
		body.ClosingBalance = body.Entries[n-1].RunningBalance
	}
	return body
}

// GetStatement returns stored metadata.
func (s *Service) GetStatement(ctx context.Context, id uuid.UUID) (ledger.Statement, error) {
	st, err := s.store.GetStatement(ctx, id)
	if err != nil {
		return ledger.Statement{}, errs.Upstream("statement "+id.String(), err)
	}
	return st, nil
}

// StatementDetails recomputes the body of a stored statement from its
// period and flags. Nothing is persisted.
func (s *Service) StatementDetails(ctx context.Context, id uuid.UUID) (ledger.Statement, ledger.StatementBody, error) {
	st, err := s.GetStatement(ctx, id)
	if err != nil {
		return ledger.Statement{}, ledger.StatementBody{}, err
	}
	body, err := s.compute(ctx, st.TargetID, st.AccountSpace, Period{Start: st.PeriodStart, End: st.PeriodEnd}, st.IncludedPending)
	if err != nil {
		return ledger.Statement{}, ledger.StatementBody{}, err
	}
	return st, body, nil
}

// ListStatements pages through a target's statements, newest first.
func (s *Service) ListStatements(ctx context.Context, targetID uuid.UUID, isSpace bool, page ledger.Page) ([]ledger.Statement, error) {
	out, err := s.store.ListStatements(ctx, ledger.StatementQuery{TargetID: targetID, AccountSpace: isSpace, Page: page.Normalize()})
	if err != nil {
		return nil, errs.Upstream("list statements", err)
	}
	return out, nil
}

// ListStatementsByDateRange keeps statements whose period lies within [from, to].
func (s *Service) ListStatementsByDateRange(ctx context.Context, targetID uuid.UUID, isSpace bool, from, to time.Time, page ledger.Page) ([]ledger.Statement, error) {
	if to.Before(from) {
		return nil, errs.Invalid("to before from")
	}
	f, t := dateOf(from), dateOf(to)
	out, err := s.store.ListStatements(ctx, ledger.StatementQuery{TargetID: targetID, AccountSpace: isSpace, From: &f, To: &t, Page: page.Normalize()})
	if err != nil {
		return nil, errs.Upstream("list statements", err)
	}
	return out, nil
}
