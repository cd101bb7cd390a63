// Package transaction records business transactions, the source of
// account and account-space statements.
package transaction

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/tinoosan/ledgerd/internal/audit"
	"github.com/tinoosan/ledgerd/internal/errs"
	"github.com/tinoosan/ledgerd/internal/ledger"
	"github.com/tinoosan/ledgerd/internal/meta"
)

type Repo interface {
	GetTransaction(ctx context.Context, id uuid.UUID) (ledger.Transaction, error)
	TransactionsByTarget(ctx context.Context, targetID uuid.UUID, isSpace bool, from, to time.Time) ([]ledger.Transaction, error)
	GetTransactionLine(ctx context.Context, txID uuid.UUID) (ledger.TransactionLine, error)
}

type Writer interface {
	CreateTransaction(ctx context.Context, tx ledger.Transaction) (ledger.Transaction, error)
	UpdateTransaction(ctx context.Context, tx ledger.Transaction) (ledger.Transaction, error)
	// SaveTransactionLine inserts or replaces the line keyed by its transaction id.
	SaveTransactionLine(ctx context.Context, line ledger.TransactionLine) (ledger.TransactionLine, error)
	DeleteTransactionLine(ctx context.Context, txID uuid.UUID) error
}

type Service interface {
	Create(ctx context.Context, tx ledger.Transaction) (ledger.Transaction, error)
	Get(ctx context.Context, id uuid.UUID) (ledger.Transaction, error)
	List(ctx context.Context, targetID uuid.UUID, isSpace bool, from, to time.Time) ([]ledger.Transaction, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status ledger.TransactionStatus) (ledger.Transaction, error)
	SetLine(ctx context.Context, line ledger.TransactionLine) (ledger.TransactionLine, error)
	GetLine(ctx context.Context, txID uuid.UUID) (ledger.TransactionLine, error)
	DeleteLine(ctx context.Context, txID uuid.UUID) error
}

type service struct {
	repo   Repo
	writer Writer
	log    *slog.Logger
	audit  audit.Recorder
	now    func() time.Time
}

type Option func(*service)

func WithAudit(r audit.Recorder) Option {
	return func(s *service) { s.audit = r }
}

func New(repo Repo, writer Writer, log *slog.Logger, opts ...Option) Service {
	if log == nil {
		log = slog.Default()
	}
	s := &service{repo: repo, writer: writer, log: log, audit: audit.Nop, now: func() time.Time { return time.Now().UTC() }}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create validates and stores tx. Status defaults to PENDING and every
// missing date defaults to now.
func (s *service) Create(ctx context.Context, tx ledger.Transaction) (ledger.Transaction, error) {
	if tx.AccountID == uuid.Nil {
		return ledger.Transaction{}, errs.Invalid("account_id required")
	}
	typ, err := ledger.ParseTransactionType(string(tx.Type))
	if err != nil {
		return ledger.Transaction{}, err
	}
	tx.Type = typ
	if tx.Status == "" {
		tx.Status = ledger.StatusPending
	} else if tx.Status, err = ledger.ParseTransactionStatus(string(tx.Status)); err != nil {
		return ledger.Transaction{}, err
	}
	cur, err := money.ParseCurr(strings.TrimSpace(tx.Currency))
	if err != nil {
		return ledger.Transaction{}, errs.Invalid("unknown currency " + tx.Currency)
	}
	tx.Currency = cur.Code()
	if err := tx.Metadata.Validate(); err != nil {
		return ledger.Transaction{}, errs.Invalid(err.Error())
	}
	if tx.Metadata == nil {
		tx.Metadata = meta.Metadata{}
	}
	now := s.now()
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	if tx.TransactionDate.IsZero() {
		tx.TransactionDate = now
	}
	if tx.ValueDate.IsZero() {
		tx.ValueDate = tx.TransactionDate
	}
	if tx.BookingDate.IsZero() {
		tx.BookingDate = tx.TransactionDate
	}
	tx.CreatedAt = now
	created, err := s.writer.CreateTransaction(ctx, tx)
	if err != nil {
		return ledger.Transaction{}, errs.Upstream("create transaction", err)
	}
	s.log.InfoContext(ctx, "transaction created", "transaction_id", created.ID, "account_id", created.AccountID, "type", created.Type, "status", created.Status, "amount", created.Amount.String())
	s.audit.Record(ctx, ledger.AuditTransaction, created.ID, ledger.AuditCreate, map[string]string{
		"account_id": created.AccountID.String(),
		"type":       string(created.Type),
		"status":     string(created.Status),
		"amount":     created.Amount.String(),
		"currency":   created.Currency,
	})
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (ledger.Transaction, error) {
	tx, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return ledger.Transaction{}, errs.Upstream("transaction "+id.String(), err)
	}
	return tx, nil
}

// List returns the target's transactions dated in [from, to).
func (s *service) List(ctx context.Context, targetID uuid.UUID, isSpace bool, from, to time.Time) ([]ledger.Transaction, error) {
	if targetID == uuid.Nil {
		return nil, errs.Invalid("account_id or account_space_id required")
	}
	if to.Before(from) {
		return nil, errs.Invalid("to before from")
	}
	out, err := s.repo.TransactionsByTarget(ctx, targetID, isSpace, from, to)
	if err != nil {
		return nil, errs.Upstream("list transactions", err)
	}
	return out, nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status ledger.TransactionStatus) (ledger.Transaction, error) {
	st, err := ledger.ParseTransactionStatus(string(status))
	if err != nil {
		return ledger.Transaction{}, err
	}
	tx, err := s.Get(ctx, id)
	if err != nil {
		return ledger.Transaction{}, err
	}
	if tx.Status == st {
		return tx, nil
	}
	prev := tx.Status
	tx.Status = st
	updated, err := s.writer.UpdateTransaction(ctx, tx)
	if err != nil {
		return ledger.Transaction{}, errs.Upstream("update transaction "+id.String(), err)
	}
	s.log.InfoContext(ctx, "transaction status changed", "transaction_id", id, "from", prev, "to", st)
	s.audit.Record(ctx, ledger.AuditTransaction, id, ledger.AuditUpdate, map[string]string{"previous_status": string(prev), "status": string(st)})
	return updated, nil
}

var (
	reIBAN = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Z0-9]{11,30}$`)
	reBIC  = regexp.MustCompile(`^[A-Z]{6}[A-Z0-9]{2}([A-Z0-9]{3})?$`)
)

// SetLine attaches instrument details to a WIRE_TRANSFER, DIRECT_DEBIT or
// STANDING_ORDER transaction, replacing any line it already has.
func (s *service) SetLine(ctx context.Context, line ledger.TransactionLine) (ledger.TransactionLine, error) {
	tx, err := s.Get(ctx, line.TransactionID)
	if err != nil {
		return ledger.TransactionLine{}, err
	}
	if !tx.Type.HasLine() {
		return ledger.TransactionLine{}, errs.Invalid("transaction type " + string(tx.Type) + " has no line")
	}
	if line.Kind == "" {
		line.Kind = tx.Type
	}
	if line.Kind != tx.Type {
		return ledger.TransactionLine{}, errs.Invalid("line kind " + string(line.Kind) + " does not match transaction type " + string(tx.Type))
	}
	if err := normalizeLine(&line); err != nil {
		return ledger.TransactionLine{}, err
	}
	now := s.now()
	action := ledger.AuditCreate
	line.CreatedAt = now
	if prev, err := s.repo.GetTransactionLine(ctx, tx.ID); err == nil {
		action = ledger.AuditUpdate
		line.CreatedAt = prev.CreatedAt
	}
	line.UpdatedAt = now
	saved, err := s.writer.SaveTransactionLine(ctx, line)
	if err != nil {
		return ledger.TransactionLine{}, errs.Upstream("save transaction line "+tx.ID.String(), err)
	}
	s.log.InfoContext(ctx, "transaction line saved", "transaction_id", tx.ID, "kind", saved.Kind)
	s.audit.Record(ctx, ledger.AuditTransactionLine, tx.ID, action, lineDetails(saved))
	return saved, nil
}

func (s *service) GetLine(ctx context.Context, txID uuid.UUID) (ledger.TransactionLine, error) {
	line, err := s.repo.GetTransactionLine(ctx, txID)
	if err != nil {
		return ledger.TransactionLine{}, errs.Upstream("transaction line "+txID.String(), err)
	}
	return line, nil
}

func (s *service) DeleteLine(ctx context.Context, txID uuid.UUID) error {
	line, err := s.GetLine(ctx, txID)
	if err != nil {
		return err
	}
	if err := s.writer.DeleteTransactionLine(ctx, txID); err != nil {
		return errs.Upstream("delete transaction line "+txID.String(), err)
	}
	s.log.InfoContext(ctx, "transaction line deleted", "transaction_id", txID)
	s.audit.Record(ctx, ledger.AuditTransactionLine, txID, ledger.AuditDelete, map[string]string{"kind": string(line.Kind)})
	return nil
}

// normalizeLine checks that exactly the detail matching the line kind is set
// and tidies its fields.
func normalizeLine(line *ledger.TransactionLine) error {
	set := 0
	for _, ok := range []bool{line.Wire != nil, line.DirectDebit != nil, line.StandingOrder != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return errs.Invalid("exactly one of wire_transfer, direct_debit or standing_order required")
	}
	switch line.Kind {
	case ledger.TypeWireTransfer:
		w := line.Wire
		if w == nil {
			return errs.Invalid("wire_transfer details required")
		}
		w.BeneficiaryName = strings.TrimSpace(w.BeneficiaryName)
		w.IBAN = strings.ToUpper(strings.ReplaceAll(w.IBAN, " ", ""))
		w.BIC = strings.ToUpper(strings.TrimSpace(w.BIC))
		w.BankName = strings.TrimSpace(w.BankName)
		if w.BeneficiaryName == "" {
			return errs.Invalid("beneficiary_name required")
		}
		if !reIBAN.MatchString(w.IBAN) {
			return errs.Invalid("invalid iban")
		}
		if w.BIC != "" && !reBIC.MatchString(w.BIC) {
			return errs.Invalid("invalid bic")
		}
	case ledger.TypeDirectDebit:
		d := line.DirectDebit
		if d == nil {
			return errs.Invalid("direct_debit details required")
		}
		d.MandateID = strings.TrimSpace(d.MandateID)
		d.CreditorID = strings.TrimSpace(d.CreditorID)
		if d.MandateID == "" || d.CreditorID == "" {
			return errs.Invalid("mandate_id and creditor_id required")
		}
	case ledger.TypeStandingOrder:
		o := line.StandingOrder
		if o == nil {
			return errs.Invalid("standing_order details required")
		}
		f, err := ledger.ParseFrequency(string(o.Frequency))
		if err != nil {
			return err
		}
		o.Frequency = f
		if o.NextExecutionDate.IsZero() {
			return errs.Invalid("next_execution_date required")
		}
		if o.EndDate != nil && o.EndDate.Before(o.NextExecutionDate) {
			return errs.Invalid("end_date before next_execution_date")
		}
	}
	return nil
}

func lineDetails(l ledger.TransactionLine) map[string]string {
	d := map[string]string{"kind": string(l.Kind)}
	switch {
	case l.Wire != nil:
		d["beneficiary_name"] = l.Wire.BeneficiaryName
		d["iban"] = l.Wire.IBAN
	case l.DirectDebit != nil:
		d["mandate_id"] = l.DirectDebit.MandateID
		d["creditor_id"] = l.DirectDebit.CreditorID
	case l.StandingOrder != nil:
		d["frequency"] = string(l.StandingOrder.Frequency)
		d["next_execution_date"] = l.StandingOrder.NextExecutionDate.Format(time.DateOnly)
	}
	return d
}
