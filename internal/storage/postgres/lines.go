package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/ledgerd/internal/errs"
	"github.com/tinoosan/ledgerd/internal/ledger"
)

// Lines are stored with one nullable column per detail field; only the
// columns of the line's kind are populated.
func (s *Store) GetTransactionLine(ctx context.Context, txID uuid.UUID) (ledger.TransactionLine, error) {
	var (
		l                                          ledger.TransactionLine
		kind                                       string
		beneficiary, iban, bic, bank, mandate, cid *string
		freq                                       *string
		next, end                                  *time.Time
	)
	err := s.pool.QueryRow(ctx, `
		select transaction_id, kind, beneficiary_name, iban, bic, bank_name, mandate_id, creditor_id,
			frequency, next_execution_date, end_date, created_at, updated_at
		from transaction_lines where transaction_id = $1
	`, txID).Scan(&l.TransactionID, &kind, &beneficiary, &iban, &bic, &bank, &mandate, &cid,
		&freq, &next, &end, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return ledger.TransactionLine{}, mapErr(err)
	}
	l.Kind = ledger.TransactionType(kind)
	switch l.Kind {
	case ledger.TypeWireTransfer:
		l.Wire = &ledger.WireTransfer{BeneficiaryName: deref(beneficiary), IBAN: deref(iban), BIC: deref(bic), BankName: deref(bank)}
	case ledger.TypeDirectDebit:
		l.DirectDebit = &ledger.DirectDebit{MandateID: deref(mandate), CreditorID: deref(cid)}
	case ledger.TypeStandingOrder:
		o := &ledger.StandingOrder{Frequency: ledger.Frequency(deref(freq)), EndDate: end}
		if next != nil {
			o.NextExecutionDate = *next
		}
		l.StandingOrder = o
	}
	return l, nil
}

func (s *Store) SaveTransactionLine(ctx context.Context, l ledger.TransactionLine) (ledger.TransactionLine, error) {
	var (
		beneficiary, iban, bic, bank, mandate, cid, freq *string
		next, end                                        *time.Time
	)
	switch {
	case l.Wire != nil:
		beneficiary, iban, bic, bank = &l.Wire.BeneficiaryName, &l.Wire.IBAN, nullable(l.Wire.BIC), nullable(l.Wire.BankName)
	case l.DirectDebit != nil:
		mandate, cid = &l.DirectDebit.MandateID, &l.DirectDebit.CreditorID
	case l.StandingOrder != nil:
		f := string(l.StandingOrder.Frequency)
		freq, next, end = &f, &l.StandingOrder.NextExecutionDate, l.StandingOrder.EndDate
	}
	_, err := s.pool.Exec(ctx, `
		insert into transaction_lines (transaction_id, kind, beneficiary_name, iban, bic, bank_name, mandate_id, creditor_id,
			frequency, next_execution_date, end_date, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		on conflict (transaction_id) do update set
			kind = excluded.kind,
			beneficiary_name = excluded.beneficiary_name,
			iban = excluded.iban,
			bic = excluded.bic,
			bank_name = excluded.bank_name,
			mandate_id = excluded.mandate_id,
			creditor_id = excluded.creditor_id,
			frequency = excluded.frequency,
			next_execution_date = excluded.next_execution_date,
			end_date = excluded.end_date,
			updated_at = excluded.updated_at
	`, l.TransactionID, string(l.Kind), beneficiary, iban, bic, bank, mandate, cid, freq, next, end, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return ledger.TransactionLine{}, mapErr(err)
	}
	return l, nil
}

func (s *Store) DeleteTransactionLine(ctx context.Context, txID uuid.UUID) error {
	ct, err := s.pool.Exec(ctx, `delete from transaction_lines where transaction_id = $1`, txID)
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
