package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/ledgerd/internal/errs"
	"github.com/tinoosan/ledgerd/internal/ledger"
)

const transactionColumns = `id, account_id, account_space_id, type, status, amount::text, currency, description,
	transaction_date, value_date, booking_date, counterparty_name, counterparty_account, counterparty_bank,
	reference, metadata, created_at`

func scanTransaction(r rowScanner) (ledger.Transaction, error) {
	var tx ledger.Transaction
	var typ, status, amount string
	var md []byte
	if err := r.Scan(&tx.ID, &tx.AccountID, &tx.AccountSpaceID, &typ, &status, &amount, &tx.Currency, &tx.Description,
		&tx.TransactionDate, &tx.ValueDate, &tx.BookingDate, &tx.CounterpartyName, &tx.CounterpartyAccount, &tx.CounterpartyBank,
		&tx.Reference, &md, &tx.CreatedAt); err != nil {
		return ledger.Transaction{}, mapErr(err)
	}
	amt, err := parseDecimal(amount)
	if err != nil {
		return ledger.Transaction{}, err
	}
	tx.Type = ledger.TransactionType(typ)
	tx.Status = ledger.TransactionStatus(status)
	tx.Amount = amt
	tx.Metadata = decodeMetadata(md)
	return tx, nil
}

func (s *Store) CreateTransaction(ctx context.Context, tx ledger.Transaction) (ledger.Transaction, error) {
	md, err := encodeMetadata(tx.Metadata)
	if err != nil {
		return ledger.Transaction{}, err
	}
	_, err = s.pool.Exec(ctx, `
		insert into transactions (id, account_id, account_space_id, type, status, amount, currency, description,
			transaction_date, value_date, booking_date, counterparty_name, counterparty_account, counterparty_bank,
			reference, metadata, created_at)
		values ($1,$2,$3,$4,$5,$6::text::numeric,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`, tx.ID, tx.AccountID, tx.AccountSpaceID, string(tx.Type), string(tx.Status), tx.Amount.String(), tx.Currency, tx.Description,
		tx.TransactionDate, tx.ValueDate, tx.BookingDate, tx.CounterpartyName, tx.CounterpartyAccount, tx.CounterpartyBank,
		tx.Reference, md, tx.CreatedAt)
	if err != nil {
		return ledger.Transaction{}, mapErr(err)
	}
	return tx, nil
}

func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (ledger.Transaction, error) {
	return scanTransaction(s.pool.QueryRow(ctx, `select `+transactionColumns+` from transactions where id = $1`, id))
}

// UpdateTransaction rewrites status, descriptive fields and metadata.
func (s *Store) UpdateTransaction(ctx context.Context, tx ledger.Transaction) (ledger.Transaction, error) {
	md, err := encodeMetadata(tx.Metadata)
	if err != nil {
		return ledger.Transaction{}, err
	}
	ct, err := s.pool.Exec(ctx, `
		update transactions
		set status=$1, description=$2, value_date=$3, booking_date=$4, reference=$5, metadata=$6
		where id=$7
	`, string(tx.Status), tx.Description, tx.ValueDate, tx.BookingDate, tx.Reference, md, tx.ID)
	if err != nil {
		return ledger.Transaction{}, mapErr(err)
	}
	if ct.RowsAffected() == 0 {
		return ledger.Transaction{}, errs.ErrNotFound
	}
	return tx, nil
}

// TransactionsByTarget returns the transactions of an account, or of an
// account space when isSpace is set, dated in [from, to).
func (s *Store) TransactionsByTarget(ctx context.Context, targetID uuid.UUID, isSpace bool, from, to time.Time) ([]ledger.Transaction, error) {
	column := "account_id"
	if isSpace {
		column = "account_space_id"
	}
	rows, err := s.pool.Query(ctx, `
		select `+transactionColumns+`
		from transactions
		where `+column+` = $1 and transaction_date >= $2 and transaction_date < $3
		order by transaction_date, id
	`, targetID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}
