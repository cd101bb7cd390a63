package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tinoosan/ledgerd/internal/errs"
	"github.com/tinoosan/ledgerd/internal/ledger"
)

const entryColumns = `id, account_id, transaction_id, side, amount::text, currency, posted_at, exchange_rate::text, cost_center_id, notes, created_at`

func scanEntry(r rowScanner) (ledger.Entry, error) {
	var e ledger.Entry
	var side, amount string
	var rate *string
	if err := r.Scan(&e.ID, &e.AccountID, &e.TransactionID, &side, &amount, &e.Currency, &e.PostedAt, &rate, &e.CostCenterID, &e.Notes, &e.CreatedAt); err != nil {
		return ledger.Entry{}, mapErr(err)
	}
	e.Side = ledger.Side(side)
	amt, err := parseDecimal(amount)
	if err != nil {
		return ledger.Entry{}, err
	}
	e.Amount = amt
	if rate != nil {
		r, err := parseDecimal(*rate)
		if err != nil {
			return ledger.Entry{}, err
		}
		e.ExchangeRate = &r
	}
	return e, nil
}

func rateParam(e ledger.Entry) *string {
	if e.ExchangeRate == nil {
		return nil
	}
	s := e.ExchangeRate.String()
	return &s
}

// CreateEntries inserts all entries in one database transaction.
func (s *Store) CreateEntries(ctx context.Context, entries []ledger.Entry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(`
			insert into ledger_entries (id, account_id, transaction_id, side, amount, currency, posted_at, exchange_rate, cost_center_id, notes, created_at)
			values ($1,$2,$3,$4,$5::text::numeric,$6,$7,$8::text::numeric,$9,$10,$11)
		`, e.ID, e.AccountID, e.TransactionID, string(e.Side), e.Amount.String(), e.Currency, e.PostedAt, rateParam(e), e.CostCenterID, e.Notes, e.CreatedAt)
	}
	br := tx.SendBatch(ctx, batch)
	for i := range entries {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("insert entry %d: %w", i, mapErr(err))
		}
	}
	if err := br.Close(); err != nil {
		return mapErr(err)
	}
	return tx.Commit(ctx)
}

func (s *Store) GetEntry(ctx context.Context, id uuid.UUID) (ledger.Entry, error) {
	return scanEntry(s.pool.QueryRow(ctx, `select `+entryColumns+` from ledger_entries where id = $1`, id))
}

func (s *Store) UpdateEntry(ctx context.Context, e ledger.Entry) (ledger.Entry, error) {
	ct, err := s.pool.Exec(ctx, `
		update ledger_entries
		set account_id=$1, transaction_id=$2, side=$3, amount=$4::text::numeric, currency=$5, posted_at=$6,
		    exchange_rate=$7::text::numeric, cost_center_id=$8, notes=$9
		where id=$10
	`, e.AccountID, e.TransactionID, string(e.Side), e.Amount.String(), e.Currency, e.PostedAt, rateParam(e), e.CostCenterID, e.Notes, e.ID)
	if err != nil {
		return ledger.Entry{}, mapErr(err)
	}
	if ct.RowsAffected() == 0 {
		return ledger.Entry{}, errs.ErrNotFound
	}
	return e, nil
}

func (s *Store) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	ct, err := s.pool.Exec(ctx, `delete from ledger_entries where id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// ListEntriesByAccount returns the account's entries in posting order.
func (s *Store) ListEntriesByAccount(ctx context.Context, accountID uuid.UUID) ([]ledger.Entry, error) {
	out := make([]ledger.Entry, 0)
	err := s.StreamAccountEntries(ctx, accountID, nil, func(e ledger.Entry) error {
		out = append(out, e)
		return nil
	})
	return out, err
}

// StreamAccountEntries visits the account's entries in (posted_at, id)
// order, stopping before the first entry posted at or after before. Rows are
// decoded one at a time; fn must not hold on to the connection.
func (s *Store) StreamAccountEntries(ctx context.Context, accountID uuid.UUID, before *time.Time, fn func(ledger.Entry) error) error {
	rows, err := s.pool.Query(ctx, `
		select `+entryColumns+`
		from ledger_entries
		where account_id = $1 and ($2::timestamptz is null or posted_at < $2)
		order by posted_at, id
	`, accountID, before)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return err
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return rows.Err()
}
