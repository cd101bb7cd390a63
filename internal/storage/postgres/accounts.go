package postgres

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/tinoosan/ledgerd/internal/errs"
	"github.com/tinoosan/ledgerd/internal/ledger"
)

const accountColumns = `id, code, name, type, parent_id, cash_equivalent, active, metadata, created_at, updated_at`

func scanAccount(r rowScanner) (ledger.Account, error) {
	var a ledger.Account
	var typ string
	var md []byte
	if err := r.Scan(&a.ID, &a.Code, &a.Name, &typ, &a.ParentID, &a.CashEquivalent, &a.Active, &md, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return ledger.Account{}, mapErr(err)
	}
	a.Type = ledger.AccountType(typ)
	a.Metadata = decodeMetadata(md)
	return a, nil
}

func (s *Store) queryAccounts(ctx context.Context, sql string, args ...any) ([]ledger.Account, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListAccounts returns every account ordered by code.
func (s *Store) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	return s.queryAccounts(ctx, `select `+accountColumns+` from accounts order by code`)
}

func (s *Store) ListAccountsByType(ctx context.Context, t ledger.AccountType) ([]ledger.Account, error) {
	return s.queryAccounts(ctx, `select `+accountColumns+` from accounts where type = $1 order by code`, string(t))
}

func (s *Store) GetAccount(ctx context.Context, id uuid.UUID) (ledger.Account, error) {
	return scanAccount(s.pool.QueryRow(ctx, `select `+accountColumns+` from accounts where id = $1`, id))
}

func (s *Store) GetAccountByCode(ctx context.Context, code string) (ledger.Account, error) {
	return scanAccount(s.pool.QueryRow(ctx, `select `+accountColumns+` from accounts where upper(code) = $1`, strings.ToUpper(code)))
}

// CreateAccount inserts an account row. A taken code yields errs.ErrConflict.
func (s *Store) CreateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error) {
	md, err := encodeMetadata(a.Metadata)
	if err != nil {
		return ledger.Account{}, err
	}
	_, err = s.pool.Exec(ctx, `
		insert into accounts (`+accountColumns+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, a.ID, a.Code, a.Name, string(a.Type), a.ParentID, a.CashEquivalent, a.Active, md, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return ledger.Account{}, mapErr(err)
	}
	return a, nil
}

// UpdateAccount rewrites the mutable columns of an existing account.
func (s *Store) UpdateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error) {
	md, err := encodeMetadata(a.Metadata)
	if err != nil {
		return ledger.Account{}, err
	}
	ct, err := s.pool.Exec(ctx, `
		update accounts
		set code=$1, name=$2, type=$3, parent_id=$4, cash_equivalent=$5, active=$6, metadata=$7, updated_at=$8
		where id=$9
	`, a.Code, a.Name, string(a.Type), a.ParentID, a.CashEquivalent, a.Active, md, a.UpdatedAt, a.ID)
	if err != nil {
		return ledger.Account{}, mapErr(err)
	}
	if ct.RowsAffected() == 0 {
		return ledger.Account{}, errs.ErrNotFound
	}
	return a, nil
}
