package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tinoosan/ledgerd/internal/errs"
	"github.com/tinoosan/ledgerd/internal/ledger"
	"github.com/tinoosan/ledgerd/internal/outbox"
)

const statementColumns = `id, target_id, account_space, period_start, period_end, generated_at, format, included_pending, included_details, transaction_count`

func scanStatement(r rowScanner) (ledger.Statement, error) {
	var st ledger.Statement
	var format string
	if err := r.Scan(&st.ID, &st.TargetID, &st.AccountSpace, &st.PeriodStart, &st.PeriodEnd, &st.GeneratedAt, &format,
		&st.IncludedPending, &st.IncludedDetails, &st.TransactionCount); err != nil {
		return ledger.Statement{}, mapErr(err)
	}
	st.Format = ledger.StatementFormat(format)
	st.PeriodStart = st.PeriodStart.UTC()
	st.PeriodEnd = st.PeriodEnd.UTC()
	return st, nil
}

// SaveStatement writes the statement row and its outbox event in one
// database transaction.
func (s *Store) SaveStatement(ctx context.Context, st ledger.Statement, evt outbox.Event) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if _, err := tx.Exec(ctx, `
		insert into statements (`+statementColumns+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, st.ID, st.TargetID, st.AccountSpace, st.PeriodStart, st.PeriodEnd, st.GeneratedAt, string(st.Format),
		st.IncludedPending, st.IncludedDetails, st.TransactionCount); err != nil {
		return mapErr(err)
	}
	if err := insertEvent(ctx, tx, evt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) GetStatement(ctx context.Context, id uuid.UUID) (ledger.Statement, error) {
	return scanStatement(s.pool.QueryRow(ctx, `select `+statementColumns+` from statements where id = $1`, id))
}

// ListStatements returns the query's window, newest first.
func (s *Store) ListStatements(ctx context.Context, q ledger.StatementQuery) ([]ledger.Statement, error) {
	p := q.Page.Normalize()
	rows, err := s.pool.Query(ctx, `
		select `+statementColumns+`
		from statements
		where target_id = $1 and account_space = $2
		  and ($3::date is null or period_start >= $3)
		  and ($4::date is null or period_end <= $4)
		order by generated_at desc, id desc
		limit $5 offset $6
	`, q.TargetID, q.AccountSpace, q.From, q.To, p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.Statement, 0)
	for rows.Next() {
		st, err := scanStatement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// --- Outbox ---

func insertEvent(ctx context.Context, tx pgx.Tx, evt outbox.Event) error {
	_, err := tx.Exec(ctx, `
		insert into outbox_events (id, aggregate_type, aggregate_id, event_type, payload, created_at, attempts, next_attempt_at, last_error)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, evt.ID, evt.AggregateType, evt.AggregateID, evt.EventType, []byte(evt.Payload), evt.CreatedAt, evt.Attempts, evt.NextAttemptAt, evt.LastError)
	return mapErr(err)
}

func (s *Store) Enqueue(ctx context.Context, evt outbox.Event) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := insertEvent(ctx, tx, evt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// PendingEvents returns undelivered events due at now in ID order.
func (s *Store) PendingEvents(ctx context.Context, limit int, now time.Time) ([]outbox.Event, error) {
	rows, err := s.pool.Query(ctx, `
		select id, aggregate_type, aggregate_id, event_type, payload, created_at, attempts, next_attempt_at, dispatched_at, last_error
		from outbox_events
		where dispatched_at is null and next_attempt_at <= $1
		order by id
		limit $2
	`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]outbox.Event, 0)
	for rows.Next() {
		var e outbox.Event
		var payload []byte
		if err := rows.Scan(&e.ID, &e.AggregateType, &e.AggregateID, &e.EventType, &payload, &e.CreatedAt, &e.Attempts, &e.NextAttemptAt, &e.DispatchedAt, &e.LastError); err != nil {
			return nil, err
		}
		e.Payload = payload
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) MarkDispatched(ctx context.Context, id string, at time.Time) error {
	ct, err := s.pool.Exec(ctx, `update outbox_events set dispatched_at = $1 where id = $2`, at, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (s *Store) MarkFailed(ctx context.Context, id string, attempts int, next time.Time, lastErr string) error {
	ct, err := s.pool.Exec(ctx, `
		update outbox_events set attempts = $1, next_attempt_at = $2, last_error = $3 where id = $4
	`, attempts, next, lastErr, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
