package postgres

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/tinoosan/ledgerd/internal/ledger"
)

func (s *Store) AppendAudit(ctx context.Context, rec ledger.AuditRecord) error {
	details, err := encodeMetadata(rec.Details)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		insert into audit_log (id, entity_type, entity_id, action, actor, details, recorded_at)
		values ($1,$2,$3,$4,$5,$6,$7)
	`, rec.ID, string(rec.EntityType), rec.EntityID, string(rec.Action), rec.Actor, details, rec.RecordedAt)
	return mapErr(err)
}

// AuditTrail orders by recorded_at then ULID id, which is append order.
func (s *Store) AuditTrail(ctx context.Context, q ledger.AuditQuery) ([]ledger.AuditRecord, error) {
	var (
		where []string
		args  []any
	)
	if q.EntityID != uuid.Nil {
		args = append(args, q.EntityID)
		where = append(where, "entity_id = $1")
	}
	if q.EntityType != "" {
		args = append(args, string(q.EntityType))
		where = append(where, "entity_type = $"+strconv.Itoa(len(args)))
	}
	sql := `select id, entity_type, entity_id, action, actor, details, recorded_at from audit_log`
	if len(where) > 0 {
		sql += ` where ` + strings.Join(where, " and ")
	}
	args = append(args, q.Page.Limit, q.Page.Offset)
	sql += ` order by recorded_at, id limit $` + strconv.Itoa(len(args)-1) + ` offset $` + strconv.Itoa(len(args))

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	out := make([]ledger.AuditRecord, 0)
	for rows.Next() {
		var rec ledger.AuditRecord
		var entity, action string
		var details []byte
		if err := rows.Scan(&rec.ID, &entity, &rec.EntityID, &action, &rec.Actor, &details, &rec.RecordedAt); err != nil {
			return nil, mapErr(err)
		}
		rec.EntityType = ledger.AuditEntity(entity)
		rec.Action = ledger.AuditAction(action)
		rec.Details = decodeMetadata(details)
		out = append(out, rec)
	}
	return out, mapErr(rows.Err())
}
