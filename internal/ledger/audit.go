package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/ledgerd/internal/meta"
)

type AuditAction string

const (
	AuditCreate AuditAction = "CREATE"
	AuditUpdate AuditAction = "UPDATE"
	AuditDelete AuditAction = "DELETE"
)

// AuditEntity names the kind of record an audit row is about.
type AuditEntity string

const (
	AuditAccount         AuditEntity = "ACCOUNT"
	AuditEntry           AuditEntity = "ENTRY"
	AuditTransaction     AuditEntity = "TRANSACTION"
	AuditTransactionLine AuditEntity = "TRANSACTION_LINE"
	AuditStatement       AuditEntity = "STATEMENT"
)

// AuditRecord is one append-only change note. IDs are ULIDs.
type AuditRecord struct {
	ID         string
	EntityType AuditEntity
	EntityID   uuid.UUID
	Action     AuditAction
	Actor      string
	Details    meta.Metadata
	RecordedAt time.Time
}

// AuditQuery filters the trail. Zero fields match everything.
type AuditQuery struct {
	EntityID   uuid.UUID
	EntityType AuditEntity
	Page       Page
}
