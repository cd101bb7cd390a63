package ledger

import "time"

// IdempotencyRecord is the stored outcome of a keyed request. Scope names
// the endpoint so one key can be reused across endpoints.
type IdempotencyRecord struct {
	Scope     string
	Key       string
	BodyHash  string
	Status    int
	Payload   []byte
	CreatedAt time.Time
}
