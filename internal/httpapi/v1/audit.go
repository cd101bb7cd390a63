package v1

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/ledgerd/internal/ledger"
)

type auditRecordResponse struct {
	ID         string            `json:"id"`
	EntityType string            `json:"entity_type"`
	EntityID   uuid.UUID         `json:"entity_id"`
	Action     string            `json:"action"`
	Actor      string            `json:"actor"`
	Details    map[string]string `json:"details,omitempty"`
	RecordedAt time.Time         `json:"recorded_at"`
}

type listAuditResponse struct {
	Items []auditRecordResponse `json:"items"`
}

// listAudit handles GET /v1/audit. entity_id or entity_type is required.
func (s *Server) listAudit(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeErr(w, http.StatusNotImplemented, "audit trail not configured", "not_implemented")
		return
	}
	q := r.URL.Query()
	var aq ledger.AuditQuery
	if raw := strings.TrimSpace(q.Get("entity_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			badRequest(w, "invalid entity_id")
			return
		}
		aq.EntityID = id
	}
	aq.EntityType = ledger.AuditEntity(strings.TrimSpace(q.Get("entity_type")))
	if aq.EntityID == uuid.Nil && aq.EntityType == "" {
		badRequest(w, "entity_id or entity_type is required")
		return
	}
	page, ok := queryPage(w, r)
	if !ok {
		return
	}
	aq.Page = page
	recs, err := s.audit.Trail(r.Context(), aq)
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	out := listAuditResponse{Items: make([]auditRecordResponse, 0, len(recs))}
	for _, rec := range recs {
		out.Items = append(out.Items, auditRecordResponse{
			ID:         rec.ID,
			EntityType: string(rec.EntityType),
			EntityID:   rec.EntityID,
			Action:     string(rec.Action),
			Actor:      rec.Actor,
			Details:    rec.Details,
			RecordedAt: rec.RecordedAt,
		})
	}
	toJSON(w, http.StatusOK, out)
}
