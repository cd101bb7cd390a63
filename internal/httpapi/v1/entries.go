package v1

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/tinoosan/ledgerd/internal/ledger"
)

// postEntry handles POST /v1/entries: a single posting.
func (s *Server) postEntry(w http.ResponseWriter, r *http.Request) {
	var req postEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	e, err := s.journalSvc.PostEntry(r.Context(), req.toDomain())
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusCreated, toEntryResponse(e))
}

// postJournal handles POST /v1/journals: balanced lines under one transaction.
func (s *Server) postJournal(w http.ResponseWriter, r *http.Request) {
	var req postJournalRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	lines := make([]ledger.Entry, 0, len(req.Lines))
	for _, ln := range req.Lines {
		lines = append(lines, ln.toDomain())
	}
	txID := uuid.Nil
	if req.TransactionID != nil {
		txID = *req.TransactionID
	}
	posted, err := s.journalSvc.PostJournal(r.Context(), txID, lines)
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusCreated, listEntriesResponse{Items: toEntryResponses(posted)})
}

// listEntries handles GET /v1/entries?account_id=
func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("account_id")
	if raw == "" {
		badRequest(w, "account_id is required")
		return
	}
	accountID, err := uuid.Parse(raw)
	if err != nil {
		badRequest(w, "invalid account_id")
		return
	}
	es, err := s.journalSvc.ListByAccount(r.Context(), accountID)
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, listEntriesResponse{Items: toEntryResponses(es)})
}

func (s *Server) getEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "entry")
	if !ok {
		return
	}
	e, err := s.journalSvc.Get(r.Context(), id)
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, toEntryResponse(e))
}

// updateEntry handles PATCH /v1/entries/{id}. It edits a posting in place
// and does not re-check the balance of its transaction.
func (s *Server) updateEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "entry")
	if !ok {
		return
	}
	var req patchEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	e, err := s.journalSvc.Get(r.Context(), id)
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	if req.AccountID != nil {
		e.AccountID = *req.AccountID
	}
	if req.Side != nil {
		e.Side = ledger.Side(*req.Side)
	}
	if req.Amount != nil {
		e.Amount = *req.Amount
	}
	if req.Currency != nil {
		e.Currency = *req.Currency
	}
	if req.PostedAt != nil {
		e.PostedAt = req.PostedAt.UTC()
	}
	if req.ExchangeRate != nil {
		e.ExchangeRate = req.ExchangeRate
	}
	if req.CostCenterID != nil {
		e.CostCenterID = req.CostCenterID
	}
	if req.Notes != nil {
		e.Notes = *req.Notes
	}
	updated, err := s.journalSvc.Update(r.Context(), e)
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, toEntryResponse(updated))
}

func (s *Server) deleteEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "entry")
	if !ok {
		return
	}
	if err := s.journalSvc.Delete(r.Context(), id); err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
