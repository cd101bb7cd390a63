package v1

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/ledgerd/internal/ledger"
)

// postTransaction handles POST /v1/transactions.
func (s *Server) postTransaction(w http.ResponseWriter, r *http.Request) {
	var req postTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tx, err := s.txSvc.Create(r.Context(), req.toDomain())
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusCreated, toTransactionResponse(tx))
}

// listTransactions handles GET /v1/transactions with exactly one of
// account_id or account_space_id. from defaults to the epoch and to to now;
// the range is half open.
func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	accRaw, spaceRaw := q.Get("account_id"), q.Get("account_space_id")
	if (accRaw == "") == (spaceRaw == "") {
		badRequest(w, "exactly one of account_id or account_space_id is required")
		return
	}
	isSpace := spaceRaw != ""
	raw := accRaw
	if isSpace {
		raw = spaceRaw
	}
	target, err := uuid.Parse(raw)
	if err != nil {
		badRequest(w, "invalid target id")
		return
	}
	from, ok := queryTime(w, r, "from")
	if !ok {
		return
	}
	to, ok := queryTime(w, r, "to")
	if !ok {
		return
	}
	f, t := time.Unix(0, 0).UTC(), time.Now().UTC()
	if from != nil {
		f = *from
	}
	if to != nil {
		t = *to
	}
	txs, err := s.txSvc.List(r.Context(), target, isSpace, f, t)
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	out := listTransactionsResponse{Items: make([]transactionResponse, 0, len(txs))}
	for _, tx := range txs {
		out.Items = append(out.Items, toTransactionResponse(tx))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) getTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "transaction")
	if !ok {
		return
	}
	tx, err := s.txSvc.Get(r.Context(), id)
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, toTransactionResponse(tx))
}

// updateTransactionStatus handles PATCH /v1/transactions/{id}/status.
func (s *Server) updateTransactionStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "transaction")
	if !ok {
		return
	}
	var req transactionStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tx, err := s.txSvc.UpdateStatus(r.Context(), id, ledger.TransactionStatus(req.Status))
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, toTransactionResponse(tx))
}
