package v1

import (
	"net/http"
	"strings"
	"time"
)

// reconcileAccount handles POST /v1/accounts/{id}/reconcile with a
// {start, end} body. end's whole day is included.
func (s *Server) reconcileAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "account")
	if !ok {
		return
	}
	var req reconcileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	start, err := parseTime(strings.TrimSpace(req.Start))
	if err != nil {
		badRequest(w, "invalid start")
		return
	}
	end, err := parseTime(strings.TrimSpace(req.End))
	if err != nil {
		badRequest(w, "invalid end")
		return
	}
	if end.Before(start) {
		badRequest(w, "end before start")
		return
	}
	acc, err := s.recon.ReconcileAccount(r.Context(), id, start, end)
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	left, err := s.recon.FindUnreconciledTransactions(r.Context(), id)
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, reconcileResponse{Account: toAccountResponse(acc), Unreconciled: left})
}

func (s *Server) listUnreconciled(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "account")
	if !ok {
		return
	}
	ids, err := s.recon.FindUnreconciledTransactions(r.Context(), id)
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, unreconciledResponse{AccountID: id, TransactionIDs: ids})
}

// markReconciled handles POST /v1/transactions/{id}/reconcile. Repeating the
// call keeps the first reconciliation time.
func (s *Server) markReconciled(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "transaction")
	if !ok {
		return
	}
	if !s.recon.MarkTransactionAsReconciled(r.Context(), id, time.Now().UTC()) {
		writeErr(w, http.StatusBadGateway, "could not record reconciliation", "upstream_error")
		return
	}
	toJSON(w, http.StatusOK, markReconciledResponse{TransactionID: id, Reconciled: true})
}

// reconciliationReport handles GET /v1/accounts/{id}/reconciliation-report?start=&end=&format=
// Opening and closing balances are taken at midnight of start and end, so
// postings made during the end day are not in the closing balance. This
// differs from POST /reconcile, which covers the whole end day.
func (s *Server) reconciliationReport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "account")
	if !ok {
		return
	}
	start, end, ok := requiredRange(w, r)
	if !ok {
		return
	}
	rep, err := s.recon.BuildReport(r.Context(), id, start, end)
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	if wantsText(r) {
		toText(w, http.StatusOK, rep.Text())
		return
	}
	toJSON(w, http.StatusOK, reconciliationReportResponse{
		AccountID: rep.AccountID, AccountName: rep.AccountName, AccountCode: rep.AccountCode,
		Start: rep.Start, End: rep.End, OpeningBalance: rep.OpeningBalance, ClosingBalance: rep.ClosingBalance,
		Unreconciled: rep.Unreconciled,
	})
}
