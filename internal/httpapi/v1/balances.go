package v1

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/tinoosan/ledgerd/internal/ledger"
)

// getAccountBalance handles GET /v1/accounts/{id}/balance?as_of=. Without
// as_of every entry counts; with it only entries posted strictly before.
func (s *Server) getAccountBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "account")
	if !ok {
		return
	}
	asOf, ok := queryTime(w, r, "as_of")
	if !ok {
		return
	}
	if _, err := s.accountSvc.Get(r.Context(), id); err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	var bal decimal.Decimal
	var err error
	if asOf != nil {
		bal, err = s.balances.BalanceAsOf(r.Context(), id, *asOf)
	} else {
		bal, err = s.balances.CurrentBalance(r.Context(), id)
	}
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, balanceResponse{AccountID: id, Balance: bal, AsOf: asOf})
}

// getBalanceByType handles GET /v1/balances/by-type/{type}.
func (s *Server) getBalanceByType(w http.ResponseWriter, r *http.Request) {
	t, err := ledger.ParseAccountType(chi.URLParam(r, "type"))
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	total, err := s.balances.TotalBalanceByAccountType(r.Context(), t)
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, typeBalanceResponse{Type: t, Total: total})
}
