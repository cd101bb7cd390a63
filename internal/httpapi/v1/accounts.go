package v1

import (
	"net/http"

	"github.com/tinoosan/ledgerd/internal/ledger"
	"github.com/tinoosan/ledgerd/internal/meta"
	"github.com/tinoosan/ledgerd/internal/service/account"
)

// postAccount handles POST /v1/accounts.
func (s *Server) postAccount(w http.ResponseWriter, r *http.Request) {
	var req postAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	typ, err := ledger.ParseAccountType(req.Type)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	in := ledger.Account{
		Code:           req.Code,
		Name:           req.Name,
		Type:           typ,
		ParentID:       req.ParentID,
		CashEquivalent: req.CashEquivalent,
		Metadata:       meta.New(req.Metadata),
	}
	if err := s.accountSvc.ValidateCreate(in); err != nil {
		badRequest(w, err.Error())
		return
	}
	acc, err := s.accountSvc.Create(r.Context(), in)
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusCreated, toAccountResponse(acc))
}

// listAccounts handles GET /v1/accounts?type=
func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	var filter *ledger.AccountType
	if raw := r.URL.Query().Get("type"); raw != "" {
		t, err := ledger.ParseAccountType(raw)
		if err != nil {
			badRequest(w, err.Error())
			return
		}
		filter = &t
	}
	accs, err := s.accountSvc.List(r.Context(), filter)
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	out := listAccountsResponse{Items: make([]accountResponse, 0, len(accs))}
	for _, a := range accs {
		out.Items = append(out.Items, toAccountResponse(a))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "account")
	if !ok {
		return
	}
	acc, err := s.accountSvc.Get(r.Context(), id)
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, toAccountResponse(acc))
}

// updateAccount handles PATCH /v1/accounts/{id}. Metadata is merged; an
// empty value removes a key.
func (s *Server) updateAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "account")
	if !ok {
		return
	}
	var req patchAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p := account.Patch{
		Code:           req.Code,
		Name:           req.Name,
		ParentID:       req.ParentID,
		ClearParent:    req.ClearParent,
		Active:         req.Active,
		CashEquivalent: req.CashEquivalent,
	}
	if req.Type != nil {
		t, err := ledger.ParseAccountType(*req.Type)
		if err != nil {
			badRequest(w, err.Error())
			return
		}
		p.Type = &t
	}
	if req.Metadata != nil {
		p.Metadata = meta.Metadata(req.Metadata)
	}
	acc, err := s.accountSvc.Update(r.Context(), id, p)
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, toAccountResponse(acc))
}

// deactivateAccount handles DELETE /v1/accounts/{id} by soft-deactivating (active=false).
func (s *Server) deactivateAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "account")
	if !ok {
		return
	}
	if err := s.accountSvc.Deactivate(r.Context(), id); err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
