package v1

import (
	"net/http"
	"strings"
	"time"

	"github.com/tinoosan/ledgerd/internal/errs"
	"github.com/tinoosan/ledgerd/internal/ledger"
)

func (req statementRequest) toDomain() (ledger.StatementRequest, error) {
	out := ledger.StatementRequest{
		Month:          req.Month,
		Year:           req.Year,
		Quarter:        req.Quarter,
		IncludePending: req.IncludePending,
		IncludeDetails: req.IncludeDetails,
	}
	pt := req.PeriodType
	if strings.TrimSpace(pt) == "" {
		pt = string(ledger.PeriodMonthly)
	}
	var err error
	if out.PeriodType, err = ledger.ParsePeriodType(pt); err != nil {
		return out, err
	}
	if out.Format, err = ledger.ParseStatementFormat(req.Format); err != nil {
		return out, err
	}
	for _, f := range []struct {
		raw *string
		dst **time.Time
	}{{req.StartDate, &out.StartDate}, {req.EndDate, &out.EndDate}} {
		if f.raw == nil {
			continue
		}
		t, err := parseDate(strings.TrimSpace(*f.raw))
		if err != nil {
			return out, errs.Invalid("start_date and end_date must be dates")
		}
		*f.dst = &t
	}
	return out, nil
}

// generateStatement handles POST /v1/accounts/{id}/statements and
// POST /v1/account-spaces/{id}/statements.
func (s *Server) generateStatement(isSpace bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "target")
		if !ok {
			return
		}
		var req statementRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		in, err := req.toDomain()
		if err != nil {
			badRequest(w, err.Error())
			return
		}
		st, body, err := s.statements.Generate(r.Context(), id, isSpace, in)
		if err != nil {
			s.writeServiceErr(w, r, err)
			return
		}
		toJSON(w, http.StatusCreated, toStatementDetails(st, body, st.IncludedDetails))
	}
}

// listStatements pages through a target's statements, newest first. With
// from and to, only statements whose period lies inside them are listed.
func (s *Server) listStatements(isSpace bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "target")
		if !ok {
			return
		}
		page, ok := queryPage(w, r)
		if !ok {
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
		var sts []ledger.Statement
		var err error
		switch {
		case from == nil && to == nil:
			sts, err = s.statements.ListStatements(r.Context(), id, isSpace, page)
		case from != nil && to != nil:
			sts, err = s.statements.ListStatementsByDateRange(r.Context(), id, isSpace, *from, *to, page)
		default:
			badRequest(w, "from and to must be given together")
			return
		}
		if err != nil {
			s.writeServiceErr(w, r, err)
			return
		}
		out := listStatementsResponse{Items: make([]statementResponse, 0, len(sts))}
		for _, st := range sts {
			out.Items = append(out.Items, toStatementResponse(st))
		}
		toJSON(w, http.StatusOK, out)
	}
}

func (s *Server) getStatement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "statement")
	if !ok {
		return
	}
	st, err := s.statements.GetStatement(r.Context(), id)
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, toStatementResponse(st))
}

// getStatementDetails recomputes the statement body from current transactions.
func (s *Server) getStatementDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "statement")
	if !ok {
		return
	}
	st, body, err := s.statements.StatementDetails(r.Context(), id)
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, toStatementDetails(st, body, true))
}
