package v1

import (
	"net/http"
	"strings"
	"time"
)

// textReport is implemented by every financial report.
type textReport interface{ Text() string }

func (s *Server) writeReport(w http.ResponseWriter, r *http.Request, rep textReport) {
	if wantsText(r) {
		toText(w, http.StatusOK, rep.Text())
		return
	}
	toJSON(w, http.StatusOK, rep)
}

// GET /v1/reports/trial-balance?start=&end=
func (s *Server) trialBalance(w http.ResponseWriter, r *http.Request) {
	start, end, ok := requiredRange(w, r)
	if !ok {
		return
	}
	tb, err := s.reports.TrialBalance(r.Context(), start, end)
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	s.writeReport(w, r, tb)
}

// GET /v1/reports/income-statement?start=&end=
func (s *Server) incomeStatement(w http.ResponseWriter, r *http.Request) {
	start, end, ok := requiredRange(w, r)
	if !ok {
		return
	}
	is, err := s.reports.IncomeStatement(r.Context(), start, end)
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	s.writeReport(w, r, is)
}

// GET /v1/reports/balance-sheet?as_of= (defaults to now)
func (s *Server) balanceSheet(w http.ResponseWriter, r *http.Request) {
	asOf, ok := queryTime(w, r, "as_of")
	if !ok {
		return
	}
	at := time.Now().UTC()
	if asOf != nil {
		at = *asOf
	}
	bs, err := s.reports.BalanceSheet(r.Context(), at)
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	s.writeReport(w, r, bs)
}

// GET /v1/reports/cash-flow?start=&end=
func (s *Server) cashFlow(w http.ResponseWriter, r *http.Request) {
	start, end, ok := requiredRange(w, r)
	if !ok {
		return
	}
	cf, err := s.reports.CashFlow(r.Context(), start, end)
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	s.writeReport(w, r, cf)
}

// POST /v1/reports/custom
func (s *Server) customReport(w http.ResponseWriter, r *http.Request) {
	var req customReportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ReportType) == "" {
		badRequest(w, "report_type is required")
		return
	}
	body := s.reports.Custom(req.ReportType, req.Params)
	if wantsText(r) {
		toText(w, http.StatusOK, body)
		return
	}
	toJSON(w, http.StatusOK, customReportResponse{ReportType: req.ReportType, Report: body})
}
