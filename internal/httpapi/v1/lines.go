package v1

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tinoosan/ledgerd/internal/ledger"
)

type wireTransferDTO struct {
	BeneficiaryName string `json:"beneficiary_name"`
	IBAN            string `json:"iban"`
	BIC             string `json:"bic,omitempty"`
	BankName        string `json:"bank_name,omitempty"`
}

type directDebitDTO struct {
	MandateID  string `json:"mandate_id"`
	CreditorID string `json:"creditor_id"`
}

// standingOrderDTO carries dates as YYYY-MM-DD.
type standingOrderDTO struct {
	Frequency         string  `json:"frequency"`
	NextExecutionDate string  `json:"next_execution_date"`
	EndDate           *string `json:"end_date,omitempty"`
}

type transactionLineRequest struct {
	Kind          string            `json:"kind,omitempty"`
	WireTransfer  *wireTransferDTO  `json:"wire_transfer,omitempty"`
	DirectDebit   *directDebitDTO   `json:"direct_debit,omitempty"`
	StandingOrder *standingOrderDTO `json:"standing_order,omitempty"`
}

type transactionLineResponse struct {
	TransactionID uuid.UUID         `json:"transaction_id"`
	Kind          string            `json:"kind"`
	WireTransfer  *wireTransferDTO  `json:"wire_transfer,omitempty"`
	DirectDebit   *directDebitDTO   `json:"direct_debit,omitempty"`
	StandingOrder *standingOrderDTO `json:"standing_order,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func (req transactionLineRequest) toDomain(txID uuid.UUID) (ledger.TransactionLine, string) {
	l := ledger.TransactionLine{TransactionID: txID, Kind: ledger.TransactionType(strings.ToUpper(strings.TrimSpace(req.Kind)))}
	if w := req.WireTransfer; w != nil {
		l.Wire = &ledger.WireTransfer{BeneficiaryName: w.BeneficiaryName, IBAN: w.IBAN, BIC: w.BIC, BankName: w.BankName}
	}
	if d := req.DirectDebit; d != nil {
		l.DirectDebit = &ledger.DirectDebit{MandateID: d.MandateID, CreditorID: d.CreditorID}
	}
	if o := req.StandingOrder; o != nil {
		so := &ledger.StandingOrder{Frequency: ledger.Frequency(o.Frequency)}
		if strings.TrimSpace(o.NextExecutionDate) != "" {
			next, err := parseDate(strings.TrimSpace(o.NextExecutionDate))
			if err != nil {
				return l, "next_execution_date must be a date"
			}
			so.NextExecutionDate = next
		}
		if o.EndDate != nil {
			end, err := parseDate(strings.TrimSpace(*o.EndDate))
			if err != nil {
				return l, "end_date must be a date"
			}
			so.EndDate = &end
		}
		l.StandingOrder = so
	}
	return l, ""
}

func toTransactionLineResponse(l ledger.TransactionLine) transactionLineResponse {
	out := transactionLineResponse{TransactionID: l.TransactionID, Kind: string(l.Kind), CreatedAt: l.CreatedAt, UpdatedAt: l.UpdatedAt}
	if w := l.Wire; w != nil {
		out.WireTransfer = &wireTransferDTO{BeneficiaryName: w.BeneficiaryName, IBAN: w.IBAN, BIC: w.BIC, BankName: w.BankName}
	}
	if d := l.DirectDebit; d != nil {
		out.DirectDebit = &directDebitDTO{MandateID: d.MandateID, CreditorID: d.CreditorID}
	}
	if o := l.StandingOrder; o != nil {
		so := &standingOrderDTO{Frequency: string(o.Frequency), NextExecutionDate: o.NextExecutionDate.Format(time.DateOnly)}
		if o.EndDate != nil {
			end := o.EndDate.Format(time.DateOnly)
			so.EndDate = &end
		}
		out.StandingOrder = so
	}
	return out
}

// putTransactionLine handles PUT /v1/transactions/{id}/line.
func (s *Server) putTransactionLine(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "transaction")
	if !ok {
		return
	}
	var req transactionLineRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	line, msg := req.toDomain(id)
	if msg != "" {
		badRequest(w, msg)
		return
	}
	saved, err := s.txSvc.SetLine(r.Context(), line)
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, toTransactionLineResponse(saved))
}

func (s *Server) getTransactionLine(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "transaction")
	if !ok {
		return
	}
	line, err := s.txSvc.GetLine(r.Context(), id)
	if err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, toTransactionLineResponse(line))
}

func (s *Server) deleteTransactionLine(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "transaction")
	if !ok {
		return
	}
	if err := s.txSvc.DeleteLine(r.Context(), id); err != nil {
		s.writeServiceErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
