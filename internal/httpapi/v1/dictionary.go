package v1

import (
	"net/http"

	"github.com/tinoosan/ledgerd/internal/dictionary"
	"github.com/tinoosan/ledgerd/internal/ledger"
)

// GET /v1/dictionary/chart?type=
func (s *Server) getChartDictionary(w http.ResponseWriter, r *http.Request) {
	var filter *ledger.AccountType
	if ts := r.URL.Query().Get("type"); ts != "" {
		t, err := ledger.ParseAccountType(ts)
		if err != nil {
			badRequest(w, err.Error())
			return
		}
		filter = &t
	}
	type chartItem struct {
		Type     ledger.AccountType      `json:"type"`
		Accounts []dictionary.AccountDef `json:"accounts"`
	}
	out := struct {
		Items []chartItem `json:"items"`
	}{Items: []chartItem{}}
	for _, typ := range ledger.AccountTypes {
		if filter != nil && *filter != typ {
			continue
		}
		out.Items = append(out.Items, chartItem{Type: typ, Accounts: dictionary.ChartFor(&typ)})
	}
	toJSON(w, http.StatusOK, out)
}
