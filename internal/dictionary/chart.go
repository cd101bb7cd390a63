// Package dictionary holds the curated default chart of accounts.
package dictionary

import "github.com/tinoosan/ledgerd/internal/ledger"

type AccountDef struct {
	Code           string `json:"code"`
	Name           string `json:"name"`
	CashEquivalent bool   `json:"cash_equivalent"`
}

var curated = map[ledger.AccountType][]AccountDef{
	ledger.AccountTypeAsset: {
		{Code: "1000", Name: "Cash on Hand", CashEquivalent: true},
		{Code: "1010", Name: "Operating Bank Account", CashEquivalent: true},
		{Code: "1020", Name: "Savings Account", CashEquivalent: true},
		{Code: "1200", Name: "Accounts Receivable"},
		{Code: "1500", Name: "Equipment"},
	},
	ledger.AccountTypeLiability: {
		{Code: "2000", Name: "Accounts Payable"},
		{Code: "2100", Name: "Credit Card"},
		{Code: "2500", Name: "Loans Payable"},
	},
	ledger.AccountTypeEquity: {
		{Code: "3000", Name: "Opening Balances"},
		{Code: "3100", Name: "Owner Equity"},
		{Code: "3900", Name: "Retained Earnings"},
	},
	ledger.AccountTypeIncome: {
		{Code: "4000", Name: "Sales"},
		{Code: "4100", Name: "Interest Income"},
		{Code: "4900", Name: "Other Income"},
	},
	ledger.AccountTypeExpense: {
		{Code: "5000", Name: "Rent"},
		{Code: "5100", Name: "Utilities"},
		{Code: "5200", Name: "Bank Fees"},
		{Code: "5300", Name: "Salaries"},
		{Code: "5900", Name: "General Expenses"},
	},
}

// ChartFor returns the curated accounts of t. A nil t returns every type in
// reporting order.
func ChartFor(t *ledger.AccountType) []AccountDef {
	if t != nil {
		return append([]AccountDef(nil), curated[*t]...)
	}
	out := make([]AccountDef, 0)
	for _, typ := range ledger.AccountTypes {
		out = append(out, curated[typ]...)
	}
	return out
}

// Accounts returns the whole chart as account specs ready to create.
func Accounts() []ledger.Account {
	out := make([]ledger.Account, 0)
	for _, typ := range ledger.AccountTypes {
		for _, d := range curated[typ] {
			out = append(out, ledger.Account{Code: d.Code, Name: d.Name, Type: typ, CashEquivalent: d.CashEquivalent})
		}
	}
	return out
}
