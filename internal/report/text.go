package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const amountWidth = 14

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func day(t time.Time) string { return t.Format(time.DateOnly) }

func line(b *strings.Builder, label string, d decimal.Decimal) {
	fmt.Fprintf(b, "  %-40s %*s\n", label, amountWidth, money(d))
}

func (tb TrialBalance) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Trial Balance\nPeriod: %s to %s\n\n", day(tb.Start), day(tb.End))
	fmt.Fprintf(&b, "  %-10s %-29s %*s %*s\n", "Code", "Account", amountWidth, "Debit", amountWidth, "Credit")
	for _, r := range tb.Rows {
		fmt.Fprintf(&b, "  %-10s %-29s %*s %*s\n", r.Code, r.Name, amountWidth, money(r.Debit), amountWidth, money(r.Credit))
	}
	fmt.Fprintf(&b, "  %-40s %*s %*s\n", "Total", amountWidth, money(tb.TotalDebit), amountWidth, money(tb.TotalCredit))
	if tb.Balanced {
		b.WriteString("Status: balanced\n")
	} else {
		b.WriteString("Status: NOT balanced\n")
	}
	return b.String()
}

func section(b *strings.Builder, title string, rows []AccountAmount, total decimal.Decimal) {
	fmt.Fprintf(b, "%s\n", title)
	for _, r := range rows {
		line(b, r.Name, r.Amount)
	}
	line(b, "Total "+title, total)
	b.WriteString("\n")
}

func (is IncomeStatement) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Income Statement\nPeriod: %s to %s\n\n", day(is.Start), day(is.End))
	section(&b, "Revenue", is.Revenue, is.TotalRevenue)
	section(&b, "Expenses", is.Expenses, is.TotalExpenses)
	line(&b, "Net Income", is.NetIncome)
	return b.String()
}

func (bs BalanceSheet) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Balance Sheet\nAs of: %s\n\n", day(bs.AsOf))
	section(&b, "Assets", bs.Assets, bs.TotalAssets)
	section(&b, "Liabilities", bs.Liabilities, bs.TotalLiabilities)
	section(&b, "Equity", bs.Equity, bs.TotalEquity)
	line(&b, "Total Liabilities and Equity", bs.TotalLiabilitiesAndEquity)
	return b.String()
}

func (cf CashFlow) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Cash Flow Statement\nPeriod: %s to %s\n\n", day(cf.Start), day(cf.End))
	for _, a := range cf.Accounts {
		fmt.Fprintf(&b, "%s (%s)\n", a.Name, a.Code)
		line(&b, "Opening", a.Opening)
		line(&b, "Closing", a.Closing)
		line(&b, "Net Change", a.NetChange)
	}
	b.WriteString("\n")
	line(&b, "Net Change in Cash", cf.NetChange)
	return b.String()
}
