package statement

import (
	"errors"
	"testing"
	"time"

	"github.com/tinoosan/ledgerd/internal/errs"
	"github.com/tinoosan/ledgerd/internal/ledger"
)

func ip(n int) *int { return &n }

func d(y int, m time.Month, day int) time.Time { return time.Date(y, m, day, 0, 0, 0, 0, time.UTC) }

func TestResolvePeriod(t *testing.T) {
	now := time.Date(2025, 8, 17, 15, 4, 5, 0, time.UTC)
	cases := []struct {
		name       string
		req        ledger.StatementRequest
		start, end time.Time
	}{
		{"monthly june", ledger.StatementRequest{PeriodType: ledger.PeriodMonthly, Month: ip(6), Year: ip(2023)}, d(2023, 6, 1), d(2023, 6, 30)},
		{"monthly leap feb", ledger.StatementRequest{PeriodType: ledger.PeriodMonthly, Month: ip(2), Year: ip(2024)}, d(2024, 2, 1), d(2024, 2, 29)},
		{"monthly defaults to now", ledger.StatementRequest{PeriodType: ledger.PeriodMonthly}, d(2025, 8, 1), d(2025, 8, 31)},
		{"quarter four", ledger.StatementRequest{PeriodType: ledger.PeriodQuarterly, Quarter: ip(4), Year: ip(2023)}, d(2023, 10, 1), d(2023, 12, 31)},
		{"quarter defaults to now", ledger.StatementRequest{PeriodType: ledger.PeriodQuarterly, Year: ip(2025)}, d(2025, 7, 1), d(2025, 9, 30)},
		{"yearly", ledger.StatementRequest{PeriodType: ledger.PeriodYearly, Year: ip(2024)}, d(2024, 1, 1), d(2024, 12, 31)},
		{"custom", ledger.StatementRequest{PeriodType: ledger.PeriodCustom, StartDate: ptr(d(2024, 3, 5)), EndDate: ptr(time.Date(2024, 3, 9, 18, 0, 0, 0, time.UTC))}, d(2024, 3, 5), d(2024, 3, 9)},
	}
	for _, c := range cases {
		p, err := ResolvePeriod(c.req, now)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if !p.Start.Equal(c.start) || !p.End.Equal(c.end) {
			t.Fatalf("%s: got [%s, %s], want [%s, %s]", c.name, p.Start, p.End, c.start, c.end)
		}
	}
}

func ptr(t time.Time) *time.Time { return &t }

func TestResolvePeriodCustomKeepsCallerDates(t *testing.T) {
	east := time.FixedZone("UTC+2", 2*3600)
	west := time.FixedZone("UTC-5", -5*3600)
	req := ledger.StatementRequest{
		PeriodType: ledger.PeriodCustom,
		StartDate:  ptr(time.Date(2023, 6, 1, 0, 30, 0, 0, east)),
		EndDate:    ptr(time.Date(2023, 6, 30, 23, 0, 0, 0, west)),
	}
	p, err := ResolvePeriod(req, time.Now())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !p.Start.Equal(d(2023, 6, 1)) || !p.End.Equal(d(2023, 6, 30)) {
		t.Fatalf("dates shifted: [%s, %s]", p.Start, p.End)
	}
}

func TestResolvePeriodRejects(t *testing.T) {
	now := time.Now()
	bad := []ledger.StatementRequest{
		{PeriodType: ledger.PeriodCustom, StartDate: ptr(now)},
		{PeriodType: ledger.PeriodCustom},
		{PeriodType: ledger.PeriodMonthly, Month: ip(13)},
		{PeriodType: ledger.PeriodQuarterly, Quarter: ip(0)},
		{PeriodType: ledger.PeriodCustom, StartDate: ptr(d(2024, 2, 1)), EndDate: ptr(d(2024, 1, 1))},
		{PeriodType: "WEEKLY"},
	}
	for i, req := range bad {
		if _, err := ResolvePeriod(req, now); !errors.Is(err, errs.ErrInvalid) {
			t.Fatalf("case %d: expected ErrInvalid, got %v", i, err)
		}
	}
}
