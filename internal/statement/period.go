package statement

import (
	"time"

	"github.com/tinoosan/ledgerd/internal/errs"
	"github.com/tinoosan/ledgerd/internal/ledger"
)

// Period is an inclusive range of calendar days. End is the last day covered.
type Period struct {
	Start time.Time
	End   time.Time
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

// ResolvePeriod turns a request into calendar bounds. Missing month, quarter
// or year fall back to the date of now.
func ResolvePeriod(req ledger.StatementRequest, now time.Time) (Period, error) {
	today := dateOf(now)
	year := intOr(req.Year, today.Year())
	if year < 1 || year > 9999 {
		return Period{}, errs.Invalid("year out of range")
	}
	var p Period
	switch req.PeriodType {
	case ledger.PeriodMonthly:
		month := intOr(req.Month, int(today.Month()))
		if month < 1 || month > 12 {
			return Period{}, errs.Invalid("month must be 1-12")
		}
		p.Start = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		p.End = p.Start.AddDate(0, 1, -1)
	case ledger.PeriodQuarterly:
		q := intOr(req.Quarter, (int(today.Month())-1)/3+1)
		if q < 1 || q > 4 {
			return Period{}, errs.Invalid("quarter must be 1-4")
		}
		p.Start = time.Date(year, time.Month((q-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
		p.End = p.Start.AddDate(0, 3, -1)
	case ledger.PeriodYearly:
		p.Start = time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		p.End = time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	case ledger.PeriodCustom:
		if req.StartDate == nil || req.EndDate == nil {
			return Period{}, errs.Invalid("custom period requires start and end dates")
		}
		p.Start = dateOf(*req.StartDate)
		p.End = dateOf(*req.EndDate)
	default:
		return Period{}, errs.Invalid("unknown period type " + string(req.PeriodType))
	}
	if p.End.Before(p.Start) {
		return Period{}, errs.Invalid("period end before start")
	}
	return p, nil
}
