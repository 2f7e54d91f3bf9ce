package payslip

import (
	"time"

	"worktool/lib/jpcal"
	"worktool/lib/textutil"
)

// Summary aggregates one calendar year of statements. Overtime runs on
// the fiscal year instead (April through the following March), which is
// how the portal's own annual report slices it.
type Summary struct {
	Year               int
	GrossTotal         float64
	NetTotal           float64
	BonusTotal         float64
	FiscalOvertime     float64
	PaidLeaveUsedDays  float64
	PaidLeaveRemaining string
	SalaryMonths       int
	BonusCount         int
}

func rowValue(row map[string]string, field string) (float64, bool) {
	n, ok := textutil.ParseNumber(row[field])
	if !ok {
		return 0, false
	}
	return n.AsFloat(), true
}

// inFiscalYear reports whether t falls in the fiscal year that starts
// April of the given western year.
func inFiscalYear(t time.Time, year int) bool {
	start := time.Date(year, time.April, 1, 0, 0, 0, 0, t.Location())
	end := start.AddDate(1, 0, 0)
	return !t.Before(start) && t.Before(end)
}

// Summarize folds salary and bonus histories into one year's totals.
// Rows with unparseable amounts count toward nothing.
func Summarize(year int, salaryRows, bonusRows []map[string]string) Summary {
	s := Summary{Year: year}

	var latest time.Time
	for _, row := range salaryRows {
		period := jpcal.ParsePeriod(row["年月日"])
		if period.IsZero() {
			continue
		}
		if inFiscalYear(period, year) {
			if v, ok := rowValue(row, "総時間外"); ok {
				s.FiscalOvertime += v
			}
		}
		if period.Year() != year {
			continue
		}
		s.SalaryMonths++
		if v, ok := rowValue(row, "総支給額"); ok {
			s.GrossTotal += v
		}
		if v, ok := rowValue(row, "差引支給額"); ok {
			s.NetTotal += v
		}
		if v, ok := rowValue(row, "有給使用日数"); ok {
			s.PaidLeaveUsedDays += v
		}
		if period.After(latest) {
			latest = period
			s.PaidLeaveRemaining = row["有給残日数"]
		}
	}

	for _, row := range bonusRows {
		period := jpcal.ParsePeriod(row["支給日"])
		if period.IsZero() || period.Year() != year {
			continue
		}
		s.BonusCount++
		if v, ok := rowValue(row, "賞与額"); ok {
			s.BonusTotal += v
		}
		if v, ok := rowValue(row, "総支給額"); ok {
			s.GrossTotal += v
		}
		if v, ok := rowValue(row, "差引支給額"); ok {
			s.NetTotal += v
		}
	}

	return s
}
