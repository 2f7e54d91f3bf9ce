package schedule

import (
	"strconv"
	"time"

	"worktool/lib/jpcal"
	"worktool/lib/timezone"
)

// StdWorkHours converts an HHMM setting like "0800" into hours.
// Anything unparseable falls back to an eight hour day.
func StdWorkHours(v string) float64 {
	h, hm := splitHM(v)
	if h == "" {
		return 8.0
	}
	hours, err1 := strconv.Atoi(h)
	minutes, err2 := strconv.Atoi(hm)
	if err1 != nil || err2 != nil {
		return 8.0
	}
	return float64(hours) + float64(minutes)/60
}

// CountWorkdays counts the working days of one month: weekends out,
// special company holidays out, national holidays out unless
// holidaysAreWork is set.
func CountWorkdays(year int, month time.Month, special map[string]struct{}, holidaysAreWork bool) int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, timezone.Location)
	count := 0
	for d := first; d.Month() == month; d = d.AddDate(0, 0, 1) {
		if _, ok := special[d.Format("2006/01/02")]; ok {
			continue
		}
		if jpcal.IsWeekend(d) {
			continue
		}
		if jpcal.IsNationalHoliday(d) && !holidaysAreWork {
			continue
		}
		count++
	}
	return count
}

// EstimateMonthHours is the expected total for a month: workdays times
// the standard day length.
func EstimateMonthHours(year int, month time.Month, special map[string]struct{}, holidaysAreWork bool, stdWork string) float64 {
	return float64(CountWorkdays(year, month, special, holidaysAreWork)) * StdWorkHours(stdWork)
}
