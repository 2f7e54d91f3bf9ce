package jpcal

import (
	"fmt"
	"regexp"
	"time"

	holiday_jp "github.com/holiday-jp/holiday_jp-go"
	"worktool/lib/timezone"
)

// Both portals label periods in the Reiwa era. Salary statements use
// 令和YY年MM月 (the first eight runes of the full label), bonus
// statements use the full 令和YY年MM月DD日 payout date.

const reiwaOffset = 2018

// FirstScanYear bounds full-history scans; the payroll portal holds
// nothing older than the start of the Reiwa era.
const FirstScanYear = 2019

func ReiwaYear(western int) int {
	return western - reiwaOffset
}

func WesternYear(reiwa int) int {
	return reiwa + reiwaOffset
}

// FiscalLabel renders a western year as the portal's year label,
// e.g. 2025 -> 令和07年.
func FiscalLabel(western int) string {
	return fmt.Sprintf("令和%02d年", ReiwaYear(western))
}

// MonthLabel renders a salary period label, e.g. 2025/7 -> 令和07年07月.
func MonthLabel(western int, month time.Month) string {
	return fmt.Sprintf("令和%02d年%02d月", ReiwaYear(western), month)
}

// PeriodPrefix returns the first eight runes of a period label: the
// 令和YY年MM月 month part shared by every statement of that month.
// Shorter labels are returned unchanged.
func PeriodPrefix(label string) string {
	runes := []rune(label)
	if len(runes) < 8 {
		return label
	}
	return string(runes[:8])
}

var (
	fullDateRegex  = regexp.MustCompile(`令和(\d+)年(\d+)月(\d+)日`)
	yearMonthRegex = regexp.MustCompile(`令和(\d+)年(\d+)月`)
)

// ParsePeriod converts a period label into a sortable date. Bonus
// labels carry a day, salary labels resolve to the first of the month.
// Unparseable labels sort before everything else.
func ParsePeriod(label string) time.Time {
	if m := fullDateRegex.FindStringSubmatch(label); m != nil {
		var y, mo, d int
		fmt.Sscanf(m[1], "%d", &y)
		fmt.Sscanf(m[2], "%d", &mo)
		fmt.Sscanf(m[3], "%d", &d)
		return time.Date(WesternYear(y), time.Month(mo), d, 0, 0, 0, 0, timezone.Location)
	}
	if m := yearMonthRegex.FindStringSubmatch(label); m != nil {
		var y, mo int
		fmt.Sscanf(m[1], "%d", &y)
		fmt.Sscanf(m[2], "%d", &mo)
		return time.Date(WesternYear(y), time.Month(mo), 1, 0, 0, 0, 0, timezone.Location)
	}
	return time.Time{}
}

// LabelYear extracts the western year from a period label, or 0.
func LabelYear(label string) int {
	m := yearMonthRegex.FindStringSubmatch(label)
	if m == nil {
		return 0
	}
	var y int
	fmt.Sscanf(m[1], "%d", &y)
	return WesternYear(y)
}

// TargetMonths lists the salary period labels of one western year that
// can already have a statement: months after the current one are
// excluded, future years yield nothing.
func TargetMonths(today time.Time, year int) map[string]struct{} {
	months := map[string]struct{}{}
	if year > today.Year() {
		return months
	}
	last := time.December
	if year == today.Year() {
		last = today.Month()
	}
	for m := time.January; m <= last; m++ {
		months[MonthLabel(year, m)] = struct{}{}
	}
	return months
}

// TargetMonthsFullScan lists every salary period label from the start
// of the era through the current month.
func TargetMonthsFullScan(today time.Time) map[string]struct{} {
	months := map[string]struct{}{}
	for year := FirstScanYear; year <= today.Year(); year++ {
		for label := range TargetMonths(today, year) {
			months[label] = struct{}{}
		}
	}
	return months
}

// IsWeekend reports Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsNationalHoliday consults the public holiday table.
func IsNationalHoliday(t time.Time) bool {
	return holiday_jp.IsHoliday(t)
}

// IsWorkday reports whether t is an ordinary working day: not a
// weekend, not a national holiday and not in the caller's special set
// (keys in YYYY/MM/DD form).
func IsWorkday(t time.Time, special map[string]struct{}) bool {
	if IsWeekend(t) || IsNationalHoliday(t) {
		return false
	}
	_, ok := special[t.Format("2006/01/02")]
	return !ok
}
