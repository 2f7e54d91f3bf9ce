package jpcal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"worktool/lib/timezone"
)

func TestPeriodPrefix(t *testing.T) {
	testCases := []struct {
		label    string
		expected string
	}{
		{"令和07年07月25日", "令和07年07月"},
		{"令和07年07月", "令和07年07月"},
		{"令和07年", "令和07年"},
		{"", ""},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expected, PeriodPrefix(tc.label))
	}
}

func TestParsePeriod(t *testing.T) {
	tz := timezone.Location

	testCases := []struct {
		label    string
		expected time.Time
	}{
		{"令和07年07月", time.Date(2025, 7, 1, 0, 0, 0, 0, tz)},
		{"令和07年12月10日", time.Date(2025, 12, 10, 0, 0, 0, 0, tz)},
		{"令和01年05月", time.Date(2019, 5, 1, 0, 0, 0, 0, tz)},
		{"not a label", time.Time{}},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expected, ParsePeriod(tc.label))
	}
}

func TestLabelYear(t *testing.T) {
	require.Equal(t, 2025, LabelYear("令和07年07月"))
	require.Equal(t, 0, LabelYear("平成30年07月"))
}

func TestTargetMonths(t *testing.T) {
	today := time.Date(2025, 7, 15, 12, 0, 0, 0, timezone.Location)

	current := TargetMonths(today, 2025)
	require.Len(t, current, 7)
	require.Contains(t, current, "令和07年01月")
	require.Contains(t, current, "令和07年07月")
	require.NotContains(t, current, "令和07年08月")

	past := TargetMonths(today, 2024)
	require.Len(t, past, 12)

	require.Empty(t, TargetMonths(today, 2026))
}

func TestTargetMonthsFullScan(t *testing.T) {
	today := time.Date(2020, 2, 1, 0, 0, 0, 0, timezone.Location)
	months := TargetMonthsFullScan(today)
	// all of 2019 plus january and february 2020
	require.Len(t, months, 14)
	require.Contains(t, months, "令和01年01月")
	require.Contains(t, months, "令和02年02月")
}

func TestIsWorkday(t *testing.T) {
	special := map[string]struct{}{"2025/08/13": {}}

	testCases := []struct {
		date     time.Time
		expected bool
	}{
		// an ordinary friday
		{time.Date(2025, 8, 15, 0, 0, 0, 0, timezone.Location), true},
		// saturday
		{time.Date(2025, 8, 16, 0, 0, 0, 0, timezone.Location), false},
		// mountain day, a national holiday
		{time.Date(2025, 8, 11, 0, 0, 0, 0, timezone.Location), false},
		// company summer shutdown
		{time.Date(2025, 8, 13, 0, 0, 0, 0, timezone.Location), false},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expected, IsWorkday(tc.date, special), tc.date.String())
	}
}

func TestFiscalLabel(t *testing.T) {
	require.Equal(t, "令和07年", FiscalLabel(2025))
	require.Equal(t, "令和07年07月", MonthLabel(2025, time.July))
}
