package payslip

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	salary := []map[string]string{
		{"年月日": "令和07年03月25日 給与", "総支給額": "400000", "差引支給額": "320000", "総時間外": "10", "有給使用日数": "1", "有給残日数": "19"},
		{"年月日": "令和07年04月25日 給与", "総支給額": "410000", "差引支給額": "330000", "総時間外": "12.5", "有給使用日数": "0", "有給残日数": "19"},
		{"年月日": "令和07年07月25日 給与", "総支給額": "420000", "差引支給額": "340000", "総時間外": "8", "有給使用日数": "2", "有給残日数": "17"},
		// previous calendar year, outside fiscal 2025 as well
		{"年月日": "令和06年12月25日 給与", "総支給額": "390000", "差引支給額": "310000", "総時間外": "5", "有給使用日数": "0", "有給残日数": "20"},
		{"年月日": "broken label", "総支給額": "999999"},
	}
	bonus := []map[string]string{
		{"支給日": "令和07年07月10日", "賞与額": "500000", "総支給額": "500000", "差引支給額": "400000"},
		{"支給日": "令和06年12月10日", "賞与額": "450000", "総支給額": "450000", "差引支給額": "360000"},
	}

	s := Summarize(2025, salary, bonus)

	require.Equal(t, 2025, s.Year)
	require.Equal(t, 3, s.SalaryMonths)
	require.Equal(t, 1, s.BonusCount)
	// three 2025 salary months plus the 2025 bonus
	require.Equal(t, 400000.0+410000+420000+500000, s.GrossTotal)
	require.Equal(t, 320000.0+330000+340000+400000, s.NetTotal)
	require.Equal(t, 500000.0, s.BonusTotal)
	// fiscal 2025 runs april 2025 through march 2026
	require.Equal(t, 12.5+8, s.FiscalOvertime)
	require.Equal(t, 3.0, s.PaidLeaveUsedDays)
	// paid leave balance comes from the newest statement
	require.Equal(t, "17", s.PaidLeaveRemaining)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(2025, nil, nil)
	require.Equal(t, 0.0, s.GrossTotal)
	require.Equal(t, 0, s.SalaryMonths)
	require.Equal(t, "", s.PaidLeaveRemaining)
}
