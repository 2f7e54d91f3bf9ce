package schedule

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSpecialHolidaysRoundTrip(t *testing.T) {
	dir := t.TempDir()

	set := map[string]struct{}{
		"2025/08/13": {},
		"2025/08/14": {},
	}
	require.NoError(t, SaveSpecialHolidays(dir, set))

	loaded := LoadSpecialHolidays(dir)
	require.Equal(t, set, loaded)
}

func TestSpecialHolidaysLegacyFormat(t *testing.T) {
	dir := t.TempDir()
	// files written by older versions use dashes
	raw := []byte(`["2025-08-13", "2025/08/14", ""]`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "special_holidays.json"), raw, 0644))

	loaded := LoadSpecialHolidays(dir)
	require.Len(t, loaded, 2)
	require.Contains(t, loaded, "2025/08/13")
	require.Contains(t, loaded, "2025/08/14")
}

func TestSpecialHolidaysMissingFile(t *testing.T) {
	require.Empty(t, LoadSpecialHolidays(t.TempDir()))
}

func TestCountWorkdays(t *testing.T) {
	// july 2025: 31 days, 8 weekend days, 1 national holiday (7/21)
	require.Equal(t, 22, CountWorkdays(2025, time.July, nil, false))
	require.Equal(t, 23, CountWorkdays(2025, time.July, nil, true))

	special := map[string]struct{}{"2025/07/01": {}}
	require.Equal(t, 21, CountWorkdays(2025, time.July, special, false))
}

func TestStdWorkHours(t *testing.T) {
	require.Equal(t, 8.0, StdWorkHours("0800"))
	require.Equal(t, 7.5, StdWorkHours("0730"))
	require.Equal(t, 8.0, StdWorkHours(""))
	require.Equal(t, 8.0, StdWorkHours("xx"))
}

func TestEstimateMonthHours(t *testing.T) {
	got := EstimateMonthHours(2025, time.July, nil, false, "0730")
	require.Equal(t, 22*7.5, got)
}
