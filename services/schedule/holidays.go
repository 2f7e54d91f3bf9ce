package schedule

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Special holidays are company closures (summer shutdown, founding
// anniversary) that the public holiday table does not know about. They
// persist as a JSON array of date strings next to the other data
// files; older files use YYYY-MM-DD, newer ones YYYY/MM/DD, and both
// load into the same YYYY/MM/DD keyed set.

const specialHolidaysFile = "special_holidays.json"

func normalizeDate(d string) string {
	return strings.ReplaceAll(strings.TrimSpace(d), "-", "/")
}

func LoadSpecialHolidays(dir string) map[string]struct{} {
	set := map[string]struct{}{}
	raw, err := os.ReadFile(filepath.Join(dir, specialHolidaysFile))
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Error("failed to read special holidays", "err", err)
		}
		return set
	}
	var dates []string
	if err := json.Unmarshal(raw, &dates); err != nil {
		slog.Error("failed to parse special holidays", "err", err)
		return set
	}
	for _, d := range dates {
		if d = normalizeDate(d); d != "" {
			set[d] = struct{}{}
		}
	}
	return set
}

func SaveSpecialHolidays(dir string, set map[string]struct{}) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	dates := make([]string, 0, len(set))
	for d := range set {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	raw, err := json.MarshalIndent(dates, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, specialHolidaysFile), raw, 0644)
}
