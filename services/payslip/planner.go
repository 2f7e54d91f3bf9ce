package payslip

import (
	"time"

	"worktool/lib/jpcal"
)

// PlanSalaryTargets computes which month prefixes still need fetching
// for one calendar year: every month the portal could have published,
// minus what the history already holds.
func PlanSalaryTargets(today time.Time, year int, existing map[string]struct{}, fullScan bool) map[string]struct{} {
	var required map[string]struct{}
	if fullScan {
		required = jpcal.TargetMonthsFullScan(today)
	} else {
		required = jpcal.TargetMonths(today, year)
	}

	missing := map[string]struct{}{}
	for prefix := range required {
		if _, ok := existing[prefix]; !ok {
			missing[prefix] = struct{}{}
		}
	}
	return missing
}

// PlanYears returns the calendar years a run should visit, oldest
// first. A full scan walks from the first year the portal keeps data
// for; otherwise only the requested year is visited.
func PlanYears(today time.Time, year int, fullScan bool) []int {
	if !fullScan {
		return []int{year}
	}
	var years []int
	for y := jpcal.FirstScanYear; y <= today.Year(); y++ {
		years = append(years, y)
	}
	return years
}
