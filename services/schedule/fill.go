package schedule

import (
	"fmt"
	"strings"
	"time"

	"worktool/lib/scrapers/kinmu"
)

// Work type codes the portal's dropdown posts, with the display names
// the codes stand for. Code 99 doubles as 稼働 and 休日; which one a
// row shows depends on its calendar flags, not the code.
var workTypeNames = map[string]string{
	"99": "稼働",
	"12": "有給",
	"81": "半休",
	"11": "欠勤",
	"85": "遅早",
}

var workTypeCodes = map[string]string{
	"稼働": "99",
	"休日": "99",
	"有給": "12",
	"半休": "81",
	"欠勤": "11",
	"遅早": "85",
}

// WorkTypeName resolves a row's code to its display name. holidayAsOff
// controls whether a national holiday row counts as 休日 the way a
// weekend does.
func WorkTypeName(row kinmu.Row, holidayAsOff bool) string {
	code := row.WorkType
	if code == "" {
		code = kinmu.DefaultWorkType
	}
	if code == kinmu.DefaultWorkType {
		if row.Youbi == "土" || row.Youbi == "日" || (holidayAsOff && row.Holiday()) {
			return "休日"
		}
		return "稼働"
	}
	if name, ok := workTypeNames[code]; ok {
		return name
	}
	return code
}

// WorkTypeCode maps a display name back to the portal code, defaulting
// to 稼働's code for anything unknown.
func WorkTypeCode(name string) string {
	if code, ok := workTypeCodes[name]; ok {
		return code
	}
	return kinmu.DefaultWorkType
}

// FillDefaults are the times bulk entry writes into empty rows, in the
// HHMM form the settings screen keeps them in.
type FillDefaults struct {
	Start    string
	End      string
	Rest     string
	Midnight string
	Comment  string
}

func DefaultFill() FillDefaults {
	return FillDefaults{Start: "0930", End: "1800", Rest: "0100", Midnight: "0000"}
}

func splitHM(v string) (string, string) {
	if len(v) < 4 {
		return "", ""
	}
	return v[:2], v[2:4]
}

// FillOptions steer one bulk-fill pass.
type FillOptions struct {
	Defaults     FillDefaults
	HolidayAsOff bool
	// Kishakai holds YYYY/MM/DD meeting dates; matching rows get the
	// participation comment. Matching ignores the year because the
	// schedule PDF is reused across year boundaries.
	Kishakai map[string]struct{}
}

func kishakaiMatch(dates map[string]struct{}, date time.Time) bool {
	md := fmt.Sprintf("%02d/%02d", date.Month(), date.Day())
	for d := range dates {
		if strings.HasSuffix(d, "/"+md) || d == md {
			return true
		}
	}
	return false
}

// BulkFill writes the default times into every past row that is still
// empty. Future rows, holiday rows and rows that already carry a start
// time are left alone. Returns how many rows changed.
func BulkFill(rows []kinmu.Row, today time.Time, opts FillOptions) int {
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	count := 0
	for i := range rows {
		row := &rows[i]
		date, ok := row.Date(today)
		if !ok || date.After(today) {
			continue
		}
		if WorkTypeName(*row, opts.HolidayAsOff) == "休日" {
			continue
		}
		// rows the user already touched, by time or by leave type, are
		// never overwritten
		if row.StartHour != "" {
			continue
		}
		if row.WorkType != "" && row.WorkType != kinmu.DefaultWorkType {
			continue
		}

		row.StartHour, row.StartMinute = splitHM(opts.Defaults.Start)
		row.EndHour, row.EndMinute = splitHM(opts.Defaults.End)
		row.RestHour, row.RestMinute = splitHM(opts.Defaults.Rest)
		row.MidnightHour, row.MidnightMinute = splitHM(opts.Defaults.Midnight)
		row.WorkType = kinmu.DefaultWorkType

		comment := opts.Defaults.Comment
		if kishakaiMatch(opts.Kishakai, date) && !strings.Contains(comment, KishakaiComment) {
			if comment != "" {
				comment += " " + KishakaiComment
			} else {
				comment = KishakaiComment
			}
		}
		if comment != "" {
			row.Comment = comment
		}
		count++
	}
	return count
}
