package kinmu

import (
	"fmt"
	"time"

	"worktool/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// DefaultWorkType is the portal's "unset" work-type code.
const DefaultWorkType = "99"

// NoWorkComment is the marker written into untouched historical holiday
// rows so downstream audits see an explicit entry instead of a blank.
const NoWorkComment = "稼働なし"

// maxRows is the slot count of the bulk-edit grid; one page covers at
// most 32 calendar days.
const maxRows = 32

// Row is one calendar day of the bulk-edit grid.
type Row struct {
	// identifiers
	Index int
	ID    string

	// read-only day metadata
	WorkDate      string // "2006/01/02", sometimes "01/02"
	Youbi         string
	YoubiCode     string
	Shukujitsu    string // raw "true"/"false" designated-holiday flag
	Nenkyu        string
	ApprovalName  string
	SlideStatus   string
	KakuteiShime  string
	KakuteiShonin string
	CopyAvailable string

	// editable fields, hour/minute kept as separate strings exactly as
	// the form carries them
	StartHour      string
	StartMinute    string
	EndHour        string
	EndMinute      string
	RestHour       string
	RestMinute     string
	MidnightHour   string
	MidnightMinute string
	WorkType       string
	Comment        string
	Confirmed      bool
}

// Holiday reports the server-side designated-holiday flag.
func (r Row) Holiday() bool {
	return r.Shukujitsu == "true"
}

// DateLabel names the row in user-facing messages.
func (r Row) DateLabel() string {
	if r.WorkDate != "" {
		return r.WorkDate
	}
	return fmt.Sprintf("%d行目", r.Index)
}

// Date resolves the row's work date; two-part dates borrow the year
// from today. The second return is false when the date is malformed.
func (r Row) Date(today time.Time) (time.Time, bool) {
	var y, m, d int
	if _, err := fmt.Sscanf(r.WorkDate, "%d/%d/%d", &y, &m, &d); err == nil {
		return time.Date(y, time.Month(m), d, 0, 0, 0, 0, today.Location()), true
	}
	if _, err := fmt.Sscanf(r.WorkDate, "%d/%d", &m, &d); err == nil {
		return time.Date(today.Year(), time.Month(m), d, 0, 0, 0, 0, today.Location()), true
	}
	return time.Time{}, false
}

func fieldName(index int, key string) string {
	return fmt.Sprintf("workDataDetailList[%d].%s", index, key)
}

// editArea returns the bulk-edit form, identified by its register
// submit control, falling back to the whole document.
func editArea(doc *goquery.Document) *goquery.Selection {
	register := doc.Find("input[name='register']")
	if register.Length() > 0 {
		form := register.Closest("form")
		if form.Length() > 0 {
			return form
		}
	}
	return doc.Selection
}

// parseRows probes all 32 grid slots. A slot without an id input does
// not exist for this period; gaps are tolerated and scanning continues.
func parseRows(doc *goquery.Document) []Row {
	area := editArea(doc)

	var rows []Row
	for i := 0; i < maxRows; i++ {
		if !htmlutil.HasInput(area, fieldName(i, "id")) {
			continue
		}
		value := func(key string) string {
			return htmlutil.InputValue(area, fieldName(i, key))
		}

		row := Row{
			Index:         i,
			ID:            value("id"),
			WorkDate:      value("workDate"),
			Youbi:         value("youbi"),
			YoubiCode:     value("youbiCode"),
			Shukujitsu:    value("shukujitsu"),
			Nenkyu:        value("nenkyu"),
			ApprovalName:  value("approvalName"),
			SlideStatus:   value("slideStatus"),
			KakuteiShime:  value("kakuteiShime"),
			KakuteiShonin: value("kakuteiShonin"),
			CopyAvailable: value("isAvailableCopy"),

			StartHour:      value("workStartTimeHour"),
			StartMinute:    value("workStartTimeMinute"),
			EndHour:        value("workEndTimeHour"),
			EndMinute:      value("workEndTimeMinute"),
			RestHour:       value("restTimeHour"),
			RestMinute:     value("restTimeMinute"),
			MidnightHour:   value("midnightTimeHour"),
			MidnightMinute: value("midnightTimeMinute"),

			WorkType: htmlutil.SelectedOption(area, fieldName(i, "workType"), DefaultWorkType),
			Comment:  value("comment"),
		}

		kakutei := area.Find(fmt.Sprintf("input[name='%s']", fieldName(i, "kakutei")))
		if _, checked := kakutei.Attr("checked"); checked && kakutei.Length() > 0 {
			row.Confirmed = true
		}

		rows = append(rows, row)
	}
	return rows
}
