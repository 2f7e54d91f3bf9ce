package kinmu

import (
	"log/slog"
	"net/url"
	"strings"
	"time"

	"worktool/lib/htmlutil"
	"worktool/lib/jpcal"

	"github.com/PuerkitoBio/goquery"
)

// buildPayload assembles the bulk-update POST body. It starts from a
// verbatim copy of the current form so server-managed fields survive
// the round-trip unchanged, strips the previously-confirmed flags, then
// overlays the caller's edits row by row.
func buildPayload(form *goquery.Selection, rows []Row, today time.Time) url.Values {
	payload := htmlutil.FormValues(form)

	for key := range payload {
		if strings.HasSuffix(key, ".kakutei") {
			payload.Del(key)
		}
	}

	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())

	for _, row := range rows {
		row.autoFillNoWork(today)

		set := func(key, value string) {
			payload.Set(fieldName(row.Index, key), value)
		}

		if row.ID != "" {
			set("id", row.ID)
		}

		// a zero midnight break is not a meaningful duration; the
		// portal treats "00" as input rather than absence
		mh := row.MidnightHour
		mm := row.MidnightMinute
		if mh == "00" {
			mh = ""
		}
		if mm == "00" {
			mm = ""
		}

		set("workStartTimeHour", row.StartHour)
		set("workStartTimeMinute", row.StartMinute)
		set("workEndTimeHour", row.EndHour)
		set("workEndTimeMinute", row.EndMinute)
		set("restTimeHour", row.RestHour)
		set("restTimeMinute", row.RestMinute)
		set("midnightTimeHour", mh)
		set("midnightTimeMinute", mm)
		workType := row.WorkType
		if workType == "" {
			workType = DefaultWorkType
		}
		set("workType", workType)
		set("comment", row.Comment)

		hasTime := strings.TrimSpace(row.StartHour) != ""
		hasComment := row.Comment != ""
		hasType := workType != DefaultWorkType
		if hasTime || hasComment || hasType {
			set("kakutei", "true")
		}
	}

	payload.Set("register", "登録")
	return payload
}

// autoFillNoWork forces the no-work marker onto a strictly past holiday
// row the user left untouched, so blank historical holidays don't trip
// downstream audits.
func (r *Row) autoFillNoWork(today time.Time) {
	date, ok := r.Date(today)
	if !ok {
		if r.WorkDate != "" {
			slog.Warn("could not resolve work date for auto-fill", "row", r.Index, "work_date", r.WorkDate)
		}
		return
	}

	empty := strings.TrimSpace(r.StartHour) == "" &&
		(r.WorkType == "" || r.WorkType == DefaultWorkType) &&
		strings.TrimSpace(r.Comment) == ""
	holiday := jpcal.IsWeekend(date) || r.Holiday()

	if date.Before(today) && holiday && empty {
		r.Comment = NoWorkComment
		slog.Info("auto-filled no-work marker", "date", r.WorkDate)
	}
}
