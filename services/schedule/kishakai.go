package schedule

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"worktool/lib/timezone"
)

// The office-meeting schedule arrives either as a JSON date list or as
// the PDF the office circulates each year. Both load into a set of
// YYYY/MM/DD strings; rows whose month and day match one of them get
// the participation comment appended.

const KishakaiComment = "帰社会参加"

func LoadKishakaiDates(path string) (map[string]struct{}, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return loadKishakaiJSON(path)
	case ".pdf":
		return ReadKishakaiPDF(path, 0)
	default:
		return nil, fmt.Errorf("サポートされていない形式です: %s", filepath.Ext(path))
	}
}

func loadKishakaiJSON(path string) (map[string]struct{}, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var dates []string
	if err := json.Unmarshal(raw, &dates); err != nil {
		return nil, fmt.Errorf("JSON形式が無効です: %w", err)
	}
	set := map[string]struct{}{}
	for _, d := range dates {
		if d = normalizeDate(d); d != "" {
			set[d] = struct{}{}
		}
	}
	return set, nil
}

// The schedule PDFs come out of a Japanese word processor that uses
// radical-variant codepoints for common kanji.
var pdfTextReplacer = strings.NewReplacer(
	"⽉", "月", "⽇", "日", "⽔", "水", "⾦", "金",
	"⼟", "土", "⽊", "木", "⽕", "火",
	" ", "", "　", "", " ", "",
)

var (
	pdfYearRegex      = regexp.MustCompile(`(20[2-3]\d)\s*(?:年度?|帰社)`)
	filenameYearRegex = regexp.MustCompile(`20[2-3]\d`)
	monthRegex        = regexp.MustCompile(`(\d{1,2})月`)
	// month digits are always followed by 月, never 日, so a bare day
	// match cannot capture them
	dayRegex = regexp.MustCompile(`(\d{1,2})日`)
)

// ReadKishakaiPDF extracts meeting dates from the schedule PDF. With
// year 0 the year is detected from the document text, then the file
// name, then the current year. Rows carry a month column that persists
// down the table, so a bare day still resolves against the last month
// seen.
func ReadKishakaiPDF(path string, year int) (map[string]struct{}, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	for pageNo := 1; pageNo <= reader.NumPage(); pageNo++ {
		page := reader.Page(pageNo)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			slog.Warn("failed to extract pdf page text", "page", pageNo, "err", err)
			continue
		}
		for _, row := range rows {
			var sb strings.Builder
			for _, word := range row.Content {
				sb.WriteString(word.S)
			}
			if line := pdfTextReplacer.Replace(strings.TrimSpace(sb.String())); line != "" {
				lines = append(lines, line)
			}
		}
	}

	if year == 0 {
		year = detectYear(path, lines)
	}
	slog.Info("parsing kishakai schedule", "path", path, "year", year)

	dates := parseScheduleLines(lines, year)
	slog.Info("extracted kishakai dates", "count", len(dates))
	return dates, nil
}

// parseScheduleLines walks the table lines top to bottom. The month
// column persists down the table, so a line carrying only a day cell
// resolves against the last month seen.
func parseScheduleLines(lines []string, year int) map[string]struct{} {
	dates := map[string]struct{}{}
	currentMonth := 0
	for _, line := range lines {
		if m := monthRegex.FindStringSubmatch(line); m != nil {
			currentMonth, _ = strconv.Atoi(m[1])
		}
		if currentMonth == 0 {
			continue
		}
		for _, m := range dayRegex.FindAllStringSubmatch(line, -1) {
			day, _ := strconv.Atoi(m[1])
			if d, ok := validDate(year, currentMonth, day); ok {
				dates[d] = struct{}{}
			}
		}
	}
	return dates
}

func detectYear(path string, lines []string) int {
	for _, line := range lines {
		if m := pdfYearRegex.FindStringSubmatch(line); m != nil {
			y, _ := strconv.Atoi(m[1])
			slog.Info("detected year from pdf text", "year", y)
			return y
		}
	}
	if m := filenameYearRegex.FindString(filepath.Base(path)); m != "" {
		y, _ := strconv.Atoi(m)
		slog.Info("detected year from file name", "year", y)
		return y
	}
	y := timezone.Now().Year()
	slog.Warn("could not detect schedule year, assuming current", "year", y)
	return y
}

func validDate(year, month, day int) (string, bool) {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, timezone.Location)
	if int(t.Month()) != month || t.Day() != day {
		return "", false
	}
	return t.Format("2006/01/02"), true
}
