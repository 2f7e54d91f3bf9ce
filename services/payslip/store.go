package payslip

import (
	"encoding/csv"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"worktool/lib/jpcal"
	"worktool/lib/scrapers/meisai"
)

// HistoryStore is one statement-history CSV, fully loaded before each
// run and merged by period key. Salary histories key on the 8-rune
// month prefix, bonus histories on the full payout date.
type HistoryStore struct {
	Path      string
	KeyField  string
	Headers   []string
	PrefixKey bool
}

func NewSalaryStore(dir string) *HistoryStore {
	return &HistoryStore{
		Path:      filepath.Join(dir, "年間サマリー_全期間.csv"),
		KeyField:  "年月日",
		Headers:   append([]string{"年月日"}, meisai.SalaryFields...),
		PrefixKey: true,
	}
}

func NewBonusStore(dir string) *HistoryStore {
	return &HistoryStore{
		Path:     filepath.Join(dir, "年間賞与_全期間.csv"),
		KeyField: "支給日",
		Headers:  []string{"支給日", "賞与額", "差引支給額", "総支給額", "控除合計", "所得税", "社会保険料計"},
	}
}

func (s *HistoryStore) key(label string) string {
	if s.PrefixKey {
		return jpcal.PeriodPrefix(label)
	}
	return label
}

// Load reads the whole history into memory. A missing file is an empty
// history, not an error; a corrupt file logs and yields empty so a run
// can still proceed.
func (s *HistoryStore) Load() ([]map[string]string, map[string]struct{}) {
	keys := map[string]struct{}{}

	f, err := os.Open(s.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Error("failed to open history csv", "path", s.Path, "err", err)
		} else {
			slog.Info("history csv not found, starting fresh", "path", s.Path)
		}
		return nil, keys
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		slog.Error("failed to read history csv", "path", s.Path, "err", err)
		return nil, keys
	}
	if len(records) < 2 {
		return nil, keys
	}

	header := records[0]
	if len(header) > 0 {
		// the files are written with a BOM for spreadsheet tools
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	var rows []map[string]string
	for _, record := range records[1:] {
		row := map[string]string{}
		for i, name := range header {
			if i < len(record) {
				row[name] = record[i]
			}
		}
		rows = append(rows, row)
		if label := row[s.KeyField]; label != "" {
			keys[s.key(label)] = struct{}{}
		}
	}

	slog.Info("loaded history csv", "path", s.Path, "rows", len(rows))
	return rows, keys
}

// Merge folds new rows into existing ones; a new row with the same
// period key replaces the old.
func (s *HistoryStore) Merge(existing, incoming []map[string]string) []map[string]string {
	index := map[string]int{}
	var merged []map[string]string

	for _, row := range existing {
		label := row[s.KeyField]
		if at, ok := index[label]; ok {
			merged[at] = row
			continue
		}
		index[label] = len(merged)
		merged = append(merged, row)
	}
	for _, row := range incoming {
		label := row[s.KeyField]
		if at, ok := index[label]; ok {
			merged[at] = row
			continue
		}
		index[label] = len(merged)
		merged = append(merged, row)
	}
	return merged
}

// Save writes the history sorted by period with the fixed header order.
func (s *HistoryStore) Save(rows []map[string]string) error {
	if len(rows) == 0 {
		return nil
	}
	err := os.MkdirAll(filepath.Dir(s.Path), 0755)
	if err != nil {
		return err
	}

	sorted := make([]map[string]string, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return jpcal.ParsePeriod(sorted[i][s.KeyField]).Before(jpcal.ParsePeriod(sorted[j][s.KeyField]))
	})

	f, err := os.Create(s.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	// BOM so Excel opens the Japanese headers correctly
	if _, err := f.WriteString("\uFEFF"); err != nil {
		return err
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(s.Headers); err != nil {
		return err
	}
	for _, row := range sorted {
		record := make([]string, len(s.Headers))
		for i, name := range s.Headers {
			record[i] = row[name]
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()

	slog.Info("saved history csv", "path", s.Path, "rows", len(sorted))
	return writer.Error()
}

// recordRow flattens a scraped statement into a CSV row.
func recordRow(keyField string, rec meisai.Record) map[string]string {
	row := map[string]string{keyField: rec.Period}
	for name, value := range rec.Fields {
		row[name] = value.String()
	}
	return row
}
