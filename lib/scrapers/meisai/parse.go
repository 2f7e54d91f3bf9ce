package meisai

import (
	"worktool/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

// Value is one parsed statement field. Numeric cells become Int or
// Float; anything missing or unparseable stays Unavailable, which
// renders as "N/A" so gaps are visible downstream instead of silent.
type Value struct {
	Kind  ValueKind
	Int   int64
	Float float64
}

type ValueKind int

const (
	KindUnavailable ValueKind = iota
	KindInt
	KindFloat
)

var Unavailable = Value{}

func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return textutil.Number{Int: v.Int}.String()
	case KindFloat:
		return textutil.Number{IsFloat: true, Float: v.Float}.String()
	}
	return "N/A"
}

func (v Value) AsFloat() float64 {
	switch v.Kind {
	case KindInt:
		return float64(v.Int)
	case KindFloat:
		return v.Float
	}
	return 0
}

func parseValue(text string) Value {
	num, ok := textutil.ParseNumber(text)
	if !ok {
		return Unavailable
	}
	if num.IsFloat {
		return Value{Kind: KindFloat, Float: num.Float}
	}
	return Value{Kind: KindInt, Int: num.Int}
}

// Record is one statement: the period label it belongs to plus the
// parsed field values.
type Record struct {
	Period string
	Fields map[string]Value
}

// salaryFieldAliases maps detail-page labels to record field names. The
// portal writes 有休 where the rest of the tooling says 有給.
var salaryFieldAliases = map[string]string{
	"総支給額":   "総支給額",
	"差引支給額":  "差引支給額",
	"総時間外":   "総時間外",
	"有給消化時間": "有給消化時間",
	"有休使用日数": "有給使用日数",
	"有休残日数":  "有給残日数",
}

var SalaryFields = []string{
	"総支給額", "差引支給額", "総時間外", "有給消化時間", "有給使用日数", "有給残日数",
}

var BonusFields = []string{
	"賞与額", "控除合計", "差引支給額", "総支給額", "所得税", "社会保険料計",
}

var bonusFieldAliases = map[string]string{}

func init() {
	for _, name := range BonusFields {
		bonusFieldAliases[name] = name
	}
}

// parseDetail reads the dt/dd label/value pairs of the detail page's
// fixed container, keeping only labels present in the alias dictionary.
func parseDetail(doc *goquery.Document, aliases map[string]string, fields []string) map[string]Value {
	out := make(map[string]Value, len(fields))
	for _, name := range fields {
		out[name] = Unavailable
	}

	doc.Find("div#Html dl").Each(func(_ int, dl *goquery.Selection) {
		label := textutil.CleanCell(dl.Find("dt").First().Text())
		name, ok := aliases[label]
		if !ok {
			return
		}
		out[name] = parseValue(dl.Find("dd").First().Text())
	})
	return out
}
