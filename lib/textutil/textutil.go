package textutil

import (
	"regexp"
	"strconv"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// CleanCell collapses the whitespace soup that table cells on the
// legacy portals come with (leading tabs, full-width spaces, inner newlines).
func CleanCell(s string) string {
	s = strings.ReplaceAll(s, "　", " ")
	s = strings.TrimSpace(s)
	return whitespaceRegex.ReplaceAllString(s, " ")
}

// Number is a numeric cell value parsed from comma-separated text.
// Cells like "1,234" parse to Int 1234, cells like "12.5" to Float 12.5.
type Number struct {
	IsFloat bool
	Int     int64
	Float   float64
}

func (n Number) AsFloat() float64 {
	if n.IsFloat {
		return n.Float
	}
	return float64(n.Int)
}

func (n Number) String() string {
	if n.IsFloat {
		return strconv.FormatFloat(n.Float, 'f', -1, 64)
	}
	return strconv.FormatInt(n.Int, 10)
}

// ParseNumber parses portal numeric text with thousands separators
// stripped. The second return is false when the text is not numeric.
func ParseNumber(s string) (Number, bool) {
	s = strings.ReplaceAll(CleanCell(s), ",", "")
	if s == "" {
		return Number{}, false
	}
	if strings.Contains(s, ".") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Number{}, false
		}
		return Number{IsFloat: true, Float: f}, true
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Number{}, false
	}
	return Number{Int: i}, true
}
