package report

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

// FormatNumber renders v with the given number of decimals and a space
// between thousands groups, e.g. 1234567.8 -> "1 234 567.8".
func FormatNumber(v float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	raw := strconv.FormatFloat(math.Abs(v), 'f', decimals, 64)
	intPart, frac, _ := strings.Cut(raw, ".")

	var b strings.Builder
	if v < 0 && strings.Trim(raw, "0.") != "" {
		b.WriteByte('-')
	}
	lead := len(intPart) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(intPart[:lead])
	for i := lead; i < len(intPart); i += 3 {
		b.WriteByte(' ')
		b.WriteString(intPart[i : i+3])
	}
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}

func formatMoney(v float64, currency string) string {
	return FormatNumber(v, 0) + " " + currency
}

func formatYears(v float64) string {
	if v <= 0 {
		return "-"
	}
	return FormatNumber(v, 1) + " ans"
}

// Filename is the slugified project name followed by the report date.
func Filename(projectName string, at time.Time) string {
	base := slug.Make(projectName)
	if base == "" {
		base = "audit"
	}
	return base + "-" + at.Format("20060102") + ".pdf"
}
