package report

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/andresuchdata/sentinela-corte/internal/domain"
)

// FormatBRL renders v as Brazilian currency with two decimals.
// Example: 1234.5 => "R$ 1.234,50".
func FormatBRL(v decimal.Decimal) string {
	return "R$ " + formatBRNumber(v, 2)
}

// formatBRNumber uses dot as thousands separator and comma as decimal
// separator, always keeping the requested precision.
func formatBRNumber(v decimal.Decimal, decimals int32) string {
	neg := v.Round(decimals).IsNegative()
	s := v.Abs().StringFixed(decimals)

	intPart, fracPart, _ := strings.Cut(s, ".")
	if len(intPart) > 3 {
		var buf []byte
		count := 0
		for i := len(intPart) - 1; i >= 0; i-- {
			buf = append(buf, intPart[i])
			count++
			if count == 3 && i != 0 {
				buf = append(buf, '.')
				count = 0
			}
		}
		for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
			buf[i], buf[j] = buf[j], buf[i]
		}
		intPart = string(buf)
	}

	prefix := ""
	if neg {
		prefix = "-"
	}
	if fracPart == "" {
		return prefix + intPart
	}
	return prefix + intPart + "," + fracPart
}

// formatCount renders a quantity rounded to a whole number.
func formatCount(v decimal.Decimal) string {
	return v.Round(0).StringFixed(0)
}

// BranchLabeler maps branch codes to display names.
type BranchLabeler map[string]string

// Label returns the configured name or the raw code.
func (b BranchLabeler) Label(code string) string {
	if code == domain.TotalBranch {
		return domain.TotalBranch
	}
	if label, ok := b[strings.TrimSpace(code)]; ok {
		return label
	}
	return code
}
