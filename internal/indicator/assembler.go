package indicator

import (
	"sort"

	"github.com/andresuchdata/sentinela-corte/internal/domain"
)

// Assemble appends total to the branch rows and applies the canonical
// order: row class first, then (when rankByImpact) impact descending, then
// branch identifier ascending.
func Assemble(rows []domain.ReportRow, total domain.ReportRow, rankByImpact bool) []domain.ReportRow {
	out := make([]domain.ReportRow, 0, len(rows)+1)
	out = append(out, rows...)
	out = append(out, total)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Class != b.Class {
			return a.Class < b.Class
		}
		if rankByImpact {
			if c := a.Impact.Cmp(b.Impact); c != 0 {
				return c > 0
			}
		}
		return a.Branch < b.Branch
	})

	return out
}
