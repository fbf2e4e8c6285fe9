package indicator

import (
	"github.com/shopspring/decimal"

	"github.com/andresuchdata/sentinela-corte/internal/domain"
)

// SynthesizeTotal folds the branch rows into the single TOTAL row. Ratios
// are sum over sum, never a mean of branch ratios; targets are the mean of
// branch targets. fallbackTarget applies when there are no branch rows.
func SynthesizeTotal(rows []domain.ReportRow, fallbackTarget decimal.Decimal, benchmark bool) domain.ReportRow {
	var (
		shortage         = decimal.Zero
		backorder        = decimal.Zero
		revenue          = decimal.Zero
		shortageTargets  []decimal.Decimal
		backorderTargets []decimal.Decimal
	)

	for _, r := range rows {
		if r.IsTotal() {
			continue
		}
		shortage = shortage.Add(r.Shortage.Value)
		revenue = revenue.Add(r.Revenue)
		shortageTargets = append(shortageTargets, r.Shortage.Target)
		if r.Backorder != nil {
			backorder = backorder.Add(r.Backorder.Value)
			backorderTargets = append(backorderTargets, r.Backorder.Target)
		}
	}

	ratio := WeightedRatio(shortage, revenue)
	total := domain.ReportRow{
		Branch:   domain.TotalBranch,
		Class:    domain.RowClassTotal,
		Revenue:  revenue,
		Shortage: scoreMetric(shortage, ratio, ratio, ratio, meanTarget(shortageTargets, fallbackTarget), domain.TargetFixed),
		Impact:   shortage,
	}

	if benchmark {
		bRatio := WeightedRatio(backorder, revenue)
		metric := scoreMetric(backorder, bRatio, bRatio, bRatio, meanTarget(backorderTargets, decimal.Zero), domain.TargetBaseline)
		total.Backorder = &metric
		total.Impact = shortage.Add(backorder)
	}

	return total
}

func meanTarget(targets []decimal.Decimal, fallback decimal.Decimal) decimal.Decimal {
	if len(targets) == 0 {
		return fallback.Round(2)
	}
	return decimal.Avg(targets[0], targets[1:]...).Round(2)
}
