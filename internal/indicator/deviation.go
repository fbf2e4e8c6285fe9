package indicator

import (
	"github.com/shopspring/decimal"

	"github.com/andresuchdata/sentinela-corte/internal/domain"
)

// DefaultShortageTarget is the fixed META for the CORTE ratio: 0.03%.
var DefaultShortageTarget = decimal.RequireFromString("0.03")

// Classify scores observed against target after rounding both to two
// decimals.
func Classify(observed, target decimal.Decimal, kind domain.TargetKind) domain.Deviation {
	o, t := observed.Round(2), target.Round(2)

	d := domain.Deviation{
		Sign:      domain.SignAtTarget,
		Magnitude: decimal.Zero,
		Target:    t,
		Kind:      kind,
	}

	switch o.Cmp(t) {
	case 1:
		d.Sign = domain.SignAbove
		d.Magnitude = o.Sub(t)
	case -1:
		d.Sign = domain.SignBelow
		d.Magnitude = t.Sub(o)
	}
	return d
}

// FormatPercent renders a ratio with two decimals and a trailing "%".
func FormatPercent(v decimal.Decimal) string {
	return v.StringFixed(2) + "%"
}

// scoreMetric compares the weighted ratio against target and renders the
// shown figure.
func scoreMetric(value, weighted, dailyMean, shown, target decimal.Decimal, kind domain.TargetKind) domain.MetricResult {
	dev := Classify(weighted, target, kind)
	return domain.MetricResult{
		Value:         value,
		WeightedRatio: weighted,
		DailyMean:     dailyMean,
		Ratio:         shown,
		Target:        dev.Target,
		Deviation:     dev,
		RatioText:     FormatPercent(shown),
		WeightedText:  FormatPercent(weighted),
		TargetText:    FormatPercent(dev.Target),
		DeviationText: dev.String(),
	}
}
