package indicator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/andresuchdata/sentinela-corte/internal/domain"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		observed  string
		target    string
		kind      domain.TargetKind
		sign      domain.DeviationSign
		magnitude string
		rendered  string
	}{
		{"above fixed", "3.00", "0.03", domain.TargetFixed, domain.SignAbove, "2.97", "+2.97% ACIMA"},
		{"below fixed", "0", "0.03", domain.TargetFixed, domain.SignBelow, "0.03", "-0.03% ABAIXO"},
		{"equal fixed", "0.03", "0.03", domain.TargetFixed, domain.SignAtTarget, "0", "0% (NA META)"},
		{"equal after rounding", "0.034", "0.03", domain.TargetFixed, domain.SignAtTarget, "0", "0% (NA META)"},
		{"rounds up past target", "0.035", "0.03", domain.TargetFixed, domain.SignAbove, "0.01", "+0.01% ACIMA"},
		{"equal baseline", "1.25", "1.245", domain.TargetBaseline, domain.SignAtTarget, "0", "0% (NA MÉDIA)"},
		{"below baseline", "0.50", "2.00", domain.TargetBaseline, domain.SignBelow, "1.50", "-1.50% ABAIXO"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := Classify(d(tt.observed), d(tt.target), tt.kind)
			assert.Equal(t, tt.sign, dev.Sign)
			assert.True(t, dev.Magnitude.Equal(d(tt.magnitude)), "magnitude %s", dev.Magnitude)
			assert.Equal(t, tt.kind, dev.Kind)
			assert.Equal(t, tt.rendered, dev.String())
		})
	}
}

func TestClassifyIsValueEqual(t *testing.T) {
	a := Classify(d("3"), d("0.03"), domain.TargetFixed)
	b := Classify(d("3.000"), d("0.030"), domain.TargetFixed)
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(Classify(d("3"), d("0.03"), domain.TargetBaseline)))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "0.00%", FormatPercent(decimal.Zero))
	assert.Equal(t, "3.00%", FormatPercent(d("3")))
	assert.Equal(t, "12.35%", FormatPercent(d("12.345")))
}
