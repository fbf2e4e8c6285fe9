package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DeviationSign is the direction of an observed ratio relative to its target.
type DeviationSign string

const (
	SignAbove    DeviationSign = "above"
	SignBelow    DeviationSign = "below"
	SignAtTarget DeviationSign = "at_target"
)

// TargetKind tells a fixed goal apart from a trailing-average baseline.
type TargetKind string

const (
	TargetFixed    TargetKind = "fixed"
	TargetBaseline TargetKind = "baseline"
)

var atTargetLabels = map[TargetKind]string{
	TargetFixed:    "0% (NA META)",
	TargetBaseline: "0% (NA MÉDIA)",
}

// Deviation is the scored distance between an observed ratio and its target.
type Deviation struct {
	Sign      DeviationSign   `json:"sign"`
	Magnitude decimal.Decimal `json:"magnitude"`
	Target    decimal.Decimal `json:"target"`
	Kind      TargetKind      `json:"kind"`
}

// Equal compares two deviations by value.
func (d Deviation) Equal(o Deviation) bool {
	return d.Sign == o.Sign &&
		d.Kind == o.Kind &&
		d.Magnitude.Equal(o.Magnitude) &&
		d.Target.Equal(o.Target)
}

// String renders the deviation the way reports display it.
func (d Deviation) String() string {
	switch d.Sign {
	case SignAbove:
		return "+" + d.Magnitude.StringFixed(2) + "% ACIMA"
	case SignBelow:
		return "-" + d.Magnitude.StringFixed(2) + "% ABAIXO"
	}

	if label, ok := atTargetLabels[d.Kind]; ok {
		return label
	}
	return atTargetLabels[TargetFixed]
}

// IsAbove reports whether a rendered deviation flags an exceeded target.
func IsAbove(rendered string) bool {
	return strings.Contains(strings.ToUpper(rendered), "ACIMA")
}
