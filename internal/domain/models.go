package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// TotalBranch is the sentinel branch identifier of the aggregate row.
	TotalBranch = "TOTAL"

	dateLayout = "2006-01-02"
)

// Period is an inclusive range of calendar dates. Start and End are always
// truncated to midnight in the location they were resolved in.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Until returns the exclusive upper bound used by range filters.
func (p Period) Until() time.Time {
	return p.End.AddDate(0, 0, 1)
}

// Days lists every calendar date of the period in ascending order.
func (p Period) Days() []time.Time {
	var days []time.Time
	for d := p.Start; !d.After(p.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Contains reports whether t falls on one of the period's dates.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.Until())
}

// Key is a stable textual form of the period, used for cache keys and logs.
func (p Period) Key() string {
	return fmt.Sprintf("%s..%s", p.Start.Format(dateLayout), p.End.Format(dateLayout))
}

// DailyValue is one aggregated row of a fact stream: the monetary sum of
// one kind of event for a branch on a calendar date.
type DailyValue struct {
	Branch string          `json:"branch" db:"branch"`
	Day    time.Time       `json:"day" db:"day"`
	Amount decimal.Decimal `json:"amount" db:"amount"`
}

// DayKey returns the calendar date of the row as YYYY-MM-DD.
func (v DailyValue) DayKey() string {
	return v.Day.Format(dateLayout)
}

// BranchFact joins the fact streams for one (branch, day).
type BranchFact struct {
	Branch    string          `json:"branch"`
	Day       time.Time       `json:"day"`
	Shortage  decimal.Decimal `json:"shortage"`
	Backorder decimal.Decimal `json:"backorder"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// BranchPeriodMetric holds the per-branch aggregates over a whole period.
type BranchPeriodMetric struct {
	Branch string `json:"branch"`

	Shortage  decimal.Decimal `json:"shortage"`
	Backorder decimal.Decimal `json:"backorder"`
	Revenue   decimal.Decimal `json:"revenue"`

	ShortageRatio      decimal.Decimal `json:"shortage_ratio"`
	ShortageDailyMean  decimal.Decimal `json:"shortage_daily_mean"`
	BackorderRatio     decimal.Decimal `json:"backorder_ratio"`
	BackorderDailyMean decimal.Decimal `json:"backorder_daily_mean"`

	// BackorderBaseline is the trailing-window mean of daily backorder ratios.
	BackorderBaseline decimal.Decimal `json:"backorder_baseline"`

	ActiveDays int `json:"active_days"`
}

// RowClass orders report rows: branch rows always precede the total.
type RowClass int

const (
	RowClassBranch RowClass = 0
	RowClassTotal  RowClass = 1
)

// MetricResult is one scored metric of a report row.
type MetricResult struct {
	Value         decimal.Decimal `json:"value"`
	WeightedRatio decimal.Decimal `json:"weighted_ratio"`
	DailyMean     decimal.Decimal `json:"daily_mean"`
	// Ratio is the figure shown to readers; it is either the weighted ratio
	// or the daily mean depending on the report variant.
	Ratio     decimal.Decimal `json:"ratio"`
	Target    decimal.Decimal `json:"target"`
	Deviation Deviation       `json:"deviation"`

	RatioText     string `json:"ratio_text"`
	WeightedText  string `json:"weighted_text"`
	TargetText    string `json:"target_text"`
	DeviationText string `json:"deviation_text"`
}

// ReportRow is one line of an indicator or benchmark report.
type ReportRow struct {
	Branch  string          `json:"branch"`
	Class   RowClass        `json:"class"`
	Revenue decimal.Decimal `json:"revenue"`

	Shortage MetricResult `json:"shortage"`
	// Backorder is only present in the benchmark variant.
	Backorder *MetricResult `json:"backorder,omitempty"`

	// Impact is shortage plus backorder value, used for ranking.
	Impact decimal.Decimal `json:"impact"`
}

// IsTotal reports whether the row is the synthesized aggregate.
func (r ReportRow) IsTotal() bool {
	return r.Class == RowClassTotal
}

// ReportVariant names the two report flavours.
type ReportVariant string

const (
	VariantIndicator ReportVariant = "indicator"
	VariantBenchmark ReportVariant = "benchmark"
)

// ParseReportVariant accepts the variant names used by the CLI and the API.
func ParseReportVariant(s string) (ReportVariant, bool) {
	switch ReportVariant(s) {
	case VariantIndicator, VariantBenchmark:
		return ReportVariant(s), true
	case "corte":
		return VariantIndicator, true
	}
	return "", false
}

// Report wraps an ordered row set with the period it covers.
type Report struct {
	Variant ReportVariant `json:"variant"`
	Period  Period        `json:"period"`
	Rows    []ReportRow   `json:"rows"`
}

// Total returns the aggregate row, if present.
func (r *Report) Total() (ReportRow, bool) {
	for _, row := range r.Rows {
		if row.IsTotal() {
			return row, true
		}
	}
	return ReportRow{}, false
}
