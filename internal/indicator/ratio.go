package indicator

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/andresuchdata/sentinela-corte/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// DailyPair is one day's numerator and denominator of a ratio.
type DailyPair struct {
	Numerator   decimal.Decimal
	Denominator decimal.Decimal
}

// WeightedRatio is numerator/denominator x 100 rounded to two decimals.
// A zero denominator yields zero.
func WeightedRatio(numerator, denominator decimal.Decimal) decimal.Decimal {
	return percentOf(numerator, denominator).Round(2)
}

// MeanDailyRatio averages the zero-safe ratio of every given day and rounds
// the mean to two decimals. No days yields zero.
func MeanDailyRatio(days []DailyPair) decimal.Decimal {
	if len(days) == 0 {
		return decimal.Zero
	}

	sum := decimal.Zero
	for _, d := range days {
		sum = sum.Add(percentOf(d.Numerator, d.Denominator))
	}
	return sum.Div(decimal.NewFromInt(int64(len(days)))).Round(2)
}

func percentOf(numerator, denominator decimal.Decimal) decimal.Decimal {
	if denominator.IsZero() {
		return decimal.Zero
	}
	return numerator.Div(denominator).Mul(hundred)
}

// ledger joins fact streams into one BranchFact per (branch, day).
type ledger struct {
	branches map[string]map[string]*domain.BranchFact
}

func newLedger() *ledger {
	return &ledger{branches: make(map[string]map[string]*domain.BranchFact)}
}

func (l *ledger) fact(v domain.DailyValue) *domain.BranchFact {
	days, ok := l.branches[v.Branch]
	if !ok {
		days = make(map[string]*domain.BranchFact)
		l.branches[v.Branch] = days
	}

	key := v.DayKey()
	f, ok := days[key]
	if !ok {
		f = &domain.BranchFact{
			Branch:    v.Branch,
			Day:       v.Day,
			Shortage:  decimal.Zero,
			Backorder: decimal.Zero,
			Revenue:   decimal.Zero,
		}
		days[key] = f
	}
	return f
}

func (l *ledger) addShortage(values []domain.DailyValue) {
	for _, v := range values {
		f := l.fact(v)
		f.Shortage = f.Shortage.Add(v.Amount)
	}
}

func (l *ledger) addBackorder(values []domain.DailyValue) {
	for _, v := range values {
		f := l.fact(v)
		f.Backorder = f.Backorder.Add(v.Amount)
	}
}

func (l *ledger) addRevenue(values []domain.DailyValue) {
	for _, v := range values {
		f := l.fact(v)
		f.Revenue = f.Revenue.Add(v.Amount)
	}
}

// facts returns the active days of a branch in date order. A branch the
// ledger never saw has no active days.
func (l *ledger) facts(branch string) []domain.BranchFact {
	days := l.branches[branch]
	out := make([]domain.BranchFact, 0, len(days))
	for _, f := range days {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out
}

// metric zero-fills and folds the branch's days into period aggregates.
func (l *ledger) metric(branch string) domain.BranchPeriodMetric {
	facts := l.facts(branch)

	m := domain.BranchPeriodMetric{
		Branch:     branch,
		Shortage:   decimal.Zero,
		Backorder:  decimal.Zero,
		Revenue:    decimal.Zero,
		ActiveDays: len(facts),
	}

	shortageDays := make([]DailyPair, 0, len(facts))
	backorderDays := make([]DailyPair, 0, len(facts))
	for _, f := range facts {
		m.Shortage = m.Shortage.Add(f.Shortage)
		m.Backorder = m.Backorder.Add(f.Backorder)
		m.Revenue = m.Revenue.Add(f.Revenue)
		shortageDays = append(shortageDays, DailyPair{Numerator: f.Shortage, Denominator: f.Revenue})
		backorderDays = append(backorderDays, DailyPair{Numerator: f.Backorder, Denominator: f.Revenue})
	}

	m.ShortageRatio = WeightedRatio(m.Shortage, m.Revenue)
	m.ShortageDailyMean = MeanDailyRatio(shortageDays)
	m.BackorderRatio = WeightedRatio(m.Backorder, m.Revenue)
	m.BackorderDailyMean = MeanDailyRatio(backorderDays)
	m.BackorderBaseline = decimal.Zero
	return m
}

// backorderBaseline is the mean of daily backorder ratios of a branch.
func (l *ledger) backorderBaseline(branch string) decimal.Decimal {
	facts := l.facts(branch)
	days := make([]DailyPair, 0, len(facts))
	for _, f := range facts {
		days = append(days, DailyPair{Numerator: f.Backorder, Denominator: f.Revenue})
	}
	return MeanDailyRatio(days)
}
