// Package indicator scores CORTE and FALTA against FATURAMENTO per branch.
package indicator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/sentinela-corte/internal/domain"
	"github.com/andresuchdata/sentinela-corte/internal/repository"
)

// Settings tunes an Engine. Zero values fall back to the defaults.
type Settings struct {
	ShortageTarget decimal.Decimal
	BaselineDays   int
	// Now is the clock the trailing baseline is anchored to.
	Now func() time.Time
}

type Engine struct {
	facts          repository.FactRepository
	shortageTarget decimal.Decimal
	baselineDays   int
	now            func() time.Time
}

func NewEngine(facts repository.FactRepository, settings Settings) *Engine {
	e := &Engine{
		facts:          facts,
		shortageTarget: settings.ShortageTarget,
		baselineDays:   settings.BaselineDays,
		now:            settings.Now,
	}
	if e.shortageTarget.IsZero() {
		e.shortageTarget = DefaultShortageTarget
	}
	if e.baselineDays <= 0 {
		e.baselineDays = DefaultBaselineDays
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// ShortageTarget is the fixed META applied to the CORTE ratio.
func (e *Engine) ShortageTarget() decimal.Decimal {
	return e.shortageTarget
}

// ComputeIndicatorReport scores CORTE against FATURAMENTO with the fixed
// target. Rows are ordered by branch with TOTAL last.
func (e *Engine) ComputeIndicatorReport(ctx context.Context, start, end time.Time) ([]domain.ReportRow, error) {
	period, err := ResolvePeriod(start, end)
	if err != nil {
		return nil, err
	}

	var shortage, revenue []domain.DailyValue

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return extract(gctx, "shortage", period, e.facts.ShortageFacts, &shortage)
	})
	g.Go(func() error {
		return extract(gctx, "revenue", period, e.facts.RevenueFacts, &revenue)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	l := newLedger()
	l.addShortage(shortage)
	l.addRevenue(revenue)

	branches := BuildUniverse(shortage, revenue)
	rows := make([]domain.ReportRow, 0, len(branches))
	for _, branch := range branches {
		m := l.metric(branch)
		rows = append(rows, domain.ReportRow{
			Branch:   m.Branch,
			Class:    domain.RowClassBranch,
			Revenue:  m.Revenue,
			Shortage: scoreMetric(m.Shortage, m.ShortageRatio, m.ShortageDailyMean, m.ShortageRatio, e.shortageTarget, domain.TargetFixed),
			Impact:   m.Shortage,
		})
	}

	total := SynthesizeTotal(rows, e.shortageTarget, false)
	return Assemble(rows, total, false), nil
}

// ComputeBenchmarkReport adds FALTA scored against each branch's trailing
// baseline. Branch rows show daily-mean ratios and are ranked by combined
// CORTE+FALTA value.
func (e *Engine) ComputeBenchmarkReport(ctx context.Context, start, end time.Time) ([]domain.ReportRow, error) {
	period, err := ResolvePeriod(start, end)
	if err != nil {
		return nil, err
	}
	window := TrailingWindow(e.now(), e.baselineDays)

	var (
		shortage, backorder, revenue   []domain.DailyValue
		windowBackorder, windowRevenue []domain.DailyValue
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return extract(gctx, "shortage", period, e.facts.ShortageFacts, &shortage)
	})
	g.Go(func() error {
		return extract(gctx, "backorder", period, e.facts.BackorderFacts, &backorder)
	})
	g.Go(func() error {
		return extract(gctx, "revenue", period, e.facts.RevenueFacts, &revenue)
	})
	g.Go(func() error {
		return extract(gctx, "baseline backorder", window, e.facts.BackorderFacts, &windowBackorder)
	})
	g.Go(func() error {
		return extract(gctx, "baseline revenue", window, e.facts.RevenueFacts, &windowRevenue)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	l := newLedger()
	l.addShortage(shortage)
	l.addBackorder(backorder)
	l.addRevenue(revenue)

	baseline := newLedger()
	baseline.addBackorder(windowBackorder)
	baseline.addRevenue(windowRevenue)

	branches := BuildUniverse(shortage, backorder, revenue)
	rows := make([]domain.ReportRow, 0, len(branches))
	for _, branch := range branches {
		m := l.metric(branch)
		m.BackorderBaseline = baseline.backorderBaseline(branch)

		falta := scoreMetric(m.Backorder, m.BackorderRatio, m.BackorderDailyMean, m.BackorderDailyMean, m.BackorderBaseline, domain.TargetBaseline)
		rows = append(rows, domain.ReportRow{
			Branch:    m.Branch,
			Class:     domain.RowClassBranch,
			Revenue:   m.Revenue,
			Shortage:  scoreMetric(m.Shortage, m.ShortageRatio, m.ShortageDailyMean, m.ShortageDailyMean, e.shortageTarget, domain.TargetFixed),
			Backorder: &falta,
			Impact:    m.Shortage.Add(m.Backorder),
		})
	}

	total := SynthesizeTotal(rows, e.shortageTarget, true)
	return Assemble(rows, total, true), nil
}

type extractFunc func(ctx context.Context, period domain.Period) ([]domain.DailyValue, error)

// extract runs one fact stream and tags any failure as a store failure.
func extract(ctx context.Context, stream string, period domain.Period, fn extractFunc, dst *[]domain.DailyValue) error {
	values, err := fn(ctx, period)
	if err != nil {
		if errors.Is(err, domain.ErrExternalStoreUnavailable) {
			return fmt.Errorf("%s facts: %w", stream, err)
		}
		return fmt.Errorf("%s facts: %w: %w", stream, domain.ErrExternalStoreUnavailable, err)
	}
	*dst = values
	return nil
}
