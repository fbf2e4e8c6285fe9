package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andresuchdata/sentinela-corte/internal/cache"
	"github.com/andresuchdata/sentinela-corte/internal/domain"
	"github.com/andresuchdata/sentinela-corte/internal/mailer"
)

type engineCall struct {
	variant    domain.ReportVariant
	start, end time.Time
}

type fakeEngine struct {
	mu      sync.Mutex
	calls   []engineCall
	revenue decimal.Decimal
	err     error
}

func (f *fakeEngine) rows(variant domain.ReportVariant, start, end time.Time) ([]domain.ReportRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, engineCall{variant: variant, start: start, end: end})
	if f.err != nil {
		return nil, f.err
	}

	shortage := domain.MetricResult{
		Value:         decimal.NewFromInt(300),
		RatioText:     "3.00%",
		WeightedText:  "3.00%",
		TargetText:    "0.03%",
		DeviationText: "+2.97% ACIMA",
	}
	branch := domain.ReportRow{Branch: "1", Revenue: f.revenue, Shortage: shortage}
	total := domain.ReportRow{Branch: domain.TotalBranch, Class: domain.RowClassTotal, Revenue: f.revenue, Shortage: shortage}
	if variant == domain.VariantBenchmark {
		falta := domain.MetricResult{DeviationText: "0% (NA MÉDIA)"}
		branch.Backorder = &falta
		total.Backorder = &falta
	}
	return []domain.ReportRow{branch, total}, nil
}

func (f *fakeEngine) ComputeIndicatorReport(ctx context.Context, start, end time.Time) ([]domain.ReportRow, error) {
	return f.rows(domain.VariantIndicator, start, end)
}

func (f *fakeEngine) ComputeBenchmarkReport(ctx context.Context, start, end time.Time) ([]domain.ReportRow, error) {
	return f.rows(domain.VariantBenchmark, start, end)
}

func (f *fakeEngine) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[cache.ReportKey][]domain.ReportRow
	getErr  error
	gets    int
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[cache.ReportKey][]domain.ReportRow)}
}

func (c *fakeCache) GetReport(ctx context.Context, key cache.ReportKey) ([]domain.ReportRow, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	rows, ok := c.entries[key]
	return rows, ok, nil
}

func (c *fakeCache) SetReport(ctx context.Context, key cache.ReportKey, rows []domain.ReportRow) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.entries[key] = rows
	return nil
}

func (c *fakeCache) InvalidateAll(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[cache.ReportKey][]domain.ReportRow)
	return n, nil
}

func (c *fakeCache) Close() error { return nil }

type fakeDetails struct {
	summary []domain.ShortageSummaryRow
	details []domain.ShortageDetailRow
	err     error
}

func (f *fakeDetails) ShortageSummary(ctx context.Context, period domain.Period) ([]domain.ShortageSummaryRow, error) {
	return f.summary, f.err
}

func (f *fakeDetails) ShortageDetails(ctx context.Context, period domain.Period) ([]domain.ShortageDetailRow, error) {
	return f.details, f.err
}

type fakeSender struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (f *fakeSender) Send(ctx context.Context, msg mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeArchive struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (f *fakeArchive) UploadObject(ctx context.Context, key string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	return nil
}

var errStoreDown = errors.New("store down")

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
