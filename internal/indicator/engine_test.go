package indicator

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/sentinela-corte/internal/domain"
)

type fakeFacts struct {
	mu        sync.Mutex
	shortage  []domain.DailyValue
	backorder []domain.DailyValue
	revenue   []domain.DailyValue
	err       error
	calls     int
}

func (f *fakeFacts) filter(period domain.Period, values []domain.DailyValue) ([]domain.DailyValue, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	var out []domain.DailyValue
	for _, v := range values {
		if period.Contains(v.Day) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeFacts) ShortageFacts(ctx context.Context, period domain.Period) ([]domain.DailyValue, error) {
	return f.filter(period, f.shortage)
}

func (f *fakeFacts) BackorderFacts(ctx context.Context, period domain.Period) ([]domain.DailyValue, error) {
	return f.filter(period, f.backorder)
}

func (f *fakeFacts) RevenueFacts(ctx context.Context, period domain.Period) ([]domain.DailyValue, error) {
	return f.filter(period, f.revenue)
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func dv(branch, date, amount string) domain.DailyValue {
	return domain.DailyValue{Branch: branch, Day: day(date), Amount: decimal.RequireFromString(amount)}
}

func fixedNow() time.Time {
	return time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
}

func newTestEngine(facts *fakeFacts) *Engine {
	return NewEngine(facts, Settings{Now: fixedNow})
}

func branches(rows []domain.ReportRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Branch
	}
	return out
}

func TestComputeIndicatorReportWorkedExample(t *testing.T) {
	facts := &fakeFacts{
		shortage: []domain.DailyValue{dv("010", "2026-10-05", "300.00")},
		revenue: []domain.DailyValue{
			dv("010", "2026-10-05", "10000.00"),
			dv("020", "2026-10-06", "5000.00"),
		},
	}

	rows, err := newTestEngine(facts).ComputeIndicatorReport(context.Background(), day("2026-10-01"), day("2026-10-13"))
	require.NoError(t, err)
	require.Equal(t, []string{"010", "020", domain.TotalBranch}, branches(rows))

	assert.Equal(t, "3.00%", rows[0].Shortage.RatioText)
	assert.Equal(t, "+2.97% ACIMA", rows[0].Shortage.DeviationText)
	assert.Equal(t, "0.03%", rows[0].Shortage.TargetText)

	assert.Equal(t, "0.00%", rows[1].Shortage.RatioText)
	assert.Equal(t, "-0.03% ABAIXO", rows[1].Shortage.DeviationText)
	assert.True(t, rows[1].Shortage.Value.IsZero(), "revenue-only branch reports zero shortage")

	total := rows[2]
	assert.True(t, total.IsTotal())
	assert.Equal(t, "2.00%", total.Shortage.RatioText)
	assert.Equal(t, "+1.97% ACIMA", total.Shortage.DeviationText)
	assert.True(t, total.Revenue.Equal(decimal.RequireFromString("15000")))

	// The mean of branch ratios would be 1.50%, not the 2.00% weighted figure.
	mean := decimal.Avg(rows[0].Shortage.WeightedRatio, rows[1].Shortage.WeightedRatio)
	assert.False(t, mean.Equal(total.Shortage.WeightedRatio))
	assert.Nil(t, total.Backorder)
}

func TestComputeIndicatorReportZeroRevenue(t *testing.T) {
	facts := &fakeFacts{
		shortage: []domain.DailyValue{dv("030", "2026-10-02", "999.99")},
	}

	rows, err := newTestEngine(facts).ComputeIndicatorReport(context.Background(), day("2026-10-01"), day("2026-10-13"))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "030", rows[0].Branch)
	assert.True(t, rows[0].Shortage.WeightedRatio.IsZero())
	assert.True(t, rows[0].Revenue.IsZero())
	assert.Equal(t, "-0.03% ABAIXO", rows[0].Shortage.DeviationText)
	assert.True(t, rows[1].Shortage.WeightedRatio.IsZero())
}

func TestComputeIndicatorReportEmptyPeriod(t *testing.T) {
	rows, err := newTestEngine(&fakeFacts{}).ComputeIndicatorReport(context.Background(), day("2026-10-01"), day("2026-10-01"))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.True(t, rows[0].IsTotal())
	assert.Equal(t, "0.00%", rows[0].Shortage.RatioText)
	assert.Equal(t, "0.03%", rows[0].Shortage.TargetText)
}

func TestComputeIndicatorReportInvalidRange(t *testing.T) {
	facts := &fakeFacts{}

	rows, err := newTestEngine(facts).ComputeIndicatorReport(context.Background(), day("2026-10-13"), day("2026-10-01"))
	require.ErrorIs(t, err, domain.ErrInvalidRange)
	assert.Nil(t, rows)
	assert.Zero(t, facts.calls, "no extraction happens for an invalid range")
}

func TestComputeReportsStoreUnavailable(t *testing.T) {
	facts := &fakeFacts{err: errors.New("dial tcp: connection refused")}
	engine := newTestEngine(facts)

	rows, err := engine.ComputeIndicatorReport(context.Background(), day("2026-10-01"), day("2026-10-13"))
	require.ErrorIs(t, err, domain.ErrExternalStoreUnavailable)
	assert.Nil(t, rows)

	rows, err = engine.ComputeBenchmarkReport(context.Background(), day("2026-10-01"), day("2026-10-13"))
	require.ErrorIs(t, err, domain.ErrExternalStoreUnavailable)
	assert.Nil(t, rows)
}

func TestComputeIndicatorReportSortsTotalLast(t *testing.T) {
	facts := &fakeFacts{
		shortage: []domain.DailyValue{
			dv("002", "2026-10-03", "10"),
			dv("001", "2026-10-03", "50"),
			dv("TOTAL-like-named-branch-ZZZ", "2026-10-03", "90"),
		},
		revenue: []domain.DailyValue{
			dv("002", "2026-10-03", "1000"),
			dv("001", "2026-10-03", "1000"),
			dv("TOTAL-like-named-branch-ZZZ", "2026-10-03", "1000"),
		},
	}

	rows, err := newTestEngine(facts).ComputeIndicatorReport(context.Background(), day("2026-10-01"), day("2026-10-13"))
	require.NoError(t, err)
	assert.Equal(t, []string{"001", "002", "TOTAL-like-named-branch-ZZZ", domain.TotalBranch}, branches(rows))
}

func benchmarkFacts() *fakeFacts {
	return &fakeFacts{
		shortage: []domain.DailyValue{
			dv("010", "2026-10-05", "10"),
			dv("010", "2026-10-06", "10"),
		},
		backorder: []domain.DailyValue{
			dv("010", "2026-08-10", "10"),
			dv("010", "2026-10-05", "5"),
		},
		revenue: []domain.DailyValue{
			dv("010", "2026-08-10", "1000"),
			dv("010", "2026-10-05", "100"),
			dv("010", "2026-10-06", "900"),
			dv("020", "2026-10-05", "1000"),
		},
	}
}

func TestComputeBenchmarkReport(t *testing.T) {
	rows, err := newTestEngine(benchmarkFacts()).ComputeBenchmarkReport(context.Background(), day("2026-10-01"), day("2026-10-13"))
	require.NoError(t, err)
	require.Equal(t, []string{"010", "020", domain.TotalBranch}, branches(rows))

	b := rows[0]
	// Daily ratios 10% and 1.11% average to 5.56%; the weighted ratio is 20/1000.
	assert.Equal(t, "5.56%", b.Shortage.RatioText)
	assert.Equal(t, "2.00%", b.Shortage.WeightedText)
	assert.Equal(t, "+1.97% ACIMA", b.Shortage.DeviationText)

	require.NotNil(t, b.Backorder)
	// Baseline days: 08-10 at 1%, 10-05 at 5%, 10-06 at 0%.
	assert.Equal(t, "2.00%", b.Backorder.TargetText)
	assert.Equal(t, "2.50%", b.Backorder.RatioText)
	assert.Equal(t, "0.50%", b.Backorder.WeightedText)
	assert.Equal(t, "-1.50% ABAIXO", b.Backorder.DeviationText)
	assert.True(t, b.Impact.Equal(decimal.NewFromInt(25)))

	noActivity := rows[1]
	require.NotNil(t, noActivity.Backorder)
	assert.Equal(t, "0% (NA MÉDIA)", noActivity.Backorder.DeviationText)
	assert.True(t, noActivity.Impact.IsZero())

	total := rows[2]
	assert.Equal(t, "1.00%", total.Shortage.RatioText)
	assert.Equal(t, "+0.97% ACIMA", total.Shortage.DeviationText)
	require.NotNil(t, total.Backorder)
	assert.Equal(t, "0.25%", total.Backorder.RatioText)
	assert.Equal(t, "1.00%", total.Backorder.TargetText)
	assert.Equal(t, "-0.75% ABAIXO", total.Backorder.DeviationText)
	assert.True(t, total.Impact.Equal(decimal.NewFromInt(25)))
}

func TestComputeBenchmarkReportRanksByImpact(t *testing.T) {
	facts := &fakeFacts{
		shortage: []domain.DailyValue{
			dv("001", "2026-10-03", "10"),
			dv("002", "2026-10-03", "20"),
			dv("TOTAL-like-named-branch-ZZZ", "2026-10-03", "50"),
		},
		backorder: []domain.DailyValue{
			dv("002", "2026-10-03", "30"),
		},
	}

	rows, err := newTestEngine(facts).ComputeBenchmarkReport(context.Background(), day("2026-10-01"), day("2026-10-13"))
	require.NoError(t, err)
	// 002 and ZZZ tie at 50, broken by branch id.
	assert.Equal(t, []string{"002", "TOTAL-like-named-branch-ZZZ", "001", domain.TotalBranch}, branches(rows))
}

func TestComputeBenchmarkReportIsIdempotent(t *testing.T) {
	engine := newTestEngine(benchmarkFacts())

	first, err := engine.ComputeBenchmarkReport(context.Background(), day("2026-10-01"), day("2026-10-13"))
	require.NoError(t, err)
	second, err := engine.ComputeBenchmarkReport(context.Background(), day("2026-10-01"), day("2026-10-13"))
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestNewEngineDefaults(t *testing.T) {
	e := NewEngine(&fakeFacts{}, Settings{})
	assert.True(t, e.ShortageTarget().Equal(DefaultShortageTarget))
	assert.Equal(t, DefaultBaselineDays, e.baselineDays)
	assert.NotNil(t, e.now)
}
