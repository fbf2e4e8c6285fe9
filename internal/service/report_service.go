package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/sentinela-corte/internal/cache"
	"github.com/andresuchdata/sentinela-corte/internal/domain"
	"github.com/andresuchdata/sentinela-corte/internal/indicator"
)

// ReportEngine computes report rows for an inclusive date range.
type ReportEngine interface {
	ComputeIndicatorReport(ctx context.Context, start, end time.Time) ([]domain.ReportRow, error)
	ComputeBenchmarkReport(ctx context.Context, start, end time.Time) ([]domain.ReportRow, error)
}

type ReportService struct {
	engine ReportEngine
	cache  cache.ReportCache
	now    func() time.Time
}

func NewReportService(engine ReportEngine, cacheImpl cache.ReportCache, now func() time.Time) *ReportService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopReportCache()
	}
	if now == nil {
		now = time.Now
	}
	return &ReportService{engine: engine, cache: cacheImpl, now: now}
}

// Report computes one variant over [start, end]. Windows that ended before
// today are served from the cache when possible.
func (s *ReportService) Report(ctx context.Context, variant domain.ReportVariant, start, end time.Time) (*domain.Report, error) {
	period, err := indicator.ResolvePeriod(start, end)
	if err != nil {
		return nil, err
	}

	compute, err := s.computeFunc(variant)
	if err != nil {
		return nil, err
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	cacheable := period.End.Before(today)

	key := cache.ReportKey{Variant: variant, Period: period}
	if variant == domain.VariantBenchmark {
		key.AsOf = today.Format("2006-01-02")
	}

	if cacheable {
		if rows, ok, err := s.cache.GetReport(ctx, key); err == nil && ok {
			return &domain.Report{Variant: variant, Period: period, Rows: rows}, nil
		} else if err != nil {
			log.Warn().Err(err).Str("variant", string(variant)).Str("period", period.Key()).Msg("report: cache get failed")
		}
	}

	rows, err := compute(ctx, period.Start, period.End)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if err := s.cache.SetReport(ctx, key, rows); err != nil {
			log.Warn().Err(err).Str("variant", string(variant)).Str("period", period.Key()).Msg("report: cache set failed")
		}
	}

	return &domain.Report{Variant: variant, Period: period, Rows: rows}, nil
}

func (s *ReportService) Indicator(ctx context.Context, start, end time.Time) (*domain.Report, error) {
	return s.Report(ctx, domain.VariantIndicator, start, end)
}

func (s *ReportService) Benchmark(ctx context.Context, start, end time.Time) (*domain.Report, error) {
	return s.Report(ctx, domain.VariantBenchmark, start, end)
}

// InvalidateCache drops every cached report.
func (s *ReportService) InvalidateCache(ctx context.Context) (int, error) {
	deleted, err := s.cache.InvalidateAll(ctx)
	if err != nil {
		return deleted, err
	}
	log.Info().Int("deleted", deleted).Msg("report: cache invalidated")
	return deleted, nil
}

func (s *ReportService) computeFunc(variant domain.ReportVariant) (func(context.Context, time.Time, time.Time) ([]domain.ReportRow, error), error) {
	switch variant {
	case domain.VariantIndicator:
		return s.engine.ComputeIndicatorReport, nil
	case domain.VariantBenchmark:
		return s.engine.ComputeBenchmarkReport, nil
	}
	return nil, fmt.Errorf("unknown report variant %q", variant)
}
