package repository

import (
	"context"

	"github.com/andresuchdata/sentinela-corte/internal/domain"
)

// FactRepository reads the aggregated fact streams the indicator engine
// scores. Every stream is grouped by (branch, day) and rounded to two
// decimals by the store; absent branch/days are simply not returned.
type FactRepository interface {
	// ShortageFacts sums quantity x unit price of cut order lines (CORTE).
	ShortageFacts(ctx context.Context, period domain.Period) ([]domain.DailyValue, error)
	// BackorderFacts sums quantity x unit price of backordered lines (FALTA).
	BackorderFacts(ctx context.Context, period domain.Period) ([]domain.DailyValue, error)
	// RevenueFacts sums invoiced amounts net of tax substitution (FATURAMENTO).
	RevenueFacts(ctx context.Context, period domain.Period) ([]domain.DailyValue, error)
}

// DetailRepository serves the listings attached to notifications.
type DetailRepository interface {
	ShortageSummary(ctx context.Context, period domain.Period) ([]domain.ShortageSummaryRow, error)
	ShortageDetails(ctx context.Context, period domain.Period) ([]domain.ShortageDetailRow, error)
}
