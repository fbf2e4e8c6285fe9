package postgres

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/sentinela-corte/internal/domain"
	"github.com/andresuchdata/sentinela-corte/internal/repository"
)

const dateArg = "2006-01-02"

// Cut order lines (CORTE) valued at sale price.
const shortageFactsQuery = `
	SELECT
		TRIM(c.branch_id::text) AS branch,
		c.cut_at::date AS day,
		ROUND(SUM(c.quantity * c.unit_price), 2) AS amount
	FROM order_cuts c
	WHERE c.cut_at >= $1::date
	  AND c.cut_at < $2::date
	GROUP BY 1, 2
	ORDER BY 1, 2
`

// Backordered quantities (FALTA) valued at sale price.
const backorderFactsQuery = `
	SELECT
		TRIM(b.branch_id::text) AS branch,
		b.recorded_at::date AS day,
		ROUND(SUM(b.quantity * b.unit_price), 2) AS amount
	FROM order_backorders b
	WHERE b.recorded_at >= $1::date
	  AND b.recorded_at < $2::date
	GROUP BY 1, 2
	ORDER BY 1, 2
`

// Invoiced revenue (FATURAMENTO) net of tax substitution, cancellations excluded.
const revenueFactsQuery = `
	SELECT
		TRIM(i.branch_id::text) AS branch,
		i.invoiced_at::date AS day,
		ROUND(SUM(i.amount - COALESCE(i.tax_substitution_amount, 0)), 2) AS amount
	FROM invoice_lines i
	WHERE i.invoiced_at >= $1::date
	  AND i.invoiced_at < $2::date
	  AND i.cancelled_at IS NULL
	GROUP BY 1, 2
	ORDER BY 1, 2
`

type factRepository struct {
	db *DB
}

func NewFactRepository(db *DB) repository.FactRepository {
	return &factRepository{db: db}
}

func (r *factRepository) ShortageFacts(ctx context.Context, period domain.Period) ([]domain.DailyValue, error) {
	return r.dailyValues(ctx, "shortage", shortageFactsQuery, period)
}

func (r *factRepository) BackorderFacts(ctx context.Context, period domain.Period) ([]domain.DailyValue, error) {
	return r.dailyValues(ctx, "backorder", backorderFactsQuery, period)
}

func (r *factRepository) RevenueFacts(ctx context.Context, period domain.Period) ([]domain.DailyValue, error) {
	return r.dailyValues(ctx, "revenue", revenueFactsQuery, period)
}

func (r *factRepository) dailyValues(ctx context.Context, stream, query string, period domain.Period) ([]domain.DailyValue, error) {
	start := time.Now()

	var values []domain.DailyValue
	err := r.db.withSlot(ctx, func() error {
		rows, err := r.db.QueryxContext(ctx, query, period.Start.Format(dateArg), period.Until().Format(dateArg))
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var v domain.DailyValue
			if err := rows.StructScan(&v); err != nil {
				return err
			}
			values = append(values, v)
		}
		return rows.Err()
	})
	if err != nil {
		log.Error().
			Err(err).
			Str("stream", stream).
			Str("period", period.Key()).
			Str("sqlstate", sqlState(err)).
			Bool("connection", isConnectionFailure(err)).
			Msg("fact query failed")
		return nil, storeError("error getting "+stream+" facts", err)
	}

	log.Debug().
		Str("stream", stream).
		Str("period", period.Key()).
		Int("rows", len(values)).
		Dur("took", time.Since(start)).
		Msg("fact query done")

	return values, nil
}
