package postgres

import (
	"context"

	"github.com/andresuchdata/sentinela-corte/internal/domain"
	"github.com/andresuchdata/sentinela-corte/internal/repository"
)

const shortageSummaryQuery = `
	SELECT
		TRIM(c.branch_id::text) AS branch,
		c.product_id::text AS product_id,
		COALESCE(p.description, '') AS description,
		COALESCE(SUM(c.quantity), 0) AS quantity,
		COUNT(DISTINCT c.order_id) AS order_count,
		ROUND(COALESCE(SUM(c.quantity * c.unit_price), 0), 2) AS value
	FROM order_cuts c
	LEFT JOIN products p ON p.id = c.product_id
	WHERE c.cut_at >= $1::date
	  AND c.cut_at < $2::date
	GROUP BY 1, 2, 3
	ORDER BY 1, value DESC, 2
`

const shortageDetailsQuery = `
	SELECT
		TRIM(c.branch_id::text) AS branch,
		c.cut_at::date AS day,
		c.order_id::text AS order_id,
		c.product_id::text AS product_id,
		COALESCE(p.description, '') AS description,
		c.quantity,
		c.unit_price,
		ROUND(c.quantity * c.unit_price, 2) AS value,
		COALESCE(sp.name, '') AS salesperson,
		COALESCE(sv.name, '') AS supervisor
	FROM order_cuts c
	LEFT JOIN products p ON p.id = c.product_id
	LEFT JOIN orders o ON o.id = c.order_id
	LEFT JOIN salespeople sp ON sp.id = o.salesperson_id
	LEFT JOIN supervisors sv ON sv.id = sp.supervisor_id
	WHERE c.cut_at >= $1::date
	  AND c.cut_at < $2::date
	ORDER BY 1, 2, 3, 4
`

type detailRepository struct {
	db *DB
}

func NewDetailRepository(db *DB) repository.DetailRepository {
	return &detailRepository{db: db}
}

func (r *detailRepository) ShortageSummary(ctx context.Context, period domain.Period) ([]domain.ShortageSummaryRow, error) {
	var rows []domain.ShortageSummaryRow
	err := r.db.withSlot(ctx, func() error {
		return r.db.SelectContext(ctx, &rows, shortageSummaryQuery, period.Start.Format(dateArg), period.Until().Format(dateArg))
	})
	if err != nil {
		return nil, storeError("error getting shortage summary", err)
	}
	return rows, nil
}

func (r *detailRepository) ShortageDetails(ctx context.Context, period domain.Period) ([]domain.ShortageDetailRow, error) {
	var rows []domain.ShortageDetailRow
	err := r.db.withSlot(ctx, func() error {
		return r.db.SelectContext(ctx, &rows, shortageDetailsQuery, period.Start.Format(dateArg), period.Until().Format(dateArg))
	})
	if err != nil {
		return nil, storeError("error getting shortage details", err)
	}
	return rows, nil
}
