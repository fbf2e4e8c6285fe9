package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShortageSummaryRow aggregates cut order lines per branch and product.
type ShortageSummaryRow struct {
	Branch      string          `json:"branch" db:"branch"`
	ProductID   string          `json:"product_id" db:"product_id"`
	Description string          `json:"description" db:"description"`
	Quantity    decimal.Decimal `json:"quantity" db:"quantity"`
	OrderCount  int64           `json:"order_count" db:"order_count"`
	Value       decimal.Decimal `json:"value" db:"value"`
}

// ShortageDetailRow is a single cut order line with its display labels.
type ShortageDetailRow struct {
	Branch      string          `json:"branch" db:"branch"`
	Day         time.Time       `json:"day" db:"day"`
	OrderID     string          `json:"order_id" db:"order_id"`
	ProductID   string          `json:"product_id" db:"product_id"`
	Description string          `json:"description" db:"description"`
	Quantity    decimal.Decimal `json:"quantity" db:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price" db:"unit_price"`
	Value       decimal.Decimal `json:"value" db:"value"`
	Salesperson string          `json:"salesperson" db:"salesperson"`
	Supervisor  string          `json:"supervisor" db:"supervisor"`
}

// MonthWindow is the month block of a dispatch: either the running month or,
// on the first day of a month, the closing of the previous one.
type MonthWindow struct {
	Period  Period `json:"period"`
	Closing bool   `json:"closing"`
	Label   string `json:"label"`
}

// Dispatch is a fully rendered notification ready to be mailed.
type Dispatch struct {
	Subject        string    `json:"subject"`
	HTML           string    `json:"html"`
	AttachmentName string    `json:"attachment_name"`
	Attachment     []byte    `json:"-"`
	Closing        bool      `json:"closing"`
	GeneratedAt    time.Time `json:"generated_at"`
}
