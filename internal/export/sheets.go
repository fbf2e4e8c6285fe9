package export

import (
	"github.com/andresuchdata/sentinela-corte/internal/domain"
)

var (
	summaryHeader = []string{"Filial", "Código", "Descrição", "Qt Corte", "Pedidos", "Valor Corte"}
	detailHeader  = []string{"Filial", "Data", "Pedido", "Código", "Descrição", "Qt Corte", "Preço", "Valor Corte", "Vendedor", "Supervisor"}
	reportHeader  = []string{"Filial", "Faturamento", "Valor Corte", "Corte (%)", "Corte Ponderado (%)", "Meta Corte", "Desvio Corte", "Valor Falta", "Falta (%)", "Falta Ponderada (%)", "Média Falta", "Desvio Falta"}
)

// SummarySheet lists cut totals per branch and product.
func SummarySheet(name string, rows []domain.ShortageSummaryRow) Sheet {
	out := Sheet{Name: name, Header: summaryHeader, Rows: make([][]any, 0, len(rows))}
	for _, r := range rows {
		out.Rows = append(out.Rows, []any{
			r.Branch,
			r.ProductID,
			r.Description,
			r.Quantity.InexactFloat64(),
			r.OrderCount,
			r.Value.InexactFloat64(),
		})
	}
	return out
}

// DetailSheet lists every cut order line.
func DetailSheet(name string, rows []domain.ShortageDetailRow) Sheet {
	out := Sheet{Name: name, Header: detailHeader, Rows: make([][]any, 0, len(rows))}
	for _, r := range rows {
		out.Rows = append(out.Rows, []any{
			r.Branch,
			r.Day.Format("02/01/2006"),
			r.OrderID,
			r.ProductID,
			r.Description,
			r.Quantity.InexactFloat64(),
			r.UnitPrice.InexactFloat64(),
			r.Value.InexactFloat64(),
			r.Salesperson,
			r.Supervisor,
		})
	}
	return out
}

// ReportSheet lists scored report rows; label maps branch codes to names.
func ReportSheet(name string, rows []domain.ReportRow, label func(string) string) Sheet {
	if label == nil {
		label = func(code string) string { return code }
	}
	out := Sheet{Name: name, Header: reportHeader, Rows: make([][]any, 0, len(rows))}
	for _, r := range rows {
		values := []any{
			label(r.Branch),
			r.Revenue.InexactFloat64(),
			r.Shortage.Value.InexactFloat64(),
			r.Shortage.RatioText,
			r.Shortage.WeightedText,
			r.Shortage.TargetText,
			r.Shortage.DeviationText,
		}
		if b := r.Backorder; b != nil {
			values = append(values, b.Value.InexactFloat64(), b.RatioText, b.WeightedText, b.TargetText, b.DeviationText)
		}
		out.Rows = append(out.Rows, values)
	}
	return out
}
