package report

import (
	"fmt"
	"time"

	"github.com/andresuchdata/sentinela-corte/internal/indicator"
)

// Subject builds the e-mail subject line for a dispatch generated at now.
func Subject(now time.Time, closing bool) string {
	if closing {
		ref := indicator.ClosingMonth(now)
		return fmt.Sprintf("Sentinela · Corte · Fechamento - %s/%d", indicator.MonthName(ref.Month()), ref.Year())
	}
	return "Sentinela · Corte - " + now.Format("02/01/2006 15:04")
}

// AttachmentName builds the workbook file name for a dispatch generated at now.
func AttachmentName(now time.Time, closing bool) string {
	stamp := now.Format("02012006")
	if closing {
		ref := indicator.ClosingMonth(now)
		return fmt.Sprintf("Sentinela Corte Fechamento %s %d %s.xlsx", indicator.MonthName(ref.Month()), ref.Year(), stamp)
	}
	return fmt.Sprintf("Sentinela Corte %s.xlsx", stamp)
}
