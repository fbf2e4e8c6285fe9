package indicator

import (
	"fmt"
	"time"

	"github.com/andresuchdata/sentinela-corte/internal/domain"
)

// DefaultBaselineDays is the span before yesterday covered by the trailing
// baseline, giving a 91-day inclusive window.
const DefaultBaselineDays = 90

var monthNames = [...]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// ResolvePeriod truncates both bounds to calendar dates and rejects ranges
// whose start falls after their end.
func ResolvePeriod(start, end time.Time) (domain.Period, error) {
	p := domain.Period{
		Start: truncateDay(start),
		End:   truncateDay(end.In(start.Location())),
	}
	if p.Start.After(p.End) {
		return domain.Period{}, fmt.Errorf("%w: %s > %s", domain.ErrInvalidRange,
			p.Start.Format("2006-01-02"), p.End.Format("2006-01-02"))
	}
	return p, nil
}

// TrailingWindow returns [today-1-days, today-1] relative to now.
func TrailingWindow(now time.Time, days int) domain.Period {
	if days < 0 {
		days = 0
	}
	end := truncateDay(now).AddDate(0, 0, -1)
	return domain.Period{Start: end.AddDate(0, 0, -days), End: end}
}

// YesterdayPeriod is the single calendar day before now.
func YesterdayPeriod(now time.Time) domain.Period {
	day := truncateDay(now).AddDate(0, 0, -1)
	return domain.Period{Start: day, End: day}
}

// MonthPeriod picks the month block reported alongside yesterday. On the
// first day of a month it is the closing of the whole previous month,
// otherwise the running month up to today.
func MonthPeriod(now time.Time) domain.MonthWindow {
	today := truncateDay(now)
	first := today.AddDate(0, 0, 1-today.Day())

	if today.Day() == 1 {
		last := first.AddDate(0, 0, -1)
		return domain.MonthWindow{
			Period:  domain.Period{Start: last.AddDate(0, 0, 1-last.Day()), End: last},
			Closing: true,
			Label:   "Fechamento - " + MonthLabel(last),
		}
	}

	return domain.MonthWindow{
		Period: domain.Period{Start: first, End: today},
		Label:  "Mês Atual - " + MonthLabel(today),
	}
}

// ClosingMonth is the month a closing dispatch sent on now refers to.
func ClosingMonth(now time.Time) time.Time {
	today := truncateDay(now)
	return today.AddDate(0, 0, -today.Day())
}

// MonthName returns the Portuguese name of m.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return m.String()
	}
	return monthNames[m-1]
}

// MonthLabel renders t as "<Mês>/<Ano>".
func MonthLabel(t time.Time) string {
	return fmt.Sprintf("%s/%d", MonthName(t.Month()), t.Year())
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
