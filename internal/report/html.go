// Package report renders the CORTE notification e-mail.
package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"html"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"

	"github.com/andresuchdata/sentinela-corte/internal/config"
	"github.com/andresuchdata/sentinela-corte/internal/domain"
)

const (
	DefaultFooter = "Este e-mail é gerado automaticamente. Não responda."
	// TopLimit is the number of products listed per branch.
	TopLimit = 5

	extraCSSSlot = "<!-- EXTRA_CSS -->"
)

//go:embed templates/email_base.html
var baseTemplate string

// Renderer holds the template and labels shared by every dispatch.
type Renderer struct {
	template string
	footer   string
	labels   BranchLabeler
}

// NewRenderer loads the template override and renders the footer markdown
// when configured.
func NewRenderer(cfg config.MailConfig, labels map[string]string) (*Renderer, error) {
	r := &Renderer{
		template: baseTemplate,
		footer:   DefaultFooter,
		labels:   BranchLabeler(labels),
	}

	if cfg.TemplatePath != "" {
		raw, err := os.ReadFile(cfg.TemplatePath)
		if err != nil {
			return nil, fmt.Errorf("read email template: %w", err)
		}
		r.template = string(raw)
	}

	if strings.TrimSpace(cfg.FooterMD) != "" {
		footer, err := markdownToHTML(cfg.FooterMD)
		if err != nil {
			return nil, fmt.Errorf("render footer: %w", err)
		}
		r.footer = footer
	}

	return r, nil
}

// Labels exposes the branch labeler used by every table.
func (r *Renderer) Labels() BranchLabeler {
	return r.labels
}

// EmailInput carries everything the e-mail body shows.
type EmailInput struct {
	Subject          string
	MonthLabel       string
	Yesterday        []domain.ReportRow
	Month            []domain.ReportRow
	YesterdaySummary []domain.ShortageSummaryRow
	MonthSummary     []domain.ShortageSummaryRow
}

// Email composes the indicator blocks and the top lists into the template.
func (r *Renderer) Email(in EmailInput) string {
	var content strings.Builder
	content.WriteString("<h3 class='subtitle subtitle-small sectionHeader' style='margin-top:2px'>Indicadores de Corte (Meta fixa 0,03%)</h3>")
	content.WriteString(r.IndicatorTable("Ontem", in.Yesterday))
	content.WriteString(r.IndicatorTable(in.MonthLabel, in.Month))
	content.WriteString(r.TopByBranch("Top 5 por Filial - Ontem", in.YesterdaySummary, TopLimit))
	content.WriteString(r.TopByBranch("Top 5 por Filial - "+shortMonthLabel(in.MonthLabel), in.MonthSummary, TopLimit))

	return RenderEmail(r.template, in.Subject, content.String(), r.footer, "")
}

// IndicatorTable renders one block of report rows.
func (r *Renderer) IndicatorTable(title string, rows []domain.ReportRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h3 class='subtitle subtitle-small sectionHeader'>%s</h3>", html.EscapeString(title))
	b.WriteString("<div class='tblWrap'><table class='data'>")
	b.WriteString("<tr><th>Filial</th><th>Valor Cortado (R$)</th><th>Corte no período (%)</th><th>Desvio vs. Meta</th><th>Faturado (R$)</th></tr>")

	for _, row := range rows {
		var classes []string
		if domain.IsAbove(row.Shortage.DeviationText) {
			classes = append(classes, "bad")
		}
		if row.IsTotal() {
			classes = append(classes, "total-row")
		}
		attr := ""
		if len(classes) > 0 {
			attr = fmt.Sprintf(" class=\"%s\"", strings.Join(classes, " "))
		}

		fmt.Fprintf(&b, "<tr%s><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>",
			attr,
			html.EscapeString(r.labels.Label(row.Branch)),
			FormatBRL(row.Shortage.Value),
			percentCell(row.Shortage.RatioText),
			html.EscapeString(deviationCell(row.Shortage.DeviationText)),
			FormatBRL(row.Revenue),
		)
	}

	b.WriteString("</table></div>")
	return b.String()
}

// TopByBranch lists the highest-value cut products of every branch.
func (r *Renderer) TopByBranch(title string, rows []domain.ShortageSummaryRow, limit int) string {
	header := fmt.Sprintf("<h3 class='subtitle subtitle-small sectionHeader'>%s</h3>", html.EscapeString(title))
	if len(rows) == 0 {
		return header + "<p class='muted' style='text-align:center'>Sem dados.</p>"
	}

	var b strings.Builder
	b.WriteString(header)
	for _, group := range TopProducts(rows, limit) {
		fmt.Fprintf(&b, "<h4 class='subtitle subtitle-mini' style='margin-top:6px'>%s</h4>", html.EscapeString(r.labels.Label(group.Branch)))
		b.WriteString("<div class='tblWrap'><table class='data'>")
		b.WriteString("<tr><th>Código</th><th>Descrição</th><th>Qt Und</th><th>Qt Ped</th><th>Valor</th></tr>")
		for _, p := range group.Products {
			fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%s</td><td>%d</td><td>%s</td></tr>",
				html.EscapeString(p.ProductID),
				html.EscapeString(p.Description),
				formatCount(p.Quantity),
				p.OrderCount,
				FormatBRL(p.Value),
			)
		}
		b.WriteString("</table></div>")
	}
	return b.String()
}

// BranchTop is the ranked product list of one branch.
type BranchTop struct {
	Branch   string
	Products []domain.ShortageSummaryRow
}

// TopProducts groups rows per branch (ascending), sums them per product and
// keeps the limit highest values.
func TopProducts(rows []domain.ShortageSummaryRow, limit int) []BranchTop {
	type productKey struct{ id, description string }

	perBranch := make(map[string]map[productKey]*domain.ShortageSummaryRow)
	for _, row := range rows {
		branch := strings.TrimSpace(row.Branch)
		products, ok := perBranch[branch]
		if !ok {
			products = make(map[productKey]*domain.ShortageSummaryRow)
			perBranch[branch] = products
		}
		key := productKey{row.ProductID, row.Description}
		agg, ok := products[key]
		if !ok {
			agg = &domain.ShortageSummaryRow{
				Branch:      branch,
				ProductID:   row.ProductID,
				Description: row.Description,
				Quantity:    decimal.Zero,
				Value:       decimal.Zero,
			}
			products[key] = agg
		}
		agg.Quantity = agg.Quantity.Add(row.Quantity)
		agg.OrderCount += row.OrderCount
		agg.Value = agg.Value.Add(row.Value)
	}

	branches := make([]string, 0, len(perBranch))
	for branch := range perBranch {
		branches = append(branches, branch)
	}
	sort.Strings(branches)

	out := make([]BranchTop, 0, len(branches))
	for _, branch := range branches {
		products := make([]domain.ShortageSummaryRow, 0, len(perBranch[branch]))
		for _, p := range perBranch[branch] {
			products = append(products, *p)
		}
		sort.Slice(products, func(i, j int) bool {
			if c := products[i].Value.Cmp(products[j].Value); c != 0 {
				return c > 0
			}
			return products[i].ProductID < products[j].ProductID
		})
		if limit > 0 && len(products) > limit {
			products = products[:limit]
		}
		out = append(out, BranchTop{Branch: branch, Products: products})
	}
	return out
}

// RenderEmail fills the template placeholders. extraCSS is only injected
// when the template carries the EXTRA_CSS slot.
func RenderEmail(template, title, content, footer, extraCSS string) string {
	out := strings.ReplaceAll(template, "{{TITLE}}", title)
	out = strings.ReplaceAll(out, "{{CONTENT}}", content)
	out = strings.ReplaceAll(out, "{{FOOTER}}", footer)
	if extraCSS != "" && strings.Contains(out, extraCSSSlot) {
		out = strings.Replace(out, extraCSSSlot, "<style>"+extraCSS+"</style>", 1)
	}
	return out
}

func markdownToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

func shortMonthLabel(label string) string {
	label = strings.TrimPrefix(label, "Fechamento - ")
	return strings.TrimPrefix(label, "Mês Atual - ")
}

func percentCell(text string) string {
	if text == "" {
		return "0.00%"
	}
	return text
}

func deviationCell(text string) string {
	if text == "" {
		return "0%"
	}
	return text
}
