package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/sentinela-corte/internal/config"
	"github.com/andresuchdata/sentinela-corte/internal/domain"
	"github.com/andresuchdata/sentinela-corte/internal/report"
)

var dispatchNow = time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)

type dispatchFixture struct {
	engine  *fakeEngine
	details *fakeDetails
	sender  *fakeSender
	archive *fakeArchive
	svc     *DispatchService
}

func newDispatchFixture(t *testing.T) *dispatchFixture {
	t.Helper()
	renderer, err := report.NewRenderer(config.MailConfig{}, map[string]string{"1": "FARMAUM PB"})
	require.NoError(t, err)

	f := &dispatchFixture{
		engine: &fakeEngine{revenue: decimal.NewFromInt(10000)},
		details: &fakeDetails{
			summary: []domain.ShortageSummaryRow{
				{Branch: "1", ProductID: "10", Description: "Dipirona", Quantity: decimal.NewFromInt(3), OrderCount: 2, Value: decimal.RequireFromString("45.5")},
			},
			details: []domain.ShortageDetailRow{
				{Branch: "1", Day: date(2026, 10, 13), OrderID: "900", ProductID: "10", Description: "Dipirona", Quantity: decimal.NewFromInt(3), Value: decimal.RequireFromString("45.5")},
			},
		},
		sender:  &fakeSender{},
		archive: &fakeArchive{},
	}
	reports := NewReportService(f.engine, nil, fixedClock(dispatchNow))
	f.svc = NewDispatchService(reports, f.details, renderer, f.sender, f.archive, Recipients{
		To:  []string{"diretoria@example.com"},
		Cc:  []string{"comercial@example.com"},
		Bcc: []string{"auditoria@example.com"},
	})
	return f
}

func TestBuildDailyDispatch(t *testing.T) {
	f := newDispatchFixture(t)

	d, err := f.svc.Build(context.Background(), dispatchNow)
	require.NoError(t, err)

	assert.Equal(t, "Sentinela · Corte - 14/10/2026 08:00", d.Subject)
	assert.Equal(t, "Sentinela Corte 14102026.xlsx", d.AttachmentName)
	assert.False(t, d.Closing)
	assert.Contains(t, d.HTML, "FARMAUM PB")
	assert.Contains(t, d.HTML, ">Mês Atual - Outubro/2026</h3>")
	assert.Contains(t, d.HTML, "<td>Dipirona</td>")

	// yesterday and month benchmarks only
	require.Equal(t, 2, f.engine.callCount())
	for _, c := range f.engine.calls {
		assert.Equal(t, domain.VariantBenchmark, c.variant)
	}

	wb, err := excelize.OpenReader(bytes.NewReader(d.Attachment))
	require.NoError(t, err)
	defer wb.Close()
	sheets := wb.GetSheetList()
	require.Len(t, sheets, 4)
	assert.Equal(t, "Sintético (Ontem 13-10-2026)", sheets[0])
}

func TestBuildClosingDispatch(t *testing.T) {
	f := newDispatchFixture(t)
	now := time.Date(2026, 11, 1, 8, 0, 0, 0, time.UTC)

	d, err := f.svc.Build(context.Background(), now)
	require.NoError(t, err)

	assert.True(t, d.Closing)
	assert.Equal(t, "Sentinela · Corte · Fechamento - Outubro/2026", d.Subject)
	assert.Equal(t, "Sentinela Corte Fechamento Outubro 2026 01112026.xlsx", d.AttachmentName)
	assert.Contains(t, d.HTML, ">Fechamento - Outubro/2026</h3>")
	assert.Contains(t, d.HTML, ">Top 5 por Filial - Outubro/2026</h3>")
}

func TestBuildFailsWhenDetailsFail(t *testing.T) {
	f := newDispatchFixture(t)
	f.details.err = errStoreDown

	_, err := f.svc.Build(context.Background(), dispatchNow)
	assert.ErrorIs(t, err, errStoreDown)
}

func TestSendMailsAndArchives(t *testing.T) {
	f := newDispatchFixture(t)

	d, err := f.svc.Send(context.Background(), dispatchNow)
	require.NoError(t, err)

	require.Len(t, f.sender.sent, 1)
	msg := f.sender.sent[0]
	assert.Equal(t, d.Subject, msg.Subject)
	assert.Equal(t, []string{"diretoria@example.com"}, msg.To)
	assert.Equal(t, []string{"comercial@example.com"}, msg.Cc)
	assert.Equal(t, []string{"auditoria@example.com"}, msg.Bcc)
	assert.True(t, msg.HighPriority)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, d.AttachmentName, msg.Attachments[0].Name)

	assert.Equal(t, []string{"corte/2026/10/Sentinela Corte 14102026.xlsx"}, f.archive.keys)
}

func TestSendIgnoresArchiveFailure(t *testing.T) {
	f := newDispatchFixture(t)
	f.archive.err = errors.New("bucket missing")

	_, err := f.svc.Send(context.Background(), dispatchNow)
	require.NoError(t, err)
	assert.Len(t, f.sender.sent, 1)
}

func TestSendFailsOnMailError(t *testing.T) {
	f := newDispatchFixture(t)
	f.sender.err = errors.New("smtp down")

	_, err := f.svc.Send(context.Background(), dispatchNow)
	assert.Error(t, err)
	assert.Empty(t, f.archive.keys)
}

func TestSendWithoutSender(t *testing.T) {
	f := newDispatchFixture(t)
	f.svc.sender = nil

	_, err := f.svc.Send(context.Background(), dispatchNow)
	assert.ErrorIs(t, err, errNoSender)
}

func TestHadRevenue(t *testing.T) {
	f := newDispatchFixture(t)

	ok, err := f.svc.HadRevenue(context.Background(), dispatchNow)
	require.NoError(t, err)
	assert.True(t, ok)

	require.Len(t, f.engine.calls, 1)
	assert.Equal(t, domain.VariantIndicator, f.engine.calls[0].variant)
	assert.Equal(t, date(2026, 10, 13), f.engine.calls[0].start)

	f.engine.revenue = decimal.Zero
	ok, err = f.svc.HadRevenue(context.Background(), dispatchNow)
	require.NoError(t, err)
	assert.False(t, ok)

	f.engine.err = errStoreDown
	_, err = f.svc.HadRevenue(context.Background(), dispatchNow)
	assert.ErrorIs(t, err, errStoreDown)
}
