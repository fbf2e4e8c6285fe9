package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/sentinela-corte/internal/domain"
	"github.com/andresuchdata/sentinela-corte/internal/export"
	"github.com/andresuchdata/sentinela-corte/internal/indicator"
	"github.com/andresuchdata/sentinela-corte/internal/mailer"
	"github.com/andresuchdata/sentinela-corte/internal/report"
	"github.com/andresuchdata/sentinela-corte/internal/repository"
	"github.com/andresuchdata/sentinela-corte/internal/storage"
)

var errNoSender = errors.New("dispatch: mail sender not configured")

// Recipients are the address lists every dispatch goes to.
type Recipients struct {
	To  []string
	Cc  []string
	Bcc []string
}

type DispatchService struct {
	reports    *ReportService
	details    repository.DetailRepository
	renderer   *report.Renderer
	sender     mailer.Sender
	archive    storage.ObjectStorage
	recipients Recipients
}

// NewDispatchService wires the dispatch pipeline. sender and archive may be
// nil for preview-only use.
func NewDispatchService(
	reports *ReportService,
	details repository.DetailRepository,
	renderer *report.Renderer,
	sender mailer.Sender,
	archive storage.ObjectStorage,
	recipients Recipients,
) *DispatchService {
	return &DispatchService{
		reports:    reports,
		details:    details,
		renderer:   renderer,
		sender:     sender,
		archive:    archive,
		recipients: recipients,
	}
}

// Build renders the e-mail body and the workbook for a run at now.
func (s *DispatchService) Build(ctx context.Context, now time.Time) (*domain.Dispatch, error) {
	yesterday := indicator.YesterdayPeriod(now)
	month := indicator.MonthPeriod(now)

	var (
		yesterdayReport, monthReport   *domain.Report
		yesterdaySummary, monthSummary []domain.ShortageSummaryRow
		monthDetails                   []domain.ShortageDetailRow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.reports.Benchmark(gctx, yesterday.Start, yesterday.End)
		if err != nil {
			return fmt.Errorf("yesterday benchmark: %w", err)
		}
		yesterdayReport = r
		return nil
	})
	g.Go(func() error {
		r, err := s.reports.Benchmark(gctx, month.Period.Start, month.Period.End)
		if err != nil {
			return fmt.Errorf("month benchmark: %w", err)
		}
		monthReport = r
		return nil
	})
	g.Go(func() error {
		rows, err := s.details.ShortageSummary(gctx, yesterday)
		if err != nil {
			return fmt.Errorf("yesterday summary: %w", err)
		}
		yesterdaySummary = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.details.ShortageSummary(gctx, month.Period)
		if err != nil {
			return fmt.Errorf("month summary: %w", err)
		}
		monthSummary = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.details.ShortageDetails(gctx, month.Period)
		if err != nil {
			return fmt.Errorf("month details: %w", err)
		}
		monthDetails = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	subject := report.Subject(now, month.Closing)
	html := s.renderer.Email(report.EmailInput{
		Subject:          subject,
		MonthLabel:       month.Label,
		Yesterday:        yesterdayReport.Rows,
		Month:            monthReport.Rows,
		YesterdaySummary: yesterdaySummary,
		MonthSummary:     monthSummary,
	})

	labels := s.renderer.Labels()
	attachment, err := export.Workbook([]export.Sheet{
		export.SummarySheet(fmt.Sprintf("Sintético (Ontem %s)", yesterday.Start.Format("02/01/2006")), yesterdaySummary),
		export.SummarySheet("Sintético "+month.Label, monthSummary),
		export.DetailSheet("Analítico Corte "+month.Label, monthDetails),
		export.ReportSheet("Benchmark "+month.Label, monthReport.Rows, labels.Label),
	})
	if err != nil {
		return nil, fmt.Errorf("build workbook: %w", err)
	}

	return &domain.Dispatch{
		Subject:        subject,
		HTML:           html,
		AttachmentName: report.AttachmentName(now, month.Closing),
		Attachment:     attachment,
		Closing:        month.Closing,
		GeneratedAt:    now,
	}, nil
}

// Send builds, mails and archives the dispatch for now. Archive failures
// are logged only.
func (s *DispatchService) Send(ctx context.Context, now time.Time) (*domain.Dispatch, error) {
	if s.sender == nil {
		return nil, errNoSender
	}

	log.Info().Time("now", now).Msg("dispatch: cycle started")
	d, err := s.Build(ctx, now)
	if err != nil {
		return nil, err
	}

	err = s.sender.Send(ctx, mailer.Message{
		Subject:      d.Subject,
		HTML:         d.HTML,
		To:           s.recipients.To,
		Cc:           s.recipients.Cc,
		Bcc:          s.recipients.Bcc,
		Attachments:  []mailer.Attachment{{Name: d.AttachmentName, Data: d.Attachment}},
		HighPriority: true,
	})
	if err != nil {
		return nil, fmt.Errorf("dispatch: %w", err)
	}
	log.Info().Str("subject", d.Subject).Bool("closing", d.Closing).Msg("dispatch: e-mail sent")

	if s.archive != nil {
		key := storage.ArchiveKey(now, d.AttachmentName)
		if err := s.archive.UploadObject(ctx, key, d.Attachment); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("dispatch: archive upload failed")
		} else {
			log.Info().Str("key", key).Msg("dispatch: attachment archived")
		}
	}

	return d, nil
}

// HadRevenue reports whether any branch invoiced anything yesterday.
func (s *DispatchService) HadRevenue(ctx context.Context, now time.Time) (bool, error) {
	yesterday := indicator.YesterdayPeriod(now)
	r, err := s.reports.Indicator(ctx, yesterday.Start, yesterday.End)
	if err != nil {
		return false, err
	}
	total, ok := r.Total()
	if !ok {
		return false, nil
	}
	return total.Revenue.IsPositive(), nil
}
