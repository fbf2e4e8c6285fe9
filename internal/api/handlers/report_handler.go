package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/sentinela-corte/internal/domain"
)

const dateParam = "2006-01-02"

var errBadDate = errors.New("invalid date")

type ReportProvider interface {
	Indicator(ctx context.Context, start, end time.Time) (*domain.Report, error)
	Benchmark(ctx context.Context, start, end time.Time) (*domain.Report, error)
	InvalidateCache(ctx context.Context) (int, error)
}

type ReportHandler struct {
	reports ReportProvider
	loc     *time.Location
	now     func() time.Time
}

func NewReportHandler(reports ReportProvider, loc *time.Location) *ReportHandler {
	if loc == nil {
		loc = time.Local
	}
	return &ReportHandler{reports: reports, loc: loc, now: time.Now}
}

func (h *ReportHandler) GetIndicator(c *gin.Context) {
	h.serveReport(c, h.reports.Indicator)
}

func (h *ReportHandler) GetBenchmark(c *gin.Context) {
	h.serveReport(c, h.reports.Benchmark)
}

func (h *ReportHandler) InvalidateCache(c *gin.Context) {
	deleted, err := h.reports.InvalidateCache(c.Request.Context())
	if err != nil {
		respondError(c, "failed to invalidate cache", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

type reportFunc func(ctx context.Context, start, end time.Time) (*domain.Report, error)

func (h *ReportHandler) serveReport(c *gin.Context, fn reportFunc) {
	start, end, err := h.parseRange(c)
	if err != nil {
		respondError(c, "invalid period", err)
		return
	}

	report, err := fn(c.Request.Context(), start, end)
	if err != nil {
		respondError(c, "failed to compute report", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// parseRange reads start/end as YYYY-MM-DD. Both missing means the running
// month up to today.
func (h *ReportHandler) parseRange(c *gin.Context) (time.Time, time.Time, error) {
	rawStart := strings.TrimSpace(c.Query("start"))
	rawEnd := strings.TrimSpace(c.Query("end"))

	if rawStart == "" && rawEnd == "" {
		now := h.now().In(h.loc)
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, h.loc)
		return first, now, nil
	}
	if rawStart == "" || rawEnd == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start and end must be given together", errBadDate)
	}

	start, err := time.ParseInLocation(dateParam, rawStart, h.loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start %q", errBadDate, rawStart)
	}
	end, err := time.ParseInLocation(dateParam, rawEnd, h.loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end %q", errBadDate, rawEnd)
	}
	return start, end, nil
}

// statusFor maps domain failures to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadDate), errors.Is(err, domain.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrExternalStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(message)
	}
	c.JSON(status, gin.H{"error": message, "details": err.Error()})
}
