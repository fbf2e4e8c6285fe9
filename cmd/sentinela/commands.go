package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/sentinela-corte/internal/api"
	"github.com/andresuchdata/sentinela-corte/internal/domain"
	"github.com/andresuchdata/sentinela-corte/internal/report"
	"github.com/andresuchdata/sentinela-corte/internal/scheduler"
	"github.com/andresuchdata/sentinela-corte/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

func runSend(c *cli.Context) error {
	rt, err := appFrom(c)
	if err != nil {
		return err
	}

	d, err := rt.dispatch.Send(c.Context, rt.now())
	if err != nil {
		return err
	}
	logger.Log.Info().Str("subject", d.Subject).Str("attachment", d.AttachmentName).Msg("E-mail sent")
	return nil
}

func runDaily(c *cli.Context) error {
	rt, err := appFrom(c)
	if err != nil {
		return err
	}

	daily, err := scheduler.NewDaily(rt.dispatch, scheduler.NewStateStore(rt.cfg.Schedule.StatePath), rt.cfg.Schedule, rt.loc)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return daily.Run(ctx)
}

func runReport(c *cli.Context) error {
	rt, err := appFrom(c)
	if err != nil {
		return err
	}

	variant, ok := domain.ParseReportVariant(c.String("variant"))
	if !ok {
		return fmt.Errorf("unknown variant %q (expected indicator or benchmark)", c.String("variant"))
	}

	start, err := time.ParseInLocation("2006-01-02", c.String("start"), rt.loc)
	if err != nil {
		return fmt.Errorf("invalid --start: %w", err)
	}
	end, err := time.ParseInLocation("2006-01-02", c.String("end"), rt.loc)
	if err != nil {
		return fmt.Errorf("invalid --end: %w", err)
	}

	r, err := rt.reports.Report(c.Context, variant, start, end)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	return printReport(c.App.Writer, r, report.BranchLabeler(rt.cfg.Indicator.BranchLabels))
}

func printReport(w io.Writer, r *domain.Report, labels report.BranchLabeler) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\n", r.Variant, r.Period.Key())

	header := "Filial\tFaturado\tCortado\tCorte %\tMeta\tDesvio"
	if r.Variant == domain.VariantBenchmark {
		header += "\tFalta\tFalta %\tMédia\tDesvio Falta"
	}
	fmt.Fprintln(tw, header)

	for _, row := range r.Rows {
		line := fmt.Sprintf("%s\t%s\t%s\t%s\t%s\t%s",
			labels.Label(row.Branch),
			report.FormatBRL(row.Revenue),
			report.FormatBRL(row.Shortage.Value),
			row.Shortage.RatioText,
			row.Shortage.TargetText,
			row.Shortage.DeviationText,
		)
		if b := row.Backorder; b != nil {
			line += fmt.Sprintf("\t%s\t%s\t%s\t%s", report.FormatBRL(b.Value), b.RatioText, b.TargetText, b.DeviationText)
		}
		fmt.Fprintln(tw, line)
	}
	return tw.Flush()
}

func runServe(c *cli.Context) error {
	rt, err := appFrom(c)
	if err != nil {
		return err
	}
	cfg := rt.cfg

	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := api.NewRouter(&api.Services{
		Reports:  rt.reports,
		Dispatch: rt.dispatch,
		Location: rt.loc,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-quit:
	}
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Log.Info().Msg("Server exiting")
	return nil
}
