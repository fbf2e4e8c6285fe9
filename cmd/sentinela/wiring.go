package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/sentinela-corte/internal/cache"
	"github.com/andresuchdata/sentinela-corte/internal/config"
	"github.com/andresuchdata/sentinela-corte/internal/indicator"
	"github.com/andresuchdata/sentinela-corte/internal/mailer"
	"github.com/andresuchdata/sentinela-corte/internal/report"
	"github.com/andresuchdata/sentinela-corte/internal/repository/postgres"
	"github.com/andresuchdata/sentinela-corte/internal/service"
	"github.com/andresuchdata/sentinela-corte/internal/storage"
)

type appKey struct{}

// runtime holds the components one command works with.
type runtime struct {
	cfg      *config.Config
	loc      *time.Location
	db       *postgres.DB
	cache    cache.ReportCache
	reports  *service.ReportService
	dispatch *service.DispatchService
}

func (r *runtime) now() time.Time {
	return time.Now().In(r.loc)
}

func initReports(c *cli.Context) error {
	return initApp(c, false)
}

func initDelivery(c *cli.Context) error {
	return initApp(c, true)
}

func initApp(c *cli.Context, delivery bool) error {
	cfg := config.Load()
	rt := &runtime{cfg: cfg, loc: cfg.Indicator.Location()}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	rt.db = db

	reportCache, err := cache.NewReportCache(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("report cache unavailable, continuing without it")
		reportCache = cache.NewNoopReportCache()
	}
	rt.cache = reportCache

	target := indicator.DefaultShortageTarget
	if raw := cfg.Indicator.ShortageTarget; raw != "" {
		target, err = decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("invalid INDICATOR_SHORTAGE_TARGET %q: %w", raw, err)
		}
	}

	engine := indicator.NewEngine(postgres.NewFactRepository(db), indicator.Settings{
		ShortageTarget: target,
		BaselineDays:   cfg.Indicator.BaselineDays,
		Now:            rt.now,
	})
	rt.reports = service.NewReportService(engine, reportCache, rt.now)

	if delivery {
		renderer, err := report.NewRenderer(cfg.Mail, cfg.Indicator.BranchLabels)
		if err != nil {
			return err
		}

		archive, err := storage.New(c.Context, cfg.Archive)
		if err != nil {
			return fmt.Errorf("failed to init archive: %w", err)
		}

		rt.dispatch = service.NewDispatchService(
			rt.reports,
			postgres.NewDetailRepository(db),
			renderer,
			mailer.NewSMTPSender(cfg.Mail),
			archive,
			service.Recipients{To: cfg.Mail.To, Cc: cfg.Mail.Cc, Bcc: cfg.Mail.Bcc},
		)
	}

	c.Context = context.WithValue(c.Context, appKey{}, rt)
	return nil
}

func closeApp(c *cli.Context) error {
	rt, ok := c.Context.Value(appKey{}).(*runtime)
	if !ok || rt == nil {
		return nil
	}
	if rt.cache != nil {
		_ = rt.cache.Close()
	}
	if rt.db != nil {
		return rt.db.Close()
	}
	return nil
}

func appFrom(c *cli.Context) (*runtime, error) {
	rt, ok := c.Context.Value(appKey{}).(*runtime)
	if !ok || rt == nil {
		return nil, fmt.Errorf("application not initialized")
	}
	return rt, nil
}
