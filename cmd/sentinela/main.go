package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/sentinela-corte/internal/config"
	"github.com/andresuchdata/sentinela-corte/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "sentinela",
		Usage: "Sentinela · Corte: shortage indicators per branch",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "modo",
				Usage: "Legacy run mode: manual (send now) or diario (daily loop)",
			},
		},
		Before: setup,
		After: func(c *cli.Context) error {
			logger.Close()
			return nil
		},
		Action: runMode,
		Commands: []*cli.Command{
			{
				Name:    "send",
				Aliases: []string{"manual"},
				Usage:   "Build and send the notification now",
				Before:  initDelivery,
				After:   closeApp,
				Action:  runSend,
			},
			{
				Name:    "daily",
				Aliases: []string{"diario"},
				Usage:   "Run the daily loop: closing on day 1, daily when yesterday had revenue",
				Before:  initDelivery,
				After:   closeApp,
				Action:  runDaily,
			},
			{
				Name:  "report",
				Usage: "Print indicator or benchmark rows for a date range",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "variant",
						Usage: "indicator or benchmark",
						Value: "indicator",
					},
					&cli.StringFlag{
						Name:     "start",
						Usage:    "First date (YYYY-MM-DD)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "end",
						Usage:    "Last date (YYYY-MM-DD)",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print rows as JSON",
					},
				},
				Before: initReports,
				After:  closeApp,
				Action: runReport,
			},
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API",
				Before: initDelivery,
				After:  closeApp,
				Action: runServe,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Error().Err(err).Msg("sentinela failed")
		logger.Close()
		os.Exit(1)
	}
}

func setup(c *cli.Context) error {
	cfg := config.Load()
	logger.SetLevel(cfg.Log.Level)
	if err := logger.EnableFile(cfg.Log.Dir, cfg.Log.File); err != nil {
		return err
	}
	logger.Log.Info().Str("modo", c.String("modo")).Msg("Sentinela · Corte started")
	return nil
}

// runMode keeps the --modo flag working when no command is given.
func runMode(c *cli.Context) error {
	switch c.String("modo") {
	case "":
		return cli.ShowAppHelp(c)
	case "manual":
		return withDelivery(c, runSend)
	case "diario":
		return withDelivery(c, runDaily)
	default:
		return fmt.Errorf("unknown --modo %q (expected manual or diario)", c.String("modo"))
	}
}

func withDelivery(c *cli.Context, action cli.ActionFunc) error {
	if err := initDelivery(c); err != nil {
		return err
	}
	defer closeApp(c)
	return action(c)
}
