// Package scheduler runs the once-a-day dispatch loop.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/sentinela-corte/internal/config"
	"github.com/andresuchdata/sentinela-corte/internal/domain"
	"github.com/andresuchdata/sentinela-corte/internal/indicator"
)

// Dispatcher is the part of the dispatch service the loop drives.
type Dispatcher interface {
	Send(ctx context.Context, now time.Time) (*domain.Dispatch, error)
	HadRevenue(ctx context.Context, now time.Time) (bool, error)
}

type Daily struct {
	dispatcher Dispatcher
	store      *StateStore
	hour       int
	minute     int
	poll       time.Duration
	loc        *time.Location
	now        func() time.Time

	mu    sync.Mutex
	state State
}

func NewDaily(dispatcher Dispatcher, store *StateStore, cfg config.ScheduleConfig, loc *time.Location) (*Daily, error) {
	hour, minute, err := cfg.TargetClock()
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.Local
	}
	return &Daily{
		dispatcher: dispatcher,
		store:      store,
		hour:       hour,
		minute:     minute,
		poll:       cfg.PollInterval(),
		loc:        loc,
		now:        time.Now,
		state:      store.Load(),
	}, nil
}

// State returns a copy of the in-memory state.
func (d *Daily) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Run evaluates Tick now and then on every poll interval until ctx is done.
func (d *Daily) Run(ctx context.Context) error {
	logger := cronLogger{}
	c := cron.New(
		cron.WithLocation(d.loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	if _, err := c.AddFunc(fmt.Sprintf("@every %s", d.poll), func() { d.tickAndLog(ctx) }); err != nil {
		return fmt.Errorf("schedule daily loop: %w", err)
	}

	log.Info().
		Str("target", fmt.Sprintf("%02d:%02d", d.hour, d.minute)).
		Dur("poll", d.poll).
		Msg("scheduler: daily loop started")

	d.tickAndLog(ctx)
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	log.Info().Msg("scheduler: daily loop stopped")
	return nil
}

func (d *Daily) tickAndLog(ctx context.Context) {
	if err := d.Tick(ctx); err != nil {
		log.Error().Err(err).Msg("scheduler: daily loop failure, retrying on next tick")
	}
}

// Tick sends at most one dispatch per calendar day once the target time has
// passed. The first day of a month always gets the closing of the previous
// month; other days only go out when yesterday had revenue.
func (d *Daily) Tick(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now().In(d.loc)
	target := time.Date(now.Year(), now.Month(), now.Day(), d.hour, d.minute, 0, 0, d.loc)
	if now.Before(target) {
		return nil
	}

	today := now.Format("2006-01-02")
	if d.state.LastSentDate == today {
		return nil
	}

	next := d.state
	if now.Day() == 1 {
		key := indicator.ClosingMonth(now).Format("2006-01")
		if key != d.state.LastClosingKey {
			log.Info().Str("month", key).Msg("scheduler: closing detected, sending")
			if _, err := d.dispatcher.Send(ctx, now); err != nil {
				return err
			}
			next.LastClosingKey = key
		}
	} else {
		had, err := d.dispatcher.HadRevenue(ctx, now)
		if err != nil {
			return err
		}
		if had {
			log.Info().Msg("scheduler: revenue found yesterday, sending daily")
			if _, err := d.dispatcher.Send(ctx, now); err != nil {
				return err
			}
		} else {
			log.Info().Msg("scheduler: no revenue yesterday, skipping daily")
		}
	}

	next.LastSentDate = today
	d.state = next
	return d.store.Save(next)
}

// cronLogger routes cron's own messages to zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
