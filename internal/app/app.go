// Package app wires the bot together: config, logging, storage, calendar
// ingestion, the alert scheduler, the Telegram surface and the periodic
// maintenance jobs.
package app

import (
	"context"
	"fmt"
	"hash/fnv"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"f1bot/internal/alert"
	"f1bot/internal/calendar"
	"f1bot/internal/config"
	"f1bot/internal/event"
	"f1bot/internal/metrics"
	"f1bot/internal/standings"
	"f1bot/internal/store"
	"f1bot/internal/transport/telegram"
	"f1bot/pkg/logx"
)

type App struct {
	cfgm *config.Manager
	logs *logx.Service
	log  logx.Logger

	st      *store.Store
	adapter *telegram.Adapter
	sched   *alert.Scheduler
	cache   *standings.Cache
	metrics *metrics.Metrics
	cron    *cron.Cron

	calendarURL  string
	calendarFile string
	lastCalHash  uint64
}

// New loads the config and initializes logging. A config failure here is
// fatal by design: there is no previous config to fall back to yet.
func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", cfgPath, err)
	}

	logs, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	a := &App{
		cfgm:         cfgm,
		logs:         logs,
		log:          log,
		calendarURL:  cfg.Calendar.URL,
		calendarFile: cfg.Calendar.File,
	}
	if a.calendarFile == "" {
		a.calendarFile = "./calendar.ics"
	}
	if cfg.Metrics.Enabled {
		a.metrics = metrics.New()
	}
	return a, nil
}

// Start brings every component up. Calendar ingestion failures are fatal:
// a bot with no events to track has nothing to do.
func (a *App) Start(ctx context.Context) error {
	cfg := a.cfgm.Snapshot()

	st, err := store.Open(cfg.Storage.Path, a.log.With(logx.String("comp", "store")))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	a.st = st

	events, err := a.loadCalendar(ctx)
	if err != nil {
		return fmt.Errorf("load calendar: %w", err)
	}
	if err := st.Replace(ctx, events); err != nil {
		return fmt.Errorf("store calendar: %w", err)
	}
	a.lastCalHash = hashEvents(events)
	a.log.Info("calendar loaded", logx.Int("events", len(events)))

	a.cache = standings.NewCache(
		standings.NewClient(cfg.Standings.URL),
		a.log.With(logx.String("comp", "standings")),
	)
	// Prime the cache; commands degrade gracefully until it succeeds.
	if err := a.cache.Refresh(ctx); err != nil {
		a.log.Warn("initial standings refresh failed", logx.Err(err))
	}

	adapter, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		ChatID:      cfg.Telegram.ChatID,
		PollTimeout: cfg.Telegram.PollTimeoutDuration(),
	}, a.log.With(logx.String("comp", "telegram")))
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	a.adapter = adapter

	telegram.NewCommands(adapter, st, a.cache, a.log.With(logx.String("comp", "commands"))).Register()
	adapter.Start(ctx)

	a.sched = alert.NewScheduler(a.cfgm, cfg, adapter,
		a.log.With(logx.String("comp", "alert")), a.metrics)
	a.sched.ReplaceEvents(events)
	go a.sched.Run(ctx)

	go func() {
		if err := a.cfgm.Watch(ctx); err != nil {
			a.log.Warn("config watcher exited", logx.Err(err))
		}
	}()

	if a.metrics != nil {
		addr := cfg.Metrics.Addr
		go func() {
			if err := a.metrics.Serve(ctx, addr, a.log.With(logx.String("comp", "metrics"))); err != nil {
				a.log.Warn("metrics listener exited", logx.Err(err))
			}
		}()
	}

	a.cron = cron.New()
	if _, err := a.cron.AddFunc("@every 24h", func() { a.refreshCalendar(ctx) }); err != nil {
		return err
	}
	if _, err := a.cron.AddFunc("@every 1h", func() { _ = a.cache.Refresh(ctx) }); err != nil {
		return err
	}
	a.cron.Start()

	a.log.Info("ready")
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	if a.cron != nil {
		stopped := a.cron.Stop()
		select {
		case <-stopped.Done():
		case <-ctx.Done():
		}
	}
	if a.adapter != nil {
		a.adapter.Stop()
	}
	if a.st != nil {
		_ = a.st.Close()
	}
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return nil
}

// loadCalendar parses the local feed copy, downloading it first when absent.
func (a *App) loadCalendar(ctx context.Context) ([]event.Event, error) {
	if _, err := os.Stat(a.calendarFile); err != nil {
		a.log.Info("calendar file missing; downloading", logx.String("path", a.calendarFile))
		if err := calendar.Download(ctx, a.calendarURL, a.calendarFile); err != nil {
			return nil, err
		}
	}
	return calendar.Load(a.calendarFile)
}

// refreshCalendar re-downloads the feed and swaps the event table and the
// scheduler's list only when the content actually changed. A failed
// download or parse keeps the previous calendar.
func (a *App) refreshCalendar(ctx context.Context) {
	dctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	if err := calendar.Download(dctx, a.calendarURL, a.calendarFile); err != nil {
		a.log.Warn("calendar download failed; keeping previous calendar", logx.Err(err))
		return
	}
	events, err := calendar.Load(a.calendarFile)
	if err != nil {
		a.log.Warn("calendar parse failed; keeping previous calendar", logx.Err(err))
		return
	}

	h := hashEvents(events)
	if h == a.lastCalHash {
		a.log.Debug("calendar unchanged")
		return
	}

	if err := a.st.Replace(dctx, events); err != nil {
		a.log.Warn("calendar store update failed", logx.Err(err))
		return
	}
	a.sched.ReplaceEvents(events)
	a.lastCalHash = h
	a.metrics.CalendarRefreshed()
	a.log.Info("calendar updated", logx.Int("events", len(events)))
}

// hashEvents fingerprints an event list so refreshes can skip no-op swaps.
func hashEvents(events []event.Event) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, ev := range events {
		k := ev.Key()
		for i := 0; i < 8; i++ {
			buf[i] = byte(k >> (56 - 8*i))
		}
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}
