// Package alert implements the notification core: a fixed-interval poll
// over the tracked event list, at-most-once dispatch per (event, lead time)
// pair, and garbage collection of dedup records once events are in the past.
//
// Polling beats per-event timers here: the list is sports-calendar sized,
// the lead-time config can change between ticks, and one interval of drift
// is acceptable.
package alert

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"f1bot/internal/config"
	"f1bot/internal/event"
	"f1bot/internal/metrics"
	"f1bot/pkg/logx"
)

// ConfigSource yields the current alert config at the top of every tick.
// Implementations must keep returning the last good snapshot when a reload
// fails (config.Manager does).
type ConfigSource interface {
	Reload() (*config.Config, error)
}

// record marks one dispatched (lead time, event) pair. Events are keyed by
// their content hash, so the same session re-read from the calendar maps to
// the same record.
type record struct {
	leadMinutes int
	eventKey    uint64
}

type Scheduler struct {
	cfgSource ConfigSource
	sink      Sink
	log       logx.Logger
	metrics   *metrics.Metrics

	interval time.Duration

	// mu covers a whole tick (and any event-list swap), so a config reload
	// or calendar refresh is never half-visible mid-pass.
	mu      sync.Mutex
	events  []event.Event
	handled map[record]time.Time // value: event start, consulted by gc
	alerts  config.AlertsConfig
}

func NewScheduler(cfgSource ConfigSource, initial *config.Config, sink Sink, log logx.Logger, m *metrics.Metrics) *Scheduler {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Scheduler{
		cfgSource: cfgSource,
		sink:      sink,
		log:       log,
		metrics:   m,
		interval:  time.Minute,
		handled:   make(map[record]time.Time),
	}
	if initial != nil {
		s.alerts = initial.Alerts
		s.interval = initial.Alerts.TickInterval()
	}
	return s
}

// ReplaceEvents swaps the tracked event list. Dedup records survive the
// swap: records are keyed by event content, so an unchanged session keeps
// its already-sent markers.
func (s *Scheduler) ReplaceEvents(events []event.Event) {
	s.mu.Lock()
	s.events = append([]event.Event(nil), events...)
	s.mu.Unlock()
	s.metrics.SetTrackedEvents(len(events))
}

// Run executes ticks at the configured interval until ctx is cancelled.
// Each tick is isolated: a panic or I/O failure inside one tick never
// prevents the next. A reload can change alerts.interval, so the ticker is
// re-armed whenever a tick leaves a new cadence behind.
func (s *Scheduler) Run(ctx context.Context) {
	s.safeTick(ctx, time.Now())

	interval := s.currentInterval()
	s.log.Info("alert scheduler started", logx.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("alert scheduler stopped")
			return
		case <-ticker.C:
			s.safeTick(ctx, time.Now())
			if d := s.currentInterval(); d != interval {
				interval = d
				ticker.Reset(d)
				s.log.Info("tick interval changed", logx.Duration("interval", d))
			}
		}
	}
}

func (s *Scheduler) currentInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

func (s *Scheduler) safeTick(ctx context.Context, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("tick panicked",
				logx.Any("panic", r),
				logx.String("stack", string(debug.Stack())))
		}
	}()
	s.Tick(ctx, now)
}

// Tick runs one poll: reload config (best-effort), evaluate every event,
// then collect stale records. now is captured once and used for the whole
// pass, including GC.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reloadConfig()

	for _, ev := range s.events {
		s.maybeNotify(ctx, ev, now)
	}
	s.gc(now)

	s.metrics.TickRan()
	s.metrics.SetPendingRecords(len(s.handled))
}

// reloadConfig picks up lead-time edits without a restart. On failure the
// previous config stays in effect.
func (s *Scheduler) reloadConfig() {
	if s.cfgSource == nil {
		return
	}
	cfg, err := s.cfgSource.Reload()
	if err != nil {
		s.log.Warn("config reload failed; keeping previous config", logx.Err(err))
		s.metrics.ConfigReloadFailed()
		return
	}
	if cfg != nil {
		s.alerts = cfg.Alerts
		s.interval = cfg.Alerts.TickInterval()
	}
}

// maybeNotify fires every configured lead time the event has newly entered,
// in config order, without breaking early: an event inside both its 60- and
// 30-minute windows on the same tick fires both (unless already recorded).
func (s *Scheduler) maybeNotify(ctx context.Context, ev event.Event, now time.Time) {
	if ev.AlreadyHappened(now) {
		return
	}
	leads, ok := s.alerts.LeadTimes(ev.Type)
	if !ok || len(leads) == 0 {
		return
	}

	start := ev.InReferenceZone()
	key := ev.Key()
	for _, lead := range leads {
		rec := record{leadMinutes: lead, eventKey: key}
		if _, seen := s.handled[rec]; seen {
			continue
		}
		// "Waiting lead minutes from now would overshoot the start" is the
		// same condition as "the event starts within lead minutes".
		alertAt := now.Add(time.Duration(lead) * time.Minute)
		if !alertAt.After(start) {
			continue
		}

		// Record before dispatch: a delivery failure is logged, not
		// retried, so the pair stays at-most-once.
		s.handled[rec] = ev.Start
		if err := s.sink.Send(ctx, BuildPayload(ev, lead)); err != nil {
			s.log.Warn("notification send failed",
				logx.Err(err),
				logx.String("event", ev.String()),
				logx.Int("lead_minutes", lead))
			s.metrics.NotificationFailed()
			continue
		}
		s.metrics.NotificationSent()
		s.log.Info("notification sent",
			logx.String("event", ev.String()),
			logx.Int("lead_minutes", lead))
	}
}

// gc drops every record whose event has started. The event list itself is
// static between calendar refreshes, so this is the only mechanism keeping
// the dedup set bounded.
func (s *Scheduler) gc(now time.Time) {
	for rec, start := range s.handled {
		if now.After(start) {
			delete(s.handled, rec)
		}
	}
}
