// Package metrics exposes the bot's operational counters over Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"f1bot/pkg/logx"
)

const DefaultAddr = "127.0.0.1:9120"

// Metrics bundles the bot's instruments. A nil *Metrics is valid and every
// method on it is a no-op, so instrumentation can stay unconditional in the
// hot path while the listener itself is optional config.
type Metrics struct {
	reg *prometheus.Registry

	ticks                prometheus.Counter
	notificationsSent    prometheus.Counter
	notificationFailures prometheus.Counter
	configReloadFailures prometheus.Counter
	calendarRefreshes    prometheus.Counter

	trackedEvents  prometheus.Gauge
	pendingRecords prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{reg: prometheus.NewRegistry()}

	m.ticks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "f1bot",
		Name:      "ticks_total",
		Help:      "Alert scheduler ticks executed",
	})
	m.notificationsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "f1bot",
		Name:      "notifications_sent_total",
		Help:      "Alert notifications dispatched successfully",
	})
	m.notificationFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "f1bot",
		Name:      "notification_failures_total",
		Help:      "Alert notification deliveries that failed (not retried)",
	})
	m.configReloadFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "f1bot",
		Name:      "config_reload_failures_total",
		Help:      "Config reloads that failed and kept the previous config",
	})
	m.calendarRefreshes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "f1bot",
		Name:      "calendar_refreshes_total",
		Help:      "Calendar refreshes that replaced the event list",
	})
	m.trackedEvents = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "f1bot",
		Name:      "tracked_events",
		Help:      "Events currently tracked by the alert scheduler",
	})
	m.pendingRecords = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "f1bot",
		Name:      "pending_records",
		Help:      "Live dedup records (sent alerts awaiting GC)",
	})

	m.reg.MustRegister(
		m.ticks,
		m.notificationsSent,
		m.notificationFailures,
		m.configReloadFailures,
		m.calendarRefreshes,
		m.trackedEvents,
		m.pendingRecords,
	)
	return m
}

func (m *Metrics) TickRan() {
	if m != nil {
		m.ticks.Inc()
	}
}

func (m *Metrics) NotificationSent() {
	if m != nil {
		m.notificationsSent.Inc()
	}
}

func (m *Metrics) NotificationFailed() {
	if m != nil {
		m.notificationFailures.Inc()
	}
}

func (m *Metrics) ConfigReloadFailed() {
	if m != nil {
		m.configReloadFailures.Inc()
	}
}

func (m *Metrics) CalendarRefreshed() {
	if m != nil {
		m.calendarRefreshes.Inc()
	}
}

func (m *Metrics) SetTrackedEvents(n int) {
	if m != nil {
		m.trackedEvents.Set(float64(n))
	}
}

func (m *Metrics) SetPendingRecords(n int) {
	if m != nil {
		m.pendingRecords.Set(float64(n))
	}
}

// Serve runs the /metrics listener until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, log logx.Logger) error {
	if m == nil {
		return nil
	}
	if addr == "" {
		addr = DefaultAddr
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	if !log.IsZero() {
		log.Info("metrics listener started", logx.String("addr", addr))
	}
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
