package config

import (
	"fmt"
	"strings"
	"time"

	"f1bot/internal/event"
)

type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Logging   LoggingConfig   `yaml:"logging"`
	Storage   StorageConfig   `yaml:"storage"`
	Calendar  CalendarConfig  `yaml:"calendar"`
	Standings StandingsConfig `yaml:"standings"`
	Metrics   MetricsConfig   `yaml:"metrics,omitempty"`

	// Alerts is the hot-reloadable part: the scheduler re-reads it on every
	// tick, so lead-time edits take effect without a restart.
	Alerts AlertsConfig `yaml:"alerts"`
}

type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `yaml:"poll_timeout,omitempty"`
}

// PollTimeoutDuration returns the parsed long-poll timeout, zero when unset.
// Validate has already rejected malformed values by the time this is called.
func (t TelegramConfig) PollTimeoutDuration() time.Duration {
	d, _ := parseDuration("telegram.poll_timeout", t.PollTimeout)
	return d
}

type LoggingConfig struct {
	Level   string      `yaml:"level"`
	Console bool        `yaml:"console"`
	File    LoggingFile `yaml:"file"`
}

type LoggingFile struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type StorageConfig struct {
	// Path is the sqlite database file holding the race table.
	Path string `yaml:"path"`
}

type CalendarConfig struct {
	URL string `yaml:"url"`
	// File is where the downloaded .ics is kept between refreshes.
	File string `yaml:"file"`
}

type StandingsConfig struct {
	// URL template; {year} is replaced with the current year.
	URL string `yaml:"url,omitempty"`
}

// MetricsConfig controls the optional Prometheus listener.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr,omitempty"` // default: "127.0.0.1:9120"
}

// AlertsConfig maps event-type names to ordered lead times (minutes before
// start). A missing type means "do not notify for this type". Duplicate
// values are legal; the scheduler's dedup records keep them from double
// firing, not this layer.
type AlertsConfig struct {
	// Interval is the poll cadence as a Go duration string (default "60s").
	Interval string `yaml:"interval,omitempty"`

	Events map[string][]int `yaml:"events"`
}

// LeadTimes returns the configured lead-time list for a type, in config
// order. Keys are matched case-insensitively through event.ParseType, so
// "Race", "race" and "grand prix" all address the same type. Validate
// guarantees at most one key per type, so the lookup has a single winner.
func (a AlertsConfig) LeadTimes(t event.Type) ([]int, bool) {
	for key, leads := range a.Events {
		kt, err := event.ParseType(key)
		if err != nil || kt == event.TypeAny {
			continue
		}
		if kt == t {
			return leads, true
		}
	}
	return nil, false
}

// TickInterval parses Alerts.Interval, defaulting to one minute.
func (a AlertsConfig) TickInterval() time.Duration {
	d, err := parseDuration("alerts.interval", a.Interval)
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}

// parseDuration validates an optional duration field; empty means unset.
func parseDuration(field, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", field, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", field)
	}
	return d, nil
}

// Validate rejects configs the bot cannot run with. It runs on every load,
// so a bad hot-reload is refused before it can replace a working config.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required")
	}
	if c.Telegram.ChatID == 0 {
		return fmt.Errorf("telegram.chat_id is required")
	}
	if _, err := parseDuration("telegram.poll_timeout", c.Telegram.PollTimeout); err != nil {
		return err
	}
	if _, err := parseDuration("alerts.interval", c.Alerts.Interval); err != nil {
		return err
	}
	// One key per type: "race" and "grand prix" are the same type, and map
	// iteration order would pick an arbitrary winner between them.
	seen := make(map[event.Type]string, len(c.Alerts.Events))
	for key, leads := range c.Alerts.Events {
		t, err := event.ParseType(key)
		if err != nil {
			return fmt.Errorf("alerts.events: %w", err)
		}
		if t == event.TypeAny {
			return fmt.Errorf("alerts.events: %q is not a notifiable type", key)
		}
		if prev, dup := seen[t]; dup {
			return fmt.Errorf("alerts.events: %q and %q both configure the %s type", prev, key, t)
		}
		seen[t] = key
		for _, m := range leads {
			if m < 0 {
				return fmt.Errorf("alerts.events.%s: lead time must be >= 0, got %d", key, m)
			}
		}
	}
	return nil
}
