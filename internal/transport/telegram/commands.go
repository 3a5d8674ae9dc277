package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"f1bot/internal/event"
	"f1bot/internal/standings"
	"f1bot/internal/store"
	"f1bot/pkg/logx"
)

const trimMessage = "[message too long, trimmed to fit]"

// Commands wires the chat command surface to the event store and the
// standings cache. Everything here is read-only plumbing; the alert
// scheduler never goes through this path.
type Commands struct {
	adapter *Adapter
	store   *store.Store
	cache   *standings.Cache
	log     logx.Logger
}

func NewCommands(adapter *Adapter, st *store.Store, cache *standings.Cache, log logx.Logger) *Commands {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Commands{adapter: adapter, store: st, cache: cache, log: log}
}

// Register installs the handlers and publishes the command menu.
func (c *Commands) Register() {
	bot := c.adapter.bot

	bot.Handle("/ping", func(tc tele.Context) error {
		return tc.Send("pong")
	})
	bot.Handle("/next", c.handleNext)
	bot.Handle("/standings", c.handleStandings)
	bot.Handle("/calendar", c.handleCalendar)

	err := bot.SetCommands([]tele.Command{
		{Text: "ping", Description: "Health check"},
		{Text: "next", Description: "Next event (optionally by type)"},
		{Text: "standings", Description: "Driver or constructor standings"},
		{Text: "calendar", Description: "Upcoming events (optionally by type)"},
	})
	if err != nil {
		c.log.Warn("failed to publish command menu", logx.Err(err))
	}
}

func (c *Commands) handleNext(tc tele.Context) error {
	t, err := event.ParseType(strings.Join(tc.Args(), " "))
	if err != nil {
		return tc.Send(err.Error())
	}

	ctx, cancel := queryContext()
	defer cancel()
	next, err := c.store.Next(ctx, t, time.Now())
	if err != nil {
		c.log.Warn("next query failed", logx.Err(err))
		return tc.Send("something went wrong looking up the calendar")
	}
	if next == nil {
		return tc.Send(noEventsMessage(t))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Next %s\n", next.Label())
	fmt.Fprintf(&b, "%s\n\nLocation: %s\nEvent Type: %s\nTime: %s",
		next.Description, next.Location, next.Label(), next.TimeString())
	return tc.Send(b.String())
}

func (c *Commands) handleStandings(tc tele.Context) error {
	which := "driver"
	if args := tc.Args(); len(args) > 0 {
		which = strings.ToLower(args[0])
	}

	var text string
	switch which {
	case "driver", "drivers":
		text = c.cache.DriverStandings()
	case "constructor", "constructors", "team", "teams":
		text = c.cache.ConstructorStandings()
	default:
		return tc.Send(fmt.Sprintf("unknown standings type %q (driver or constructor)", which))
	}
	if text == "" {
		return tc.Send("standings are not available yet, try again in a bit")
	}
	return c.sendMono(tc, text)
}

func (c *Commands) handleCalendar(tc tele.Context) error {
	t, err := event.ParseType(strings.Join(tc.Args(), " "))
	if err != nil {
		return tc.Send(err.Error())
	}

	ctx, cancel := queryContext()
	defer cancel()
	events, err := c.store.Upcoming(ctx, t, time.Now())
	if err != nil {
		c.log.Warn("calendar query failed", logx.Err(err))
		return tc.Send("something went wrong looking up the calendar")
	}
	if len(events) == 0 {
		return tc.Send(noEventsMessage(t))
	}

	// Leave headroom for the code fence around the listing.
	return c.sendMono(tc, buildListing(events, textLimit-16))
}

// buildListing joins event lines until the budget is hit, then replaces the
// last line with a trim marker so the reader knows the list is incomplete.
func buildListing(events []event.Event, limit int) string {
	var (
		lines []string
		total int
	)
	for _, ev := range events {
		line := ev.String()
		if total+len(line)+1 > limit {
			if n := len(lines); n > 0 {
				lines = lines[:n-1]
			}
			lines = append(lines, trimMessage)
			break
		}
		lines = append(lines, line)
		total += len(line) + 1
	}
	return strings.Join(lines, "\n")
}

// sendMono wraps text in a code fence so tables keep their alignment.
func (c *Commands) sendMono(tc tele.Context, text string) error {
	return tc.Send("```\n"+text+"\n```", &tele.SendOptions{ParseMode: tele.ModeMarkdown})
}

func noEventsMessage(t event.Type) string {
	if t == event.TypeAny {
		return "No events left on calendar"
	}
	return fmt.Sprintf("No %s's left on the calendar", t.String())
}

func queryContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}
