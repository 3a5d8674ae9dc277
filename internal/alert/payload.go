package alert

import (
	"context"
	"fmt"
	"strings"

	"f1bot/internal/event"
)

// Payload is the display form of one (event, lead time) firing. Building it
// is pure formatting; delivery belongs to the Sink.
type Payload struct {
	Title       string
	Description string
	Location    string
	EventType   string
	LocalTime   string
}

// Sink delivers a payload to the chat platform. A failed send is logged and
// never retried; the dedup record stays so the pair cannot fire again.
type Sink interface {
	Send(ctx context.Context, p Payload) error
}

// BuildPayload renders the notification for an event firing at the given
// lead time (minutes before start).
func BuildPayload(ev event.Event, leadMinutes int) Payload {
	return Payload{
		Title:       fmt.Sprintf("%s starts in %s", ev.Label(), NormalizeDuration(leadMinutes)),
		Description: ev.Description,
		Location:    ev.Location,
		EventType:   ev.Label(),
		LocalTime:   ev.TimeString(),
	}
}

// NormalizeDuration renders minutes as "{H} hour(s) {M} minute(s)". The
// hour segment is omitted when zero, the minute segment is omitted when no
// minutes remain after extracting whole hours, and zero minutes renders as
// the empty string.
func NormalizeDuration(minutes int) string {
	hours := minutes / 60
	mins := minutes % 60

	parts := make([]string, 0, 2)
	switch {
	case hours == 1:
		parts = append(parts, "1 hour")
	case hours > 1:
		parts = append(parts, fmt.Sprintf("%d hours", hours))
	}
	switch {
	case mins == 1:
		parts = append(parts, "1 minute")
	case mins > 1:
		parts = append(parts, fmt.Sprintf("%d minutes", mins))
	}
	return strings.Join(parts, " ")
}
