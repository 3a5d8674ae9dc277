package telegram

import (
	"strings"
	"testing"
	"time"

	"f1bot/internal/event"
	"f1bot/pkg/logx"
)

func TestSplitTextShortMessageUntouched(t *testing.T) {
	chunks := splitText("hello", 10)
	if len(chunks) != 1 || chunks[0] != "hello" {
		t.Fatalf("unexpected chunks %q", chunks)
	}
}

func TestSplitTextPrefersNewlineBoundaries(t *testing.T) {
	text := strings.Repeat("x", 8) + "\n" + strings.Repeat("y", 8)
	chunks := splitText(text, 10)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %q", len(chunks), chunks)
	}
	if !strings.HasSuffix(chunks[0], "\n") {
		t.Fatalf("first chunk should end on the newline, got %q", chunks[0])
	}
	if chunks[1] != strings.Repeat("y", 8) {
		t.Fatalf("unexpected second chunk %q", chunks[1])
	}
}

func TestSplitTextHardSplitWithoutNewlines(t *testing.T) {
	text := strings.Repeat("a", 25)
	chunks := splitText(text, 10)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if got := strings.Join(chunks, ""); got != text {
		t.Fatalf("chunks do not reassemble the input: %q", got)
	}
	for i, c := range chunks {
		if len([]rune(c)) > 10 {
			t.Fatalf("chunk %d exceeds the limit: %q", i, c)
		}
	}
}

func TestSplitTextIgnoresEarlyNewlines(t *testing.T) {
	// A newline in the first third of the chunk is too early to be a
	// useful boundary; the split falls back to the hard limit.
	text := "ab\n" + strings.Repeat("c", 20)
	chunks := splitText(text, 12)
	if len(chunks[0]) != 12 {
		t.Fatalf("expected a hard split at the limit, got %q", chunks[0])
	}
}

func TestBuildListing(t *testing.T) {
	base := time.Date(2026, 9, 4, 12, 0, 0, 0, time.UTC)
	events := []event.Event{
		{Type: event.TypeFP1, Location: "Monza", Start: base},
		{Type: event.TypeQualifying, Location: "Monza", Start: base.Add(24 * time.Hour)},
		{Type: event.TypeRace, Location: "Monza", Start: base.Add(48 * time.Hour)},
	}

	full := buildListing(events, 4000)
	lines := strings.Split(full, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d:\n%s", len(lines), full)
	}
	for i, ev := range events {
		if lines[i] != ev.String() {
			t.Fatalf("line %d = %q, want %q", i, lines[i], ev.String())
		}
	}
}

func TestBuildListingTrimsAtBudget(t *testing.T) {
	base := time.Date(2026, 9, 4, 12, 0, 0, 0, time.UTC)
	events := []event.Event{
		{Type: event.TypeFP1, Location: "Monza", Start: base},
		{Type: event.TypeQualifying, Location: "Monza", Start: base.Add(24 * time.Hour)},
		{Type: event.TypeRace, Location: "Monza", Start: base.Add(48 * time.Hour)},
	}

	// Budget fits the first two lines only.
	limit := len(events[0].String()) + 1 + len(events[1].String()) + 1
	trimmed := buildListing(events, limit)
	lines := strings.Split(trimmed, "\n")

	if lines[len(lines)-1] != trimMessage {
		t.Fatalf("expected the trim marker as the last line, got %q", lines[len(lines)-1])
	}
	if len(trimmed) > limit+len(trimMessage) {
		t.Fatalf("listing blew the budget: %d > %d", len(trimmed), limit+len(trimMessage))
	}
	if lines[0] != events[0].String() {
		t.Fatalf("first line = %q, want %q", lines[0], events[0].String())
	}
}

func TestNoEventsMessage(t *testing.T) {
	if got := noEventsMessage(event.TypeAny); got != "No events left on calendar" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := noEventsMessage(event.TypeRace); !strings.Contains(got, "race") {
		t.Fatalf("expected the type name in %q", got)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	if _, err := New(Config{Token: "", ChatID: 1}, logx.Nop()); err == nil {
		t.Fatal("expected an error for an empty token")
	}
	if _, err := New(Config{Token: "t", ChatID: 0}, logx.Nop()); err == nil {
		t.Fatal("expected an error for a missing chat id")
	}
}
