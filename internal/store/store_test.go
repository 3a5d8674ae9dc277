package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"f1bot/internal/event"
	"f1bot/pkg/logx"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "f1.db"), logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func seasonEvents(base time.Time) []event.Event {
	return []event.Event{
		{Type: event.TypeFP1, Location: "Monza", Start: base.Add(1 * time.Hour), Description: "Practice 1"},
		{Type: event.TypeQualifying, Location: "Monza", Start: base.Add(24 * time.Hour), Description: "Qualifying"},
		{Type: event.TypeRace, Location: "Monza", Start: base.Add(48 * time.Hour), Description: "Italian Grand Prix"},
		{Type: event.TypeRace, Location: "Suzuka", Start: base.Add(14 * 24 * time.Hour), Description: "Japanese Grand Prix"},
	}
}

func TestReplaceAndUpcoming(t *testing.T) {
	st := openTestStore(t)
	base := time.Date(2026, 9, 4, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	if err := st.Replace(ctx, seasonEvents(base)); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	got, err := st.Upcoming(ctx, event.TypeAny, base)
	if err != nil {
		t.Fatalf("Upcoming: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 upcoming events, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Start.Before(got[i-1].Start) {
			t.Fatalf("events out of order at %d: %v before %v", i, got[i].Start, got[i-1].Start)
		}
	}
	if !got[0].Start.Equal(base.Add(time.Hour)) {
		t.Fatalf("round-tripped start = %v, want %v", got[0].Start, base.Add(time.Hour))
	}
}

func TestUpcomingFiltersByType(t *testing.T) {
	st := openTestStore(t)
	base := time.Date(2026, 9, 4, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	if err := st.Replace(ctx, seasonEvents(base)); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	races, err := st.Upcoming(ctx, event.TypeRace, base)
	if err != nil {
		t.Fatalf("Upcoming: %v", err)
	}
	if len(races) != 2 {
		t.Fatalf("expected 2 races, got %d", len(races))
	}
	if races[0].Location != "Monza" || races[1].Location != "Suzuka" {
		t.Fatalf("unexpected race order: %s then %s", races[0].Location, races[1].Location)
	}
}

func TestUpcomingExcludesPastEvents(t *testing.T) {
	st := openTestStore(t)
	base := time.Date(2026, 9, 4, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	if err := st.Replace(ctx, seasonEvents(base)); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	// Between qualifying and the first race.
	got, err := st.Upcoming(ctx, event.TypeAny, base.Add(30*time.Hour))
	if err != nil {
		t.Fatalf("Upcoming: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 remaining events, got %d", len(got))
	}
}

func TestNext(t *testing.T) {
	st := openTestStore(t)
	base := time.Date(2026, 9, 4, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	if err := st.Replace(ctx, seasonEvents(base)); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	next, err := st.Next(ctx, event.TypeRace, base)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if next == nil || next.Location != "Monza" || next.Type != event.TypeRace {
		t.Fatalf("unexpected next race: %+v", next)
	}

	none, err := st.Next(ctx, event.TypeSprint, base)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if none != nil {
		t.Fatalf("expected no sprint on the calendar, got %+v", none)
	}
}

func TestReplaceSwapsWholeCalendar(t *testing.T) {
	st := openTestStore(t)
	base := time.Date(2026, 9, 4, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	if err := st.Replace(ctx, seasonEvents(base)); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	replacement := []event.Event{
		{Type: event.TypeRace, Location: "Spa-Francorchamps", Start: base.Add(72 * time.Hour), Description: "Belgian Grand Prix"},
	}
	if err := st.Replace(ctx, replacement); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	got, err := st.Upcoming(ctx, event.TypeAny, base)
	if err != nil {
		t.Fatalf("Upcoming: %v", err)
	}
	if len(got) != 1 || got[0].Location != "Spa-Francorchamps" {
		t.Fatalf("expected only the replacement calendar, got %+v", got)
	}
}
