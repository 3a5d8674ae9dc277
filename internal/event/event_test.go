package event

import (
	"errors"
	"testing"
	"time"
)

func TestLabel(t *testing.T) {
	tests := []struct {
		ev   Event
		want string
	}{
		{Event{Type: TypeFP1}, "FP1"},
		{Event{Type: TypeFP3, Number: 2}, "FP3"},
		{Event{Type: TypePractice, Number: 0}, "FP1"},
		{Event{Type: TypePractice, Number: 1}, "FP2"},
		{Event{Type: TypeQualifying}, "Qualifying"},
		{Event{Type: TypeSprint}, "Sprint Race"},
		{Event{Type: TypeSprintShootout}, "Sprint Shootout"},
		{Event{Type: TypeRace}, "Grand Prix"},
	}
	for _, tc := range tests {
		if got := tc.ev.Label(); got != tc.want {
			t.Errorf("Label() for %v = %q, want %q", tc.ev.Type, got, tc.want)
		}
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in   string
		want Type
	}{
		{"race", TypeRace},
		{"Race", TypeRace},
		{"GRAND PRIX", TypeRace},
		{"quali", TypeQualifying},
		{"sprint shootout", TypeSprintShootout},
		{"sprint-qualifying", TypeSprintShootout},
		{"fp2", TypeFP2},
		{"", TypeAny},
		{"any", TypeAny},
	}
	for _, tc := range tests {
		got, err := ParseType(tc.in)
		if err != nil {
			t.Errorf("ParseType(%q): unexpected error %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseType(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}

	_, err := ParseType("hillclimb")
	var ute *UnknownTypeError
	if !errors.As(err, &ute) {
		t.Fatalf("expected UnknownTypeError, got %v", err)
	}
}

func TestTypeRoundTrip(t *testing.T) {
	for _, typ := range Types() {
		got, err := ParseType(typ.String())
		if err != nil {
			t.Fatalf("ParseType(%q): %v", typ.String(), err)
		}
		if got != typ {
			t.Fatalf("round trip for %v gave %v", typ, got)
		}
	}
}

func TestNaiveAndExplicitTimestampsCompareEqual(t *testing.T) {
	// A naive calendar timestamp is interpreted in the reference zone;
	// the same instant written with an explicit zone must behave
	// identically under AlreadyHappened and share an identity key.
	naive, err := time.ParseInLocation("2006-01-02 15:04:05", "2026-09-06 09:00:00", ReferenceZone())
	if err != nil {
		t.Fatal(err)
	}
	explicit := naive.UTC()

	a := Event{Type: TypeRace, Location: "Monza", Start: naive}
	b := Event{Type: TypeRace, Location: "Monza", Start: explicit}

	for _, now := range []time.Time{
		naive.Add(-time.Minute),
		naive.Add(time.Minute),
	} {
		if a.AlreadyHappened(now) != b.AlreadyHappened(now) {
			t.Fatalf("AlreadyHappened(%v) differs between naive and explicit events", now)
		}
	}
	if a.Key() != b.Key() {
		t.Fatalf("expected equal keys for the same instant, got %d and %d", a.Key(), b.Key())
	}
}

func TestAlreadyHappenedIsStrict(t *testing.T) {
	start := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	ev := Event{Type: TypeRace, Start: start}

	if ev.AlreadyHappened(start) {
		t.Fatal("an event starting exactly now has not already happened")
	}
	if !ev.AlreadyHappened(start.Add(time.Second)) {
		t.Fatal("an event one second in the past has already happened")
	}
}

func TestInReferenceZoneIsIdempotent(t *testing.T) {
	ev := Event{Type: TypeRace, Start: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	once := ev.InReferenceZone()
	twice := ev.InReferenceZone()
	if !once.Equal(twice) {
		t.Fatalf("InReferenceZone not idempotent: %v vs %v", once, twice)
	}
	if !ev.Start.Equal(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatal("InReferenceZone mutated the stored start time")
	}
}

func TestKeyReflectsContent(t *testing.T) {
	start := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	a := Event{Type: TypeRace, Location: "Monza", Start: start, Description: "Italian GP"}
	b := a
	if a.Key() != b.Key() {
		t.Fatal("identical events must share a key")
	}

	c := a
	c.Location = "Imola"
	if a.Key() == c.Key() {
		t.Fatal("different locations must not share a key")
	}

	d := a
	d.Start = start.Add(time.Hour)
	if a.Key() == d.Key() {
		t.Fatal("different start times must not share a key")
	}
}
