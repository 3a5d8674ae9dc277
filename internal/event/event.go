// Package event holds the immutable session model the alert scheduler and
// the command surface share. Events are value objects: constructed once at
// calendar-load time, compared by content, never mutated.
package event

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"strings"
	"time"
)

// Type classifies a session on the race weekend calendar.
type Type int

const (
	TypeAny Type = iota // filter value for queries; never stored on an event

	TypeFP1
	TypeFP2
	TypeFP3
	TypePractice // generic practice; display index comes from Event.Number
	TypeQualifying
	TypeSprint
	TypeSprintShootout
	TypeRace
)

// UnknownTypeError reports input text that matches no recognized session
// type. Calendar ingestion treats this as a hard failure rather than
// silently dropping or defaulting the event.
type UnknownTypeError struct {
	Input string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown event type %q", e.Input)
}

// ParseType maps a config key or command argument to a Type.
// Matching is case-insensitive and tolerates the common separators.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "any", "":
		return TypeAny, nil
	case "fp1":
		return TypeFP1, nil
	case "fp2":
		return TypeFP2, nil
	case "fp3":
		return TypeFP3, nil
	case "practice":
		return TypePractice, nil
	case "qualifying", "quali":
		return TypeQualifying, nil
	case "sprint":
		return TypeSprint, nil
	case "sprint shootout", "sprint_shootout", "sprint-shootout",
		"sprint qualifying", "sprint_qualifying", "sprint-qualifying":
		return TypeSprintShootout, nil
	case "race", "grand prix", "grand_prix":
		return TypeRace, nil
	}
	return TypeAny, &UnknownTypeError{Input: s}
}

// String returns the canonical config-key form of the type.
func (t Type) String() string {
	switch t {
	case TypeAny:
		return "any"
	case TypeFP1:
		return "fp1"
	case TypeFP2:
		return "fp2"
	case TypeFP3:
		return "fp3"
	case TypePractice:
		return "practice"
	case TypeQualifying:
		return "qualifying"
	case TypeSprint:
		return "sprint"
	case TypeSprintShootout:
		return "sprint_shootout"
	case TypeRace:
		return "race"
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// Types lists the concrete session types (no TypeAny), in calendar order.
func Types() []Type {
	return []Type{
		TypeFP1, TypeFP2, TypeFP3, TypePractice,
		TypeQualifying, TypeSprint, TypeSprintShootout, TypeRace,
	}
}

// Event is one scheduled session. Start is always an absolute instant;
// naive calendar timestamps are resolved against the reference zone at
// parse time so no later code path can convert twice.
type Event struct {
	Type        Type
	Number      int // zero-based practice index; 0 for non-practice sessions
	Location    string
	Start       time.Time
	Description string
}

const timeLayout = "2006-01-02 15:04:05"

// referenceZone is the single zone every comparison and every displayed
// time is normalized to. If tzdata is unavailable we fall back to UTC:
// instants still compare correctly, only display shifts.
var referenceZone = func() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.UTC
	}
	return loc
}()

// ReferenceZone returns the canonical comparison/display zone.
func ReferenceZone() *time.Location { return referenceZone }

// AlreadyHappened reports whether now is strictly after the session start.
func (e Event) AlreadyHappened(now time.Time) bool {
	return now.After(e.Start)
}

// InReferenceZone returns the start instant expressed in the reference
// zone. It never mutates the stored Start and is idempotent.
func (e Event) InReferenceZone() time.Time {
	return e.Start.In(referenceZone)
}

// Label returns the display name for the session.
func (e Event) Label() string {
	switch e.Type {
	case TypeFP1:
		return "FP1"
	case TypeFP2:
		return "FP2"
	case TypeFP3:
		return "FP3"
	case TypePractice:
		return fmt.Sprintf("FP%d", e.Number+1)
	case TypeQualifying:
		return "Qualifying"
	case TypeSprint:
		return "Sprint Race"
	case TypeSprintShootout:
		return "Sprint Shootout"
	case TypeRace:
		return "Grand Prix"
	}
	return e.Type.String()
}

// TimeString formats the start in the reference zone.
func (e Event) TimeString() string {
	return e.InReferenceZone().Format(timeLayout)
}

func (e Event) String() string {
	return fmt.Sprintf("%s: %s: %s", e.Location, e.Label(), e.TimeString())
}

// Key returns a stable 64-bit identity over all stored fields. Two events
// with equal content share a key, so the alert dedup set tracks the value,
// not a synthetic row id.
func (e Event) Key() uint64 {
	h := fnv.New64a()
	var buf [8]byte

	binary.BigEndian.PutUint64(buf[:], uint64(e.Type))
	_, _ = h.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], uint64(e.Number))
	_, _ = h.Write(buf[:])
	// Unix time is representation-independent: the same instant parsed in
	// different zones hashes identically.
	binary.BigEndian.PutUint64(buf[:], uint64(e.Start.Unix()))
	_, _ = h.Write(buf[:])

	_, _ = h.Write([]byte(e.Location))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(e.Description))
	return h.Sum64()
}
