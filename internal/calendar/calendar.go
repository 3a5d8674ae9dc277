// Package calendar ingests the published F1 .ics feed into event values.
package calendar

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/emersion/go-ical"

	"f1bot/internal/event"
)

// feedMarkerSummary is the promo entry the feed ships alongside real
// sessions; it is not a session and is skipped during ingestion.
const feedMarkerSummary = "Formula 1 in your calendar!"

// Load parses the .ics file at path.
func Load(path string) ([]event.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	evs, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return evs, nil
}

// Parse decodes an iCalendar stream into events, preserving feed order.
// An entry whose category and summary match no known session type is a
// hard failure: silently dropping sessions would silently drop alerts.
func Parse(r io.Reader) ([]event.Event, error) {
	cal, err := ical.NewDecoder(r).Decode()
	if err != nil {
		return nil, err
	}

	var events []event.Event
	for _, comp := range cal.Children {
		if comp.Name != ical.CompEvent {
			continue
		}
		summary := propValue(comp, ical.PropSummary)
		if summary == feedMarkerSummary {
			continue
		}
		ev, err := parseComponent(comp, summary)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func parseComponent(comp *ical.Component, summary string) (event.Event, error) {
	typ, number, err := classify(propValue(comp, ical.PropCategories), summary)
	if err != nil {
		return event.Event{}, err
	}

	startProp := comp.Props.Get(ical.PropDateTimeStart)
	if startProp == nil {
		return event.Event{}, fmt.Errorf("event %q has no DTSTART", summary)
	}
	// Naive timestamps are resolved in the reference zone here, once.
	// go-ical only applies the fallback zone when the value carries no
	// zone of its own, so explicit TZID/UTC values are untouched.
	start, err := startProp.DateTime(event.ReferenceZone())
	if err != nil {
		return event.Event{}, fmt.Errorf("event %q: bad DTSTART: %w", summary, err)
	}

	return event.Event{
		Type:        typ,
		Number:      number,
		Location:    strings.TrimSpace(propValue(comp, ical.PropLocation)),
		Start:       start,
		Description: summary,
	}, nil
}

// classify maps the feed's CATEGORIES value (preferred) or the summary text
// (fallback) to a session type. The practice display index is zero-based.
func classify(category, summary string) (event.Type, int, error) {
	if cat := firstCategory(category); cat != "" {
		switch {
		case strings.HasPrefix(cat, "fp"):
			n, err := strconv.Atoi(cat[len("fp"):])
			if err != nil || n < 1 {
				return event.TypeAny, 0, &event.UnknownTypeError{Input: category}
			}
			switch n {
			case 1:
				return event.TypeFP1, 0, nil
			case 2:
				return event.TypeFP2, 1, nil
			case 3:
				return event.TypeFP3, 2, nil
			}
			return event.TypePractice, n - 1, nil
		case cat == "qualifying":
			return event.TypeQualifying, 0, nil
		case cat == "grand prix":
			return event.TypeRace, 0, nil
		case cat == "sprint shootout", cat == "sprint qualifying":
			return event.TypeSprintShootout, 0, nil
		case cat == "sprint":
			return event.TypeSprint, 0, nil
		}
		return event.TypeAny, 0, &event.UnknownTypeError{Input: category}
	}

	s := strings.ToLower(summary)
	switch {
	case strings.Contains(s, "practice 1"):
		return event.TypeFP1, 0, nil
	case strings.Contains(s, "practice 2"):
		return event.TypeFP2, 1, nil
	case strings.Contains(s, "practice 3"):
		return event.TypeFP3, 2, nil
	case strings.Contains(s, "practice"):
		return event.TypePractice, 0, nil
	case strings.Contains(s, "sprint shootout"), strings.Contains(s, "sprint qualifying"):
		return event.TypeSprintShootout, 0, nil
	case strings.Contains(s, "qualifying"):
		return event.TypeQualifying, 0, nil
	case strings.Contains(s, "sprint"):
		return event.TypeSprint, 0, nil
	case strings.Contains(s, "race"), strings.Contains(s, "grand prix"):
		return event.TypeRace, 0, nil
	}
	return event.TypeAny, 0, &event.UnknownTypeError{Input: summary}
}

func firstCategory(raw string) string {
	for _, part := range strings.Split(raw, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			return p
		}
	}
	return ""
}

func propValue(comp *ical.Component, name string) string {
	if p := comp.Props.Get(name); p != nil {
		return p.Value
	}
	return ""
}
