package calendar

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// MaxProjected is how many upcoming events the dashboard shows
const MaxProjected = 5

type Event struct {
	Title string    `json:"title"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// UnmarshalJSON accepts RFC 3339 instants and all-day dates
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw struct {
		Title string `json:"title"`
		Start string `json:"start"`
		End   string `json:"end"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	start, err := ParseTime(raw.Start)
	if err != nil {
		return fmt.Errorf("event %q start: %w", raw.Title, err)
	}
	end, err := ParseTime(raw.End)
	if err != nil {
		return fmt.Errorf("event %q end: %w", raw.Title, err)
	}
	*e = Event{Title: raw.Title, Start: start, End: end}
	return nil
}

// ParseTime parses an event boundary. All-day dates are midnight UTC. Empty is the zero time.
func ParseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, value)
}

// Project returns the first MaxProjected events by ascending start. Events with equal starts
// keep their input order. The input is not modified.
func Project(events []Event) []Event {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})
	if len(sorted) > MaxProjected {
		sorted = sorted[:MaxProjected]
	}
	return sorted
}
