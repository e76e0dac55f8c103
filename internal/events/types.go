package events

import (
	"sort"
	"time"
)

// Event is a single timed calendar entry shown on the grid.
type Event struct {
	ID       string
	Title    string
	Start    time.Time
	End      time.Time
	Location string
	Source   string // file the event came from, empty for in-memory events
}

// Duration returns End - Start.
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Overlaps reports whether the event intersects [start, end).
func (e Event) Overlaps(start, end time.Time) bool {
	return e.Start.Before(end) && e.End.After(start)
}

// Source supplies events for a time range, ordered by start time.
type Source interface {
	Events(start, end time.Time) ([]Event, error)
}

// SortEvents orders events by start, then title, then ID for a stable layout.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Start.Equal(events[j].Start) {
			return events[i].Start.Before(events[j].Start)
		}
		if events[i].Title != events[j].Title {
			return events[i].Title < events[j].Title
		}
		return events[i].ID < events[j].ID
	})
}

func filterRange(all []Event, start, end time.Time) []Event {
	var out []Event
	for _, event := range all {
		if event.Overlaps(start, end) {
			out = append(out, event)
		}
	}
	SortEvents(out)
	return out
}
