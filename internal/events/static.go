package events

import (
	"fmt"
	"time"
)

// StaticSource serves a fixed list of events from memory.
type StaticSource struct {
	events []Event
}

func NewStaticSource(events []Event) *StaticSource {
	dup := make([]Event, len(events))
	copy(dup, events)
	return &StaticSource{events: dup}
}

func (s *StaticSource) Events(start, end time.Time) ([]Event, error) {
	return filterRange(s.events, start, end), nil
}

type demoSlot struct {
	weekday    time.Weekday
	start, end string
	title      string
}

var demoSchedule = []demoSlot{
	{time.Monday, "08:00", "08:45", "Math"},
	{time.Monday, "09:00", "09:45", "English"},
	{time.Monday, "10:00", "10:45", "Biology"},
	{time.Monday, "11:00", "11:45", "Physics"},
	{time.Monday, "13:00", "13:45", "Chemistry"},
	{time.Monday, "14:00", "14:45", "History"},
	{time.Tuesday, "08:00", "08:45", "English"},
	{time.Tuesday, "09:00", "09:45", "Biology"},
	{time.Tuesday, "10:00", "10:45", "Physics"},
	{time.Tuesday, "11:00", "11:45", "History"},
	{time.Tuesday, "13:00", "13:45", "Math"},
	{time.Tuesday, "14:00", "14:45", "Chemistry"},
	{time.Wednesday, "08:00", "08:45", "Math"},
	{time.Wednesday, "09:00", "09:45", "Physics"},
	{time.Wednesday, "10:00", "10:45", "Chemistry"},
	{time.Wednesday, "11:00", "11:45", "History"},
	{time.Wednesday, "13:00", "13:45", "English"},
	{time.Wednesday, "14:00", "14:45", "Biology"},
	{time.Thursday, "08:00", "08:45", "History"},
	{time.Thursday, "09:00", "09:45", "Math"},
	{time.Thursday, "10:00", "10:45", "Chemistry"},
	{time.Thursday, "11:00", "11:45", "English"},
	{time.Thursday, "13:00", "13:45", "Biology"},
	{time.Thursday, "14:00", "14:45", "Physics"},
	{time.Friday, "08:00", "08:45", "Chemistry"},
	{time.Friday, "09:00", "09:45", "Math"},
	{time.Friday, "10:00", "10:45", "Physics"},
	{time.Friday, "11:00", "11:45", "English"},
	{time.Friday, "13:00", "13:45", "History"},
	{time.Friday, "14:00", "14:45", "Biology"},
}

// DemoEvents returns a school-week timetable for the work week containing
// anchor, so the grid has something to show without an event file.
func DemoEvents(anchor time.Time) []Event {
	day := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, anchor.Location())
	offset := int(day.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7
	}
	monday := day.AddDate(0, 0, -offset)

	out := make([]Event, 0, len(demoSchedule))
	for i, slot := range demoSchedule {
		date := monday.AddDate(0, 0, int(slot.weekday-time.Monday))
		out = append(out, Event{
			ID:    fmt.Sprintf("demo-%s-%d", date.Format("20060102"), i),
			Title: slot.title,
			Start: atClock(date, slot.start),
			End:   atClock(date, slot.end),
		})
	}
	return out
}

// DemoSource repeats the demo timetable every week.
type DemoSource struct{}

func (DemoSource) Events(start, end time.Time) ([]Event, error) {
	var all []Event
	for week := start; week.Before(end); week = week.AddDate(0, 0, 7) {
		all = append(all, DemoEvents(week)...)
	}
	// a range starting late in one week can end early in the next
	if !end.IsZero() && end.After(start) {
		all = append(all, DemoEvents(end.Add(-time.Nanosecond))...)
	}

	seen := make(map[string]bool, len(all))
	unique := all[:0]
	for _, e := range all {
		if !seen[e.ID] {
			seen[e.ID] = true
			unique = append(unique, e)
		}
	}
	return filterRange(unique, start, end), nil
}

func atClock(date time.Time, clock string) time.Time {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		panic(fmt.Sprintf("demo schedule: bad clock %q", clock))
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location())
}
