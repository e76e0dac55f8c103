package view

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownView is returned by Parse for names outside the supported set.
var ErrUnknownView = errors.New("unknown view")

// View is one of the supported grid layouts.
type View int

const (
	WorkWeek View = iota
	Day
)

// All returns the supported views in display order.
func All() []View {
	return []View{WorkWeek, Day}
}

func (v View) String() string {
	switch v {
	case Day:
		return "day"
	default:
		return "work_week"
	}
}

// Title is the label shown in the UI.
func (v View) Title() string {
	switch v {
	case Day:
		return "Day"
	default:
		return "Work Week"
	}
}

// Next cycles through All.
func (v View) Next() View {
	views := All()
	for i, candidate := range views {
		if candidate == v {
			return views[(i+1)%len(views)]
		}
	}
	return views[0]
}

func Parse(s string) (View, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "work_week", "work-week", "workweek", "week":
		return WorkWeek, nil
	case "day":
		return Day, nil
	default:
		return WorkWeek, fmt.Errorf("%q: %w", s, ErrUnknownView)
	}
}

// Days returns the calendar dates, at midnight, that v shows around anchor.
// The work week is always Monday through Friday.
func Days(v View, anchor time.Time) []time.Time {
	day := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, anchor.Location())
	if v == Day {
		return []time.Time{day}
	}

	// Weekday() is 0 for Sunday; treat Sunday as the end of the week
	offset := int(day.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7
	}
	monday := day.AddDate(0, 0, -offset)

	days := make([]time.Time, 5)
	for i := range days {
		days[i] = monday.AddDate(0, 0, i)
	}
	return days
}

// StepDays returns how many days one navigation step moves the anchor in v.
func StepDays(v View) int {
	if v == Day {
		return 1
	}
	return 7
}
