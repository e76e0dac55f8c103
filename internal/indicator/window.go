package indicator

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidBounds is returned when the end of the visible window is not
// after its start.
var ErrInvalidBounds = errors.New("window end must be after window start")

// ClockTime is a wall-clock time of day with minute precision.
type ClockTime struct {
	Hour   int
	Minute int
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Minutes returns the number of minutes since midnight.
func (c ClockTime) Minutes() int {
	return c.Hour*60 + c.Minute
}

// On anchors the clock time to the calendar date of day, in day's location.
func (c ClockTime) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour, c.Minute, 0, 0, day.Location())
}

// Bounds are the fixed clock-times the grid displays.
type Bounds struct {
	Start ClockTime
	End   ClockTime
}

// DefaultBounds is the 08:00-17:00 working day.
var DefaultBounds = Bounds{
	Start: ClockTime{Hour: 8},
	End:   ClockTime{Hour: 17},
}

func (b Bounds) Validate() error {
	if b.Start.Hour < 0 || b.Start.Hour > 23 || b.Start.Minute < 0 || b.Start.Minute > 59 {
		return fmt.Errorf("invalid start %s", b.Start)
	}
	if b.End.Hour < 0 || b.End.Hour > 24 || b.End.Minute < 0 || b.End.Minute > 59 {
		return fmt.Errorf("invalid end %s", b.End)
	}
	// 24:00 is the latest end; anything later spills into the next day
	if b.End.Hour == 24 && b.End.Minute > 0 {
		return fmt.Errorf("invalid end %s", b.End)
	}
	if b.End.Minutes() <= b.Start.Minutes() {
		return fmt.Errorf("%s-%s: %w", b.Start, b.End, ErrInvalidBounds)
	}
	return nil
}

// Span returns the length of the window.
func (b Bounds) Span() time.Duration {
	return time.Duration(b.End.Minutes()-b.Start.Minutes()) * time.Minute
}

// Window is the visible time range for a single calendar date.
type Window struct {
	Start time.Time
	End   time.Time
}

// WindowFor builds the window for now's calendar date. It is never cached:
// every evaluation derives it again so it follows the date across midnight.
func WindowFor(now time.Time, b Bounds) Window {
	return Window{
		Start: b.Start.On(now),
		End:   b.End.On(now),
	}
}

// Contains reports whether t lies inside the window, both ends inclusive.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Duration returns End - Start.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}
