package indicator

import (
	"math"
	"time"
)

const (
	// DefaultOffset is the calibration, in percentage points, subtracted from
	// the raw position so the marker lines up with the grid rows.
	DefaultOffset = 2.0

	// DefaultInterval bounds how often a new position is published.
	DefaultInterval = time.Second
)

// State is the published indicator position. The zero value is Absent.
type State struct {
	Present bool
	Percent float64 // within [0,100] when Present
}

// Absent is the state when now is outside the visible window.
var Absent = State{}

// Config holds the tunables for position calculation and publication.
type Config struct {
	Bounds   Bounds
	Offset   float64
	Interval time.Duration
}

// DefaultConfig returns the 08:00-17:00 window, a 2 point offset and a one
// second publish interval.
func DefaultConfig() Config {
	return Config{
		Bounds:   DefaultBounds,
		Offset:   DefaultOffset,
		Interval: DefaultInterval,
	}
}

// Calculator turns wall-clock instants into indicator positions.
type Calculator struct {
	bounds Bounds
	offset float64
}

func NewCalculator(bounds Bounds, offset float64) Calculator {
	return Calculator{bounds: bounds, offset: offset}
}

// Window returns the visible window for now's date.
func (c Calculator) Window(now time.Time) Window {
	return WindowFor(now, c.bounds)
}

// Within reports whether now falls inside today's visible window.
func (c Calculator) Within(now time.Time) bool {
	return c.Window(now).Contains(now)
}

// Position computes where the marker sits for now, or Absent.
func (c Calculator) Position(now time.Time) State {
	w := c.Window(now)
	if !w.Contains(now) {
		return Absent
	}

	total := w.Duration().Minutes()
	elapsed := math.Max(0, now.Sub(w.Start).Minutes())

	percent := elapsed/total*100 - c.offset

	return State{Present: true, Percent: clamp(percent, 0, 100)}
}

// clamp limits v to [lo, hi]; NaN maps to lo.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Min(hi, math.Max(lo, v))
}
