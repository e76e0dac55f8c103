package indicator

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// DefaultFrame is the refresh cadence of a 60 Hz display.
const DefaultFrame = time.Second / 60

// ErrAlreadyActive is returned by Run when a loop already owns the scheduler.
var ErrAlreadyActive = errors.New("indicator scheduler already active")

// Clock abstracts time so tests can drive the scheduler.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Handle identifies one activation of the refresh loop. Frames carry the
// handle they were scheduled under; once the scheduler is deactivated the
// handle goes stale and those frames are dropped.
type Handle uint64

// TickResult tells the loop driver what a tick did.
type TickResult int

const (
	// TickStale means the frame belongs to a released loop. Do not reschedule.
	TickStale TickResult = iota
	// TickSkipped means the publish interval has not elapsed yet.
	TickSkipped
	// TickPublished means a new State was published.
	TickPublished
)

// Reschedule reports whether the driver should request another frame.
func (r TickResult) Reschedule() bool {
	return r != TickStale
}

func (r TickResult) String() string {
	switch r {
	case TickSkipped:
		return "skipped"
	case TickPublished:
		return "published"
	default:
		return "stale"
	}
}

// Scheduler owns the refresh loop for the current-time marker. It is driven
// from a single goroutine (the UI event loop, or Run) and is not safe for
// concurrent use.
type Scheduler struct {
	calc     Calculator
	interval time.Duration
	clock    Clock
	log      zerolog.Logger
	sample   rate.Sometimes

	handle      Handle // zero when inactive
	generation  Handle
	lastUpdate  time.Time
	state       State
	initialized bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithLogger attaches a logger for lifecycle and publish events.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

func NewScheduler(cfg Config, opts ...Option) *Scheduler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	s := &Scheduler{
		calc:     NewCalculator(cfg.Bounds, cfg.Offset),
		interval: interval,
		clock:    SystemClock{},
		log:      zerolog.Nop(),
		sample:   rate.Sometimes{First: 1, Interval: time.Minute},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Calculator exposes the position math the scheduler publishes with.
func (s *Scheduler) Calculator() Calculator {
	return s.calc
}

// Activate starts a loop. It returns the handle frames must carry and
// whether a new loop was started; a second Activate while active returns the
// existing handle and false so the caller does not start a duplicate chain.
func (s *Scheduler) Activate() (Handle, bool) {
	if s.handle != 0 {
		return s.handle, false
	}

	s.generation++
	s.handle = s.generation
	s.lastUpdate = s.clock.Now()

	s.log.Debug().Uint64("handle", uint64(s.handle)).Msg("indicator loop activated")
	return s.handle, true
}

// Deactivate releases the loop handle. Frames already in flight become stale
// and publish nothing. Calling it on an inactive scheduler is a no-op.
func (s *Scheduler) Deactivate() {
	if s.handle == 0 {
		return
	}

	s.log.Debug().Uint64("handle", uint64(s.handle)).Msg("indicator loop released")
	s.handle = 0
	s.initialized = false
	s.state = Absent
}

// Active reports whether a loop currently holds the scheduler.
func (s *Scheduler) Active() bool {
	return s.handle != 0
}

// Tick runs one loop iteration for the frame scheduled under h.
func (s *Scheduler) Tick(h Handle) (State, TickResult) {
	if s.handle == 0 || h != s.handle {
		return s.state, TickStale
	}

	now := s.clock.Now()
	if now.Sub(s.lastUpdate) < s.interval {
		return s.state, TickSkipped
	}

	s.state = s.calc.Position(now)
	s.lastUpdate = now
	s.initialized = true

	s.sample.Do(func() {
		s.log.Debug().
			Bool("present", s.state.Present).
			Float64("percent", s.state.Percent).
			Msg("indicator published")
	})
	return s.state, TickPublished
}

// State returns the last published position.
func (s *Scheduler) State() State {
	return s.state
}

// LastUpdate returns the clock reading of the last publication (or of
// activation, before the first one).
func (s *Scheduler) LastUpdate() time.Time {
	return s.lastUpdate
}

// Visible reports whether the marker should be drawn right now: at least one
// position has been published and the current time is inside the window.
func (s *Scheduler) Visible() bool {
	return s.initialized && s.state.Present && s.calc.Within(s.clock.Now())
}

// Run drives the loop on a frame ticker until ctx is done, calling publish
// for every new State. The loop handle is released on every return path.
func (s *Scheduler) Run(ctx context.Context, frame time.Duration, publish func(State)) error {
	h, started := s.Activate()
	if !started {
		return ErrAlreadyActive
	}
	defer s.Deactivate()

	if frame <= 0 {
		frame = DefaultFrame
	}
	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			state, result := s.Tick(h)
			if result == TickPublished && publish != nil {
				publish(state)
			}
			if !result.Reschedule() {
				return nil
			}
		}
	}
}
