package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/rs/zerolog"

	"github.com/cwarden/nowline/internal/config"
	"github.com/cwarden/nowline/internal/events"
	"github.com/cwarden/nowline/internal/indicator"
	"github.com/cwarden/nowline/internal/view"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type errSource struct{}

func (errSource) Events(start, end time.Time) ([]events.Event, error) {
	return nil, errors.New("disk on fire")
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T, now time.Time, source events.Source) (*Model, *fakeClock, *view.Controller) {
	t.Helper()

	clock := &fakeClock{now: now}
	cfg := config.DefaultConfig()
	views := view.NewController(view.WorkWeek)
	sched := indicator.NewScheduler(cfg.Indicator(), indicator.WithClock(clock))

	m := NewModel(Options{
		Config:    cfg,
		Source:    source,
		Scheduler: sched,
		Views:     views,
		Clock:     clock,
		Logger:    zerolog.Nop(),
	})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, clock, views
}

func sampleSource() events.Source {
	return events.NewStaticSource([]events.Event{
		{ID: "1", Title: "Algebra", Start: on(3, 9, 0), End: on(3, 10, 0)},
		{ID: "2", Title: "Physics", Start: on(4, 13, 0), End: on(4, 14, 0)},
		{ID: "3", Title: "Next week", Start: on(10, 9, 0), End: on(10, 10, 0)},
	})
}

func TestInitStartsIndicator(t *testing.T) {
	m, _, _ := newTestModel(t, on(3, 12, 30), sampleSource())

	if cmd := m.Init(); cmd == nil {
		t.Fatal("Init returned no command")
	}
	if !m.scheduler.Active() {
		t.Fatal("scheduler not active after Init")
	}
	if m.handle == 0 {
		t.Error("handle not recorded")
	}
	if cmd := m.startIndicator(); cmd != nil {
		t.Error("second start scheduled a duplicate frame chain")
	}
}

func TestFrameLoop(t *testing.T) {
	m, clock, _ := newTestModel(t, on(3, 12, 30), sampleSource())
	m.Init()
	h := m.handle

	// within the publish interval: skipped but still rescheduled
	clock.Advance(500 * time.Millisecond)
	if _, cmd := m.Update(frameMsg{handle: h}); cmd == nil {
		t.Error("skipped frame was not rescheduled")
	}
	if m.scheduler.Visible() {
		t.Error("indicator visible before first publish")
	}

	clock.Advance(500 * time.Millisecond)
	if _, cmd := m.Update(frameMsg{handle: h}); cmd == nil {
		t.Error("published frame was not rescheduled")
	}
	if !m.scheduler.Visible() {
		t.Fatal("indicator not visible after publish")
	}

	// frames from an older loop end their chain
	if _, cmd := m.Update(frameMsg{handle: h + 100}); cmd != nil {
		t.Error("stale frame was rescheduled")
	}
}

func TestQuitDeactivates(t *testing.T) {
	tests := []struct {
		name string
		key  tea.KeyMsg
	}{
		{"q", keyRunes("q")},
		{"ctrl+c", tea.KeyMsg{Type: tea.KeyCtrlC}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, clock, _ := newTestModel(t, on(3, 12, 30), sampleSource())
			m.Init()
			h := m.handle

			_, cmd := m.Update(tt.key)
			if cmd == nil {
				t.Fatal("quit returned no command")
			}
			if _, ok := cmd().(tea.QuitMsg); !ok {
				t.Error("quit command did not quit")
			}
			if m.scheduler.Active() {
				t.Error("scheduler still active after quit")
			}

			clock.Advance(2 * time.Second)
			if _, cmd := m.Update(frameMsg{handle: h}); cmd != nil {
				t.Error("frame after quit was rescheduled")
			}
		})
	}
}

func TestViewKeysNotifyController(t *testing.T) {
	m, _, views := newTestModel(t, on(3, 12, 30), sampleSource())

	var notified []view.View
	views.OnChange(func(v view.View) { notified = append(notified, v) })

	m.Update(keyRunes("d"))
	if views.View() != view.Day {
		t.Errorf("after d: view = %v, want day", views.View())
	}
	m.Update(keyRunes("w"))
	if views.View() != view.WorkWeek {
		t.Errorf("after w: view = %v, want work_week", views.View())
	}
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if views.View() != view.Day {
		t.Errorf("after tab: view = %v, want day", views.View())
	}

	want := []view.View{view.Day, view.WorkWeek, view.Day}
	if len(notified) != len(want) {
		t.Fatalf("notified %v, want %v", notified, want)
	}
	for i := range want {
		if notified[i] != want[i] {
			t.Errorf("notification %d = %v, want %v", i, notified[i], want[i])
		}
	}
}

func TestNavigation(t *testing.T) {
	m, _, views := newTestModel(t, on(5, 12, 30), sampleSource())

	m.Update(keyRunes("l"))
	if got := m.Anchor(); !got.Equal(on(12, 0, 0)) {
		t.Errorf("next week anchor = %v", got)
	}
	m.Update(keyRunes("h"))
	m.Update(keyRunes("h"))
	if got := m.Anchor(); !got.Equal(time.Date(2025, 2, 26, 0, 0, 0, 0, time.Local)) {
		t.Errorf("previous week anchor = %v", got)
	}

	views.SetView(view.Day)
	m.Update(keyRunes("t"))
	m.Update(keyRunes("l"))
	if got := m.Anchor(); !got.Equal(on(6, 0, 0)) {
		t.Errorf("next day anchor = %v", got)
	}
}

func TestGotoPrompt(t *testing.T) {
	m, _, _ := newTestModel(t, on(3, 12, 30), sampleSource())

	m.Update(keyRunes("g"))
	if m.mode != modeGoto {
		t.Fatal("g did not open the prompt")
	}
	m.Update(keyRunes("2025-04-15"))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Error("confirming a date did not reload events")
	}
	if m.mode != modeGrid {
		t.Error("prompt still open after enter")
	}
	if got := m.Anchor(); !got.Equal(time.Date(2025, 4, 15, 0, 0, 0, 0, time.Local)) {
		t.Errorf("anchor = %v, want 2025-04-15", got)
	}

	m.Update(keyRunes("g"))
	m.Update(keyRunes("bogus"))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !strings.Contains(m.message, "Invalid date") {
		t.Errorf("message = %q, want an invalid date notice", m.message)
	}
	if got := m.Anchor(); !got.Equal(time.Date(2025, 4, 15, 0, 0, 0, 0, time.Local)) {
		t.Error("invalid input moved the anchor")
	}

	m.Update(keyRunes("g"))
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.mode != modeGrid {
		t.Error("esc did not close the prompt")
	}
}

func TestEventsLoaded(t *testing.T) {
	m, _, _ := newTestModel(t, on(3, 12, 30), sampleSource())

	msg := m.loadEventsCmd()()
	m.Update(msg)
	if len(m.events) != 2 {
		t.Fatalf("loaded %d events, want 2", len(m.events))
	}

	// a load for a range we navigated away from is dropped
	m.Update(keyRunes("l"))
	m.Update(msg)
	if !m.Anchor().Equal(on(10, 0, 0)) {
		t.Fatalf("anchor = %v", m.Anchor())
	}
	m.Update(m.loadEventsCmd()())
	if len(m.events) != 1 || m.events[0].ID != "3" {
		t.Errorf("events after navigation = %v", m.events)
	}
	m.Update(msg)
	if len(m.events) != 1 || m.events[0].ID != "3" {
		t.Error("stale load replaced current events")
	}
}

func TestEventsLoadError(t *testing.T) {
	m, _, _ := newTestModel(t, on(3, 12, 30), errSource{})

	m.Update(m.loadEventsCmd()())
	if m.loadErr == nil {
		t.Fatal("load error not recorded")
	}
	out := ansi.Strip(m.View())
	if !strings.Contains(out, "disk on fire") {
		t.Error("load error not shown in status line")
	}
}

func TestMessageClears(t *testing.T) {
	m, _, _ := newTestModel(t, on(3, 12, 30), sampleSource())

	m.setMessage("first")
	m.setMessage("second")
	m.Update(clearMessageMsg{seq: 1})
	if m.message != "second" {
		t.Errorf("older timer cleared newer message: %q", m.message)
	}
	m.Update(clearMessageMsg{seq: 2})
	if m.message != "" {
		t.Errorf("message = %q, want cleared", m.message)
	}
}

func TestHelpMode(t *testing.T) {
	m, _, _ := newTestModel(t, on(3, 12, 30), sampleSource())

	m.Update(keyRunes("?"))
	if m.mode != modeHelp {
		t.Fatal("? did not open help")
	}
	out := ansi.Strip(m.View())
	if !strings.Contains(out, "go to date") {
		t.Error("help does not list the goto binding")
	}
	m.Update(keyRunes("x"))
	if m.mode != modeGrid {
		t.Error("key did not close help")
	}
}

func TestViewBeforeResize(t *testing.T) {
	cfg := config.DefaultConfig()
	m := NewModel(Options{
		Config:    cfg,
		Source:    sampleSource(),
		Scheduler: indicator.NewScheduler(cfg.Indicator()),
		Views:     view.NewController(view.WorkWeek),
	})
	if got := m.View(); got != "Loading..." {
		t.Errorf("View() = %q", got)
	}
}

func TestRenderGrid(t *testing.T) {
	m, clock, _ := newTestModel(t, on(3, 12, 30), sampleSource())
	m.Update(m.loadEventsCmd()())
	m.Init()

	out := ansi.Strip(m.View())
	for _, want := range []string{"Work Week", "08:00", "16:30", "Algebra", "Physics"} {
		if !strings.Contains(out, want) {
			t.Errorf("grid missing %q", want)
		}
	}
	if strings.Contains(out, nowLabel) {
		t.Error("Now marker drawn before the first publish")
	}

	clock.Advance(time.Second)
	m.Update(frameMsg{handle: m.handle})

	// 12:30:01 is 48.0% after calibration: row 17 of 36
	lines := strings.Split(ansi.Strip(m.View()), "\n")
	row := headerRows + 17
	if len(lines) <= row {
		t.Fatalf("rendered %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[row], nowLabel) {
		t.Errorf("line %d = %q, want the Now marker", row, lines[row])
	}
}

func TestNowHiddenOutsideWindow(t *testing.T) {
	m, clock, _ := newTestModel(t, on(3, 18, 0), sampleSource())
	m.Init()

	clock.Advance(2 * time.Second)
	m.Update(frameMsg{handle: m.handle})
	if strings.Contains(ansi.Strip(m.View()), nowLabel) {
		t.Error("Now marker drawn outside the window")
	}
}
