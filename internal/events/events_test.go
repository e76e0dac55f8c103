package events

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const sampleICS = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//nowline//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:standup@example.com\r\n" +
	"DTSTAMP:20250201T000000Z\r\n" +
	"DTSTART:20250203T090000Z\r\n" +
	"DTEND:20250203T093000Z\r\n" +
	"SUMMARY:Standup\r\n" +
	"LOCATION:Room 4\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:review@example.com\r\n" +
	"DTSTAMP:20250201T000000Z\r\n" +
	"DTSTART:20250203T080000Z\r\n" +
	"SUMMARY:Review\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:holiday@example.com\r\n" +
	"DTSTAMP:20250201T000000Z\r\n" +
	"DTSTART;VALUE=DATE:20250204\r\n" +
	"SUMMARY:Holiday\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:backwards@example.com\r\n" +
	"DTSTAMP:20250201T000000Z\r\n" +
	"DTSTART:20250203T120000Z\r\n" +
	"DTEND:20250203T110000Z\r\n" +
	"SUMMARY:Backwards\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"DTSTAMP:20250201T000000Z\r\n" +
	"DTSTART:20250203T130000Z\r\n" +
	"SUMMARY:No UID\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

var (
	weekStart = time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	weekEnd   = time.Date(2025, 2, 8, 0, 0, 0, 0, time.UTC)
)

func TestParseICS(t *testing.T) {
	events, err := ParseICS("sample.ics", strings.NewReader(sampleICS), zerolog.Nop())
	if err != nil {
		t.Fatalf("ParseICS failed: %v", err)
	}

	if len(events) != 2 {
		for _, e := range events {
			t.Logf("  %s %s", e.ID, e.Title)
		}
		t.Fatalf("Expected 2 timed events, got %d", len(events))
	}

	byID := make(map[string]Event)
	for _, e := range events {
		byID[e.ID] = e
	}

	standup, ok := byID["standup@example.com"]
	if !ok {
		t.Fatal("Standup not parsed")
	}
	if standup.Title != "Standup" || standup.Location != "Room 4" {
		t.Errorf("Standup fields wrong: %+v", standup)
	}
	if !standup.Start.Equal(time.Date(2025, 2, 3, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("Standup start = %v", standup.Start)
	}
	if standup.Duration() != 30*time.Minute {
		t.Errorf("Standup duration = %v", standup.Duration())
	}
	if standup.Source != "sample.ics" {
		t.Errorf("Standup source = %q", standup.Source)
	}

	review := byID["review@example.com"]
	if review.Duration() != time.Hour {
		t.Errorf("Event without DTEND should last an hour, got %v", review.Duration())
	}
}

func TestParseICSInvalid(t *testing.T) {
	_, err := ParseICS("broken.ics", strings.NewReader("not a calendar"), zerolog.Nop())
	if err == nil {
		t.Error("Expected error for malformed calendar")
	}
}

func TestICSSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "work.ics")
	if err := os.WriteFile(path, []byte(sampleICS), 0644); err != nil {
		t.Fatalf("Failed to write ics: %v", err)
	}

	source := NewICSSource(zerolog.Nop(), path, filepath.Join(dir, "missing.ics"))

	events, err := source.Events(weekStart, weekEnd)
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	// Ordered by start
	if events[0].Title != "Review" || events[1].Title != "Standup" {
		t.Errorf("Events out of order: %s, %s", events[0].Title, events[1].Title)
	}

	later, err := source.Events(weekEnd, weekEnd.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(later) != 0 {
		t.Errorf("Expected no events next week, got %d", len(later))
	}
}

func TestICSSourceParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.ics")
	if err := os.WriteFile(path, []byte("garbage"), 0644); err != nil {
		t.Fatalf("Failed to write ics: %v", err)
	}

	_, err := NewICSSource(zerolog.Nop(), path).Events(weekStart, weekEnd)
	if err == nil || !strings.Contains(err.Error(), "broken.ics") {
		t.Errorf("Expected parse error naming the file, got %v", err)
	}
}

func TestStaticSourceFiltersAndSorts(t *testing.T) {
	day := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	source := NewStaticSource([]Event{
		{ID: "b", Title: "Later", Start: day.Add(10 * time.Hour), End: day.Add(11 * time.Hour)},
		{ID: "a", Title: "Earlier", Start: day.Add(9 * time.Hour), End: day.Add(10 * time.Hour)},
		{ID: "c", Title: "Tomorrow", Start: day.Add(33 * time.Hour), End: day.Add(34 * time.Hour)},
	})

	events, _ := source.Events(day, day.AddDate(0, 0, 1))
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[0].ID != "a" || events[1].ID != "b" {
		t.Errorf("Wrong order: %s, %s", events[0].ID, events[1].ID)
	}
}

type failingSource struct{}

func (failingSource) Events(start, end time.Time) ([]Event, error) {
	return nil, errors.New("source offline")
}

func TestCompositeSource(t *testing.T) {
	day := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	shared := Event{ID: "shared", Title: "First copy", Start: day.Add(9 * time.Hour), End: day.Add(10 * time.Hour)}

	first := NewStaticSource([]Event{shared})
	dup := shared
	dup.Title = "Second copy"
	second := NewStaticSource([]Event{
		dup,
		{ID: "other", Title: "Other", Start: day.Add(8 * time.Hour), End: day.Add(9 * time.Hour)},
	})

	composite := NewCompositeSource(first, second)
	composite.AddSource(failingSource{})

	events, err := composite.Events(day, day.AddDate(0, 0, 1))
	if err == nil || !strings.Contains(err.Error(), "source offline") {
		t.Errorf("Expected source error to surface, got %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Expected 2 de-duplicated events, got %d", len(events))
	}
	if events[0].ID != "other" {
		t.Errorf("Events not sorted: first is %s", events[0].ID)
	}
	if events[1].Title != "First copy" {
		t.Errorf("Duplicate should keep first source's copy, got %q", events[1].Title)
	}
}

func TestDemoEvents(t *testing.T) {
	// Wednesday
	anchor := time.Date(2025, 2, 5, 15, 0, 0, 0, time.Local)
	events := DemoEvents(anchor)

	if len(events) != 30 {
		t.Fatalf("Expected 30 demo events, got %d", len(events))
	}
	seen := make(map[string]bool)
	for _, e := range events {
		if seen[e.ID] {
			t.Errorf("Duplicate demo ID %s", e.ID)
		}
		seen[e.ID] = true

		if e.Start.Weekday() < time.Monday || e.Start.Weekday() > time.Friday {
			t.Errorf("Demo event %s on %v", e.ID, e.Start.Weekday())
		}
		if e.Start.Before(time.Date(2025, 2, 3, 0, 0, 0, 0, time.Local)) || e.Start.After(time.Date(2025, 2, 8, 0, 0, 0, 0, time.Local)) {
			t.Errorf("Demo event %s outside the anchor's week: %v", e.ID, e.Start)
		}
		if e.Start.Hour() < 8 || e.End.Hour() > 17 {
			t.Errorf("Demo event %s outside working hours: %v-%v", e.ID, e.Start, e.End)
		}
	}
}

func TestDemoSource(t *testing.T) {
	// Thursday through the following Monday
	start := time.Date(2025, 2, 6, 0, 0, 0, 0, time.Local)
	end := time.Date(2025, 2, 11, 0, 0, 0, 0, time.Local)

	events, err := DemoSource{}.Events(start, end)
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(events) != 18 {
		t.Fatalf("Expected 18 events (Thu, Fri, Mon), got %d", len(events))
	}
	if got := events[len(events)-1].Start.Weekday(); got != time.Monday {
		t.Errorf("Last event on %v, want Monday", got)
	}
	for i := 1; i < len(events); i++ {
		if events[i].Start.Before(events[i-1].Start) {
			t.Fatalf("Events not sorted at %d", i)
		}
	}
}

func TestFileWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.ics")
	if err := os.WriteFile(path, []byte(sampleICS), 0644); err != nil {
		t.Fatalf("Failed to write ics: %v", err)
	}

	changed := make(chan string, 10)
	watcher, err := NewFileWatcher(zerolog.Nop(), func(name string) {
		changed <- name
	})
	if err != nil {
		t.Fatalf("NewFileWatcher failed: %v", err)
	}
	defer watcher.Close()

	if err := watcher.AddFile(path); err != nil {
		t.Fatalf("AddFile failed: %v", err)
	}
	if !watcher.Watching(path) {
		t.Fatal("Watching reports false after AddFile")
	}

	// Unrelated files in the same directory are ignored
	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to write other file: %v", err)
	}

	// Several quick writes collapse into one notification
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte(sampleICS), 0644); err != nil {
			t.Fatalf("Failed to rewrite ics: %v", err)
		}
	}

	select {
	case name := <-changed:
		if filepath.Base(name) != "events.ics" {
			t.Errorf("Notified for %s", name)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("No change notification")
	}

	select {
	case name := <-changed:
		t.Errorf("Burst produced a second notification for %s", name)
	case <-time.After(300 * time.Millisecond):
	}

	if err := watcher.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := watcher.Close(); err != nil {
		t.Errorf("Second Close failed: %v", err)
	}
}

func TestFileWatcherSupersededCallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.ics")
	if err := os.WriteFile(path, []byte(sampleICS), 0644); err != nil {
		t.Fatalf("Failed to write ics: %v", err)
	}

	calls := 0
	watcher, err := NewFileWatcher(zerolog.Nop(), func(string) { calls++ })
	if err != nil {
		t.Fatalf("NewFileWatcher failed: %v", err)
	}
	if err := watcher.AddFile(path); err != nil {
		t.Fatalf("AddFile failed: %v", err)
	}
	name, _ := filepath.Abs(path)

	// A write landed after the old timer fired but before its callback
	// took the lock: the newer pending change must survive.
	stale := &pendingChange{}
	current := &pendingChange{timer: time.AfterFunc(time.Hour, func() {})}
	watcher.mu.Lock()
	watcher.debounce[name] = current
	watcher.mu.Unlock()

	watcher.fire(name, stale)

	watcher.mu.Lock()
	got := watcher.debounce[name]
	watcher.mu.Unlock()
	if got != current {
		t.Error("Superseded callback removed the newer pending change")
	}
	if calls != 0 {
		t.Errorf("Superseded callback notified %d times", calls)
	}

	if err := watcher.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if current.timer.Stop() {
		t.Error("Close left the newer timer running")
	}
	if len(watcher.debounce) != 0 {
		t.Errorf("Close left %d pending changes", len(watcher.debounce))
	}
}
