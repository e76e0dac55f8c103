package events

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/rs/zerolog"
)

// defaultDuration applies to VEVENTs without DTEND.
const defaultDuration = time.Hour

// ICSSource reads timed events from iCalendar files. Files are re-read on
// every call, so edits show up on the next reload.
type ICSSource struct {
	mu    sync.RWMutex
	files []string
	log   zerolog.Logger
}

func NewICSSource(log zerolog.Logger, files ...string) *ICSSource {
	s := &ICSSource{log: log}
	s.SetFiles(files)
	return s
}

// SetFiles replaces the list of files to read.
func (s *ICSSource) SetFiles(files []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = append([]string(nil), files...)
}

// Files returns the configured files.
func (s *ICSSource) Files() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.files...)
}

// Events implements Source. A missing file contributes nothing; a file that
// fails to parse is an error.
func (s *ICSSource) Events(start, end time.Time) ([]Event, error) {
	var all []Event
	for _, path := range s.Files() {
		events, err := s.readFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				s.log.Debug().Str("file", path).Msg("event file missing")
				continue
			}
			return nil, err
		}
		all = append(all, events...)
	}
	return filterRange(all, start, end), nil
}

func (s *ICSSource) readFile(path string) ([]Event, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	events, err := ParseICS(path, file, s.log)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return events, nil
}

// ParseICS converts the VEVENTs in r into Events. All-day events and events
// without a positive duration are skipped; recurrence rules are ignored, so a
// recurring event appears only at its first occurrence.
func ParseICS(name string, r io.Reader, log zerolog.Logger) ([]Event, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, err
	}

	var events []Event
	for _, ve := range cal.Events() {
		event, ok, err := convertVEvent(name, ve)
		if err != nil {
			// Log and skip this event, but keep parsing others.
			log.Warn().Err(err).Str("file", name).Msg("skipping vevent")
			continue
		}
		if ok {
			events = append(events, event)
		}
	}

	log.Debug().Str("file", name).Int("event_count", len(events)).Msg("ics parse completed")
	return events, nil
}

func convertVEvent(name string, ve *ical.VEvent) (Event, bool, error) {
	var out Event
	out.Source = name

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, false, errors.New("missing UID")
	}
	out.ID = uidProp.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Title = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return out, false, fmt.Errorf("%s: missing DTSTART", out.ID)
	}
	if isAllDay(dtStart) {
		return out, false, nil
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return out, false, fmt.Errorf("%s: DTSTART: %w", out.ID, err)
	}
	out.Start = start

	if ve.GetProperty(ical.ComponentPropertyDtEnd) == nil {
		out.End = start.Add(defaultDuration)
	} else {
		end, err := ve.GetEndAt()
		if err != nil {
			return out, false, fmt.Errorf("%s: DTEND: %w", out.ID, err)
		}
		out.End = end
	}

	if !out.End.After(out.Start) {
		return out, false, nil
	}
	return out, true, nil
}

// isAllDay detects VALUE=DATE or a DTSTART with no time component.
func isAllDay(prop *ical.IANAProperty) bool {
	if params := prop.ICalParameters; params != nil {
		if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			return true
		}
	}
	return !strings.Contains(prop.Value, "T")
}
