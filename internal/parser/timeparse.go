package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrEmptyInput is returned for blank input.
var ErrEmptyInput = errors.New("empty input")

var (
	weekdayRe   = regexp.MustCompile(`^(next|this)\s+(mon|monday|tue|tuesday|wed|wednesday|thu|thursday|fri|friday|sat|saturday|sun|sunday)$`)
	inRe        = regexp.MustCompile(`^in\s+(\d+)\s+(day|days|week|weeks|month|months)$`)
	fromNowRe   = regexp.MustCompile(`^(\d+)\s+(day|days|week|weeks|month|months)\s+from\s+(now|today)$`)
	isoDateRe   = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	dateRe      = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4})$`)
	shortDateRe = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})$`)
	monthNameRe = regexp.MustCompile(`^(jan|january|feb|february|mar|march|apr|april|may|jun|june|jul|july|aug|august|sep|september|oct|october|nov|november|dec|december)\s+(\d{1,2})(?:,?\s+(\d{4}))?$`)
	clockRe     = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)
)

// DateParser turns user input such as "next monday" or "12/25" into a date.
type DateParser struct {
	now      time.Time
	location *time.Location
}

func NewDateParser() *DateParser {
	return &DateParser{
		now:      time.Now(),
		location: time.Local,
	}
}

func (p *DateParser) SetNow(now time.Time) {
	p.now = now
	p.location = now.Location()
}

// ParseDate returns the date, at midnight, that input names.
func (p *DateParser) ParseDate(input string) (time.Time, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return time.Time{}, ErrEmptyInput
	}

	if date, ok := p.parseRelativeDate(input); ok {
		return date, nil
	}
	if date, ok, err := p.parseAbsoluteDate(input); ok {
		return date, err
	}

	return time.Time{}, fmt.Errorf("unrecognized date %q", input)
}

func (p *DateParser) parseRelativeDate(input string) (time.Time, bool) {
	switch input {
	case "today", "now":
		return p.today(), true
	case "tomorrow", "tmrw":
		return p.today().AddDate(0, 0, 1), true
	case "yesterday":
		return p.today().AddDate(0, 0, -1), true
	}

	// Next/this weekday
	if matches := weekdayRe.FindStringSubmatch(input); matches != nil {
		isNext := matches[1] == "next"
		return p.findNextWeekday(parseWeekday(matches[2]), isNext), true
	}

	// In N days/weeks/months
	if matches := inRe.FindStringSubmatch(input); matches != nil {
		n, _ := strconv.Atoi(matches[1])
		return p.addUnits(n, matches[2]), true
	}

	// N days/weeks from now
	if matches := fromNowRe.FindStringSubmatch(input); matches != nil {
		n, _ := strconv.Atoi(matches[1])
		return p.addUnits(n, matches[2]), true
	}

	return time.Time{}, false
}

func (p *DateParser) addUnits(n int, unit string) time.Time {
	date := p.today()
	switch {
	case strings.HasPrefix(unit, "day"):
		date = date.AddDate(0, 0, n)
	case strings.HasPrefix(unit, "week"):
		date = date.AddDate(0, 0, n*7)
	case strings.HasPrefix(unit, "month"):
		date = date.AddDate(0, n, 0)
	}
	return date
}

func (p *DateParser) parseAbsoluteDate(input string) (time.Time, bool, error) {
	// YYYY-MM-DD
	if matches := isoDateRe.FindStringSubmatch(input); matches != nil {
		year, _ := strconv.Atoi(matches[1])
		month, _ := strconv.Atoi(matches[2])
		day, _ := strconv.Atoi(matches[3])
		date, err := p.date(year, month, day)
		return date, true, err
	}

	// MM/DD/YYYY or MM-DD-YYYY
	if matches := dateRe.FindStringSubmatch(input); matches != nil {
		month, _ := strconv.Atoi(matches[1])
		day, _ := strconv.Atoi(matches[2])
		year, _ := strconv.Atoi(matches[3])
		date, err := p.date(year, month, day)
		return date, true, err
	}

	// MM/DD or MM-DD (assume current year)
	if matches := shortDateRe.FindStringSubmatch(input); matches != nil {
		month, _ := strconv.Atoi(matches[1])
		day, _ := strconv.Atoi(matches[2])
		date, err := p.date(p.now.Year(), month, day)
		return date, true, err
	}

	// Month DD, YYYY or Month DD
	if matches := monthNameRe.FindStringSubmatch(input); matches != nil {
		day, _ := strconv.Atoi(matches[2])
		year := p.now.Year()
		if matches[3] != "" {
			year, _ = strconv.Atoi(matches[3])
		}
		date, err := p.date(year, int(parseMonth(matches[1])), day)
		return date, true, err
	}

	return time.Time{}, false, nil
}

// date rejects values time.Date would silently normalize, like 02/30.
func (p *DateParser) date(year, month, day int) (time.Time, error) {
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, p.location)
	if date.Year() != year || int(date.Month()) != month || date.Day() != day {
		return time.Time{}, fmt.Errorf("invalid date %04d-%02d-%02d", year, month, day)
	}
	return date, nil
}

// ParseClock parses a time of day such as "8", "08:30", "5pm" or "noon".
func ParseClock(input string) (hour, minute int, err error) {
	lower := strings.ToLower(strings.TrimSpace(input))
	if lower == "" {
		return 0, 0, ErrEmptyInput
	}

	switch lower {
	case "noon":
		return 12, 0, nil
	case "midnight":
		return 0, 0, nil
	}

	matches := clockRe.FindStringSubmatch(lower)
	if matches == nil {
		return 0, 0, fmt.Errorf("unrecognized time %q", input)
	}

	hour, _ = strconv.Atoi(matches[1])
	if matches[2] != "" {
		minute, _ = strconv.Atoi(matches[2])
	}

	// Handle AM/PM
	switch matches[3] {
	case "pm":
		if hour > 12 {
			return 0, 0, fmt.Errorf("invalid time %q", input)
		}
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour > 12 {
			return 0, 0, fmt.Errorf("invalid time %q", input)
		}
		if hour == 12 {
			hour = 0
		}
	}

	// 24:00 is allowed as the end of a day
	if hour > 24 || minute > 59 || (hour == 24 && minute != 0) {
		return 0, 0, fmt.Errorf("invalid time %q", input)
	}
	return hour, minute, nil
}

func parseWeekday(s string) time.Weekday {
	switch s {
	case "sun", "sunday":
		return time.Sunday
	case "mon", "monday":
		return time.Monday
	case "tue", "tuesday":
		return time.Tuesday
	case "wed", "wednesday":
		return time.Wednesday
	case "thu", "thursday":
		return time.Thursday
	case "fri", "friday":
		return time.Friday
	case "sat", "saturday":
		return time.Saturday
	default:
		return time.Sunday
	}
}

func parseMonth(s string) time.Month {
	switch s {
	case "jan", "january":
		return time.January
	case "feb", "february":
		return time.February
	case "mar", "march":
		return time.March
	case "apr", "april":
		return time.April
	case "may":
		return time.May
	case "jun", "june":
		return time.June
	case "jul", "july":
		return time.July
	case "aug", "august":
		return time.August
	case "sep", "september":
		return time.September
	case "oct", "october":
		return time.October
	case "nov", "november":
		return time.November
	case "dec", "december":
		return time.December
	default:
		return time.January
	}
}

func (p *DateParser) findNextWeekday(target time.Weekday, skipThisWeek bool) time.Time {
	date := p.today()
	daysUntilTarget := int(target - date.Weekday())

	if daysUntilTarget <= 0 || skipThisWeek {
		daysUntilTarget += 7
	}

	return date.AddDate(0, 0, daysUntilTarget)
}

func (p *DateParser) today() time.Time {
	y, m, d := p.now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, p.location)
}
