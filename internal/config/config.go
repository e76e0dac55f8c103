package config

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cwarden/nowline/internal/indicator"
	"github.com/cwarden/nowline/internal/parser"
	"github.com/cwarden/nowline/internal/prefs"
	"github.com/cwarden/nowline/internal/view"
)

var (
	setRe   = regexp.MustCompile(`^set\s+(\w+)\s+(.+)$`)
	bindRe  = regexp.MustCompile(`^bind\s+(\S+)\s+(\S+)$`)
	colorRe = regexp.MustCompile(`^color\s+(\w+)\s+(.+)$`)
)

type Config struct {
	// File settings
	EventFiles []string
	WatchFiles bool
	DemoEvents bool
	PrefsFile  string

	// Grid settings
	DayStart    indicator.ClockTime
	DayEnd      indicator.ClockTime
	SlotMinutes int
	StartupView view.View
	TimeFormat  string
	DateFormat  string

	// Indicator settings
	CalibrationOffset float64
	PublishInterval   time.Duration
	FPS               int

	// UI settings
	Colors      map[string]string
	KeyBindings map[string]string // action -> key

	// Logging
	LogFile  string
	LogLevel string
}

func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		EventFiles: []string{filepath.Join(home, ".config", "nowline", "events.ics")},
		WatchFiles: true,
		PrefsFile:  expandHome(prefs.DefaultPath()),

		DayStart:    indicator.DefaultBounds.Start,
		DayEnd:      indicator.DefaultBounds.End,
		SlotMinutes: 30,
		StartupView: view.WorkWeek,
		TimeFormat:  "15:04",
		DateFormat:  "Mon Jan 2",

		CalibrationOffset: indicator.DefaultOffset,
		PublishInterval:   indicator.DefaultInterval,
		FPS:               60,

		Colors: map[string]string{
			"normal": "252",
			"today":  "220",
			"header": "220",
			"event":  "63",
			"now":    "196",
			"grid":   "238",
		},

		KeyBindings: map[string]string{
			"quit":      "q",
			"help":      "?",
			"today":     "t",
			"reload":    "r",
			"next":      "l",
			"prev":      "h",
			"work_week": "w",
			"day":       "d",
			"cycle":     "v",
			"goto_date": "g",
		},

		LogFile:  filepath.Join(home, ".local", "state", "nowline", "nowline.log"),
		LogLevel: "info",
	}
}

// LoadConfig reads the first rc file found on the search path.
func LoadConfig() (*Config, error) {
	configPaths := []string{
		os.Getenv("NOWLINE_CONFIG"),
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		configPaths = append(configPaths, filepath.Join(xdg, "nowline", "nowlinerc"))
	}
	if home := os.Getenv("HOME"); home != "" {
		configPaths = append(configPaths,
			filepath.Join(home, ".config", "nowline", "nowlinerc"),
			filepath.Join(home, ".nowlinerc"),
		)
	}

	for _, path := range configPaths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}

	return DefaultConfig(), nil
}

// LoadFile reads a specific rc file on top of the defaults.
func LoadFile(path string) (*Config, error) {
	config := DefaultConfig()
	if err := config.loadFromFile(path); err != nil {
		return nil, fmt.Errorf("error loading config from %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

// Validate checks settings that only make sense together.
func (c *Config) Validate() error {
	if err := c.Bounds().Validate(); err != nil {
		return err
	}
	if c.FPS < 1 || c.FPS > 120 {
		return fmt.Errorf("fps must be between 1 and 120, got %d", c.FPS)
	}
	switch c.SlotMinutes {
	case 15, 30, 60:
	default:
		return fmt.Errorf("slot_minutes must be 15, 30 or 60, got %d", c.SlotMinutes)
	}
	if math.IsNaN(c.CalibrationOffset) || math.IsInf(c.CalibrationOffset, 0) {
		return fmt.Errorf("calibration_offset must be a finite number, got %v", c.CalibrationOffset)
	}
	if c.PublishInterval <= 0 {
		return fmt.Errorf("publish_interval must be positive, got %v", c.PublishInterval)
	}
	return nil
}

// Bounds returns the visible window clock-times.
func (c *Config) Bounds() indicator.Bounds {
	return indicator.Bounds{Start: c.DayStart, End: c.DayEnd}
}

// Indicator returns the scheduler settings.
func (c *Config) Indicator() indicator.Config {
	return indicator.Config{
		Bounds:   c.Bounds(),
		Offset:   c.CalibrationOffset,
		Interval: c.PublishInterval,
	}
}

// FrameInterval is the display refresh period derived from FPS.
func (c *Config) FrameInterval() time.Duration {
	if c.FPS <= 0 {
		return indicator.DefaultFrame
	}
	return time.Second / time.Duration(c.FPS)
}

func (c *Config) loadFromFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		if err := c.parseLine(scanner.Text()); err != nil {
			return fmt.Errorf("line %d: %w", lineNum, err)
		}
	}

	return scanner.Err()
}

func (c *Config) parseLine(line string) error {
	line = strings.TrimSpace(line)

	// Skip comments and empty lines
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	// set variable value
	if matches := setRe.FindStringSubmatch(line); matches != nil {
		return c.setVariable(matches[1], matches[2])
	}

	// bind key action
	if matches := bindRe.FindStringSubmatch(line); matches != nil {
		c.KeyBindings[matches[2]] = matches[1]
		return nil
	}

	// color element color_spec
	if matches := colorRe.FindStringSubmatch(line); matches != nil {
		c.Colors[matches[1]] = strings.Trim(matches[2], `"'`)
		return nil
	}

	return fmt.Errorf("unknown config line: %s", line)
}

func (c *Config) setVariable(name, value string) error {
	// Remove quotes if present
	value = strings.Trim(value, `"'`)

	switch name {
	case "event_file", "event_files":
		// Handle multiple files separated by commas
		var files []string
		for _, file := range strings.Split(value, ",") {
			if file = strings.TrimSpace(file); file != "" {
				files = append(files, expandHome(file))
			}
		}
		c.EventFiles = files

	case "watch_files":
		c.WatchFiles = parseBool(value)

	case "demo_events":
		c.DemoEvents = parseBool(value)

	case "prefs_file":
		c.PrefsFile = expandHome(value)

	case "day_start", "day_end":
		hour, minute, err := parser.ParseClock(value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		clock := indicator.ClockTime{Hour: hour, Minute: minute}
		if name == "day_start" {
			c.DayStart = clock
		} else {
			c.DayEnd = clock
		}

	case "slot_minutes":
		minutes, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid slot_minutes: %s", value)
		}
		c.SlotMinutes = minutes

	case "startup_view":
		v, err := view.Parse(value)
		if err != nil {
			return fmt.Errorf("invalid startup_view: %w", err)
		}
		c.StartupView = v

	case "time_format":
		c.TimeFormat = value

	case "date_format":
		c.DateFormat = value

	case "calibration_offset":
		offset, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid calibration_offset: %s", value)
		}
		c.CalibrationOffset = offset

	case "publish_interval":
		interval, err := parseDuration(value, time.Millisecond)
		if err != nil {
			return fmt.Errorf("invalid publish_interval: %s", value)
		}
		c.PublishInterval = interval

	case "fps":
		fps, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid fps: %s", value)
		}
		c.FPS = fps

	case "log_file":
		c.LogFile = expandHome(value)

	case "log_level":
		c.LogLevel = strings.ToLower(value)

	default:
		return fmt.Errorf("unknown config variable: %s", name)
	}

	return nil
}

// parseDuration accepts Go durations ("1s", "500ms") or a bare number of units.
func parseDuration(value string, unit time.Duration) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err == nil {
		return d, nil
	}
	n, err2 := strconv.Atoi(value)
	if err2 != nil {
		return 0, err
	}
	return time.Duration(n) * unit, nil
}

func parseBool(value string) bool {
	return strings.ToLower(value) == "true" || value == "1"
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
