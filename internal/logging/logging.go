// Package logging builds the application's zerolog logger. The terminal UI
// owns the screen, so log output goes to a file; command-line subcommands
// may add a console sink on stderr.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

const consoleTimeFormat = "2006-01-02T15:04:05.000Z07:00"

type Options struct {
	Level   string
	File    string    // empty disables the file sink
	Console io.Writer // optional human-readable sink
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup returns a logger writing to the configured sinks and a closer for
// the log file. With no sinks configured the logger discards everything.
func Setup(opts Options) (zerolog.Logger, io.Closer, error) {
	zerolog.ErrorFieldName = "err"
	zerolog.TimeFieldFormat = consoleTimeFormat

	lvl := ParseLevel(opts.Level, zerolog.InfoLevel)

	var (
		writers []io.Writer
		closer  io.Closer = nopCloser{}
	)

	if opts.Console != nil {
		writers = append(writers, zerolog.ConsoleWriter{Out: opts.Console, TimeFormat: consoleTimeFormat})
	}

	if path := strings.TrimSpace(opts.File); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return zerolog.Nop(), closer, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Nop(), closer, fmt.Errorf("open log file: %w", err)
		}
		closer = f
		writers = append(writers, zerolog.SyncWriter(f))
	}

	if len(writers) == 0 {
		return zerolog.Nop(), closer, nil
	}

	mw := zerolog.MultiLevelWriter(writers...)
	return zerolog.New(mw).Level(lvl).With().Timestamp().Logger(), closer, nil
}

// ParseLevel maps a config string to a zerolog level, or def when unknown.
func ParseLevel(s string, def zerolog.Level) zerolog.Level {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch s {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return def
	}
}
