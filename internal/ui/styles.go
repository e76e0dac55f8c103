package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
)

type Styles struct {
	Normal  lipgloss.Style
	Title   lipgloss.Style
	Tab     lipgloss.Style
	TabOn   lipgloss.Style
	Header  lipgloss.Style
	Today   lipgloss.Style
	Grid    lipgloss.Style
	Event   lipgloss.Style
	Now     lipgloss.Style
	Help    lipgloss.Style
	Message lipgloss.Style
	Error   lipgloss.Style
}

// Names accepted by "color" config lines in addition to ANSI numbers and
// hex values.
var colorNames = map[string]string{
	"black":   "0",
	"red":     "1",
	"green":   "2",
	"yellow":  "3",
	"blue":    "4",
	"magenta": "5",
	"cyan":    "6",
	"white":   "7",
	"gray":    "8",
	"grey":    "8",
}

func resolveColor(spec, fallback string) string {
	spec = strings.ToLower(strings.TrimSpace(spec))
	if spec == "" || spec == "default" {
		return fallback
	}
	if n, ok := colorNames[spec]; ok {
		return n
	}
	return spec
}

// DefaultStyles builds the palette, letting colors override individual
// elements (normal, today, header, event, now, grid).
func DefaultStyles(colors map[string]string) Styles {
	c := func(name, fallback string) string {
		return resolveColor(colors[name], fallback)
	}

	return Styles{
		Normal: lipgloss.NewStyle().
			Foreground(lipgloss.Color(c("normal", "252"))),
		Title: lipgloss.NewStyle().
			Foreground(lipgloss.Color(c("header", "220"))).
			Bold(true),
		Tab: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Padding(0, 1),
		TabOn: lipgloss.NewStyle().
			Foreground(lipgloss.Color("235")).
			Background(lipgloss.Color(c("header", "220"))).
			Bold(true).
			Padding(0, 1),
		Header: lipgloss.NewStyle().
			Foreground(lipgloss.Color(c("normal", "252"))).
			Bold(true),
		Today: lipgloss.NewStyle().
			Foreground(lipgloss.Color(c("today", "220"))).
			Bold(true).
			Underline(true),
		Grid: lipgloss.NewStyle().
			Foreground(lipgloss.Color(c("grid", "238"))),
		Event: lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color(c("event", "63"))),
		Now: lipgloss.NewStyle().
			Foreground(lipgloss.Color(c("now", "196"))).
			Bold(true),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		Message: lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Background(lipgloss.Color("235")).
			Padding(0, 1),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")),
	}
}
