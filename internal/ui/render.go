package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/reflow/wordwrap"

	"github.com/cwarden/nowline/internal/view"
)

// Z order of canvas layers. Event blocks take 1..n.
const (
	zGrid = 0
	zNow  = 1000
)

func (m *Model) layout() gridLayout {
	return newGridLayout(m.width, m.height, view.Days(m.views.View(), m.anchor),
		m.cfg.Bounds(), m.cfg.SlotMinutes)
}

// renderGrid composes the schedule as canvas layers: the static grid, one
// layer per event block and the "Now" line on top.
func (m *Model) renderGrid() string {
	g := m.layout()

	layers := []*lipgloss.Layer{
		lipgloss.NewLayer(m.renderBase(g)).X(0).Y(0).Z(zGrid),
	}
	layers = append(layers, m.createEventBlockLayers(g)...)
	if layer := m.createNowLayer(g); layer != nil {
		layers = append(layers, layer)
	}

	return lipgloss.NewCanvas(layers...).Render()
}

// renderBase draws everything that does not move: title, day headers, time
// labels, column separators and the footer.
func (m *Model) renderBase(g gridLayout) string {
	var lines []string
	lines = append(lines, m.renderTitle(g))
	lines = append(lines, m.renderDayHeaders(g))

	sep := m.styles.Grid.Render("│")
	blank := strings.Repeat(" ", max(0, g.dayWidth-1))
	for r := 0; r < g.rows; r++ {
		label := g.slotLabel(r, m.cfg.TimeFormat)
		var b strings.Builder
		b.WriteString(m.styles.Normal.Render(padRight(label, timeWidth-1)))
		b.WriteString(sep)
		cell := blank
		if label != "" && r > 0 {
			cell = strings.Repeat("┈", max(0, g.dayWidth-1))
		}
		for range g.days {
			b.WriteString(m.styles.Grid.Render(cell))
			b.WriteString(sep)
		}
		lines = append(lines, b.String())
	}

	lines = append(lines, m.renderStatus(g))
	lines = append(lines, m.styles.Help.Render(m.help.View(m.keys)))

	return strings.Join(lines, "\n")
}

func (m *Model) renderTitle(g gridLayout) string {
	current := m.views.View()
	title := current.Title()
	if len(g.days) > 0 {
		first, last := g.days[0], g.days[len(g.days)-1]
		if len(g.days) == 1 {
			title += "  " + first.Format("Monday, January 2, 2006")
		} else {
			title += "  " + first.Format("Jan 2") + " - " + last.Format("Jan 2, 2006")
		}
	}
	left := m.styles.Title.Render(title)

	var tabs []string
	for _, v := range view.All() {
		if v == current {
			tabs = append(tabs, m.styles.TabOn.Render(v.Title()))
		} else {
			tabs = append(tabs, m.styles.Tab.Render(v.Title()))
		}
	}
	right := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return ansi.Truncate(left, m.width, "")
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m *Model) renderDayHeaders(g gridLayout) string {
	today := m.clock.Now()

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", timeWidth))
	for _, day := range g.days {
		text := ansi.Truncate(day.Format(m.cfg.DateFormat), max(0, g.dayWidth-1), "")
		style := m.styles.Header
		if sameDate(day, today) {
			style = m.styles.Today
		}
		b.WriteString(style.Width(g.dayWidth).Align(lipgloss.Center).Render(text))
	}
	return b.String()
}

func (m *Model) renderStatus(g gridLayout) string {
	if m.mode == modeGoto {
		return m.input.View()
	}

	now := m.clock.Now()
	status := now.Format("Mon Jan 2 15:04:05")
	if st := m.scheduler.State(); m.scheduler.Visible() {
		status += fmt.Sprintf("  now %.1f%%", st.Percent)
	}
	status += fmt.Sprintf("  %d events", len(g.layoutBlocks(m.events)))
	line := m.styles.Normal.Render(status)

	switch {
	case m.message != "":
		line += "  " + m.styles.Message.Render(m.message)
	case m.loadErr != nil:
		line += "  " + m.styles.Error.Render("load: "+m.loadErr.Error())
	}
	return ansi.Truncate(line, m.width, "…")
}

// createEventBlockLayers renders one layer per event block.
func (m *Model) createEventBlockLayers(g gridLayout) []*lipgloss.Layer {
	blocks := g.layoutBlocks(m.events)
	layers := make([]*lipgloss.Layer, 0, len(blocks))

	for i, b := range blocks {
		x, w := b.x(g)
		content := blockText(b, w, m.cfg.TimeFormat)
		rendered := m.styles.Event.
			Width(w).
			Height(b.span).
			MaxHeight(b.span).
			Render(content)
		layers = append(layers, lipgloss.NewLayer(rendered).
			X(x).
			Y(g.top() + b.row).
			Z(i+1))
	}
	return layers
}

// blockText wraps the title into the block and adds the time range when
// there is a spare line.
func blockText(b block, width int, timeFormat string) string {
	var lines []string
	for _, line := range strings.Split(wordwrap.String(b.event.Title, width), "\n") {
		lines = append(lines, ansi.Truncate(line, width, ""))
	}
	if len(lines) < b.span {
		when := b.event.Start.Format(timeFormat) + "-" + b.event.End.Format(timeFormat)
		lines = append(lines, ansi.Truncate(when, width, ""))
	}
	if len(lines) > b.span {
		lines = lines[:b.span]
	}
	return strings.Join(lines, "\n")
}

// createNowLayer draws the marker line once the scheduler has published a
// position inside the window.
func (m *Model) createNowLayer(g gridLayout) *lipgloss.Layer {
	if !m.scheduler.Visible() {
		return nil
	}
	row := g.nowRow(m.scheduler.State().Percent)
	line := padRight(nowLabel, timeWidth-1) + strings.Repeat("─", max(1, m.width-timeWidth+1))
	return lipgloss.NewLayer(m.styles.Now.Render(line)).
		X(0).
		Y(g.top() + row).
		Z(zNow)
}

// renderHelp shows the full key map.
func (m *Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Keys"))
	b.WriteString("\n\n")
	b.WriteString(m.help.FullHelpView(m.keys.FullHelp()))
	b.WriteString("\n\n")
	b.WriteString(m.styles.Help.Render("Press any key to return"))
	return b.String()
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return ansi.Truncate(s, width, "")
}

// dayRange returns [first day 00:00, day after last day 00:00).
func dayRange(days []time.Time) (time.Time, time.Time) {
	if len(days) == 0 {
		return time.Time{}, time.Time{}
	}
	return days[0], days[len(days)-1].AddDate(0, 0, 1)
}
