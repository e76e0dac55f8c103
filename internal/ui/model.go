package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/cwarden/nowline/internal/config"
	"github.com/cwarden/nowline/internal/events"
	"github.com/cwarden/nowline/internal/indicator"
	"github.com/cwarden/nowline/internal/parser"
	"github.com/cwarden/nowline/internal/view"
)

const (
	nowLabel        = "Now"
	messageDuration = 3 * time.Second
)

type mode int

const (
	modeGrid mode = iota
	modeHelp
	modeGoto
)

// Options wires a Model to its collaborators. Config, Source, Scheduler and
// Views are required.
type Options struct {
	Config    *config.Config
	Source    events.Source
	Scheduler *indicator.Scheduler
	Views     *view.Controller
	Clock     indicator.Clock
	Logger    zerolog.Logger
	Anchor    time.Time     // date to open on, defaults to today
	Changes   <-chan string // paths of changed event files
}

type Model struct {
	cfg       *config.Config
	source    events.Source
	scheduler *indicator.Scheduler
	views     *view.Controller
	clock     indicator.Clock
	log       zerolog.Logger
	parser    *parser.DateParser
	changes   <-chan string

	keys   keyMap
	help   help.Model
	input  textinput.Model
	styles Styles

	mode    mode
	handle  indicator.Handle
	frame   time.Duration
	anchor  time.Time
	events  []events.Event
	loadErr error

	message    string
	messageSeq int

	width  int
	height int
}

// frameMsg is one display frame for the indicator loop identified by handle.
type frameMsg struct {
	handle indicator.Handle
}

type eventsLoadedMsg struct {
	start  time.Time
	events []events.Event
	err    error
}

type fileChangedMsg struct {
	path string
}

type clearMessageMsg struct {
	seq int
}

func NewModel(opts Options) *Model {
	clock := opts.Clock
	if clock == nil {
		clock = indicator.SystemClock{}
	}
	anchor := opts.Anchor
	if anchor.IsZero() {
		anchor = clock.Now()
	}

	input := textinput.New()
	input.Prompt = "Go to: "
	input.Placeholder = "next monday, 12/25, 2025-03-01"
	input.CharLimit = 64

	return &Model{
		cfg:       opts.Config,
		source:    opts.Source,
		scheduler: opts.Scheduler,
		views:     opts.Views,
		clock:     clock,
		log:       opts.Logger,
		parser:    parser.NewDateParser(),
		changes:   opts.Changes,
		keys:      newKeyMap(opts.Config.KeyBindings),
		help:      help.New(),
		input:     input,
		styles:    DefaultStyles(opts.Config.Colors),
		frame:     opts.Config.FrameInterval(),
		anchor:    startOfDay(anchor),
	}
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadEventsCmd(), m.startIndicator()}
	if m.changes != nil {
		cmds = append(cmds, waitForChange(m.changes))
	}
	return tea.Batch(cmds...)
}

// startIndicator activates the scheduler and schedules the first frame.
// An already running loop keeps its chain and gets no second one.
func (m *Model) startIndicator() tea.Cmd {
	h, started := m.scheduler.Activate()
	m.handle = h
	if !started {
		return nil
	}
	m.log.Debug().Uint64("handle", uint64(h)).Dur("frame", m.frame).Msg("indicator loop started")
	return frameCmd(h, m.frame)
}

func frameCmd(h indicator.Handle, every time.Duration) tea.Cmd {
	return tea.Tick(every, func(time.Time) tea.Msg {
		return frameMsg{handle: h}
	})
}

func waitForChange(changes <-chan string) tea.Cmd {
	return func() tea.Msg {
		path, ok := <-changes
		if !ok {
			return nil
		}
		return fileChangedMsg{path: path}
	}
}

func (m *Model) loadEventsCmd() tea.Cmd {
	start, end := dayRange(view.Days(m.views.View(), m.anchor))
	source := m.source
	return func() tea.Msg {
		evs, err := source.Events(start, end)
		return eventsLoadedMsg{start: start, events: evs, err: err}
	}
}

func (m *Model) setMessage(text string) tea.Cmd {
	m.message = text
	m.messageSeq++
	seq := m.messageSeq
	return tea.Tick(messageDuration, func(time.Time) tea.Msg {
		return clearMessageMsg{seq: seq}
	})
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	m.scheduler.Deactivate()
	return m, tea.Quit
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.Width = max(10, msg.Width-len(m.input.Prompt)-1)
		return m, nil

	case frameMsg:
		_, result := m.scheduler.Tick(msg.handle)
		if !result.Reschedule() {
			return m, nil
		}
		return m, frameCmd(msg.handle, m.frame)

	case eventsLoadedMsg:
		start, _ := dayRange(view.Days(m.views.View(), m.anchor))
		if !msg.start.Equal(start) {
			// superseded by navigation
			return m, nil
		}
		m.loadErr = msg.err
		if msg.err != nil {
			m.log.Warn().Err(msg.err).Msg("loading events")
		}
		// keep whatever the healthy sources returned
		m.events = msg.events
		return m, nil

	case fileChangedMsg:
		m.log.Info().Str("path", msg.path).Msg("event file changed, reloading")
		return m, tea.Batch(m.loadEventsCmd(), waitForChange(m.changes), m.setMessage("Reloaded"))

	case clearMessageMsg:
		if msg.seq == m.messageSeq {
			m.message = ""
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeHelp:
			return m.updateHelp(msg)
		case modeGoto:
			return m.updateGoto(msg)
		default:
			return m.updateGrid(msg)
		}
	}

	if m.mode == modeGoto {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) updateGrid(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Help):
		m.mode = modeHelp
		return m, nil

	case key.Matches(msg, m.keys.WorkWeek):
		return m, m.changeView(view.WorkWeek)

	case key.Matches(msg, m.keys.Day):
		return m, m.changeView(view.Day)

	case key.Matches(msg, m.keys.Cycle):
		return m, m.changeView(m.views.View().Next())

	case key.Matches(msg, m.keys.Next):
		m.anchor = m.anchor.AddDate(0, 0, view.StepDays(m.views.View()))
		return m, m.loadEventsCmd()

	case key.Matches(msg, m.keys.Prev):
		m.anchor = m.anchor.AddDate(0, 0, -view.StepDays(m.views.View()))
		return m, m.loadEventsCmd()

	case key.Matches(msg, m.keys.Today):
		m.anchor = startOfDay(m.clock.Now())
		return m, m.loadEventsCmd()

	case key.Matches(msg, m.keys.Reload):
		return m, tea.Batch(m.loadEventsCmd(), m.setMessage("Reloaded"))

	case key.Matches(msg, m.keys.Goto):
		m.mode = modeGoto
		m.input.Reset()
		return m, m.input.Focus()
	}
	return m, nil
}

func (m *Model) updateHelp(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}
	m.mode = modeGrid
	return m, nil
}

func (m *Model) updateGoto(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m.quit()

	case key.Matches(msg, m.keys.Cancel):
		m.mode = modeGrid
		m.input.Blur()
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		m.mode = modeGrid
		m.input.Blur()
		m.parser.SetNow(m.clock.Now())
		date, err := m.parser.ParseDate(m.input.Value())
		if err != nil {
			return m, m.setMessage("Invalid date: " + err.Error())
		}
		m.anchor = startOfDay(date)
		return m, m.loadEventsCmd()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// changeView notifies the controller and reloads when the visible range
// changes.
func (m *Model) changeView(v view.View) tea.Cmd {
	m.views.SetView(v)
	return m.loadEventsCmd()
}

func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	if m.mode == modeHelp {
		return m.renderHelp()
	}
	return m.renderGrid()
}

// Anchor returns the date the grid is positioned on.
func (m *Model) Anchor() time.Time {
	return m.anchor
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
