package cmd

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cwarden/nowline/internal/config"
	"github.com/cwarden/nowline/internal/events"
	"github.com/cwarden/nowline/internal/indicator"
	"github.com/cwarden/nowline/internal/logging"
	"github.com/cwarden/nowline/internal/parser"
	"github.com/cwarden/nowline/internal/prefs"
	"github.com/cwarden/nowline/internal/ui"
	"github.com/cwarden/nowline/internal/view"
)

var (
	cfgFile    string
	eventFiles []string
	viewName   string
	dateInput  string
	demo       bool
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "nowline",
	Short: "A work-week schedule grid with a live \"Now\" marker",
	Long: `Nowline shows your calendar events on a work-week or single-day grid
between the start and end of the working day, with a line that follows the
current time.`,
	RunE: runTUI,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default searches ~/.config/nowline/nowlinerc)")
	rootCmd.PersistentFlags().StringSliceVarP(&eventFiles, "file", "f", []string{}, "ICS file(s) to show (can be specified multiple times)")
	rootCmd.PersistentFlags().BoolVar(&demo, "demo", false, "Include the bundled sample timetable")
	rootCmd.PersistentFlags().StringVar(&dateInput, "date", "", "Date to open on, e.g. \"next monday\" or 2025-03-03")
	rootCmd.Flags().StringVar(&viewName, "view", "", "View to open: work_week or day")
}

func initConfig() {
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFile(cfgFile)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if len(eventFiles) > 0 {
		cfg.EventFiles = eventFiles
	}
	if demo {
		cfg.DemoEvents = true
	}
}

// buildSource combines the ICS files and, when enabled, the sample
// timetable.
func buildSource(log zerolog.Logger) (events.Source, *events.ICSSource) {
	ics := events.NewICSSource(log, cfg.EventFiles...)
	if !cfg.DemoEvents {
		return ics, ics
	}
	return events.NewCompositeSource(ics, events.DemoSource{}), ics
}

// anchorDate resolves --date against today.
func anchorDate() (time.Time, error) {
	now := time.Now()
	if dateInput == "" {
		return now, nil
	}
	p := parser.NewDateParser()
	p.SetNow(now)
	date, err := p.ParseDate(dateInput)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date: %w", err)
	}
	return date, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	log, closer, err := logging.Setup(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	defer func() { _ = closer.Close() }()

	anchor, err := anchorDate()
	if err != nil {
		return err
	}

	// --view beats the saved selection, which beats startup_view
	saved, err := prefs.Load(cfg.PrefsFile)
	if err != nil {
		log.Warn().Err(err).Msg("ignoring saved preferences")
	}
	initial := saved.SelectedView(cfg.StartupView)
	if viewName != "" {
		if initial, err = view.Parse(viewName); err != nil {
			return fmt.Errorf("invalid --view: %w", err)
		}
	}

	views := view.NewController(initial)
	views.OnChange(func(v view.View) {
		log.Info().Str("view", v.String()).Msg("view changed")
		if err := prefs.Save(cfg.PrefsFile, prefs.Prefs{View: v.String()}); err != nil {
			log.Warn().Err(err).Msg("saving preferences")
		}
	})

	source, ics := buildSource(log)

	scheduler := indicator.NewScheduler(cfg.Indicator(), indicator.WithLogger(log))
	defer scheduler.Deactivate()

	var changes chan string
	if cfg.WatchFiles {
		changes = make(chan string, 1)
		watcher, err := events.NewFileWatcher(log, func(path string) {
			select {
			case changes <- path:
			default: // a reload is already pending
			}
		})
		if err != nil {
			log.Warn().Err(err).Msg("file watching disabled")
		} else {
			defer func() { _ = watcher.Close() }()
			for _, file := range ics.Files() {
				if err := watcher.AddFile(file); err != nil {
					log.Warn().Err(err).Str("path", file).Msg("cannot watch event file")
				}
			}
		}
	}

	model := ui.NewModel(ui.Options{
		Config:    cfg,
		Source:    source,
		Scheduler: scheduler,
		Views:     views,
		Logger:    log,
		Anchor:    anchor,
		Changes:   changes,
	})
	p := tea.NewProgram(model, tea.WithAltScreen())

	log.Info().Str("view", initial.String()).Strs("files", ics.Files()).Msg("starting")
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}

	return nil
}
