package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwarden/nowline/internal/events"
	"github.com/cwarden/nowline/internal/logging"
	"github.com/cwarden/nowline/internal/view"
)

var listWeek bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the day's events and exit",
	Long:  `List the events of a day (default today, see --date) in a simple text format and exit.`,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listWeek, "week", false, "List the whole work week")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	// Ensure config is loaded
	if cfg == nil {
		initConfig()
	}

	log, closer, err := logging.Setup(logging.Options{Level: "warn", Console: os.Stderr})
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	anchor, err := anchorDate()
	if err != nil {
		return err
	}

	v := view.Day
	if listWeek {
		v = view.WorkWeek
	}
	days := view.Days(v, anchor)

	source, _ := buildSource(log)
	start, end := days[0], days[len(days)-1].AddDate(0, 0, 1)
	evs, err := source.Events(start, end)
	if err != nil {
		return fmt.Errorf("error getting events: %w", err)
	}

	printEvents(cmd.OutOrStdout(), days, evs)
	return nil
}

func printEvents(w io.Writer, days []time.Time, evs []events.Event) {
	for _, day := range days {
		fmt.Fprintf(w, "Events for %s:\n", day.Format(cfg.DateFormat))

		next := day.AddDate(0, 0, 1)
		found := false
		for _, ev := range evs {
			if !ev.Overlaps(day, next) {
				continue
			}
			found = true
			fmt.Fprintf(w, "  %s-%s  %s", ev.Start.Format(cfg.TimeFormat), ev.End.Format(cfg.TimeFormat), ev.Title)
			if ev.Location != "" {
				fmt.Fprintf(w, " (%s)", ev.Location)
			}
			fmt.Fprintln(w)
		}
		if !found {
			fmt.Fprintln(w, "  No events found.")
		}
	}
}
