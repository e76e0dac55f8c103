package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwarden/nowline/internal/indicator"
	"github.com/cwarden/nowline/internal/logging"
)

var nowOnce bool

var nowCmd = &cobra.Command{
	Use:   "now",
	Short: "Print the position of the Now marker",
	Long: `Run the indicator without the grid, printing the marker position each
time it is published. Stops on interrupt. With --once, print the current
position and exit.`,
	RunE: runNow,
}

func init() {
	nowCmd.Flags().BoolVar(&nowOnce, "once", false, "Print a single evaluation and exit")
	rootCmd.AddCommand(nowCmd)
}

func runNow(cmd *cobra.Command, args []string) error {
	if cfg == nil {
		initConfig()
	}

	log, closer, err := logging.Setup(logging.Options{Level: cfg.LogLevel, Console: os.Stderr})
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	out := cmd.OutOrStdout()
	bounds := cfg.Bounds()

	scheduler := indicator.NewScheduler(cfg.Indicator(), indicator.WithLogger(log))

	if nowOnce {
		now := time.Now()
		printState(out, now, scheduler.Calculator().Position(now), bounds)
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return scheduler.Run(ctx, cfg.FrameInterval(), func(st indicator.State) {
		printState(out, time.Now(), st, bounds)
	})
}

func printState(w io.Writer, now time.Time, st indicator.State, bounds indicator.Bounds) {
	if !st.Present {
		fmt.Fprintf(w, "%s  outside %s-%s\n", now.Format("15:04:05"), bounds.Start, bounds.End)
		return
	}
	fmt.Fprintf(w, "%s  %6.2f%%\n", now.Format("15:04:05"), st.Percent)
}
