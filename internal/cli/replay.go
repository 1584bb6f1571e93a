package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/rewind/internal/clock"
	"github.com/SmitUplenchwar2687/rewind/internal/config"
	"github.com/SmitUplenchwar2687/rewind/internal/dispatch"
	"github.com/SmitUplenchwar2687/rewind/internal/replay"
	"github.com/SmitUplenchwar2687/rewind/internal/report"
	"github.com/SmitUplenchwar2687/rewind/internal/schedule"
)

func newReplayCmd(root *rootOptions) *cobra.Command {
	var (
		input      inputOptions
		speed      float64
		order      string
		dryRun     bool
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "replay FILE...",
		Short: "Replay recorded events paced by their timestamps",
		Long: `Replays recorded events so that the gaps between their event times are
reproduced, divided by the speed factor. Every request and response is
logged; no statistics are collected.

Records are ordered by timestamp text (--order raw) or by parsed event
time (--order time). Rows with an unparseable timestamp are skipped.

Speed: 1 = real-time, 10 = 10x, 1000 = 1000x. Must be positive.

With --dry-run nothing is sent: the schedule runs on a virtual clock that
jumps over every wait, so it finishes instantly.`,
		Example: `  rewind replay events.csv
  rewind replay events.csv --speed 1000 --limit 10
  rewind replay oct.csv nov.csv --types purchase,cart --order time
  rewind replay events.csv --speed 60 --dry-run --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.start(cmd, func(cfg *config.Config) {
				if cmd.Flags().Changed("speed") {
					cfg.Replay.Speed = speed
				}
				if cmd.Flags().Changed("order") {
					cfg.Replay.Order = order
				}
			})
			if err != nil {
				return err
			}
			defer s.Close()

			ord, err := schedule.OrderByName(s.cfg.Replay.Order)
			if err != nil {
				return err
			}

			records, err := input.load(args)
			if err != nil {
				return err
			}

			var (
				clk       clock.Clock = clock.NewRealClock()
				transport dispatch.Transport
			)
			if dryRun {
				clk = clock.NewAutoClock(time.Now())
				transport = dispatch.NopTransport{}
			}
			r, err := s.runner(transport, clk, replay.WithOrder(ord))
			if err != nil {
				return err
			}

			if !outputJSON {
				mode := ""
				if dryRun {
					mode = " (dry run)"
				}
				fmt.Fprintf(s.out, "Replaying %d events at %gx speed%s...\n\n", len(records), s.cfg.Replay.Speed, mode)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			summary, err := r.Replay(ctx, records, s.cfg.Replay.Speed)
			if summary == nil {
				return err
			}

			if outputJSON {
				if jerr := report.JSON(s.out, map[string]any{
					"run_id":  r.RunID(),
					"speed":   s.cfg.Replay.Speed,
					"dry_run": dryRun,
					"summary": summary,
				}); jerr != nil {
					return jerr
				}
				return err
			}

			printReplaySummary(s.out, summary)
			return err
		},
	}

	input.addFlags(cmd)
	cmd.Flags().Float64Var(&speed, "speed", 1.0, "replay speed factor (1 = real-time)")
	cmd.Flags().StringVar(&order, "order", config.OrderRaw, "record order (raw, time)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "run the schedule on a virtual clock without sending")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "output the summary as JSON")

	return cmd
}

func printReplaySummary(w io.Writer, summary *schedule.Summary) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "--- Replay Summary ---")
	fmt.Fprintf(w, "  Total records:  %d\n", summary.Total)
	fmt.Fprintf(w, "  Dispatched:     %d\n", summary.Dispatched)
	fmt.Fprintf(w, "  Skipped:        %d\n", summary.Skipped)
	fmt.Fprintf(w, "  Parse errors:   %d\n", summary.ParseErrors)
	fmt.Fprintf(w, "  Failed:         %d\n", summary.Failed)
	fmt.Fprintf(w, "  Event span:     %s\n", summary.EventSpan)
	fmt.Fprintf(w, "  Wall time:      %s\n", summary.WallDuration.Round(time.Millisecond))
	fmt.Fprintf(w, "  Max lag:        %s\n", summary.MaxLag.Round(time.Millisecond))

	if summary.Dispatched > 0 && summary.EventSpan > 0 && summary.WallDuration > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, strings.Repeat("=", 50))
		fmt.Fprintf(w, "Effective speed: %.1fx\n", summary.EventSpan.Seconds()/summary.WallDuration.Seconds())
		fmt.Fprintln(w, strings.Repeat("=", 50))
	}
}
