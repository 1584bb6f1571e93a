package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/rewind/internal/clock"
	"github.com/SmitUplenchwar2687/rewind/internal/config"
	"github.com/SmitUplenchwar2687/rewind/internal/replay"
	"github.com/SmitUplenchwar2687/rewind/internal/report"
)

func newBulkCmd(root *rootOptions) *cobra.Command {
	var (
		input      inputOptions
		workers    int
		stats      bool
		charts     bool
		exportFile string
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "bulk FILE...",
		Short: "Send events as fast as possible and measure response times",
		Long: `Sends every event with no pacing and records the duration and result
of each request. When all requests are done the statistics are printed:
totals, min/avg/max and percentiles, the success rate (status 200 only)
and a breakdown per event type.

With --workers above 1 requests run concurrently; outcomes are still
reported in input order.`,
		Example: `  rewind bulk events.csv --limit 1000
  rewind bulk events.csv --workers 8 --charts
  rewind bulk events.csv --export outcomes.json --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.start(cmd, func(cfg *config.Config) {
				if cmd.Flags().Changed("workers") {
					cfg.Bulk.Workers = workers
				}
				if cmd.Flags().Changed("stats") {
					cfg.Bulk.Stats = stats
				}
			})
			if err != nil {
				return err
			}
			defer s.Close()

			records, err := input.load(args)
			if err != nil {
				return err
			}

			r, err := s.runner(nil, clock.NewRealClock())
			if err != nil {
				return err
			}

			if !outputJSON {
				fmt.Fprintf(s.out, "Sending %d events as fast as possible...\n", len(records))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			res, err := r.FastBulk(ctx, records, replay.BulkOptions{Workers: s.cfg.Bulk.Workers})
			if res == nil {
				return err
			}

			if exportFile != "" {
				if xerr := r.Aggregator().ExportFile(exportFile); xerr != nil {
					return fmt.Errorf("exporting outcomes: %w", xerr)
				}
				s.logger.Info("outcomes exported", "file", exportFile, "count", len(res.Outcomes))
			}

			switch {
			case outputJSON:
				if jerr := report.JSON(s.out, res); jerr != nil {
					return jerr
				}
			case s.cfg.Bulk.Stats:
				report.Console(s.out, res.Stats, res.Wall)
				if charts {
					report.Charts(s.out, res.Outcomes, res.Stats)
				}
			default:
				fmt.Fprintf(s.out, "Sent %d events (%d skipped) in %s\n", res.Attempted, res.Skipped, res.Wall)
			}
			return err
		},
	}

	input.addFlags(cmd)
	cmd.Flags().IntVar(&workers, "workers", 1, "concurrent requests")
	cmd.Flags().BoolVar(&stats, "stats", true, "print statistics when done")
	cmd.Flags().BoolVar(&charts, "charts", false, "also print text charts of the response times")
	cmd.Flags().StringVar(&exportFile, "export", "", "write every outcome to this JSON file")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "print the result (stats and outcomes) as JSON")

	return cmd
}
