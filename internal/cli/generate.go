package cli

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/rewind/internal/config"
	"github.com/SmitUplenchwar2687/rewind/internal/event"
	"github.com/SmitUplenchwar2687/rewind/internal/recorder"
	"github.com/SmitUplenchwar2687/rewind/pkg/generate"
)

func newGenerateCmd() *cobra.Command {
	var (
		output    string
		count     int
		users     int
		duration  time.Duration
		pattern   string
		start     string
		seed      int64
		noSession bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate sample event files and config",
		Long: `Generates sample data for testing and experimentation.

Use "generate events" to create a sample event CSV file.
Use "generate config" to create an example config file.`,
	}

	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "Generate a sample event CSV file",
		Long: `Creates a realistic event file in the recorded dataset layout with
configurable parameters.

Patterns:
  steady    Evenly distributed events
  burst     Concentrated bursts with quiet periods
  ramp      Gradually increasing event rate`,
		Example: `  rewind generate events --output events.csv --count 100 --users 5
  rewind generate events --output burst.csv --count 200 --pattern burst --duration 10m`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := generate.Options{
				Count:     count,
				Users:     users,
				Duration:  duration,
				Pattern:   pattern,
				Seed:      seed,
				NoSession: noSession,
			}
			if start != "" {
				at, err := event.ParseTime(start)
				if err != nil {
					return fmt.Errorf("--start: %w", err)
				}
				opts.Start = at
			}

			records, err := generate.Events(&opts)
			if err != nil {
				return err
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating file: %w", err)
			}
			defer f.Close()

			bw := bufio.NewWriter(f)
			rec := recorder.New(bw)
			for _, r := range records {
				if err := rec.Record(r); err != nil {
					return fmt.Errorf("writing events: %w", err)
				}
			}
			if err := bw.Flush(); err != nil {
				return fmt.Errorf("writing events: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Generated %d events to %s\n", len(records), output)
			fmt.Fprintf(out, "  Users:    %d\n", users)
			fmt.Fprintf(out, "  Duration: %s\n", duration)
			fmt.Fprintf(out, "  Pattern:  %s\n", pattern)
			return nil
		},
	}

	d := generate.DefaultOptions()
	eventsCmd.Flags().StringVar(&output, "output", "events.csv", "output file path")
	eventsCmd.Flags().IntVar(&count, "count", d.Count, "number of events to generate")
	eventsCmd.Flags().IntVar(&users, "users", d.Users, "number of distinct users")
	eventsCmd.Flags().DurationVar(&duration, "duration", d.Duration, "time span for generated events")
	eventsCmd.Flags().StringVar(&pattern, "pattern", d.Pattern, "event pattern (steady, burst, ramp)")
	eventsCmd.Flags().StringVar(&start, "start", "", "time of the first event (default now)")
	eventsCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = random)")
	eventsCmd.Flags().BoolVar(&noSession, "no-session", false, "leave user_session empty on every tenth event")

	var configOutput string
	configCmd := &cobra.Command{
		Use:     "config",
		Short:   "Generate an example config file",
		Example: `  rewind generate config --output rewind.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteExample(configOutput); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated example config at %s\n", configOutput)
			return nil
		},
	}

	configCmd.Flags().StringVar(&configOutput, "output", "rewind.yaml", "output file path")

	cmd.AddCommand(eventsCmd, configCmd)
	return cmd
}
