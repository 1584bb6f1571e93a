package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/rewind/internal/clock"
	"github.com/SmitUplenchwar2687/rewind/internal/dispatch"
	"github.com/SmitUplenchwar2687/rewind/internal/loader"
)

func newSendCmd(root *rootOptions) *cobra.Command {
	var index int

	cmd := &cobra.Command{
		Use:   "send FILE...",
		Short: "Send a single recorded event",
		Long: `Sends one row of the input to its endpoint without measurement and
logs the request and the response. Rows are numbered from 0 after the
header of the first file, across all files.

A row whose event type is missing or unknown is not sent.`,
		Example: `  rewind send events.csv
  rewind send events.csv --index 1 --base-url http://localhost:9090`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if index < 0 {
				return fmt.Errorf("--index must not be negative, got %d", index)
			}
			s, err := root.start(cmd, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			records, err := loader.LoadFiles(args, loader.Options{Skip: index, Limit: 1})
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return fmt.Errorf("row %d not found in input", index)
			}

			clk := clock.NewRealClock()
			r, err := s.runner(nil, clk)
			if err != nil {
				return err
			}

			start := clk.Now()
			err = r.SendOne(cmd.Context(), records[0])
			if errors.Is(err, dispatch.ErrNotDispatchable) {
				fmt.Fprintf(s.out, "Row %d ignored: event type %q is not dispatchable\n", index, records[0].EventType)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(s.out, "Time taken to send single event: %.2f seconds\n", clk.Since(start).Seconds())
			return nil
		},
	}

	cmd.Flags().IntVar(&index, "index", 0, "row to send, counted from 0 after the header")

	return cmd
}
