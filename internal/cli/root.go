package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root rewind command.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "rewind",
		Short: "Replay recorded shop events against an API",
		Long: `rewind replays recorded e-commerce events (view, cart, remove_from_cart,
purchase) against an HTTP API. Events can be sent one at a time, paced by
their original timestamps at any speed, or fired as fast as possible while
response times are measured.`,
		SilenceUsage: true,
	}
	opts.addFlags(root)

	root.AddCommand(
		newSendCmd(opts),
		newReplayCmd(opts),
		newBulkCmd(opts),
		newServerCmd(opts),
		newGenerateCmd(),
	)

	return root
}
