package cli

import (
	internalcli "github.com/SmitUplenchwar2687/rewind/internal/cli"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the public rewind root command for embedding.
func NewRootCmd() *cobra.Command {
	return internalcli.NewRootCmd()
}
