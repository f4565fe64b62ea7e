package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NWuSunset/Red-Black-Tree/pkg/version"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rbtree %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
