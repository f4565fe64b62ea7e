// Package commands implements the rbtree CLI commands.
package commands

import (
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric"

	"github.com/NWuSunset/Red-Black-Tree/pkg/observability"
)

// Deps holds the replaceable collaborators of the commands.
type Deps struct {
	InitObservability func(observability.Config) (observability.Providers, error)
	// NewTreeMetrics defaults to observability.NewTreeMetrics when nil.
	NewTreeMetrics func(metric.Meter) (*observability.TreeMetrics, error)
}

// DefaultDeps returns the production dependencies.
func DefaultDeps() Deps {
	return Deps{InitObservability: observability.Init, NewTreeMetrics: observability.NewTreeMetrics}
}

func (deps Deps) newTreeMetrics() func(metric.Meter) (*observability.TreeMetrics, error) {
	if deps.NewTreeMetrics == nil {
		return observability.NewTreeMetrics
	}

	return deps.NewTreeMetrics
}

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	configPath string
	verbose    bool
	quiet      bool
	noColor    bool
}

// NewRootCommand builds the rbtree command tree.
func NewRootCommand(deps Deps) *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "rbtree",
		Short: "Red-black tree ordered set with an interactive shell",
		Long: `rbtree stores distinct integers in a self-balancing red-black tree.

Commands:
  shell     Interactive session (console, file, print, remove, search, ...)
  build     Insert and remove numbers, then draw the tree
  check     Insert numbers and print the invariant report
  version   Show version information`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	persistent := rootCmd.PersistentFlags()
	persistent.StringVar(&flags.configPath, "config", "", "config file (default .rbtree.yaml in . or $HOME)")
	persistent.BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")
	persistent.BoolVarP(&flags.quiet, "quiet", "q", false, "only log errors")
	persistent.BoolVar(&flags.noColor, "no-color", false, "disable colored node labels")

	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	rootCmd.AddCommand(
		newShellCommand(deps, flags),
		newBuildCommand(deps, flags),
		newCheckCommand(deps, flags),
		newVersionCommand(),
	)

	return rootCmd
}
