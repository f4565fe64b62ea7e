package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/NWuSunset/Red-Black-Tree/internal/render"
	"github.com/NWuSunset/Red-Black-Tree/pkg/observability"
)

type checkOptions struct {
	file   string
	format string
}

func newCheckCommand(deps Deps, flags *globalFlags) *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check [numbers...]",
		Short: "Insert numbers and print the invariant report",
		Long: `Build a tree from the given numbers and print its validation report:
node count, height, black-height, root color and every violated rule.

Examples:
  rbtree check 44 17 88 8 32 65 97
  rbtree check --file numbers.txt --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, deps, flags, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "read whitespace-separated numbers from a file")
	cmd.Flags().StringVarP(&opts.format, "format", "o", "", "report format: table, json or yaml (default from config)")

	return cmd
}

func runCheck(cmd *cobra.Command, deps Deps, flags *globalFlags, opts *checkOptions, args []string) error {
	env, err := setup(deps, flags, observability.ModeCLI)
	if err != nil {
		return err
	}
	defer env.close()

	ctx, span := env.tracer.Start(cmd.Context(), "rbtree.check")
	defer span.End()

	start := time.Now()

	err = checkTree(ctx, cmd, env, opts, args)

	status := observability.StatusOK
	if err != nil {
		status = observability.StatusError

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	if env.metrics != nil {
		env.metrics.RecordOp(ctx, "check", status, time.Since(start))
	}

	return err
}

func checkTree(ctx context.Context, cmd *cobra.Command, env *environment, opts *checkOptions, args []string) error {
	format := opts.format
	if format == "" {
		format = env.cfg.Report.Format
	}

	tree, err := buildTree(ctx, env, opts.file, args)
	if err != nil {
		return err
	}

	env.recordTree(ctx, tree)

	report, verr := tree.Validate()

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("rbtree.violations", len(report.Violations)),
		attribute.Int("rbtree.keys", tree.Len()),
	)

	if err := render.EncodeReport(cmd.OutOrStdout(), report, format); err != nil {
		return fmt.Errorf("print report: %w", err)
	}

	if verr != nil {
		return fmt.Errorf("tree check: %w", verr)
	}

	return nil
}
