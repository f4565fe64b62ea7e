package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/NWuSunset/Red-Black-Tree/internal/render"
	"github.com/NWuSunset/Red-Black-Tree/pkg/observability"
	"github.com/NWuSunset/Red-Black-Tree/pkg/rbtree"
)

// Sentinel errors for the one-shot commands.
var (
	ErrInvalidNumber = errors.New("invalid number")
	ErrNoNumbers     = errors.New("no numbers given; pass them as arguments or with --file")
)

type buildOptions struct {
	file   string
	remove []int
	style  string
}

func newBuildCommand(deps Deps, flags *globalFlags) *cobra.Command {
	opts := &buildOptions{}

	cmd := &cobra.Command{
		Use:   "build [numbers...]",
		Short: "Insert and remove numbers, then draw the tree",
		Long: `Build a tree from the given numbers, remove the --remove keys, draw the
result and verify every red-black invariant. Exits non-zero when an
invariant is broken.

Examples:
  rbtree build 20 10 30 5 15 25 40 --remove 20
  rbtree build --file numbers.txt --style branches`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, deps, flags, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "read whitespace-separated numbers from a file")
	cmd.Flags().IntSliceVarP(&opts.remove, "remove", "r", nil, "keys to remove after inserting (comma-separated)")
	cmd.Flags().StringVarP(&opts.style, "style", "s", "", "drawing style: sideways or branches (default from config)")

	return cmd
}

func runBuild(cmd *cobra.Command, deps Deps, flags *globalFlags, opts *buildOptions, args []string) error {
	env, err := setup(deps, flags, observability.ModeCLI)
	if err != nil {
		return err
	}
	defer env.close()

	ctx, span := env.tracer.Start(cmd.Context(), "rbtree.build")
	defer span.End()

	start := time.Now()

	tree, err := buildTree(ctx, env, opts.file, args)
	if err == nil {
		err = drawAndCheck(ctx, cmd, env, tree, opts)
		env.recordTree(ctx, tree)
	}

	status := observability.StatusOK
	if err != nil {
		status = observability.StatusError

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	if env.metrics != nil {
		env.metrics.RecordOp(ctx, "build", status, time.Since(start))
	}

	return err
}

func drawAndCheck(ctx context.Context, cmd *cobra.Command, env *environment, tree *rbtree.Tree, opts *buildOptions) error {
	for _, key := range opts.remove {
		if err := tree.Remove(key); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%d is not in the tree\n", key)
			env.logger.DebugContext(ctx, "remove skipped", "key", key)
		}
	}

	style := opts.style
	if style == "" {
		style = env.cfg.Render.Style
	}

	if err := render.Draw(cmd.OutOrStdout(), tree, style, env.renderOptions()); err != nil {
		return fmt.Errorf("draw tree: %w", err)
	}

	if _, err := tree.Validate(); err != nil {
		return fmt.Errorf("tree check: %w", err)
	}

	return nil
}

// buildTree inserts the numbers from args and file into a fresh tree.
func buildTree(ctx context.Context, env *environment, file string, args []string) (*rbtree.Tree, error) {
	keys, err := env.collect(ctx, args, file)
	if err != nil {
		return nil, err
	}

	if len(keys) == 0 {
		return nil, ErrNoNumbers
	}

	ctx, span := env.tracer.Start(ctx, "rbtree.insert_batch")
	defer span.End()

	tree := env.newTree()
	inserted := env.insertKeys(ctx, tree, keys)

	span.SetAttributes(attribute.Int("rbtree.keys", tree.Len()))
	env.logger.DebugContext(ctx, "tree built",
		slog.Int("parsed", len(keys)), slog.Int("inserted", inserted), slog.Uint64("rotations", tree.Rotations()))

	return tree, nil
}
