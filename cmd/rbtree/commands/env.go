package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/NWuSunset/Red-Black-Tree/internal/config"
	"github.com/NWuSunset/Red-Black-Tree/internal/ingest"
	"github.com/NWuSunset/Red-Black-Tree/internal/render"
	"github.com/NWuSunset/Red-Black-Tree/pkg/observability"
	"github.com/NWuSunset/Red-Black-Tree/pkg/rbtree"
	"github.com/NWuSunset/Red-Black-Tree/pkg/version"
)

// environment is what every command needs after startup.
type environment struct {
	cfg       *config.Config
	providers observability.Providers
	logger    *slog.Logger
	tracer    trace.Tracer
	metrics   *observability.TreeMetrics
}

func setup(deps Deps, flags *globalFlags, mode observability.AppMode) (*environment, error) {
	cfg, err := config.LoadConfig(flags.configPath)
	if err != nil {
		return nil, err
	}

	switch {
	case flags.verbose:
		cfg.Logging.Level = "debug"
	case flags.quiet:
		cfg.Logging.Level = "error"
	}

	if flags.noColor || color.NoColor {
		cfg.Render.Color = false
	}

	providers, err := deps.InitObservability(cfg.Telemetry(mode, version.Version))
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	env := &environment{cfg: cfg, providers: providers, logger: providers.Logger, tracer: providers.Tracer}

	if env.logger == nil {
		env.logger = slog.New(slog.DiscardHandler)
	}

	if env.tracer == nil {
		env.tracer = nooptrace.NewTracerProvider().Tracer(observability.InstrumentationName)
	}

	if providers.Meter != nil {
		env.metrics, err = deps.newTreeMetrics()(providers.Meter)
		if err != nil {
			env.close()

			return nil, fmt.Errorf("create tree metrics: %w", err)
		}
	}

	return env, nil
}

func (env *environment) close() {
	if env.providers.Shutdown == nil {
		return
	}

	if err := env.providers.Shutdown(context.Background()); err != nil {
		env.logger.Warn("observability shutdown failed", "error", err)
	}
}

func (env *environment) newTree() *rbtree.Tree {
	allocator := rbtree.NewAllocator()
	allocator.HibernationThreshold = env.cfg.Arena.HibernationThreshold

	return rbtree.NewWithAllocator(allocator)
}

func (env *environment) renderOptions() render.Options {
	return render.Options{Color: env.cfg.Render.Color, Indent: env.cfg.Render.Indent}
}

// collect gathers numbers from positional arguments and an optional file.
// Tokens that are not integers are an error on the command line and a
// warning inside files.
func (env *environment) collect(ctx context.Context, args []string, file string) ([]int, error) {
	var keys []int

	for _, arg := range args {
		parsed := ingest.ParseString(arg)
		if len(parsed.Skipped) > 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidNumber, parsed.Skipped[0])
		}

		keys = append(keys, parsed.Ints...)
	}

	if file == "" {
		return keys, nil
	}

	result, err := ingest.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("load numbers: %w", err)
	}

	if len(result.Skipped) > 0 {
		env.logger.WarnContext(ctx, "non-integer tokens skipped", "count", len(result.Skipped))
	}

	return append(keys, result.Ints...), nil
}

// insertKeys inserts keys, skipping duplicates, and returns how many were new.
func (env *environment) insertKeys(ctx context.Context, tree *rbtree.Tree, keys []int) int {
	inserted := 0

	for _, key := range keys {
		if err := tree.Insert(key); err != nil {
			env.logger.DebugContext(ctx, "duplicate key ignored", "key", key)

			continue
		}

		inserted++
	}

	return inserted
}

// recordTree publishes the final size and rotation count of a one-shot tree.
func (env *environment) recordTree(ctx context.Context, tree *rbtree.Tree) {
	if env.metrics == nil {
		return
	}

	env.metrics.AddKeys(ctx, int64(tree.Len()))
	env.metrics.AddRotations(ctx, tree.Rotations())
}
