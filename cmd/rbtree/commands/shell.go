package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/NWuSunset/Red-Black-Tree/internal/shell"
	"github.com/NWuSunset/Red-Black-Tree/pkg/observability"
)

const metricsShutdownTimeout = 5 * time.Second

var errSessionNotRunning = errors.New("shell session is not running")

type shellOptions struct {
	file        string
	metricsAddr string
}

func newShellCommand(deps Deps, flags *globalFlags) *cobra.Command {
	opts := &shellOptions{}

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive session over one tree",
		Long: `Start an interactive session that reads one command per line from stdin.

Commands: console, file, print, remove, search, check, stats, list, clear,
compact, help and quit. Arguments may follow the command on the same line;
otherwise the session asks for them.

With --metrics-addr the session also serves Prometheus metrics at /metrics.

Examples:
  rbtree shell
  rbtree shell --file numbers.txt
  echo "console 5 3 8
print" | rbtree shell`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd, deps, flags, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "load numbers from a file before reading commands")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (default from config)")

	return cmd
}

func runShell(cmd *cobra.Command, deps Deps, flags *globalFlags, opts *shellOptions) error {
	env, err := setup(deps, flags, observability.ModeShell)
	if err != nil {
		return err
	}
	defer env.close()

	ctx := cmd.Context()

	addr := opts.metricsAddr
	if addr == "" {
		addr = env.cfg.Observability.MetricsAddr
	}

	var running atomic.Bool

	if addr != "" {
		stop, serveErr := env.serveMetrics(ctx, addr, sessionRunning(&running))
		if serveErr != nil {
			return serveErr
		}
		defer stop()
	}

	session := shell.NewSession(env.newTree(), cmd.InOrStdin(), cmd.OutOrStdout(), shell.Config{
		Logger:  env.logger,
		Tracer:  env.tracer,
		Metrics: env.metrics,
		Prompt:  env.cfg.Shell.Prompt,
		Echo:    env.cfg.Shell.Echo,
		Style:   env.cfg.Render.Style,
		Render:  env.renderOptions(),
	})

	if opts.file != "" {
		if err := session.Preload(ctx, opts.file); err != nil {
			env.logger.WarnContext(ctx, "preload failed", "error", err)
		}
	}

	running.Store(true)
	defer running.Store(false)

	return session.Run(ctx)
}

// sessionRunning backs the readiness check: ready only while commands are read.
func sessionRunning(running *atomic.Bool) observability.ReadyCheck {
	return func(context.Context) error {
		if !running.Load() {
			return errSessionNotRunning
		}

		return nil
	}
}

// serveMetrics replaces the session metrics with a Prometheus-backed set and
// serves them on addr until the returned stop function is called.
func (env *environment) serveMetrics(ctx context.Context, addr string, ready observability.ReadyCheck) (func(), error) {
	mp, handler, err := observability.NewPrometheusProvider()
	if err != nil {
		return nil, err
	}

	metrics, err := observability.NewTreeMetrics(mp.Meter(observability.InstrumentationName))
	if err != nil {
		return nil, fmt.Errorf("create tree metrics: %w", err)
	}

	listener, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	env.metrics = metrics
	srv := observability.NewMetricsServer(addr, handler, env.tracer, ready)

	go func() {
		serveErr := srv.Serve(listener)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			env.logger.Error("metrics server failed", "error", serveErr)
		}
	}()

	env.logger.InfoContext(ctx, "serving metrics", "addr", listener.Addr().String(), "path", observability.MetricsPath)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()

		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			env.logger.Warn("metrics server shutdown failed", "error", shutdownErr)
		}

		if shutdownErr := mp.Shutdown(shutdownCtx); shutdownErr != nil {
			env.logger.Warn("meter provider shutdown failed", "error", shutdownErr)
		}
	}, nil
}
