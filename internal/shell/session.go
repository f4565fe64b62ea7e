// Package shell implements the line-oriented command session over a tree.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/NWuSunset/Red-Black-Tree/internal/render"
	"github.com/NWuSunset/Red-Black-Tree/pkg/observability"
	"github.com/NWuSunset/Red-Black-Tree/pkg/rbtree"
)

// Banner is printed once when a session starts.
const Banner = "Type CONSOLE to enter a series of numbers in the console. Or type FILE to enter a file name. " +
	"Type PRINT to print out the tree. Type REMOVE to remove a number from the tree. " +
	"Type SEARCH to search for a number in the tree. Type HELP for every command, QUIT to leave."

const maxLineSize = 1 << 20

// Sentinel errors reported as command failures.
var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrInvalidNumber  = errors.New("invalid number")
	ErrMissingInput   = errors.New("input ended before the argument")
	ErrLoadFailed     = errors.New("cannot load file")
)

// Config wires a Session. Zero fields fall back to silent defaults.
type Config struct {
	Logger  *slog.Logger
	Tracer  trace.Tracer
	Metrics *observability.TreeMetrics

	Prompt string
	// Echo repeats every input line after the prompt.
	Echo bool
	// Style is a render style name; empty means sideways.
	Style  string
	Render render.Options
}

// Session reads commands from an input stream and applies them to one tree.
type Session struct {
	tree    *rbtree.Tree
	in      *bufio.Scanner
	out     io.Writer
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *observability.TreeMetrics
	cfg     Config
}

// NewSession binds tree to the given input and output.
func NewSession(tree *rbtree.Tree, in io.Reader, out io.Writer, cfg Config) *Session {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineSize)

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	tracer := cfg.Tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(observability.InstrumentationName)
	}

	return &Session{
		tree:    tree,
		in:      scanner,
		out:     out,
		logger:  logger,
		tracer:  tracer,
		metrics: cfg.Metrics,
		cfg:     cfg,
	}
}

// Run prints the banner and executes commands until input ends, quit is
// read, or ctx is done. Only the last case returns an error besides I/O failures.
func (s *Session) Run(ctx context.Context) error {
	s.println(Banner)

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("shell: %w", err)
		}

		line, ok := s.readLine()
		if !ok {
			break
		}

		if s.Execute(ctx, line) {
			return nil
		}
	}

	if err := s.in.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	return nil
}

// Execute runs one command line and reports whether the session should end.
func (s *Session) Execute(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	name := strings.ToLower(fields[0])

	cmd, ok := lookup(name)
	if !ok {
		s.println("Invalid input.")
		s.logger.DebugContext(ctx, "unknown command", "input", fields[0])
		s.record(ctx, "unknown", time.Now(), fmt.Errorf("%w: %s", ErrUnknownCommand, fields[0]))

		return false
	}

	if cmd.quit {
		return true
	}

	_ = s.run(ctx, cmd, fields[1:])

	return false
}

// Preload runs the file command for path before any input is read.
func (s *Session) Preload(ctx context.Context, path string) error {
	cmd, _ := lookup("file")

	return s.run(ctx, cmd, []string{path})
}

func (s *Session) run(ctx context.Context, cmd *command, args []string) error {
	ctx, span := s.tracer.Start(ctx, "rbtree.shell."+cmd.name,
		trace.WithAttributes(
			attribute.String("rbtree.command", cmd.name),
			attribute.Int("rbtree.args", len(args)),
		),
	)
	defer span.End()

	if !cmd.keepsHibernation && s.tree.Allocator().Hibernated() {
		s.tree.Allocator().Boot()
		s.logger.DebugContext(ctx, "arena booted", "slots", s.tree.Allocator().Size())
	}

	keysBefore := s.tree.Len()
	rotationsBefore := s.tree.Rotations()
	start := time.Now()

	err := cmd.run(ctx, s, args)

	if s.metrics != nil {
		s.metrics.AddKeys(ctx, int64(s.tree.Len()-keysBefore))
		s.metrics.AddRotations(ctx, s.tree.Rotations()-rotationsBefore)
	}

	span.SetAttributes(attribute.Int("rbtree.keys", s.tree.Len()))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	s.record(ctx, cmd.name, start, err)

	return err
}

func (s *Session) record(ctx context.Context, name string, start time.Time, err error) {
	elapsed := time.Since(start)
	status := observability.StatusOK

	if err != nil {
		status = observability.StatusError
	}

	if s.metrics != nil {
		s.metrics.RecordOp(ctx, name, status, elapsed)
	}

	attrs := []any{"command", name, "status", status, "duration", elapsed, "keys", s.tree.Len()}
	if err != nil {
		attrs = append(attrs, "error", err)
	}

	s.logger.DebugContext(ctx, "command finished", attrs...)
}

// readLine prompts and returns the next input line.
func (s *Session) readLine() (string, bool) {
	s.print(s.cfg.Prompt)

	if !s.in.Scan() {
		return "", false
	}

	line := s.in.Text()

	if s.cfg.Echo {
		s.println(line)
	}

	return line, true
}

// argument returns the inline arguments, or asks question and reads them
// from the next line.
func (s *Session) argument(args []string, question string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	s.println(question)

	line, ok := s.readLine()
	if !ok {
		return "", ErrMissingInput
	}

	return line, nil
}

func (s *Session) print(text string) {
	if text == "" {
		return
	}

	_, _ = io.WriteString(s.out, text)
}

func (s *Session) println(text string) {
	_, _ = io.WriteString(s.out, text+"\n")
}

func (s *Session) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.out, format, args...)
}
