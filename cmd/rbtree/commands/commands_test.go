package commands_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"gopkg.in/yaml.v3"

	"github.com/NWuSunset/Red-Black-Tree/cmd/rbtree/commands"
	"github.com/NWuSunset/Red-Black-Tree/pkg/observability"
	"github.com/NWuSunset/Red-Black-Tree/pkg/rbtree"
	"github.com/NWuSunset/Red-Black-Tree/pkg/version"
)

const testConfig = `render:
  color: false
  indent: 4
`

// harness records what the commands hand to the telemetry layer.
type harness struct {
	spans   *tracetest.InMemoryExporter
	reader  *sdkmetric.ManualReader
	configs []observability.Config
	// shutdowns counts Providers.Shutdown calls.
	shutdowns int
}

func newHarness() *harness {
	return &harness{spans: tracetest.NewInMemoryExporter(), reader: sdkmetric.NewManualReader()}
}

func (h *harness) deps() commands.Deps {
	return commands.Deps{
		InitObservability: func(cfg observability.Config) (observability.Providers, error) {
			h.configs = append(h.configs, cfg)

			tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(h.spans))
			mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(h.reader))

			return observability.Providers{
				Tracer: tp.Tracer(observability.InstrumentationName),
				Meter:  mp.Meter(observability.InstrumentationName),
				Logger: slog.New(slog.DiscardHandler),
				Shutdown: func(ctx context.Context) error {
					h.shutdowns++

					return tp.Shutdown(ctx)
				},
			}, nil
		},
	}
}

func (h *harness) spanNames() []string {
	names := []string{}
	for _, span := range h.spans.GetSpans() {
		names = append(names, span.Name)
	}

	return names
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

// execute runs the root command with a pinned config file.
func execute(t *testing.T, h *harness, stdin string, args ...string) (string, string, error) {
	t.Helper()

	configPath := writeFile(t, "rbtree.yaml", testConfig)

	root := commands.NewRootCommand(h.deps())

	var stdout, stderr bytes.Buffer

	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", configPath}, args...))

	err := root.ExecuteContext(context.Background())

	return stdout.String(), stderr.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	t.Parallel()

	root := commands.NewRootCommand(commands.DefaultDeps())

	names := []string{}
	for _, sub := range root.Commands() {
		names = append(names, sub.Name())
	}

	for _, want := range []string{"shell", "build", "check", "version"} {
		assert.Contains(t, names, want)
	}

	for _, flag := range []string{"config", "verbose", "quiet", "no-color"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}
}

func TestRootCommand_VerboseAndQuietConflict(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, newHarness(), "", "-v", "-q", "build", "1")
	require.Error(t, err)
}

func TestRootCommand_UnknownCommand(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, newHarness(), "", "grow")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestBuildCommand_MetricsFailureShutsDownProviders(t *testing.T) {
	t.Parallel()

	h := newHarness()
	deps := h.deps()
	deps.NewTreeMetrics = func(metric.Meter) (*observability.TreeMetrics, error) {
		return nil, errors.New("instrument rejected")
	}

	root := commands.NewRootCommand(deps)
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--config", writeFile(t, "rbtree.yaml", testConfig), "build", "1"})

	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create tree metrics")
	assert.Equal(t, 1, h.shutdowns)
}

func TestBuildCommand_ShutsDownProviders(t *testing.T) {
	t.Parallel()

	h := newHarness()

	_, _, err := execute(t, h, "", "build", "1")
	require.NoError(t, err)
	assert.Equal(t, 1, h.shutdowns)
}

func TestBuildCommand_DrawsTree(t *testing.T) {
	t.Parallel()

	h := newHarness()

	stdout, _, err := execute(t, h, "", "build", "20", "10", "30")
	require.NoError(t, err)
	assert.Equal(t, "    30(R)\n20(B)\n    10(R)\n", stdout)

	assert.Equal(t, []string{"rbtree.insert_batch", "rbtree.build"}, h.spanNames())
	require.Len(t, h.configs, 1)
	assert.Equal(t, observability.ModeCLI, h.configs[0].Mode)
	assert.Equal(t, version.Version, h.configs[0].ServiceVersion)
}

func TestBuildCommand_Remove(t *testing.T) {
	t.Parallel()

	stdout, stderr, err := execute(t, newHarness(), "", "build", "20", "10", "30", "--remove", "20,99")
	require.NoError(t, err)
	assert.Equal(t, "30(B)\n    10(R)\n", stdout)
	assert.Equal(t, "99 is not in the tree\n", stderr)
}

func TestBuildCommand_Branches(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(t, newHarness(), "", "build", "--style", "branches", "20", "10", "30")
	require.NoError(t, err)
	assert.Equal(t, "20(B)\n├── 30(R)\n└── 10(R)\n", stdout)
}

func TestBuildCommand_RemoveEverything(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(t, newHarness(), "", "build", "1", "2", "--remove", "1,2")
	require.NoError(t, err)
	assert.Equal(t, "(empty)\n", stdout)
}

func TestBuildCommand_File(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "numbers.txt", "20 10\n30 abc 10\n")

	stdout, _, err := execute(t, newHarness(), "", "build", "--file", path)
	require.NoError(t, err)
	assert.Equal(t, "    30(R)\n20(B)\n    10(R)\n", stdout)
}

func TestBuildCommand_InvalidNumber(t *testing.T) {
	t.Parallel()

	h := newHarness()

	_, _, err := execute(t, h, "", "build", "1", "two")
	require.ErrorIs(t, err, commands.ErrInvalidNumber)

	spans := h.spans.GetSpans()
	require.NotEmpty(t, spans)
	assert.Equal(t, "rbtree.build", spans[len(spans)-1].Name)
	assert.Equal(t, "Error", spans[len(spans)-1].Status.Code.String())
}

func TestBuildCommand_NoNumbers(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, newHarness(), "", "build")
	require.ErrorIs(t, err, commands.ErrNoNumbers)
}

func TestBuildCommand_MissingFile(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, newHarness(), "", "build", "--file", filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load numbers")
}

func TestBuildCommand_UnknownStyle(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, newHarness(), "", "build", "--style", "diagonal", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "draw tree")
}

func TestCheckCommand_JSON(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(t, newHarness(), "", "check", "--format", "json", "44", "17", "88", "8", "32", "65", "97")
	require.NoError(t, err)

	var report rbtree.ValidationReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))

	assert.True(t, report.Valid)
	assert.Equal(t, 7, report.Nodes)
	assert.Equal(t, 3, report.Height)
	assert.Equal(t, "black", report.RootColor)
	assert.Empty(t, report.Violations)
}

func TestCheckCommand_YAML(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(t, newHarness(), "", "check", "-o", "yaml", "1", "2", "3")
	require.NoError(t, err)

	var report rbtree.ValidationReport
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &report))

	assert.True(t, report.Valid)
	assert.Equal(t, 3, report.Nodes)
	assert.Equal(t, 1, report.BlackHeight)
}

func TestCheckCommand_Table(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(t, newHarness(), "", "check", "5", "3", "8")
	require.NoError(t, err)
	assert.Contains(t, stdout, "black")
}

func TestCheckCommand_UnknownFormat(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, newHarness(), "", "check", "--format", "xml", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "print report")
}

func TestCheckCommand_ConfigFormat(t *testing.T) {
	t.Parallel()

	configPath := writeFile(t, "rbtree.yaml", "report:\n  format: json\n")

	root := commands.NewRootCommand(newHarness().deps())

	var stdout bytes.Buffer

	root.SetOut(&stdout)
	root.SetArgs([]string{"--config", configPath, "check", "4", "2"})

	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.True(t, json.Valid(stdout.Bytes()))
}

func TestCheckCommand_InvalidConfig(t *testing.T) {
	t.Parallel()

	configPath := writeFile(t, "rbtree.yaml", "render:\n  style: diagonal\n")

	root := commands.NewRootCommand(newHarness().deps())
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--config", configPath, "check", "1"})

	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validate config")
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(t, newHarness(), "", "version")
	require.NoError(t, err)
	assert.Equal(t, "rbtree "+version.Version+" (commit: "+version.Commit+", built: "+version.Date+")\n", stdout)
}

func TestShellCommand_Session(t *testing.T) {
	t.Parallel()

	h := newHarness()

	stdout, _, err := execute(t, h, "console 5 3 8\nprint\nsearch 3\nquit\n", "shell")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Inserted 3 numbers")
	assert.Contains(t, stdout, "8(R)\n5(B)\n    3(R)\n")
	assert.Contains(t, stdout, "It is in the tree")

	require.Len(t, h.configs, 1)
	assert.Equal(t, observability.ModeShell, h.configs[0].Mode)
	assert.Contains(t, h.spanNames(), "rbtree.shell.console")
}

func TestShellCommand_Preload(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "numbers.txt", "2 1 3")

	stdout, _, err := execute(t, newHarness(), "list\n", "shell", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 2 3\n")
}

func TestShellCommand_MetricsServer(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(t, newHarness(), "console 1\n", "shell", "--metrics-addr", "127.0.0.1:0")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Inserted 1 number")
}

func TestShellCommand_RejectsArgs(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, newHarness(), "", "shell", "5")
	require.Error(t, err)
}
