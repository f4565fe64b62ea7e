package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/NWuSunset/Red-Black-Tree/pkg/rbtree"
	"github.com/NWuSunset/Red-Black-Tree/pkg/safeconv"
)

// Drawing styles accepted by Draw.
const (
	StyleSideways = "sideways"
	StyleBranches = "branches"
)

// Report encodings accepted by EncodeReport.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

var (
	// ErrUnknownFormat indicates an unsupported report encoding.
	ErrUnknownFormat = errors.New("unknown report format")
	// ErrUnknownStyle indicates an unsupported drawing style.
	ErrUnknownStyle = errors.New("unknown render style")
)

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false

	return tbl
}

func writeTable(w io.Writer, tbl table.Writer) error {
	_, err := fmt.Fprintln(w, tbl.Render())

	return err //nolint:wrapcheck // plain write to the caller's writer.
}

// StatsTable prints stats as a two-column table.
func StatsTable(w io.Writer, stats rbtree.Stats) error {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Metric", "Value"})

	tbl.AppendRow(table.Row{"keys", humanize.Comma(int64(stats.Keys))})

	if stats.Keys > 0 && !stats.Hibernated {
		tbl.AppendRow(table.Row{"min", strconv.Itoa(stats.Min)})
		tbl.AppendRow(table.Row{"max", strconv.Itoa(stats.Max)})
		tbl.AppendRow(table.Row{"height", stats.Height})
		tbl.AppendRow(table.Row{"black-height", stats.BlackHeight})
	}

	tbl.AppendRow(table.Row{"rotations", humanize.Comma(safeconv.MustUint64ToInt64(stats.Rotations))})
	tbl.AppendRow(table.Row{"arena slots", humanize.Comma(int64(stats.ArenaSlots))})
	tbl.AppendRow(table.Row{"arena size", humanize.IBytes(uint64(max(stats.ArenaBytes, 0)))}) //nolint:gosec // non-negative.
	tbl.AppendRow(table.Row{"hibernated", stats.Hibernated})

	return writeTable(w, tbl)
}

// ReportTable prints a validation report: a summary followed by one row per violation.
func ReportTable(w io.Writer, report rbtree.ValidationReport) error {
	summary := newTable()
	summary.AppendHeader(table.Row{"Check", "Result"})
	summary.AppendRow(table.Row{"valid", report.Valid})
	summary.AppendRow(table.Row{"nodes", humanize.Comma(int64(report.Nodes))})
	summary.AppendRow(table.Row{"height", report.Height})
	summary.AppendRow(table.Row{"black-height", report.BlackHeight})
	summary.AppendRow(table.Row{"root color", report.RootColor})

	if err := writeTable(w, summary); err != nil {
		return err
	}

	if len(report.Violations) == 0 {
		return nil
	}

	violations := newTable()
	violations.AppendHeader(table.Row{"Rule", "Key", "Detail"})

	for _, violation := range report.Violations {
		violations.AppendRow(table.Row{violation.Rule, violation.Key, violation.Detail})
	}

	violations.AppendFooter(table.Row{"Total", len(report.Violations), ""})

	return writeTable(w, violations)
}

// EncodeReport writes report as a table, JSON or YAML document.
func EncodeReport(w io.Writer, report rbtree.ValidationReport, format string) error {
	if report.Violations == nil {
		report.Violations = []rbtree.Violation{}
	}

	switch format {
	case FormatTable, "":
		return ReportTable(w, report)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encode json report: %w", err)
		}

		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2) //nolint:mnd // two-space YAML.

		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encode yaml report: %w", err)
		}

		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode yaml report: %w", err)
		}

		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
