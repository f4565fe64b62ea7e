// Package render draws trees and formats tree summaries for terminals.
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/NWuSunset/Red-Black-Tree/pkg/rbtree"
)

// EmptyTree is printed in place of a tree without keys.
const EmptyTree = "(empty)"

// AbsentChild marks the missing side of a node that has one child in Branches.
const AbsentChild = "·"

// DefaultIndent is the column step between depths in Sideways.
const DefaultIndent = 10

// Options control tree drawing.
type Options struct {
	// Color paints labels with ANSI colors, even when w is not a terminal.
	Color bool
	// Indent is the column step per depth for Sideways. Zero means DefaultIndent.
	Indent int
}

type painter struct {
	red   *color.Color
	black *color.Color
}

func newPainter(enabled bool) painter {
	p := painter{
		red:   color.New(color.FgRed, color.Bold),
		black: color.New(color.FgBlack, color.BgWhite, color.Bold),
	}

	if enabled {
		p.red.EnableColor()
		p.black.EnableColor()
	} else {
		p.red.DisableColor()
		p.black.DisableColor()
	}

	return p
}

// label renders "key(R)" or "key(B)".
func (p painter) label(nd rbtree.Node) string {
	text := strconv.Itoa(nd.Key()) + "(" + nd.Color().String() + ")"

	if nd.Color() == rbtree.Red {
		return p.red.Sprint(text)
	}

	return p.black.Sprint(text)
}

// Sideways prints the tree rotated a quarter turn counter-clockwise: the
// right subtree above its parent, the left subtree below, one line per node.
func Sideways(w io.Writer, tree *rbtree.Tree, opts Options) error {
	root := tree.Root()
	if root.IsNil() {
		_, err := fmt.Fprintln(w, EmptyTree)

		return err //nolint:wrapcheck // plain write to the caller's writer.
	}

	indent := opts.Indent
	if indent <= 0 {
		indent = DefaultIndent
	}

	var sb strings.Builder

	drawSideways(&sb, newPainter(opts.Color), root, 0, indent)

	_, err := io.WriteString(w, sb.String())

	return err //nolint:wrapcheck // plain write to the caller's writer.
}

func drawSideways(sb *strings.Builder, p painter, nd rbtree.Node, depth, indent int) {
	if nd.IsNil() {
		return
	}

	drawSideways(sb, p, nd.Right(), depth+1, indent)

	sb.WriteString(strings.Repeat(" ", depth*indent))
	sb.WriteString(p.label(nd))
	sb.WriteByte('\n')

	drawSideways(sb, p, nd.Left(), depth+1, indent)
}

// Branches prints the tree with box-drawing connectors, right child first.
func Branches(w io.Writer, tree *rbtree.Tree, opts Options) error {
	root := tree.Root()
	if root.IsNil() {
		_, err := fmt.Fprintln(w, EmptyTree)

		return err //nolint:wrapcheck // plain write to the caller's writer.
	}

	var sb strings.Builder

	p := newPainter(opts.Color)
	sb.WriteString(p.label(root))
	sb.WriteByte('\n')
	drawChildren(&sb, p, root, "")

	_, err := io.WriteString(w, sb.String())

	return err //nolint:wrapcheck // plain write to the caller's writer.
}

// drawChildren draws both sides of nd, right first. A leaf draws nothing; a
// node with one child draws AbsentChild on the other side.
func drawChildren(sb *strings.Builder, p painter, nd rbtree.Node, prefix string) {
	right, left := nd.Right(), nd.Left()
	if right.IsNil() && left.IsNil() {
		return
	}

	drawChild(sb, p, right, prefix, "├── ", "│   ")
	drawChild(sb, p, left, prefix, "└── ", "    ")
}

func drawChild(sb *strings.Builder, p painter, child rbtree.Node, prefix, branch, extend string) {
	sb.WriteString(prefix)
	sb.WriteString(branch)

	if child.IsNil() {
		sb.WriteString(AbsentChild)
		sb.WriteByte('\n')

		return
	}

	sb.WriteString(p.label(child))
	sb.WriteByte('\n')

	drawChildren(sb, p, child, prefix+extend)
}

// Draw dispatches to Sideways or Branches by style name.
func Draw(w io.Writer, tree *rbtree.Tree, style string, opts Options) error {
	switch style {
	case StyleBranches:
		return Branches(w, tree, opts)
	case StyleSideways, "":
		return Sideways(w, tree, opts)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStyle, style)
	}
}
