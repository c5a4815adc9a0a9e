// Package formatter writes built trees as JSON, an indented text outline, or
// Graphviz DOT with every node pinned at its layout position.
package formatter

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mcncl/jsontree/internal/errors"
	"github.com/mcncl/jsontree/internal/models"
	"github.com/mcncl/jsontree/internal/tree"
)

var (
	colorBlue  = lipgloss.Color("75")
	colorGreen = lipgloss.Color("35")
	colorWhite = lipgloss.Color("255")
	colorDim   = lipgloss.Color("240")

	styleObject    = lipgloss.NewStyle().Foreground(colorBlue).Bold(true)
	styleArray     = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	stylePrimitive = lipgloss.NewStyle().Foreground(colorWhite)
	stylePath      = lipgloss.NewStyle().Foreground(colorDim)
	styleHighlight = lipgloss.NewStyle().Bold(true).Reverse(true)
)

// Fill colours used for DOT node boxes.
var dotFill = map[models.NodeKind]string{
	models.KindObject:    "#dbeafe",
	models.KindArray:     "#dcfce7",
	models.KindPrimitive: "#f3f4f6",
}

const highlightOutline = "#f59e0b"

// Options controls the output of a Formatter.
type Options struct {
	// Layout supplies the node box size for DOT output.
	Layout tree.LayoutConfig
	// Color enables lipgloss styling of the text outline.
	Color bool
	// Compact writes JSON without indentation.
	Compact bool
}

// Formatter writes trees in the non-image formats.
type Formatter struct {
	opts Options
}

// NewFormatter creates a new Formatter instance
func NewFormatter(opts Options) *Formatter {
	if opts.Layout == (tree.LayoutConfig{}) {
		opts.Layout = tree.DefaultLayout()
	}
	return &Formatter{opts: opts}
}

// Write writes t to w in the given format. Image formats are produced by the
// render package from DOT and are rejected here.
func (f *Formatter) Write(w io.Writer, t models.Tree, format Format) error {
	switch format {
	case FormatJSON:
		return f.JSON(w, t)
	case FormatText:
		return f.Text(w, t)
	case FormatDOT:
		if _, err := io.WriteString(w, f.DOT(t)); err != nil {
			return errors.NewOutputError("failed to write DOT", err)
		}
		return nil
	default:
		return errors.NewOutputError(fmt.Sprintf("format %q is not a text format", format), errors.ErrUnknownFormat)
	}
}

// JSON writes {"buildId", "nodes", "edges"}.
func (f *Formatter) JSON(w io.Writer, t models.Tree) error {
	if t.Nodes == nil {
		t.Nodes = []models.TreeNode{}
	}
	if t.Edges == nil {
		t.Edges = []models.TreeEdge{}
	}

	return EncodeJSON(w, t, f.opts.Compact)
}

// EncodeJSON writes v as JSON followed by a newline, indented two spaces
// unless compact is set.
func EncodeJSON(w io.Writer, v any, compact bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if !compact {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return errors.NewOutputError("failed to encode JSON", err)
	}
	return nil
}

// Text writes one line per node in pre-order, indented two spaces per level:
//
//	root {2}  ($)
//	  name: "Ada"  ($.name)
//
// Highlighted nodes are marked with "* ".
func (f *Formatter) Text(w io.Writer, t models.Tree) error {
	depths := t.Depths()
	var b strings.Builder
	for i, n := range t.Nodes {
		b.WriteString(strings.Repeat("  ", depths[i]))
		b.WriteString(f.line(n))
		b.WriteString("\n")
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return errors.NewOutputError("failed to write outline", err)
	}
	return nil
}

// line renders a single outline entry without indentation.
func (f *Formatter) line(n models.TreeNode) string {
	marker := ""
	if n.Highlighted {
		marker = "* "
	}
	path := "(" + n.JSONPath + ")"

	if !f.opts.Color {
		return marker + n.Label + "  " + path
	}
	if n.Highlighted {
		return styleHighlight.Render(marker+n.Label+"  "+path)
	}
	return kindStyle(n.Kind).Render(n.Label) + "  " + stylePath.Render(path)
}

func kindStyle(k models.NodeKind) lipgloss.Style {
	switch k {
	case models.KindObject:
		return styleObject
	case models.KindArray:
		return styleArray
	default:
		return stylePrimitive
	}
}

// DOT renders t as a neato graph. Every node is pinned at its layout
// position; one layout unit is one point and y is negated because Graphviz
// y grows upwards.
func (f *Formatter) DOT(t models.Tree) string {
	var b strings.Builder
	b.WriteString("digraph jsontree {\n")
	b.WriteString("  graph [layout=neato, splines=line, outputorder=edgesfirst];\n")
	fmt.Fprintf(&b, "  node [shape=box, style=\"rounded,filled\", fixedsize=true, width=%s, height=%s, fontname=\"Helvetica\", fontsize=12];\n",
		formatFloat(f.opts.Layout.NodeWidth/72), formatFloat(f.opts.Layout.NodeHeight/72))
	b.WriteString("  edge [arrowsize=0.6];\n")

	for _, n := range t.Nodes {
		y := -n.Position.Y
		if y == 0 {
			y = 0 // no "-0"
		}
		fmt.Fprintf(&b, "  %s [label=%s, tooltip=%s, pos=\"%s,%s!\", fillcolor=%q",
			dotQuote(n.ID), dotQuote(n.Label), dotQuote(n.JSONPath),
			formatFloat(n.Position.X), formatFloat(y), dotFill[n.Kind])
		if n.Highlighted {
			fmt.Fprintf(&b, ", color=%q, penwidth=3", highlightOutline)
		}
		b.WriteString("];\n")
	}

	for _, e := range t.Edges {
		fmt.Fprintf(&b, "  %s -> %s;\n", dotQuote(e.SourceID), dotQuote(e.TargetID))
	}
	b.WriteString("}\n")
	return b.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`)

// dotQuote returns s as a DOT double-quoted string.
func dotQuote(s string) string {
	return `"` + dotEscaper.Replace(s) + `"`
}
