// Package render turns the DOT produced by the formatter into SVG or PNG
// with the embedded Graphviz runtime.
package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	"github.com/mcncl/jsontree/internal/errors"
	"github.com/mcncl/jsontree/internal/formatter"
)

// Render lays out dot with neato, keeping the pinned node positions, and
// returns the image bytes in the requested format.
func Render(ctx context.Context, dot string, format formatter.Format) ([]byte, error) {
	var gvFormat graphviz.Format
	switch format {
	case formatter.FormatSVG:
		gvFormat = graphviz.SVG
	case formatter.FormatPNG:
		gvFormat = graphviz.PNG
	default:
		return nil, errors.NewRenderError(fmt.Sprintf("cannot render %q", format), errors.ErrUnknownFormat)
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.NewRenderError("init graphviz", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.NewRenderError("parse DOT", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, gvFormat, &buf); err != nil {
		return nil, errors.NewRenderError("render", err)
	}
	return buf.Bytes(), nil
}
