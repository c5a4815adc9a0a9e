package formatter

import (
	"fmt"
	"strings"

	"github.com/mcncl/jsontree/internal/errors"
)

// Format names an output representation of a tree.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
	FormatDOT  Format = "dot"
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
)

// Formats lists every supported format.
var Formats = []Format{FormatJSON, FormatText, FormatDOT, FormatSVG, FormatPNG}

// ParseFormat accepts a format name in any case.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", errors.NewOutputError(fmt.Sprintf("unknown format %q", s), errors.ErrUnknownFormat)
}

// IsImage reports whether the format needs Graphviz to produce.
func (f Format) IsImage() bool {
	return f == FormatSVG || f == FormatPNG
}
