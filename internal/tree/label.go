package tree

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mcncl/jsontree/internal/models"
)

// rootKey is the synthetic key shown in the root node's label.
const rootKey = "root"

// label summarises a value for display: "key {n}" for objects, "key [n]" for
// arrays and "key: value" for primitives.
func label(key string, v models.Value) string {
	switch models.KindOf(v) {
	case models.KindObject:
		return fmt.Sprintf("%s {%d}", key, v.Len())
	case models.KindArray:
		return fmt.Sprintf("%s [%d]", key, v.Len())
	default:
		return fmt.Sprintf("%s: %s", key, FormatValue(v))
	}
}

// FormatValue renders a primitive the way it appears in a node label.
// Strings are quoted without escaping, null and undefined render as words.
func FormatValue(v models.Value) string {
	switch v.Kind {
	case models.NullValue:
		return "null"
	case models.UndefinedValue:
		return "undefined"
	case models.StringValue:
		return `"` + v.String + `"`
	case models.BoolValue:
		return strconv.FormatBool(v.Bool)
	case models.NumberValue:
		return formatNumber(string(v.Number))
	case models.ObjectValue:
		return "[object Object]"
	default:
		parts := make([]string, len(v.Items))
		for i, item := range v.Items {
			parts[i] = FormatValue(item)
		}
		return strings.Join(parts, ",")
	}
}

// formatNumber keeps integer literals below 1e21 verbatim so large
// identifiers are not rounded, and prints everything else in its shortest
// round-trip form (1200.50 becomes 1200.5, 1e3 becomes 1000, -0 becomes 0).
func formatNumber(literal string) string {
	if literal == "" {
		return "0"
	}
	if !strings.ContainsAny(literal, ".eE") {
		digits := strings.TrimPrefix(literal, "-")
		if digits == "0" {
			return "0"
		}
		if len(digits) <= 21 {
			return literal
		}
	}

	f, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return literal
	}
	if f == 0 {
		return "0"
	}

	abs := math.Abs(f)
	if abs >= 1e-7 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	s := strconv.FormatFloat(f, 'g', -1, 64)
	// Go pads exponents to two digits ("1e-08"); drop the padding.
	if i := strings.IndexAny(s, "e"); i >= 0 {
		mantissa, exp := s[:i], s[i+1:]
		sign := exp[:1]
		digits := strings.TrimLeft(exp[1:], "0")
		s = mantissa + "e" + sign + digits
	}
	return s
}
