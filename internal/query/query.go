// Package query evaluates RFC 9535 JSONPath expressions against a document
// and maps the selected values back onto the nodes of its tree.
package query

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/theory/jsonpath"
	"github.com/theory/jsonpath/spec"

	"github.com/mcncl/jsontree/internal/errors"
	"github.com/mcncl/jsontree/internal/models"
)

// Select runs expr against doc and returns the nodes of t (which must have
// been built from doc) whose values were selected. Nodes come back in tree
// order without duplicates.
func Select(t models.Tree, doc models.Value, expr string) ([]models.TreeNode, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, errors.NewQueryError("JSONPath expression is empty", nil)
	}

	path, err := jsonpath.Parse(expr)
	if err != nil {
		return nil, errors.NewQueryError(fmt.Sprintf("invalid JSONPath %s", expr), err)
	}

	index := make(map[string]int, len(t.Nodes))
	for i, n := range t.Nodes {
		if _, seen := index[n.JSONPath]; !seen {
			index[n.JSONPath] = i
		}
	}

	var hits []int
	for _, located := range path.SelectLocated(input(doc)) {
		i, ok := index[TreePath(located.Path)]
		if !ok {
			continue
		}
		hits = append(hits, i)
	}

	slices.Sort(hits)
	hits = slices.Compact(hits)

	out := make([]models.TreeNode, len(hits))
	for i, h := range hits {
		out[i] = t.Nodes[h]
	}
	return out, nil
}

// input converts doc for evaluation. Numbers become float64 so filter
// comparisons see plain numeric values.
func input(v models.Value) any {
	switch v.Kind {
	case models.NumberValue:
		if f, err := v.Number.Float64(); err == nil {
			return f
		}
		return string(v.Number)
	case models.ArrayValue:
		out := make([]any, len(v.Items))
		for i, item := range v.Items {
			out[i] = input(item)
		}
		return out
	case models.ObjectValue:
		out := make(map[string]any, len(v.Members))
		for _, m := range v.Members {
			out[m.Key] = input(m.Value)
		}
		return out
	default:
		return v.Interface()
	}
}

// TreePath converts a normalized JSONPath location such as $['items'][0]['id']
// into the dotted form used by tree nodes: $.items[0].id.
func TreePath(np spec.NormalizedPath) string {
	var b strings.Builder
	b.WriteString("$")
	for _, sel := range np {
		switch s := sel.(type) {
		case spec.Name:
			b.WriteString(".")
			b.WriteString(string(s))
		case spec.Index:
			b.WriteString("[")
			b.WriteString(strconv.Itoa(int(s)))
			b.WriteString("]")
		default:
			b.WriteString(fmt.Sprint(s))
		}
	}
	return b.String()
}
