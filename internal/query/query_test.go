package query

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theory/jsonpath/spec"

	"github.com/mcncl/jsontree/internal/errors"
	"github.com/mcncl/jsontree/internal/models"
	"github.com/mcncl/jsontree/internal/parser"
	"github.com/mcncl/jsontree/internal/tree"
)

const sample = `{
	"user": {"name": "John Doe", "address": {"city": "San Francisco"}},
	"items": [
		{"id": 101, "name": "Laptop", "price": 1299.99},
		{"id": 102, "name": "Mouse", "price": 29.99},
		{"id": 103, "name": "Keyboard", "price": 89.99}
	]
}`

func build(t *testing.T) (models.Tree, models.Value) {
	t.Helper()
	doc, err := parser.ParseString(sample)
	require.NoError(t, err)
	return tree.Build(doc), doc
}

func jsonPaths(nodes []models.TreeNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.JSONPath
	}
	return out
}

func TestSelect(t *testing.T) {
	tr, doc := build(t)

	tests := []struct {
		name     string
		expr     string
		expected []string
	}{
		{"single member", "$.user.name", []string{"$.user.name"}},
		{"array index", "$.items[1].name", []string{"$.items[1].name"}},
		{"wildcard", "$.items[*].id", []string{"$.items[0].id", "$.items[1].id", "$.items[2].id"}},
		{"descendant", "$..city", []string{"$.user.address.city"}},
		{"filter", "$.items[?@.price < 100].name", []string{"$.items[1].name", "$.items[2].name"}},
		{"root", "$", []string{"$"}},
		{"no results", "$.missing", []string{}},
		{"duplicates collapse", "$.items[0,0]", []string{"$.items[0]"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes, err := Select(tr, doc, tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, jsonPaths(nodes))
		})
	}
}

func TestSelect_ResultsInTreeOrder(t *testing.T) {
	tr, doc := build(t)

	nodes, err := Select(tr, doc, "$.*")
	require.NoError(t, err)
	assert.Equal(t, []string{"$.user", "$.items"}, jsonPaths(nodes))
}

func TestSelect_InvalidExpression(t *testing.T) {
	tr, doc := build(t)

	_, err := Select(tr, doc, "$.items[")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &errors.AppError{Type: errors.ErrorTypeQuery}))

	_, err = Select(tr, doc, "   ")
	require.Error(t, err)
}

func TestTreePath(t *testing.T) {
	np := spec.NormalizedPath{spec.Name("items"), spec.Index(0), spec.Name("id")}
	assert.Equal(t, "$.items[0].id", TreePath(np))
	assert.Equal(t, "$", TreePath(spec.NormalizedPath{}))
}
