// Package tree turns a JSON value into a positioned tree of nodes and edges.
//
// Build walks the value depth-first in pre-order, creating one node per value
// (the root, every object member and every array element) and one edge per
// parent/child pair. Each node carries a JSON path from the document root
// ("$", "$.user.name", "$.items[0].id"). A tidy layout then assigns every node
// an (x, y) position: the root sits at the origin and each level is placed one
// vertical spacing below its parent.
//
// Build never fails and keeps no state between calls, so it is safe to call
// concurrently.
package tree

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/mcncl/jsontree/internal/models"
)

// Builder builds trees with a fixed layout configuration.
type Builder struct {
	layout LayoutConfig
}

// NewBuilder returns a Builder that lays trees out with cfg.
func NewBuilder(cfg LayoutConfig) *Builder {
	return &Builder{layout: cfg}
}

// Build builds a tree with the default layout.
func Build(v models.Value) models.Tree {
	return NewBuilder(DefaultLayout()).Build(v)
}

// frame is a pending value on the traversal stack.
type frame struct {
	value  models.Value
	key    string
	path   string
	parent int // arena index of the parent, -1 for the root
}

// Build converts v into a tree. The result always contains at least the root
// node, whose JSONPath is "$".
func (b *Builder) Build(v models.Value) models.Tree {
	nodes := make([]models.TreeNode, 0, 1)
	edges := make([]models.TreeEdge, 0)
	arena := make([]layoutNode, 0, 1)

	// Children are pushed in reverse so they pop in document order, which
	// keeps ids in pre-order.
	stack := []frame{{value: v, key: rootKey, path: "$", parent: -1}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		idx := len(nodes)
		id := "node-" + strconv.Itoa(idx)
		nodes = append(nodes, models.TreeNode{
			ID:       id,
			Kind:     models.KindOf(f.value),
			Label:    label(f.key, f.value),
			JSONPath: f.path,
			Value:    f.value,
		})
		arena = append(arena, layoutNode{})

		if f.parent >= 0 {
			parentID := nodes[f.parent].ID
			edges = append(edges, models.TreeEdge{
				ID:       "edge-" + parentID + "-" + id,
				SourceID: parentID,
				TargetID: id,
			})
			arena[f.parent].children = append(arena[f.parent].children, idx)
		}

		switch f.value.Kind {
		case models.ObjectValue:
			for i := len(f.value.Members) - 1; i >= 0; i-- {
				m := f.value.Members[i]
				stack = append(stack, frame{
					value:  m.Value,
					key:    m.Key,
					path:   memberPath(f.path, m.Key),
					parent: idx,
				})
			}
		case models.ArrayValue:
			for i := len(f.value.Items) - 1; i >= 0; i-- {
				stack = append(stack, frame{
					value:  f.value.Items[i],
					key:    strconv.Itoa(i),
					path:   f.path + "[" + strconv.Itoa(i) + "]",
					parent: idx,
				})
			}
		}
	}

	b.layout.apply(arena, nodes)

	return models.Tree{
		BuildID: uuid.NewString(),
		Nodes:   nodes,
		Edges:   edges,
	}
}

func memberPath(parent, key string) string {
	if parent == "$" {
		return "$." + key
	}
	return parent + "." + key
}
