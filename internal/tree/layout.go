package tree

import (
	"github.com/mcncl/jsontree/internal/errors"
	"github.com/mcncl/jsontree/internal/models"
)

// LayoutConfig holds the layout constants, in the same units as the
// resulting positions.
type LayoutConfig struct {
	NodeWidth         float64 `yaml:"node_width" toml:"node_width" json:"nodeWidth"`
	NodeHeight        float64 `yaml:"node_height" toml:"node_height" json:"nodeHeight"`
	HorizontalSpacing float64 `yaml:"horizontal_spacing" toml:"horizontal_spacing" json:"horizontalSpacing"`
	VerticalSpacing   float64 `yaml:"vertical_spacing" toml:"vertical_spacing" json:"verticalSpacing"`
}

// DefaultLayout returns the reference constants: 200x60 nodes with 100 units
// of spacing in both directions.
func DefaultLayout() LayoutConfig {
	return LayoutConfig{
		NodeWidth:         200,
		NodeHeight:        60,
		HorizontalSpacing: 100,
		VerticalSpacing:   100,
	}
}

// Validate rejects non-positive node sizes and negative spacing.
func (c LayoutConfig) Validate() error {
	if c.NodeWidth <= 0 || c.NodeHeight <= 0 || c.HorizontalSpacing < 0 || c.VerticalSpacing < 0 {
		return errors.NewConfigError("invalid layout constants", errors.ErrInvalidLayout)
	}
	return nil
}

// layoutNode mirrors one tree node; children are arena indexes.
type layoutNode struct {
	children []int
	width    float64 // subtree width
	x        float64 // x handed down by the parent
}

// apply positions every node. The arena is in pre-order, so every child
// index is greater than its parent's: a reverse sweep sees children first and
// a forward sweep sees parents first.
func (c LayoutConfig) apply(arena []layoutNode, nodes []models.TreeNode) {
	for i := len(arena) - 1; i >= 0; i-- {
		arena[i].width = c.subtreeWidth(arena, i)
	}

	depth := make([]int, len(arena))
	for i := range arena {
		n := &arena[i]
		if len(n.children) == 0 {
			continue
		}
		next := n.x - n.width/2 + arena[n.children[0]].width/2
		for _, child := range n.children {
			arena[child].x = next
			depth[child] = depth[i] + 1
			next += arena[child].width + c.HorizontalSpacing
		}
	}

	// A parent sits midway between its first and last child, not over the
	// mean of all children. Leaves keep the x they were handed.
	for i := len(arena) - 1; i >= 0; i-- {
		n := arena[i]
		x := n.x
		if len(n.children) > 0 {
			first := nodes[n.children[0]].Position.X
			last := nodes[n.children[len(n.children)-1]].Position.X
			x = (first + last) / 2
		}
		nodes[i].Position = models.Position{
			X: x,
			Y: float64(depth[i]) * c.VerticalSpacing,
		}
	}
}

// subtreeWidth is the node width for a leaf, otherwise the children's widths
// plus the gaps between them, never less than one node width.
func (c LayoutConfig) subtreeWidth(arena []layoutNode, i int) float64 {
	n := arena[i]
	if len(n.children) == 0 {
		return c.NodeWidth
	}
	total := float64(len(n.children)-1) * c.HorizontalSpacing
	for _, child := range n.children {
		total += arena[child].width
	}
	if total < c.NodeWidth {
		return c.NodeWidth
	}
	return total
}
