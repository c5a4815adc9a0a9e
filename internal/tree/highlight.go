package tree

import "github.com/mcncl/jsontree/internal/models"

// Highlight returns a copy of nodes in which only the node with the given id
// is highlighted. An empty id clears every highlight. The input slice is not
// modified.
func Highlight(nodes []models.TreeNode, id string) []models.TreeNode {
	out := make([]models.TreeNode, len(nodes))
	for i, n := range nodes {
		n.Highlighted = id != "" && n.ID == id
		out[i] = n
	}
	return out
}
