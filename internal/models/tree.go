package models

// NodeKind classifies the JSON value behind a tree node.
type NodeKind string

const (
	KindObject    NodeKind = "object"
	KindArray     NodeKind = "array"
	KindPrimitive NodeKind = "primitive"
)

// KindOf classifies a value. Null and undefined are primitives; empty
// containers keep their container kind.
func KindOf(v Value) NodeKind {
	switch v.Kind {
	case ObjectValue:
		return KindObject
	case ArrayValue:
		return KindArray
	default:
		return KindPrimitive
	}
}

// Position is a 2D coordinate assigned by layout.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TreeNode is one JSON value placed in the tree.
type TreeNode struct {
	ID          string   `json:"id"`
	Kind        NodeKind `json:"kind"`
	Label       string   `json:"label"`
	JSONPath    string   `json:"jsonPath"`
	Value       Value    `json:"value"`
	Highlighted bool     `json:"highlighted"`
	Position    Position `json:"position"`
}

// TreeEdge connects a parent node to one of its children.
type TreeEdge struct {
	ID       string `json:"id"`
	SourceID string `json:"source"`
	TargetID string `json:"target"`
}

// Tree is the result of one build. Nodes are in pre-order, so Nodes[0] is
// always the root.
type Tree struct {
	BuildID string     `json:"buildId"`
	Nodes   []TreeNode `json:"nodes"`
	Edges   []TreeEdge `json:"edges"`
}

// Root returns the root node of the tree.
func (t Tree) Root() TreeNode {
	return t.Nodes[0]
}

// NodeByID returns the node with the given id.
func (t Tree) NodeByID(id string) (TreeNode, bool) {
	for _, n := range t.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return TreeNode{}, false
}

// NodeByPath returns the node whose JSONPath equals path exactly.
func (t Tree) NodeByPath(path string) (TreeNode, bool) {
	for _, n := range t.Nodes {
		if n.JSONPath == path {
			return n, true
		}
	}
	return TreeNode{}, false
}

// Depths returns the depth of every node, aligned with Nodes. Edges always
// point from an earlier node to a later one, so one pass suffices.
func (t Tree) Depths() []int {
	index := make(map[string]int, len(t.Nodes))
	for i, n := range t.Nodes {
		index[n.ID] = i
	}
	depth := make([]int, len(t.Nodes))
	for _, e := range t.Edges {
		src, ok := index[e.SourceID]
		if !ok {
			continue
		}
		if dst, ok := index[e.TargetID]; ok {
			depth[dst] = depth[src] + 1
		}
	}
	return depth
}
