package analyzer

import (
	"math"

	"github.com/mcncl/jsontree/internal/models"
	"github.com/mcncl/jsontree/internal/tree"
)

// Bounds is the rectangle covering every node box of a laid out tree.
type Bounds struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

// Width returns the horizontal extent of the bounds.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns the vertical extent of the bounds.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Stats summarises a built tree.
type Stats struct {
	Nodes      int                      `json:"nodes"`
	Edges      int                      `json:"edges"`
	Leaves     int                      `json:"leaves"`
	MaxDepth   int                      `json:"maxDepth"`
	MaxFanOut  int                      `json:"maxFanOut"`
	ByKind     map[models.NodeKind]int  `json:"byKind"`
	ByType     map[models.ValueKind]int `json:"-"`
	WidestRow  int                      `json:"widestRow"`
	Bounds     Bounds                   `json:"bounds"`
	Positioned bool                     `json:"positioned"`
}

// Analyzer computes Stats for trees laid out with a given configuration.
type Analyzer struct {
	layout tree.LayoutConfig
}

// NewAnalyzer creates an Analyzer for trees built with the default layout.
func NewAnalyzer() *Analyzer {
	return &Analyzer{layout: tree.DefaultLayout()}
}

// NewAnalyzerWithLayout creates an Analyzer for trees built with cfg. The
// node size is needed to turn node centres into bounds.
func NewAnalyzerWithLayout(cfg tree.LayoutConfig) *Analyzer {
	return &Analyzer{layout: cfg}
}

// Analyze walks the tree once. Nodes are in pre-order and every edge points
// from an earlier node to a later one, so depth and fan-out can be filled in
// a single pass over the edges.
func (a *Analyzer) Analyze(t models.Tree) Stats {
	stats := Stats{
		Nodes:  len(t.Nodes),
		Edges:  len(t.Edges),
		ByKind: make(map[models.NodeKind]int),
		ByType: make(map[models.ValueKind]int),
	}
	if len(t.Nodes) == 0 {
		return stats
	}

	index := make(map[string]int, len(t.Nodes))
	for i, n := range t.Nodes {
		index[n.ID] = i
		stats.ByKind[n.Kind]++
		stats.ByType[n.Value.Kind]++
	}

	depth := make([]int, len(t.Nodes))
	fanOut := make([]int, len(t.Nodes))
	for _, e := range t.Edges {
		src, ok := index[e.SourceID]
		if !ok {
			continue
		}
		dst, ok := index[e.TargetID]
		if !ok {
			continue
		}
		depth[dst] = depth[src] + 1
		fanOut[src]++
	}

	rows := make(map[int]int)
	for i := range t.Nodes {
		if fanOut[i] == 0 {
			stats.Leaves++
		}
		stats.MaxFanOut = max(stats.MaxFanOut, fanOut[i])
		stats.MaxDepth = max(stats.MaxDepth, depth[i])
		rows[depth[i]]++
	}
	for _, count := range rows {
		stats.WidestRow = max(stats.WidestRow, count)
	}

	stats.Bounds, stats.Positioned = a.bounds(t.Nodes)
	return stats
}

// bounds covers the node boxes. Positions are box centres. A tree whose
// nodes all sit at the origin has not been laid out unless it is a single
// node.
func (a *Analyzer) bounds(nodes []models.TreeNode) (Bounds, bool) {
	b := Bounds{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
	moved := false
	halfW, halfH := a.layout.NodeWidth/2, a.layout.NodeHeight/2
	for _, n := range nodes {
		p := n.Position
		if p.X != 0 || p.Y != 0 {
			moved = true
		}
		b.MinX = math.Min(b.MinX, p.X-halfW)
		b.MaxX = math.Max(b.MaxX, p.X+halfW)
		b.MinY = math.Min(b.MinY, p.Y-halfH)
		b.MaxY = math.Max(b.MaxY, p.Y+halfH)
	}
	return b, moved || len(nodes) == 1
}
