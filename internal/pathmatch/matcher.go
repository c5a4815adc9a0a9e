package pathmatch

import (
	"strings"

	"github.com/mcncl/jsontree/internal/models"
)

// Tier identifies which rule produced a match.
type Tier int

const (
	// TierNone means no rule matched.
	TierNone Tier = iota
	// TierExact: the normalized node path equals the normalized query.
	TierExact
	// TierContainment: either normalized path ends with the other.
	TierContainment
	// TierSubstring: the lower-cased node path contains the lower-cased query.
	TierSubstring
)

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierContainment:
		return "containment"
	case TierSubstring:
		return "substring"
	default:
		return "none"
	}
}

// Matcher searches a fixed node collection. Node paths are normalized once,
// so repeated searches (for example on every keystroke) do not renormalize.
type Matcher struct {
	nodes []models.TreeNode
	paths []string
	lower []string
}

// NewMatcher prepares nodes for searching. The slice is not copied or
// modified; callers must not change node paths while the Matcher is in use.
func NewMatcher(nodes []models.TreeNode) *Matcher {
	m := &Matcher{
		nodes: nodes,
		paths: make([]string, len(nodes)),
		lower: make([]string, len(nodes)),
	}
	for i, n := range nodes {
		m.paths[i] = Normalize(n.JSONPath)
		m.lower[i] = strings.ToLower(m.paths[i])
	}
	return m
}

// Find returns the first node, in collection order, matched by the strongest
// rule that matches any node at all.
func (m *Matcher) Find(query string) (models.TreeNode, bool) {
	n, tier := m.FindTier(query)
	return n, tier != TierNone
}

// FindTier is Find that also reports which rule matched.
func (m *Matcher) FindTier(query string) (models.TreeNode, Tier) {
	q := Normalize(query)

	for i, p := range m.paths {
		if p == q {
			return m.nodes[i], TierExact
		}
	}

	for i, p := range m.paths {
		if strings.HasSuffix(p, q) || strings.HasSuffix(q, p) {
			return m.nodes[i], TierContainment
		}
	}

	lq := strings.ToLower(q)
	for i, p := range m.lower {
		if strings.Contains(p, lq) {
			return m.nodes[i], TierSubstring
		}
	}

	return models.TreeNode{}, TierNone
}

// Find searches nodes for query. See Matcher.Find.
func Find(nodes []models.TreeNode, query string) (models.TreeNode, bool) {
	return NewMatcher(nodes).Find(query)
}

// FindTier searches nodes for query and reports the matching rule.
func FindTier(nodes []models.TreeNode, query string) (models.TreeNode, Tier) {
	return NewMatcher(nodes).FindTier(query)
}
