// Package pathmatch locates tree nodes from loosely typed JSON path queries.
//
// Paths are compared in a canonical form produced by Normalize, so "user.name",
// "$.user.name" and "  $..user.name " all mean the same thing. Find then tries
// three rules in order (exact, suffix/prefix containment, case-insensitive
// substring) and returns the first node matched by the strongest rule.
package pathmatch

import "strings"

// Normalize canonicalises a path: it trims surrounding whitespace, roots the
// path at "$." when it does not start with "$", collapses runs of dots and
// drops a dot that directly precedes "[". Bracketed indexes are left as is.
//
// Normalize is total and idempotent. The empty string normalizes to "$.".
func Normalize(path string) string {
	normalized := strings.TrimSpace(path)
	if !strings.HasPrefix(normalized, "$") {
		normalized = "$." + normalized
	}

	var b strings.Builder
	b.Grow(len(normalized))
	for i := 0; i < len(normalized); i++ {
		c := normalized[i]
		if c == '.' {
			j := i
			for j+1 < len(normalized) && normalized[j+1] == '.' {
				j++
			}
			i = j
			if j+1 < len(normalized) && normalized[j+1] == '[' {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}
