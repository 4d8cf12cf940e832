package tool

import "strings"

// Capability pattern matching. A pattern list is an ordered mix of inclusion
// and exclusion rules:
//
//	"*"            every tool
//	"native__*"    trailing-wildcard prefix match
//	"native__web"  exact name match
//	"web"          substring match
//	"!<pattern>"   exclusion, same matching rules as above
//
// A tool is eligible iff it matches at least one inclusion AND matches no
// exclusion; exclusions always win. An empty pattern list yields zero tools:
// absence of a restriction is not unrestricted access.

// Allowed reports whether the named tool passes the pattern list.
func Allowed(name string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}

	included := false
	for _, p := range patterns {
		if excl, ok := strings.CutPrefix(p, "!"); ok {
			if matchPattern(name, excl) {
				return false
			}
			continue
		}
		if !included && matchPattern(name, p) {
			included = true
		}
	}
	return included
}

// FilterDefinitions returns the subset of defs the agent may offer to the
// model this turn. The result must be recomputed per call, not cached: the
// underlying executor's tool set can grow at runtime.
func FilterDefinitions(defs []Definition, patterns []string) []Definition {
	if len(patterns) == 0 {
		return []Definition{}
	}
	out := make([]Definition, 0, len(defs))
	for _, d := range defs {
		if Allowed(d.Name, patterns) {
			out = append(out, d)
		}
	}
	return out
}

func matchPattern(name, pattern string) bool {
	switch {
	case pattern == "*":
		return true
	case strings.HasSuffix(pattern, "*"):
		return strings.HasPrefix(name, strings.TrimSuffix(pattern, "*"))
	case name == pattern:
		return true
	default:
		return pattern != "" && strings.Contains(name, pattern)
	}
}

// splitCategory splits "native__search" into ("native", "search", true).
func splitCategory(name string) (category, rest string, ok bool) {
	idx := strings.Index(name, "__")
	if idx <= 0 {
		return "", name, false
	}
	return name[:idx], name[idx+2:], true
}
