package tool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func defsNamed(names ...string) []Definition {
	defs := make([]Definition, len(names))
	for i, n := range names {
		defs[i] = Definition{Name: n}
	}
	return defs
}

func filteredNames(defs []Definition, patterns []string) []string {
	out := []string{}
	for _, d := range FilterDefinitions(defs, patterns) {
		out = append(out, d.Name)
	}
	return out
}

func TestAllowed(t *testing.T) {
	tests := []struct {
		name     string
		tool     string
		patterns []string
		want     bool
	}{
		{"global wildcard", "native__search", []string{"*"}, true},
		{"prefix wildcard", "native__search", []string{"native__*"}, true},
		{"prefix wildcard miss", "mcp.x__y", []string{"native__*"}, false},
		{"exact", "native__search", []string{"native__search"}, true},
		{"substring", "native__web_search", []string{"search"}, true},
		{"exclusion wins over wildcard", "native__delegate", []string{"*", "!native__delegate"}, false},
		{"exclusion wins regardless of order", "native__delegate", []string{"!native__delegate", "*"}, false},
		{"excluded substring", "mcp.github__create_issue", []string{"*", "!github"}, false},
		{"empty list fails closed", "native__search", nil, false},
		{"only exclusions", "native__search", []string{"!mcp__*"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Allowed(tt.tool, tt.patterns))
		})
	}
}

func TestFilterDefinitions_ExclusionPrecedence(t *testing.T) {
	defs := defsNamed("native__search", "native__delegate", "mcp.x__y")

	got := filteredNames(defs, []string{"native__*", "!native__delegate"})

	assert.Equal(t, []string{"native__search"}, got)
}

func TestFilterDefinitions_EmptyPatternsYieldNoTools(t *testing.T) {
	defs := defsNamed("native__search", "mcp.x__y")

	assert.Empty(t, FilterDefinitions(defs, nil))
	assert.Empty(t, FilterDefinitions(defs, []string{}))
}

func TestFilterDefinitions_MatchingBothInclusionAndExclusion(t *testing.T) {
	// A tool matching an inclusion AND an exclusion is never returned.
	defs := defsNamed("native__fetch")

	assert.Empty(t, filteredNames(defs, []string{"native__fetch", "!fetch"}))
}

func TestDefinitionCategory(t *testing.T) {
	assert.Equal(t, "native", Definition{Name: "native__search"}.Category())
	assert.Equal(t, "mcp.github", Definition{Name: "mcp.github__create_issue"}.Category())
	assert.Equal(t, "general", Definition{Name: "search"}.Category())
}
