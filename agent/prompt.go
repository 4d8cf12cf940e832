package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tmatup/olliebot/internal/util"
	"github.com/tmatup/olliebot/tool"
)

const (
	// retrievalCacheTTL bounds how long a fetched retrieval block is reused.
	retrievalCacheTTL = 60 * time.Second

	// RetrievalQueryToolName is the tool whose presence in the filtered list
	// gates retrieval content in the prompt.
	RetrievalQueryToolName = "retrieval__query"

	toolDescriptionLimit = 120
)

// retrievalCache holds the last fetched retrieval block. A failed tool-access
// check clears it entirely; the block is recomputed even if the check passes
// again within the TTL.
type retrievalCache struct {
	mu        sync.Mutex
	block     string
	fetchedAt time.Time
	valid     bool
}

func (c *retrievalCache) get(now time.Time) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid || now.Sub(c.fetchedAt) >= retrievalCacheTTL {
		return "", false
	}
	return c.block, true
}

func (c *retrievalCache) put(block string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.block = block
	c.fetchedAt = now
	c.valid = true
}

func (c *retrievalCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.block = ""
	c.valid = false
}

// composeSystemPrompt assembles the instruction text for one Generate call.
// Sections, in order: base prompt, mission, additional context, memory,
// tool availability summary, skills, retrieval knowledge.
func (a *Agent) composeSystemPrompt(ctx context.Context, additionalContext string, defs []tool.Definition) (string, error) {
	sections := make([]string, 0, 7)

	if base := strings.TrimSpace(a.cfg.SystemPrompt); base != "" {
		// Base prompts may reference identity fields, e.g. "You are {{.Name}}".
		rendered, err := util.RenderTemplate(base, map[string]any{
			"Name":    a.cfg.Identity.Name,
			"Role":    a.cfg.Identity.Role,
			"Emoji":   a.cfg.Identity.Emoji,
			"Mission": a.cfg.Mission,
		})
		if err != nil {
			return "", fmt.Errorf("render system prompt: %w", err)
		}
		sections = append(sections, rendered)
	}
	if a.cfg.Mission != "" {
		sections = append(sections, "Your current mission: "+a.cfg.Mission)
	}
	if additionalContext != "" {
		sections = append(sections, additionalContext)
	}

	if a.memory != nil {
		block, err := a.memory.FormatContext(ctx, a.ID())
		if err != nil {
			return "", fmt.Errorf("format memory context: %w", err)
		}
		if block != "" {
			sections = append(sections, "## Memory\n"+block)
		}
	}

	if summary := toolSummary(defs); summary != "" {
		sections = append(sections, summary)
	}

	if a.skills != nil {
		block, err := a.skills.FormatSkills(ctx, a.ID())
		if err != nil {
			return "", fmt.Errorf("format skills: %w", err)
		}
		if block != "" {
			sections = append(sections, "## Skills\n"+block)
		}
	}

	if a.retrieval != nil {
		block, err := a.retrievalBlock(ctx, defs)
		if err != nil {
			return "", fmt.Errorf("format retrieval knowledge: %w", err)
		}
		if block != "" {
			sections = append(sections, "## Knowledge\n"+block)
		}
	}

	return strings.Join(sections, "\n\n"), nil
}

// retrievalBlock returns the cached or freshly fetched retrieval knowledge
// block. The access check runs before the cache is consulted; a failed check
// clears the cache so stale content cannot leak to an agent that later
// regains query access within the TTL.
func (a *Agent) retrievalBlock(ctx context.Context, defs []tool.Definition) (string, error) {
	if !hasTool(defs, RetrievalQueryToolName) {
		a.retrievalCache.clear()
		return "", nil
	}

	now := time.Now()
	if block, ok := a.retrievalCache.get(now); ok {
		return block, nil
	}

	block, err := a.retrieval.FormatKnowledge(ctx, a.ID())
	if err != nil {
		return "", err
	}
	a.retrievalCache.put(block, now)
	return block, nil
}

func hasTool(defs []tool.Definition, name string) bool {
	for _, d := range defs {
		if d.Name == name {
			return true
		}
	}
	return false
}

// toolSummary renders the filtered tool list grouped by category with
// truncated descriptions. Empty list yields no section.
func toolSummary(defs []tool.Definition) string {
	if len(defs) == 0 {
		return ""
	}

	byCategory := make(map[string][]tool.Definition)
	for _, d := range defs {
		cat := d.Category()
		byCategory[cat] = append(byCategory[cat], d)
	}
	categories := make([]string, 0, len(byCategory))
	for cat := range byCategory {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	var sb strings.Builder
	sb.WriteString("## Available tools\n")
	for _, cat := range categories {
		fmt.Fprintf(&sb, "\n%s:\n", cat)
		for _, d := range byCategory[cat] {
			fmt.Fprintf(&sb, "- %s: %s\n", d.Name, util.Truncate(d.Description, toolDescriptionLimit))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
