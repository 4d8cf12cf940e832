package agent

import (
	"sync"
	"time"

	"github.com/tmatup/olliebot/core"
)

// CitationSet aggregates citation sources for the duration of one top-level
// task. Sources from direct tool calls are appended as-is; sources carried by
// a sub-agent's task_result are absorbed with a synthesized request id, since
// the parent never issued those tool requests itself. The set never
// deduplicates: repeated sources from independent calls or sibling sub-agents
// are legitimate distinct-context citations.
type CitationSet struct {
	mu      sync.Mutex
	sources []core.CitationSource
}

// NewCitationSet creates an empty aggregate.
func NewCitationSet() *CitationSet {
	return &CitationSet{}
}

// Add appends citation sources from direct tool execution.
func (s *CitationSet) Add(sources ...core.CitationSource) {
	if len(sources) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources = append(s.sources, sources...)
}

// AbsorbSubagent converts a completed sub-agent's citations into this set's
// shape: original fields preserved, request id rewritten to
// "subagent-<original id>".
func (s *CitationSet) AbsorbSubagent(sources []core.CitationSource) {
	if len(sources) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range sources {
		c.ToolRequestID = "subagent-" + c.ID
		if c.Timestamp.IsZero() {
			c.Timestamp = time.Now().UTC()
		}
		s.sources = append(s.sources, c)
	}
}

// List returns a copy of the accumulated sources in insertion order.
func (s *CitationSet) List() []core.CitationSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.CitationSource(nil), s.sources...)
}

// Count returns the number of accumulated sources.
func (s *CitationSet) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sources)
}
