package core

import "time"

// CitationSource is a structured provenance record attributing part of a
// response to a tool's output. Sources are produced by the tool runtime per
// tool call, or synthesized when absorbed from a completed sub-agent's own
// citation list. They accumulate for the duration of one top-level task and
// are flushed into the final result.
type CitationSource struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	ToolName      string    `json:"tool_name"`
	ToolRequestID string    `json:"tool_request_id"`
	URI           string    `json:"uri,omitempty"`
	Title         string    `json:"title,omitempty"`
	Domain        string    `json:"domain,omitempty"`
	Snippet       string    `json:"snippet,omitempty"`
	FullContent   string    `json:"full_content,omitempty"`
	PageNumber    int       `json:"page_number,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}
