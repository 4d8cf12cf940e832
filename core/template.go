package core

// SpecialistTemplate is a named preset defining a sub-agent's starting
// identity and tool-access policy. Templates are looked up by type tag
// (researcher, coder, writer, planner, or an arbitrary custom tag) from the
// registry when a delegation spawns a sub-agent. The template identity's ID
// field is left empty; a fresh id is generated per spawn.
type SpecialistTemplate struct {
	Type               string   `json:"type"`
	Identity           Identity `json:"identity"`
	ToolAccessPatterns []string `json:"tool_access_patterns"`
}

// Clone returns a deep copy safe for per-spawn customization (name or emoji
// overrides) without mutating the registered template.
func (t SpecialistTemplate) Clone() SpecialistTemplate {
	out := t
	out.ToolAccessPatterns = append([]string(nil), t.ToolAccessPatterns...)
	return out
}
