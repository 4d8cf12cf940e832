package registry

import (
	"fmt"

	"github.com/tmatup/olliebot/core"
)

// DelegationConfig controls who may spawn a given specialist type.
type DelegationConfig struct {
	// Enabled gates spawning entirely when false.
	Enabled bool
	// AllowedParentRoles lists parent roles permitted to spawn this type.
	// "*" permits any role.
	AllowedParentRoles []string
}

func defaultDelegationConfig() DelegationConfig {
	return DelegationConfig{
		Enabled:            true,
		AllowedParentRoles: []string{"*"},
	}
}

// RegisterTemplate installs or replaces a specialist template along with its
// base system prompt and delegation config.
func (r *Registry) RegisterTemplate(tpl core.SpecialistTemplate, prompt string, cfg DelegationConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[tpl.Type] = tpl.Clone()
	r.prompts[tpl.Type] = prompt
	r.configs[tpl.Type] = cfg
}

// Template returns a copy of the template registered for the specialist type.
func (r *Registry) Template(specialistType string) (core.SpecialistTemplate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tpl, ok := r.templates[specialistType]
	if !ok {
		return core.SpecialistTemplate{}, false
	}
	return tpl.Clone(), true
}

// TemplateTypes returns the registered specialist type tags.
func (r *Registry) TemplateTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.templates))
	for t := range r.templates {
		types = append(types, t)
	}
	return types
}

// PromptFor returns the base system prompt registered for the specialist
// type, or the empty string for unknown types.
func (r *Registry) PromptFor(specialistType string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.prompts[specialistType]
}

// CanDelegate reports whether an agent of fromRole may spawn the named
// specialist type within the workflow. If a PolicyFunc override is set it
// decides alone; otherwise the per-template DelegationConfig applies.
// Unknown specialist types fall through to the default config so custom
// one-off specialists remain spawnable.
func (r *Registry) CanDelegate(fromRole, specialistType, workflowID string) error {
	r.mu.RLock()
	policy := r.policy
	cfg, ok := r.configs[specialistType]
	r.mu.RUnlock()

	if policy != nil {
		return policy(fromRole, specialistType, workflowID)
	}

	if !ok {
		cfg = defaultDelegationConfig()
	}
	if !cfg.Enabled {
		return fmt.Errorf("delegation to %q is disabled", specialistType)
	}
	for _, role := range cfg.AllowedParentRoles {
		if role == "*" || role == fromRole {
			return nil
		}
	}
	return fmt.Errorf("role %q may not delegate to %q", fromRole, specialistType)
}

func registerBuiltinTemplates(r *Registry) {
	for _, b := range builtinSpecialists {
		r.RegisterTemplate(b.template, b.prompt, defaultDelegationConfig())
	}
}

type builtinSpecialist struct {
	template core.SpecialistTemplate
	prompt   string
}

var builtinSpecialists = []builtinSpecialist{
	{
		template: core.SpecialistTemplate{
			Type: "researcher",
			Identity: core.Identity{
				Name:        "Researcher",
				Emoji:       "🔎",
				Role:        "researcher",
				Description: "Gathers and verifies information from available sources.",
			},
			ToolAccessPatterns: []string{"native__search", "native__fetch", "retrieval__*", "!native__delegate"},
		},
		prompt: "You are a research specialist. Gather information relevant to the " +
			"assigned task, cross-check sources where possible, and report findings " +
			"with citations. Do not speculate beyond what the sources support.",
	},
	{
		template: core.SpecialistTemplate{
			Type: "coder",
			Identity: core.Identity{
				Name:        "Coder",
				Emoji:       "💻",
				Role:        "coder",
				Description: "Writes and reviews code for the assigned task.",
			},
			ToolAccessPatterns: []string{"native__code_*", "native__fetch", "!native__delegate"},
		},
		prompt: "You are a coding specialist. Produce working, readable code for the " +
			"assigned task. Explain non-obvious decisions briefly and point out any " +
			"assumptions you had to make.",
	},
	{
		template: core.SpecialistTemplate{
			Type: "writer",
			Identity: core.Identity{
				Name:        "Writer",
				Emoji:       "✍️",
				Role:        "writer",
				Description: "Drafts and edits prose from supplied material.",
			},
			ToolAccessPatterns: []string{"native__fetch", "!native__delegate"},
		},
		prompt: "You are a writing specialist. Turn the supplied material into clear, " +
			"well-structured prose in the requested tone. Preserve factual content " +
			"exactly; do not invent details.",
	},
	{
		template: core.SpecialistTemplate{
			Type: "planner",
			Identity: core.Identity{
				Name:        "Planner",
				Emoji:       "🗺️",
				Role:        "planner",
				Description: "Breaks work into ordered, actionable steps.",
			},
			ToolAccessPatterns: []string{"retrieval__*", "!native__delegate"},
		},
		prompt: "You are a planning specialist. Decompose the assigned task into a " +
			"short ordered list of concrete steps with clear completion criteria. " +
			"Flag dependencies between steps.",
	},
}
