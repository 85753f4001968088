// Package profile loads and validates agent profiles: the expert personas
// that steer knowledge extraction and dataset generation. Profiles are
// plain YAML configuration, loaded once and immutable afterwards.
package profile

import (
	"fmt"
	"strings"
)

// Role describes the persona an agent embodies.
type Role struct {
	Title              string   `yaml:"title" json:"title"`
	Description        string   `yaml:"description" json:"description"`
	Responsibilities   []string `yaml:"responsibilities" json:"responsibilities,omitempty"`
	IdentityPrompt     string   `yaml:"identity_prompt" json:"identity_prompt"`
	CommunicationStyle string   `yaml:"communication_style" json:"communication_style"`
	DecisionAuthority  []string `yaml:"decision_authority" json:"decision_authority,omitempty"`
	DomainExpertise    []string `yaml:"domain_expertise" json:"domain_expertise,omitempty"`
}

// IdentityContext renders the role identity block used in prompts.
func (r *Role) IdentityContext() string {
	return fmt.Sprintf(`Role: %s
Description: %s
Identity: %s
Communication Style: %s
Expertise: %s`,
		r.Title, r.Description, r.IdentityPrompt, r.CommunicationStyle,
		strings.Join(r.DomainExpertise, ", "))
}

// AgentProfile is an expert persona plus the filters that select its
// knowledge. Immutable once loaded.
type AgentProfile struct {
	Name             string              `yaml:"name" json:"name"`
	Role             Role                `yaml:"role" json:"role"`
	Technologies     []string            `yaml:"technologies" json:"technologies"`
	KnowledgeSources map[string][]string `yaml:"knowledge_sources" json:"knowledge_sources,omitempty"`
	FocusAreas       []string            `yaml:"focus_areas" json:"focus_areas"`
	FilePatterns     []string            `yaml:"file_patterns" json:"file_patterns,omitempty"`
	ExcludePatterns  []string            `yaml:"exclude_patterns" json:"exclude_patterns,omitempty"`
	KnowledgeFilters map[string][]string `yaml:"knowledge_filters" json:"knowledge_filters,omitempty"`
}

// MatchesTechnology reports whether a technology name is relevant to the agent.
func (p *AgentProfile) MatchesTechnology(name string) bool {
	lower := strings.ToLower(name)
	for _, tech := range p.Technologies {
		if strings.Contains(lower, strings.ToLower(tech)) {
			return true
		}
	}
	return false
}

// MatchesFocusArea reports whether content touches any of the agent's
// focus areas.
func (p *AgentProfile) MatchesFocusArea(content string) bool {
	lower := strings.ToLower(content)
	for _, area := range p.FocusAreas {
		if strings.Contains(lower, strings.ToLower(area)) {
			return true
		}
	}
	return false
}

// Validate returns the list of configuration problems, empty when valid.
func (p *AgentProfile) Validate() []string {
	var problems []string

	if p.Name == "" {
		problems = append(problems, "profile name is required")
	}
	if p.Role.Title == "" {
		problems = append(problems, "role title is required")
	}
	if len(p.Technologies) == 0 {
		problems = append(problems, "at least one technology must be specified")
	}
	if len(p.FocusAreas) == 0 {
		problems = append(problems, "at least one focus area must be specified")
	}

	return problems
}
