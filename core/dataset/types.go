package dataset

// Sample is a single training sample generated for an agent.
type Sample struct {
	ID               string         `json:"id"`
	AgentName        string         `json:"agent_name"`
	TemplateType     string         `json:"template_type"`
	Prompt           string         `json:"prompt"`
	ExpectedResponse string         `json:"expected_response"`
	Metadata         map[string]any `json:"metadata"`
	CreatedAt        string         `json:"created_at"`
}

// Batch groups the samples produced for one agent and template type,
// along with the configuration that produced them.
type Batch struct {
	AgentName        string         `json:"agent_name"`
	TemplateType     string         `json:"template_type"`
	Samples          []*Sample      `json:"samples"`
	TotalSamples     int            `json:"total_samples"`
	GenerationConfig map[string]any `json:"generation_config"`
	CreatedAt        string         `json:"created_at"`
}

// QualityScore returns the human review score attached to a sample's
// metadata, or 0 when the sample has not been reviewed.
func (s *Sample) QualityScore() int {
	if s.Metadata == nil {
		return 0
	}
	switch v := s.Metadata["quality_score"].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

// Annotation returns the human quality label attached to a sample's
// metadata, or "" when the sample has not been reviewed.
func (s *Sample) Annotation() string {
	if s.Metadata == nil {
		return ""
	}
	if v, ok := s.Metadata["human_annotation"].(string); ok {
		return v
	}
	return ""
}
