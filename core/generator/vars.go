package generator

import (
	"strings"

	"github.com/adalundhe/scholar/core/knowledge"
	"github.com/adalundhe/scholar/core/profile"
	"github.com/adalundhe/scholar/core/template"
)

// sampleVars assembles the variable bindings for rendering one sample.
// Dotted paths resolve through the nested maps, so templates reference
// {role.title}, {chunk.content}, {source.url} and so on. Chunk fields are
// passed through as stored: a chunk with no language yields an empty
// binding, so templates declaring chunk.language skip that chunk instead
// of rendering a fabricated value.
func sampleVars(prof *profile.AgentProfile, chunk *knowledge.Chunk, index int) template.Vars {
	return template.Vars{
		"role": map[string]any{
			"title":               prof.Role.Title,
			"description":         prof.Role.Description,
			"domain_expertise":    strings.Join(prof.Role.DomainExpertise, ", "),
			"communication_style": prof.Role.CommunicationStyle,
			"identity_prompt":     prof.Role.IdentityPrompt,
		},
		"technologies": strings.Join(prof.Technologies, ", "),
		"focus_areas":  strings.Join(prof.FocusAreas, ", "),
		"chunk": map[string]any{
			"content":         chunk.Content,
			"source_path":     chunk.SourcePath,
			"file_type":       chunk.FileType,
			"language":        chunk.Language,
			"relevance_score": chunk.RelevanceScore,
			"size_tokens":     chunk.SizeTokens,
		},
		"source": map[string]any{
			"url":  chunk.Source.URL,
			"type": chunk.Source.Type,
		},
		"question_type": "professional",
		"sample_index":  index,
	}
}
