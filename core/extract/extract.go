// Package extract pulls knowledge out of sources and stores it in the
// knowledge graph. Extractors turn a source into scored chunks; the
// store step writes the chunk, technology and skill subgraph for an
// agent.
package extract

import (
	"context"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	scherr "github.com/adalundhe/scholar/core/errors"
	"github.com/adalundhe/scholar/core/profile"
)

// =============================================================================
// Constants
// =============================================================================

// MinChunkRelevance drops chunks scoring below this during extraction.
const MinChunkRelevance = 0.1

// DefaultMaxFileSize skips files larger than 10MB.
const DefaultMaxFileSize = 10 << 20

// =============================================================================
// Types
// =============================================================================

// Chunk is one extracted unit of knowledge before it is written to
// the graph.
type Chunk struct {
	Content        string         `json:"content"`
	SourcePath     string         `json:"source_path"`
	FileType       string         `json:"file_type"`
	Language       string         `json:"language"`
	SizeTokens     int            `json:"size_tokens"`
	RelevanceScore float64        `json:"relevance_score"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// Result is the outcome of extracting one source.
type Result struct {
	SourceID    string         `json:"source_id"`
	SourceType  string         `json:"source_type"`
	TotalChunks int            `json:"total_chunks"`
	TotalTokens int            `json:"total_tokens"`
	Chunks      []*Chunk       `json:"chunks"`
	Metadata    map[string]any `json:"extraction_metadata"`
}

// Extractor turns a source into scored knowledge chunks filtered for
// one agent.
type Extractor interface {
	// ValidateSource reports whether the extractor can handle source.
	ValidateSource(source string) bool

	// Extract produces a result for the source. The profile drives file
	// pattern filtering and relevance scoring; a nil profile extracts
	// everything at relevance 1.0.
	Extract(ctx context.Context, source string, prof *profile.AgentProfile) (*Result, error)
}

// =============================================================================
// Scoring
// =============================================================================

// RelevanceScore scores content against keyword filters. Each category
// contributes the fraction of its keywords found in the content, capped
// at 1.0, and the score is the mean across categories. No filters means
// everything is fully relevant.
func RelevanceScore(content string, filters map[string][]string) float64 {
	if len(filters) == 0 {
		return 1.0
	}

	lower := strings.ToLower(content)
	total := 0.0
	for _, keywords := range filters {
		if len(keywords) == 0 {
			continue
		}
		hits := 0.0
		for _, keyword := range keywords {
			if strings.Contains(lower, strings.ToLower(keyword)) {
				hits++
			}
		}
		score := hits / float64(len(keywords))
		if score > 1.0 {
			score = 1.0
		}
		total += score
	}

	return total / float64(len(filters))
}

// EstimateTokens approximates token count at four characters per token.
func EstimateTokens(text string) int {
	return len(text) / 4
}

// =============================================================================
// Pattern filtering
// =============================================================================

type patternSet struct {
	include []glob.Glob
	exclude []glob.Glob
}

func compilePatternSet(include, exclude []string) (*patternSet, error) {
	set := &patternSet{}
	for _, p := range include {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, scherr.Wrap(scherr.KindConfiguration, "invalid file pattern "+p, err)
		}
		set.include = append(set.include, g)
	}
	for _, p := range exclude {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, scherr.Wrap(scherr.KindConfiguration, "invalid exclude pattern "+p, err)
		}
		set.exclude = append(set.exclude, g)
	}
	return set, nil
}

// matches applies the exclude patterns first, then the includes. An
// empty include list accepts everything not excluded.
func (s *patternSet) matches(path, base string) bool {
	for _, g := range s.exclude {
		if g.Match(path) || g.Match(base) {
			return false
		}
	}
	if len(s.include) == 0 {
		return true
	}
	for _, g := range s.include {
		if g.Match(path) || g.Match(base) {
			return true
		}
	}
	return false
}

// sortByRelevance orders chunks highest relevance first, preserving
// discovery order for equal scores.
func sortByRelevance(chunks []*Chunk) {
	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].RelevanceScore > chunks[j].RelevanceScore
	})
}
