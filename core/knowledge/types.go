// Package knowledge exposes the knowledge store: a read-only view over the
// graph database that yields chunks matching an agent profile's filters.
// The generator consumes chunks from here; it never touches the graph
// directly.
package knowledge

import (
	"github.com/adalundhe/scholar/core/graphdb"
)

// SourceInfo describes where a chunk came from.
type SourceInfo struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

// Chunk is one unit of extracted knowledge. Produced by the extraction
// path, consumed read-only by generation.
type Chunk struct {
	NodeID         string     `json:"node_id"`
	SourcePath     string     `json:"source_path"`
	FileType       string     `json:"file_type"`
	Language       string     `json:"language"`
	Content        string     `json:"content"`
	SizeTokens     int        `json:"size_tokens"`
	RelevanceScore float64    `json:"relevance_score"`
	Source         SourceInfo `json:"source"`
}

// chunkFromNode converts a graph node into a Chunk. Missing properties map
// to zero values; strict handling happens at template binding time.
func chunkFromNode(node *graphdb.GraphNode) *Chunk {
	return &Chunk{
		NodeID:         node.ID,
		SourcePath:     node.StringProp("source_path", ""),
		FileType:       node.StringProp("file_type", ""),
		Language:       node.StringProp("language", ""),
		Content:        node.StringProp("content", ""),
		SizeTokens:     int(node.FloatProp("size_tokens", 0)),
		RelevanceScore: node.FloatProp("relevance_score", 0),
	}
}
