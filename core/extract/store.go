package extract

import (
	"database/sql"
	"log/slog"
	"strings"

	"github.com/adalundhe/scholar/core/graphdb"
	"github.com/adalundhe/scholar/core/profile"
)

// =============================================================================
// Graph persistence
// =============================================================================

// minSkillScore is the threshold for linking a chunk to a skill.
const minSkillScore = 0.1

// StoreResult writes an extraction result into the knowledge graph as a
// single transaction: the session record, the agent and source nodes,
// every chunk, and the technology and skill subgraph derived from chunk
// content. Returns the session id.
func StoreResult(g *graphdb.GraphDB, result *Result, prof *profile.AgentProfile, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tx, err := g.BeginTx()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	sessionID, err := g.InsertSessionTx(tx, &graphdb.Session{
		AgentName:   prof.Name,
		SourceID:    result.SourceID,
		SourceType:  result.SourceType,
		TotalChunks: result.TotalChunks,
		TotalTokens: result.TotalTokens,
		Metadata:    result.Metadata,
	})
	if err != nil {
		return "", err
	}

	agentID, err := agentNodeID(g, tx, prof)
	if err != nil {
		return "", err
	}

	sourceID, err := g.InsertNodeTx(tx, graphdb.NodeSource, map[string]any{
		"url":          result.SourceID,
		"source_type":  result.SourceType,
		"total_chunks": result.TotalChunks,
		"total_tokens": result.TotalTokens,
		"metadata":     result.Metadata,
	}, "")
	if err != nil {
		return "", err
	}

	if _, err := g.InsertEdgeTx(tx, agentID, sourceID, graphdb.RelExtractsFrom, map[string]any{
		"session_id": sessionID,
	}, 0); err != nil {
		return "", err
	}

	technologyNodes := make(map[string]string)
	skillNodes := make(map[string]string)

	for _, chunk := range result.Chunks {
		chunkID, err := g.InsertNodeTx(tx, graphdb.NodeChunk, map[string]any{
			"content":         chunk.Content,
			"source_path":     chunk.SourcePath,
			"file_type":       chunk.FileType,
			"language":        chunk.Language,
			"size_tokens":     chunk.SizeTokens,
			"relevance_score": chunk.RelevanceScore,
			"metadata":        chunk.Metadata,
		}, "")
		if err != nil {
			return "", err
		}

		if _, err := g.InsertEdgeTx(tx, sourceID, chunkID, graphdb.RelContains, nil, chunk.RelevanceScore); err != nil {
			return "", err
		}
		if _, err := g.InsertEdgeTx(tx, agentID, chunkID, graphdb.RelLearnsFrom, map[string]any{
			"relevance_score": chunk.RelevanceScore,
			"session_id":      sessionID,
		}, chunk.RelevanceScore); err != nil {
			return "", err
		}

		if err := linkTechnologiesTx(g, tx, prof, chunk, agentID, chunkID, technologyNodes); err != nil {
			return "", err
		}
		if err := linkSkillsTx(g, tx, prof, chunk, agentID, chunkID, skillNodes); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}

	logger.Info("stored extraction result",
		"agent", prof.Name,
		"source", result.SourceID,
		"chunks", len(result.Chunks),
		"session_id", sessionID)

	return sessionID, nil
}

// agentNodeID finds the agent node created by a previous run, or
// creates it inside the transaction. Reusing the node keeps every
// extraction for an agent attached to the same graph identity.
func agentNodeID(g *graphdb.GraphDB, tx *sql.Tx, prof *profile.AgentProfile) (string, error) {
	existing, err := g.FindNodes(graphdb.NodeAgent, map[string]any{"name": prof.Name})
	if err != nil {
		return "", err
	}
	if len(existing) > 0 {
		return existing[0].ID, nil
	}

	return g.InsertNodeTx(tx, graphdb.NodeAgent, map[string]any{
		"name":                prof.Name,
		"title":               prof.Role.Title,
		"description":         prof.Role.Description,
		"identity_prompt":     prof.Role.IdentityPrompt,
		"communication_style": prof.Role.CommunicationStyle,
		"technologies":        prof.Technologies,
		"focus_areas":         prof.FocusAreas,
		"domain_expertise":    prof.Role.DomainExpertise,
	}, "")
}

// linkTechnologiesTx links the chunk to each of the agent's declared
// technologies mentioned in its content.
func linkTechnologiesTx(g *graphdb.GraphDB, tx *sql.Tx, prof *profile.AgentProfile, chunk *Chunk, agentID, chunkID string, technologyNodes map[string]string) error {
	lower := strings.ToLower(chunk.Content)
	for _, tech := range prof.Technologies {
		if !strings.Contains(lower, strings.ToLower(tech)) {
			continue
		}

		techID, ok := technologyNodes[tech]
		if !ok {
			var err error
			techID, err = g.InsertNodeTx(tx, graphdb.NodeTechnology, map[string]any{
				"name":          tech,
				"agent_context": prof.Name,
			}, "")
			if err != nil {
				return err
			}
			technologyNodes[tech] = techID

			if _, err := g.InsertEdgeTx(tx, agentID, techID, graphdb.RelRequires, nil, 0); err != nil {
				return err
			}
		}

		if _, err := g.InsertEdgeTx(tx, chunkID, techID, graphdb.RelImplements, nil, 0); err != nil {
			return err
		}
	}
	return nil
}

// linkSkillsTx links the chunk to each skill category whose keyword hit
// ratio clears the threshold.
func linkSkillsTx(g *graphdb.GraphDB, tx *sql.Tx, prof *profile.AgentProfile, chunk *Chunk, agentID, chunkID string, skillNodes map[string]string) error {
	lower := strings.ToLower(chunk.Content)
	for category, keywords := range prof.KnowledgeFilters {
		if len(keywords) == 0 {
			continue
		}

		hits := 0
		for _, keyword := range keywords {
			if strings.Contains(lower, strings.ToLower(keyword)) {
				hits++
			}
		}
		skillScore := float64(hits) / float64(len(keywords))
		if skillScore <= minSkillScore {
			continue
		}

		skillID, ok := skillNodes[category]
		if !ok {
			var err error
			skillID, err = g.InsertNodeTx(tx, graphdb.NodeSkill, map[string]any{
				"name":          category,
				"keywords":      keywords,
				"agent_context": prof.Name,
			}, "")
			if err != nil {
				return err
			}
			skillNodes[category] = skillID

			if _, err := g.InsertEdgeTx(tx, agentID, skillID, graphdb.RelSpecializesIn, nil, 0); err != nil {
				return err
			}
		}

		if _, err := g.InsertEdgeTx(tx, chunkID, skillID, graphdb.RelDemonstrates, nil, skillScore); err != nil {
			return err
		}
	}
	return nil
}
