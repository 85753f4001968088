package graphdb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session records one extraction run of a source for an agent.
type Session struct {
	ID          string         `json:"id"`
	AgentName   string         `json:"agent_name"`
	SourceID    string         `json:"source_id"`
	SourceType  string         `json:"source_type"`
	TotalChunks int            `json:"total_chunks"`
	TotalTokens int            `json:"total_tokens"`
	Metadata    map[string]any `json:"extraction_metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// InsertSessionTx records an extraction session inside the extraction
// transaction. Returns the session id.
func (g *GraphDB) InsertSessionTx(tx *sql.Tx, session *Session) (string, error) {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	session.CreatedAt = time.Now().UTC()

	meta, err := json.Marshal(session.Metadata)
	if err != nil {
		return "", fmt.Errorf("marshal session metadata: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO agent_sessions
			(id, agent_name, source_id, source_type, total_chunks, total_tokens, extraction_metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.AgentName, session.SourceID, session.SourceType,
		session.TotalChunks, session.TotalTokens, string(meta),
		session.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}

	return session.ID, nil
}
