package graphdb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Relationship types connecting agents, sources, chunks, and skills.
const (
	RelLearnsFrom    = "LEARNS_FROM"
	RelContains      = "CONTAINS"
	RelExtractsFrom  = "EXTRACTS_FROM"
	RelRequires      = "REQUIRES"
	RelImplements    = "IMPLEMENTS"
	RelSpecializesIn = "SPECIALIZES_IN"
	RelDemonstrates  = "DEMONSTRATES"
)

// Direction selects which end of an edge a node occupies.
type Direction string

const (
	DirOutgoing Direction = "outgoing"
	DirIncoming Direction = "incoming"
	DirBoth     Direction = "both"
)

// GraphEdge is a weighted, typed relationship between two nodes.
type GraphEdge struct {
	ID               string         `json:"id"`
	SourceID         string         `json:"source_id"`
	TargetID         string         `json:"target_id"`
	RelationshipType string         `json:"relationship_type"`
	Properties       map[string]any `json:"properties"`
	Weight           float64        `json:"weight"`
	CreatedAt        time.Time      `json:"created_at"`
}

// InsertEdge adds a relationship between two existing nodes.
func (g *GraphDB) InsertEdge(sourceID, targetID, relType string, properties map[string]any, weight float64) (string, error) {
	return g.insertEdge(g.db, sourceID, targetID, relType, properties, weight)
}

// InsertEdgeTx adds a relationship inside an extraction transaction.
func (g *GraphDB) InsertEdgeTx(tx *sql.Tx, sourceID, targetID, relType string, properties map[string]any, weight float64) (string, error) {
	return g.insertEdge(tx, sourceID, targetID, relType, properties, weight)
}

func (g *GraphDB) insertEdge(ex execer, sourceID, targetID, relType string, properties map[string]any, weight float64) (string, error) {
	edgeID := uuid.NewString()
	if properties == nil {
		properties = map[string]any{}
	}

	props, err := json.Marshal(properties)
	if err != nil {
		return "", fmt.Errorf("marshal edge properties: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = ex.Exec(`
		INSERT INTO edges (id, source_id, target_id, relationship_type, properties, weight, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		edgeID, sourceID, targetID, relType, string(props), weight, now)
	if err != nil {
		return "", fmt.Errorf("insert edge: %w", err)
	}

	return edgeID, nil
}

// Relationships returns edges touching nodeID, filtered by relationship
// type (empty matches all) and direction. Ordered by creation time so
// repeated queries yield the same sequence.
func (g *GraphDB) Relationships(nodeID, relType string, direction Direction) ([]*GraphEdge, error) {
	var cond string
	args := []any{}

	switch direction {
	case DirOutgoing:
		cond = "source_id = ?"
		args = append(args, nodeID)
	case DirIncoming:
		cond = "target_id = ?"
		args = append(args, nodeID)
	default:
		cond = "(source_id = ? OR target_id = ?)"
		args = append(args, nodeID, nodeID)
	}

	query := "SELECT id, source_id, target_id, relationship_type, properties, weight, created_at FROM edges WHERE " + cond
	if relType != "" {
		query += " AND relationship_type = ?"
		args = append(args, relType)
	}
	query += " ORDER BY created_at, id"

	rows, err := g.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []*GraphEdge
	for rows.Next() {
		var edge GraphEdge
		var props, createdAt string

		if err := rows.Scan(&edge.ID, &edge.SourceID, &edge.TargetID,
			&edge.RelationshipType, &props, &edge.Weight, &createdAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(props), &edge.Properties); err != nil {
			return nil, fmt.Errorf("edge %s: corrupt properties: %w", edge.ID, err)
		}
		edge.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)

		edges = append(edges, &edge)
	}
	return edges, rows.Err()
}
