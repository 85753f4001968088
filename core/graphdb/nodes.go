package graphdb

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrNodeNotFound = errors.New("node not found")

// Node type names used by the extraction and generation paths.
const (
	NodeAgent      = "Agent"
	NodeSource     = "Source"
	NodeChunk      = "KnowledgeChunk"
	NodeTechnology = "Technology"
	NodeSkill      = "Skill"
)

// GraphNode is a typed entity with free-form JSON properties.
type GraphNode struct {
	ID         string         `json:"id"`
	NodeType   string         `json:"node_type"`
	Properties map[string]any `json:"properties"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// StringProp returns a string property, or fallback when absent or not a string.
func (n *GraphNode) StringProp(key, fallback string) string {
	if v, ok := n.Properties[key].(string); ok {
		return v
	}
	return fallback
}

// FloatProp returns a numeric property as float64, or fallback.
func (n *GraphNode) FloatProp(key string, fallback float64) float64 {
	switch v := n.Properties[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return fallback
}

// InsertNode upserts a node. An empty id allocates a new UUID. Returns the
// node id.
func (g *GraphDB) InsertNode(nodeType string, properties map[string]any, nodeID string) (string, error) {
	return g.insertNode(g.db, nodeType, properties, nodeID)
}

// InsertNodeTx upserts a node inside an extraction transaction.
func (g *GraphDB) InsertNodeTx(tx *sql.Tx, nodeType string, properties map[string]any, nodeID string) (string, error) {
	return g.insertNode(tx, nodeType, properties, nodeID)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func (g *GraphDB) insertNode(ex execer, nodeType string, properties map[string]any, nodeID string) (string, error) {
	if nodeID == "" {
		nodeID = uuid.NewString()
	}
	if properties == nil {
		properties = map[string]any{}
	}

	props, err := json.Marshal(properties)
	if err != nil {
		return "", fmt.Errorf("marshal node properties: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = ex.Exec(`
		INSERT INTO nodes (id, node_type, properties, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			node_type = excluded.node_type,
			properties = excluded.properties,
			updated_at = excluded.updated_at`,
		nodeID, nodeType, string(props), now, now)
	if err != nil {
		return "", fmt.Errorf("insert node: %w", err)
	}

	g.nodeCache.Del(nodeID)
	return nodeID, nil
}

// GetNode fetches a node by id, consulting the read cache first.
func (g *GraphDB) GetNode(nodeID string) (*GraphNode, error) {
	if cached, ok := g.nodeCache.Get(nodeID); ok {
		if node, ok := cached.(*GraphNode); ok {
			return node, nil
		}
	}

	row := g.db.QueryRow(
		"SELECT id, node_type, properties, created_at, updated_at FROM nodes WHERE id = ?",
		nodeID)

	node, cost, err := scanNode(row)
	if err == sql.ErrNoRows {
		return nil, ErrNodeNotFound
	}
	if err != nil {
		return nil, err
	}

	g.nodeCache.Set(nodeID, node, cost)
	return node, nil
}

// FindNodes returns nodes of the given type whose properties match every
// entry of filter. A nil filter matches all nodes of the type. Results are
// ordered by creation time so repeated queries are stable.
func (g *GraphDB) FindNodes(nodeType string, filter map[string]any) ([]*GraphNode, error) {
	rows, err := g.db.Query(
		"SELECT id, node_type, properties, created_at, updated_at FROM nodes WHERE node_type = ? ORDER BY created_at, id",
		nodeType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []*GraphNode
	for rows.Next() {
		node, _, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		if matchesFilter(node, filter) {
			nodes = append(nodes, node)
		}
	}
	return nodes, rows.Err()
}

func matchesFilter(node *GraphNode, filter map[string]any) bool {
	for key, want := range filter {
		if node.Properties[key] != want {
			return false
		}
	}
	return true
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner) (*GraphNode, int64, error) {
	var node GraphNode
	var props, createdAt, updatedAt string

	if err := row.Scan(&node.ID, &node.NodeType, &props, &createdAt, &updatedAt); err != nil {
		return nil, 0, err
	}

	if err := json.Unmarshal([]byte(props), &node.Properties); err != nil {
		return nil, 0, fmt.Errorf("node %s: corrupt properties: %w", node.ID, err)
	}

	node.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	node.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)

	return &node, int64(len(props)), nil
}
