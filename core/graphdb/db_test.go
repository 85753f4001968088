package graphdb

import (
	"errors"
	"path/filepath"
	"testing"

	scherr "github.com/adalundhe/scholar/core/errors"
)

func openTestDB(t *testing.T) *GraphDB {
	t.Helper()
	g, err := Open(filepath.Join(t.TempDir(), "kb.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { g.Close() })
	return g
}

func TestOpenExistingMissing(t *testing.T) {
	_, err := OpenExisting(filepath.Join(t.TempDir(), "absent.db"))
	if err == nil {
		t.Fatal("expected error for missing store")
	}
	if !errors.Is(err, scherr.ErrStoreUnavailable) {
		t.Errorf("expected store_unavailable, got %v", err)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	g := openTestDB(t)
	if err := g.Migrate(); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}
}

func TestNodeRoundTrip(t *testing.T) {
	g := openTestDB(t)

	id, err := g.InsertNode(NodeChunk, map[string]any{
		"source_path":     "pkg/server/handler.go",
		"language":        "go",
		"relevance_score": 0.75,
	}, "")
	if err != nil {
		t.Fatalf("InsertNode failed: %v", err)
	}

	node, err := g.GetNode(id)
	if err != nil {
		t.Fatalf("GetNode failed: %v", err)
	}
	if node.NodeType != NodeChunk {
		t.Errorf("NodeType: got %s", node.NodeType)
	}
	if node.StringProp("source_path", "") != "pkg/server/handler.go" {
		t.Errorf("source_path: got %s", node.StringProp("source_path", ""))
	}
	if node.FloatProp("relevance_score", 0) != 0.75 {
		t.Errorf("relevance_score: got %v", node.FloatProp("relevance_score", 0))
	}
}

func TestGetNodeMissing(t *testing.T) {
	g := openTestDB(t)
	if _, err := g.GetNode("nope"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("expected ErrNodeNotFound, got %v", err)
	}
}

func TestInsertNodeUpsert(t *testing.T) {
	g := openTestDB(t)

	id, err := g.InsertNode(NodeAgent, map[string]any{"name": "solution_architect"}, "agent-1")
	if err != nil {
		t.Fatalf("InsertNode failed: %v", err)
	}
	if id != "agent-1" {
		t.Errorf("explicit id not honored: got %s", id)
	}

	if _, err := g.InsertNode(NodeAgent, map[string]any{"name": "renamed"}, "agent-1"); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	node, err := g.GetNode("agent-1")
	if err != nil {
		t.Fatalf("GetNode failed: %v", err)
	}
	if node.StringProp("name", "") != "renamed" {
		t.Errorf("upsert did not replace properties: got %s", node.StringProp("name", ""))
	}

	nodes, err := g.FindNodes(NodeAgent, nil)
	if err != nil {
		t.Fatalf("FindNodes failed: %v", err)
	}
	if len(nodes) != 1 {
		t.Errorf("upsert created duplicate rows: %d", len(nodes))
	}
}

func TestFindNodesFilter(t *testing.T) {
	g := openTestDB(t)

	for _, name := range []string{"architect", "reviewer"} {
		if _, err := g.InsertNode(NodeAgent, map[string]any{"name": name}, ""); err != nil {
			t.Fatalf("InsertNode failed: %v", err)
		}
	}

	nodes, err := g.FindNodes(NodeAgent, map[string]any{"name": "reviewer"})
	if err != nil {
		t.Fatalf("FindNodes failed: %v", err)
	}
	if len(nodes) != 1 || nodes[0].StringProp("name", "") != "reviewer" {
		t.Errorf("filter mismatch: %+v", nodes)
	}
}

func TestEdgesAndDirections(t *testing.T) {
	g := openTestDB(t)

	agentID, _ := g.InsertNode(NodeAgent, map[string]any{"name": "a"}, "")
	chunkID, _ := g.InsertNode(NodeChunk, map[string]any{"source_path": "x.go"}, "")
	sourceID, _ := g.InsertNode(NodeSource, map[string]any{"url": "https://github.com/org/repo"}, "")

	if _, err := g.InsertEdge(agentID, chunkID, RelLearnsFrom, map[string]any{"session_id": "s1"}, 0.9); err != nil {
		t.Fatalf("InsertEdge failed: %v", err)
	}
	if _, err := g.InsertEdge(sourceID, chunkID, RelContains, nil, 0.9); err != nil {
		t.Fatalf("InsertEdge failed: %v", err)
	}

	out, err := g.Relationships(agentID, RelLearnsFrom, DirOutgoing)
	if err != nil {
		t.Fatalf("Relationships failed: %v", err)
	}
	if len(out) != 1 || out[0].TargetID != chunkID {
		t.Errorf("outgoing LEARNS_FROM mismatch: %+v", out)
	}
	if out[0].Weight != 0.9 {
		t.Errorf("weight: got %v", out[0].Weight)
	}

	in, err := g.Relationships(chunkID, RelContains, DirIncoming)
	if err != nil {
		t.Fatalf("Relationships failed: %v", err)
	}
	if len(in) != 1 || in[0].SourceID != sourceID {
		t.Errorf("incoming CONTAINS mismatch: %+v", in)
	}

	both, err := g.Relationships(chunkID, "", DirBoth)
	if err != nil {
		t.Fatalf("Relationships failed: %v", err)
	}
	if len(both) != 2 {
		t.Errorf("both directions: got %d edges, want 2", len(both))
	}
}

func TestSessionAndStats(t *testing.T) {
	g := openTestDB(t)

	tx, err := g.BeginTx()
	if err != nil {
		t.Fatalf("BeginTx failed: %v", err)
	}
	_, err = g.InsertSessionTx(tx, &Session{
		AgentName:   "solution_architect",
		SourceID:    "https://github.com/org/repo",
		SourceType:  "git_repository",
		TotalChunks: 12,
		TotalTokens: 4800,
	})
	if err != nil {
		t.Fatalf("InsertSessionTx failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	if _, err := g.InsertNode(NodeChunk, map[string]any{"source_path": "a.go"}, ""); err != nil {
		t.Fatalf("InsertNode failed: %v", err)
	}

	stats, err := g.CollectStats("solution_architect")
	if err != nil {
		t.Fatalf("CollectStats failed: %v", err)
	}
	if stats.NodeCounts[NodeChunk] != 1 {
		t.Errorf("chunk count: got %d", stats.NodeCounts[NodeChunk])
	}
	if stats.AgentSessions != 1 {
		t.Errorf("sessions: got %d", stats.AgentSessions)
	}
	if stats.AgentChunks != 12 || stats.AgentTokens != 4800 {
		t.Errorf("totals: got %d chunks %d tokens", stats.AgentChunks, stats.AgentTokens)
	}
}
