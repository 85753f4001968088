package knowledge

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	scherr "github.com/adalundhe/scholar/core/errors"
	"github.com/adalundhe/scholar/core/graphdb"
	"github.com/adalundhe/scholar/core/profile"
)

type chunkSpec struct {
	path      string
	language  string
	content   string
	relevance float64
}

// seedGraph builds an agent with LEARNS_FROM chunks and one Source node.
func seedGraph(t *testing.T, chunks []chunkSpec) (*graphdb.GraphDB, *profile.AgentProfile) {
	t.Helper()

	g, err := graphdb.Open(filepath.Join(t.TempDir(), "kb.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { g.Close() })

	agent := &profile.AgentProfile{
		Name:         "solution_architect",
		Role:         profile.Role{Title: "Solution Architect"},
		Technologies: []string{"go"},
		FocusAreas:   []string{"scalability"},
	}

	agentID, err := g.InsertNode(graphdb.NodeAgent, map[string]any{"name": agent.Name}, "")
	if err != nil {
		t.Fatalf("insert agent: %v", err)
	}
	sourceID, err := g.InsertNode(graphdb.NodeSource, map[string]any{
		"url":         "https://github.com/org/repo",
		"source_type": "git_repository",
	}, "")
	if err != nil {
		t.Fatalf("insert source: %v", err)
	}

	for _, c := range chunks {
		chunkID, err := g.InsertNode(graphdb.NodeChunk, map[string]any{
			"source_path":     c.path,
			"language":        c.language,
			"content":         c.content,
			"relevance_score": c.relevance,
		}, "")
		if err != nil {
			t.Fatalf("insert chunk: %v", err)
		}
		if _, err := g.InsertEdge(agentID, chunkID, graphdb.RelLearnsFrom, nil, c.relevance); err != nil {
			t.Fatalf("insert edge: %v", err)
		}
		if _, err := g.InsertEdge(sourceID, chunkID, graphdb.RelContains, nil, c.relevance); err != nil {
			t.Fatalf("insert edge: %v", err)
		}
	}

	return g, agent
}

func newStore(t *testing.T, g *graphdb.GraphDB) *Store {
	t.Helper()
	store, err := NewStore(g, nil)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return store
}

func TestOpenStoreMissingFile(t *testing.T) {
	_, err := OpenStore(filepath.Join(t.TempDir(), "absent.db"), nil)
	if !errors.Is(err, scherr.ErrStoreUnavailable) {
		t.Errorf("expected store_unavailable, got %v", err)
	}
}

func TestQueryRelevanceThreshold(t *testing.T) {
	g, agent := seedGraph(t, []chunkSpec{
		{"a.go", "go", "package a", 0.5},
		{"b.go", "go", "package b", 0.2},
		{"c.go", "go", "package c", 0.1},
		{"d.go", "go", "package d", 0.3},
		{"e.go", "go", "package e", 0.9},
	})

	store := newStore(t, g)
	chunks, err := store.QueryChunks(context.Background(), agent, Query{MinRelevance: 0.15})
	if err != nil {
		t.Fatalf("QueryChunks failed: %v", err)
	}

	if len(chunks) != 4 {
		t.Fatalf("got %d chunks, want 4", len(chunks))
	}
	for _, c := range chunks {
		if c.RelevanceScore < 0.15 {
			t.Errorf("chunk %s below threshold: %v", c.SourcePath, c.RelevanceScore)
		}
	}
}

func TestQueryPreservesRetrievalOrder(t *testing.T) {
	g, agent := seedGraph(t, []chunkSpec{
		{"first.go", "go", "aaa", 0.4},
		{"second.go", "go", "bbb", 0.8},
		{"third.go", "go", "ccc", 0.6},
	})

	store := newStore(t, g)
	chunks, err := store.QueryChunks(context.Background(), agent, Query{})
	if err != nil {
		t.Fatalf("QueryChunks failed: %v", err)
	}

	want := []string{"first.go", "second.go", "third.go"}
	for i, c := range chunks {
		if c.SourcePath != want[i] {
			t.Errorf("position %d: got %s, want %s", i, c.SourcePath, want[i])
		}
	}
}

func TestQueryRestartable(t *testing.T) {
	g, agent := seedGraph(t, []chunkSpec{
		{"x.go", "go", "xxx", 0.7},
		{"y.go", "go", "yyy", 0.3},
	})

	store := newStore(t, g)
	first, err := store.QueryChunks(context.Background(), agent, Query{MinRelevance: 0.2})
	if err != nil {
		t.Fatalf("QueryChunks failed: %v", err)
	}
	second, err := store.QueryChunks(context.Background(), agent, Query{MinRelevance: 0.2})
	if err != nil {
		t.Fatalf("QueryChunks failed: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("re-query changed result size: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].NodeID != second[i].NodeID {
			t.Errorf("re-query changed order at %d", i)
		}
	}
}

func TestQueryCodeOnly(t *testing.T) {
	g, agent := seedGraph(t, []chunkSpec{
		{"handler.go", "go", "func Handle() {}", 0.8},
		{"README.md", "markdown", "# Readme", 0.9},
	})

	store := newStore(t, g)
	chunks, err := store.QueryChunks(context.Background(), agent, Query{CodeOnly: true})
	if err != nil {
		t.Fatalf("QueryChunks failed: %v", err)
	}

	if len(chunks) != 1 || chunks[0].Language != "go" {
		t.Errorf("code-only query returned %+v", chunks)
	}
}

func TestQueryGlobPatterns(t *testing.T) {
	g, agent := seedGraph(t, []chunkSpec{
		{"pkg/server.go", "go", "package server", 0.8},
		{"pkg/server_test.go", "go", "package server", 0.8},
		{"docs/guide.md", "markdown", "guide", 0.8},
	})
	agent.FilePatterns = []string{"*.go"}
	agent.ExcludePatterns = []string{"*_test.go"}

	store := newStore(t, g)
	chunks, err := store.QueryChunks(context.Background(), agent, Query{})
	if err != nil {
		t.Fatalf("QueryChunks failed: %v", err)
	}

	if len(chunks) != 1 || chunks[0].SourcePath != "pkg/server.go" {
		t.Errorf("glob filtering returned %+v", chunks)
	}
}

func TestQueryKeywordFilters(t *testing.T) {
	g, agent := seedGraph(t, []chunkSpec{
		{"scale.go", "go", "horizontal scalability through sharding", 0.8},
		{"misc.go", "go", "miscellaneous helpers", 0.8},
	})
	agent.KnowledgeFilters = map[string][]string{
		"architecture": {"scalability", "sharding"},
	}

	store := newStore(t, g)
	chunks, err := store.QueryChunks(context.Background(), agent, Query{})
	if err != nil {
		t.Fatalf("QueryChunks failed: %v", err)
	}

	if len(chunks) != 1 || chunks[0].SourcePath != "scale.go" {
		t.Errorf("keyword filtering returned %+v", chunks)
	}
}

func TestQuerySourceInfo(t *testing.T) {
	g, agent := seedGraph(t, []chunkSpec{
		{"a.go", "go", "package a", 0.8},
	})

	store := newStore(t, g)
	chunks, err := store.QueryChunks(context.Background(), agent, Query{})
	if err != nil {
		t.Fatalf("QueryChunks failed: %v", err)
	}

	if len(chunks) != 1 {
		t.Fatalf("got %d chunks", len(chunks))
	}
	if chunks[0].Source.URL != "https://github.com/org/repo" {
		t.Errorf("source url: got %s", chunks[0].Source.URL)
	}
	if chunks[0].Source.Type != "git_repository" {
		t.Errorf("source type: got %s", chunks[0].Source.Type)
	}
}

func TestQueryUnknownAgentEmpty(t *testing.T) {
	g, _ := seedGraph(t, nil)
	store := newStore(t, g)

	unknown := &profile.AgentProfile{
		Name:         "nobody",
		Technologies: []string{"go"},
		FocusAreas:   []string{"x"},
	}
	chunks, err := store.QueryChunks(context.Background(), unknown, Query{})
	if err != nil {
		t.Fatalf("QueryChunks failed: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("unknown agent should yield no chunks, got %d", len(chunks))
	}
}

func TestLanguageClassification(t *testing.T) {
	if DetectLanguage("cmd/main.go") != "go" {
		t.Error("go not detected")
	}
	if DetectLanguage("README.md") != "markdown" {
		t.Error("markdown not detected")
	}
	if DetectLanguage("noext") != "" {
		t.Error("unknown extension should map to empty")
	}
	if !IsProgrammingLanguage("go") || IsProgrammingLanguage("markdown") {
		t.Error("programming-language set wrong")
	}
	if ContentType("python") != "code" || ContentType("yaml") != "text" {
		t.Error("content type classification wrong")
	}
}
