package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/blevesearch/bleve/v2"
	bquery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/gobwas/glob"
	lru "github.com/hashicorp/golang-lru/v2"

	scherr "github.com/adalundhe/scholar/core/errors"
	"github.com/adalundhe/scholar/core/graphdb"
	"github.com/adalundhe/scholar/core/profile"
)

// DefaultQueryCacheSize bounds the number of cached query result sets.
const DefaultQueryCacheSize = 64

// Query parameters beyond what the profile itself carries.
type Query struct {
	// MinRelevance excludes chunks scoring below this threshold.
	MinRelevance float64

	// CodeOnly restricts results to chunks in a recognized programming
	// language, for templates with code content affinity.
	CodeOnly bool
}

// Store is the read-only knowledge view for generation. Concurrent queries
// are safe: nothing here writes to the graph.
type Store struct {
	graph  *graphdb.GraphDB
	cache  *lru.Cache[string, []*Chunk]
	logger *slog.Logger
}

// NewStore wraps an opened graph database.
func NewStore(graph *graphdb.GraphDB, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cache, err := lru.New[string, []*Chunk](DefaultQueryCacheSize)
	if err != nil {
		return nil, err
	}
	return &Store{graph: graph, cache: cache, logger: logger}, nil
}

// OpenStore opens the graph database at path, requiring it to exist, and
// wraps it. A missing file is a store_unavailable error: the caller reports
// it and skips generation rather than failing the process.
func OpenStore(path string, logger *slog.Logger) (*Store, error) {
	graph, err := graphdb.OpenExisting(path)
	if err != nil {
		return nil, err
	}
	return NewStore(graph, logger)
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.graph.Close()
}

// Graph exposes the underlying database for the extraction write path.
func (s *Store) Graph() *graphdb.GraphDB {
	return s.graph
}

// Invalidate drops cached query results. The extraction path calls this
// after committing new chunks.
func (s *Store) Invalidate() {
	s.cache.Purge()
}

// QueryChunks returns the chunks the profile learns from, filtered by the
// profile's glob patterns, its keyword filters, and the query thresholds.
// Results preserve graph retrieval order; re-querying an unchanged store
// yields the same sequence.
func (s *Store) QueryChunks(ctx context.Context, agent *profile.AgentProfile, q Query) ([]*Chunk, error) {
	key := fmt.Sprintf("%s|%.6f|%t", agent.Name, q.MinRelevance, q.CodeOnly)
	if cached, ok := s.cache.Get(key); ok {
		return append([]*Chunk(nil), cached...), nil
	}

	agents, err := s.graph.FindNodes(graphdb.NodeAgent, map[string]any{"name": agent.Name})
	if err != nil {
		return nil, scherr.Wrap(scherr.KindStoreUnavailable, "query agent node", err)
	}
	if len(agents) == 0 {
		s.logger.Info("no knowledge recorded for agent", "agent", agent.Name)
		return nil, nil
	}

	include, exclude, err := compilePatterns(agent)
	if err != nil {
		return nil, err
	}

	edges, err := s.graph.Relationships(agents[0].ID, graphdb.RelLearnsFrom, graphdb.DirOutgoing)
	if err != nil {
		return nil, scherr.Wrap(scherr.KindStoreUnavailable, "query learns-from edges", err)
	}

	var candidates []*Chunk
	for _, edge := range edges {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		node, err := s.graph.GetNode(edge.TargetID)
		if err == graphdb.ErrNodeNotFound {
			continue
		}
		if err != nil {
			return nil, scherr.Wrap(scherr.KindStoreUnavailable, "load chunk node", err)
		}
		if node.NodeType != graphdb.NodeChunk {
			continue
		}

		chunk := chunkFromNode(node)
		if chunk.RelevanceScore < q.MinRelevance {
			continue
		}
		if q.CodeOnly && !IsProgrammingLanguage(chunk.Language) {
			continue
		}
		if !matchesPatterns(chunk.SourcePath, include, exclude) {
			continue
		}

		candidates = append(candidates, chunk)
	}

	matched, err := s.filterByKeywords(candidates, agent.KnowledgeFilters)
	if err != nil {
		return nil, err
	}

	for _, chunk := range matched {
		chunk.Source = s.sourceInfo(chunk.NodeID)
	}

	s.cache.Add(key, matched)
	s.logger.Debug("knowledge query",
		"agent", agent.Name,
		"candidates", len(candidates),
		"matched", len(matched),
		"min_relevance", q.MinRelevance)

	return append([]*Chunk(nil), matched...), nil
}

// filterByKeywords keeps chunks whose content matches at least one keyword
// from the profile's knowledge filters. Matching runs over an in-memory
// full-text index built from the candidate set; with no filters configured
// every candidate passes.
func (s *Store) filterByKeywords(candidates []*Chunk, filters map[string][]string) ([]*Chunk, error) {
	if len(filters) == 0 || len(candidates) == 0 {
		return candidates, nil
	}

	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("build keyword index: %w", err)
	}
	defer index.Close()

	for _, chunk := range candidates {
		doc := map[string]string{"content": chunk.Content, "path": chunk.SourcePath}
		if err := index.Index(chunk.NodeID, doc); err != nil {
			return nil, fmt.Errorf("index chunk %s: %w", chunk.NodeID, err)
		}
	}

	disjuncts := make([]bquery.Query, 0)
	for _, keywords := range filters {
		for _, keyword := range keywords {
			mq := bleve.NewMatchQuery(keyword)
			mq.SetField("content")
			disjuncts = append(disjuncts, mq)
		}
	}

	search := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(disjuncts...))
	search.Size = len(candidates)
	result, err := index.Search(search)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	hits := make(map[string]struct{}, len(result.Hits))
	for _, hit := range result.Hits {
		hits[hit.ID] = struct{}{}
	}

	// Preserve retrieval order rather than index score order.
	var matched []*Chunk
	for _, chunk := range candidates {
		if _, ok := hits[chunk.NodeID]; ok {
			matched = append(matched, chunk)
		}
	}
	return matched, nil
}

// sourceInfo resolves the Source node containing a chunk.
func (s *Store) sourceInfo(chunkID string) SourceInfo {
	info := SourceInfo{URL: "unknown", Type: "unknown"}

	edges, err := s.graph.Relationships(chunkID, graphdb.RelContains, graphdb.DirIncoming)
	if err != nil {
		return info
	}
	for _, edge := range edges {
		node, err := s.graph.GetNode(edge.SourceID)
		if err != nil || node.NodeType != graphdb.NodeSource {
			continue
		}
		info.URL = node.StringProp("url", "unknown")
		info.Type = node.StringProp("source_type", "unknown")
		break
	}
	return info
}

func compilePatterns(agent *profile.AgentProfile) (include, exclude []glob.Glob, err error) {
	for _, pattern := range agent.FilePatterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, nil, scherr.Wrap(scherr.KindConfiguration,
				fmt.Sprintf("profile %q: file pattern %q", agent.Name, pattern), err)
		}
		include = append(include, g)
	}
	for _, pattern := range agent.ExcludePatterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, nil, scherr.Wrap(scherr.KindConfiguration,
				fmt.Sprintf("profile %q: exclude pattern %q", agent.Name, pattern), err)
		}
		exclude = append(exclude, g)
	}
	return include, exclude, nil
}

// matchesPatterns applies exclusion first, then inclusion. No include
// patterns means include everything not excluded.
func matchesPatterns(path string, include, exclude []glob.Glob) bool {
	base := filepath.Base(path)
	for _, g := range exclude {
		if g.Match(path) || g.Match(base) {
			return false
		}
	}
	if len(include) == 0 {
		return true
	}
	for _, g := range include {
		if g.Match(path) || g.Match(base) {
			return true
		}
	}
	return false
}
