// Package graphdb provides the SQLite-backed knowledge graph. Entities are
// stored as typed nodes with JSON properties; relationships are weighted,
// typed edges. Reads are cheap and safe for concurrent callers; the write
// path (extraction) runs inside a single transaction.
package graphdb

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
	_ "github.com/mattn/go-sqlite3"

	scherr "github.com/adalundhe/scholar/core/errors"
)

//go:embed schema.sql
var schemaSQL string

// GraphDB is the knowledge graph store.
type GraphDB struct {
	db        *sql.DB
	path      string
	nodeCache *ristretto.Cache
	mu        sync.RWMutex
}

// DBConfig configures the database connection pool.
type DBConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// CacheMaxCost bounds the node read cache in bytes of JSON properties.
	CacheMaxCost int64
}

const (
	// DefaultMaxOpenConns is suitable for the single-process pipeline.
	DefaultMaxOpenConns = 10
	// DefaultMaxIdleConns is 50% of DefaultMaxOpenConns.
	DefaultMaxIdleConns = 5
	// DefaultConnMaxLifetime prevents stale connections.
	DefaultConnMaxLifetime = time.Hour
	// DefaultCacheMaxCost caps the node cache at 64MB of properties.
	DefaultCacheMaxCost = 64 << 20
)

// DefaultDBConfig returns a configuration suitable for the pipeline.
func DefaultDBConfig(path string) DBConfig {
	return DBConfig{
		Path:            path,
		MaxOpenConns:    DefaultMaxOpenConns,
		MaxIdleConns:    DefaultMaxIdleConns,
		ConnMaxLifetime: DefaultConnMaxLifetime,
		CacheMaxCost:    DefaultCacheMaxCost,
	}
}

// Validate checks the configuration values.
func (c DBConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("db config: path is required")
	}
	if c.MaxOpenConns < 1 {
		return fmt.Errorf("db config: MaxOpenConns must be at least 1, got %d", c.MaxOpenConns)
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return fmt.Errorf("db config: MaxIdleConns (%d) cannot exceed MaxOpenConns (%d)",
			c.MaxIdleConns, c.MaxOpenConns)
	}
	return nil
}

// Open opens (creating if necessary) a graph database at path.
func Open(path string) (*GraphDB, error) {
	return OpenWithConfig(DefaultDBConfig(path))
}

// OpenExisting opens a graph database that must already exist. A missing
// file yields a store_unavailable error, which callers treat as a
// recoverable precondition rather than a process failure.
func OpenExisting(path string) (*GraphDB, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, scherr.Newf(scherr.KindStoreUnavailable,
			"knowledge store %s does not exist", path)
	}
	return Open(path)
}

// OpenWithConfig opens a database with the given configuration.
func OpenWithConfig(config DBConfig) (*GraphDB, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on&_synchronous=normal", config.Path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", config.Path, err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, scherr.Wrap(scherr.KindStoreUnavailable,
			fmt.Sprintf("failed to ping database at %s", config.Path), err)
	}

	maxCost := config.CacheMaxCost
	if maxCost <= 0 {
		maxCost = DefaultCacheMaxCost
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e6,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize node cache: %w", err)
	}

	g := &GraphDB{
		db:        db,
		path:      config.Path,
		nodeCache: cache,
	}

	if err := g.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database at %s: %w", config.Path, err)
	}

	return g, nil
}

func (g *GraphDB) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.db == nil {
		return nil
	}

	g.nodeCache.Close()
	err := g.db.Close()
	g.db = nil
	return err
}

// Migrate applies the embedded schema. Idempotent.
func (g *GraphDB) Migrate() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, err := g.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema on %s: %w", g.path, err)
	}
	return nil
}

// Path returns the database file path.
func (g *GraphDB) Path() string {
	return g.path
}

// DB exposes the underlying connection for stores layered on top.
func (g *GraphDB) DB() *sql.DB {
	return g.db
}

// BeginTx starts a write transaction. Extraction scopes all graph writes to
// one transaction so concurrent readers never observe a partial source.
func (g *GraphDB) BeginTx() (*sql.Tx, error) {
	return g.db.Begin()
}

// Stats aggregates node, edge, and session counts.
type Stats struct {
	NodeCounts         map[string]int64 `json:"node_counts"`
	RelationshipCounts map[string]int64 `json:"relationship_counts"`
	AgentSessions      int64            `json:"agent_sessions,omitempty"`
	AgentChunks        int64            `json:"agent_chunks,omitempty"`
	AgentTokens        int64            `json:"agent_tokens,omitempty"`
}

// CollectStats gathers graph statistics, optionally scoped to one agent.
func (g *GraphDB) CollectStats(agentName string) (*Stats, error) {
	stats := &Stats{
		NodeCounts:         make(map[string]int64),
		RelationshipCounts: make(map[string]int64),
	}

	if err := g.scanGroupedCounts(
		"SELECT node_type, COUNT(*) FROM nodes GROUP BY node_type",
		stats.NodeCounts,
	); err != nil {
		return nil, err
	}

	if err := g.scanGroupedCounts(
		"SELECT relationship_type, COUNT(*) FROM edges GROUP BY relationship_type",
		stats.RelationshipCounts,
	); err != nil {
		return nil, err
	}

	if agentName != "" {
		row := g.db.QueryRow(
			"SELECT COUNT(*), COALESCE(SUM(total_chunks), 0), COALESCE(SUM(total_tokens), 0) FROM agent_sessions WHERE agent_name = ?",
			agentName,
		)
		if err := row.Scan(&stats.AgentSessions, &stats.AgentChunks, &stats.AgentTokens); err != nil {
			return nil, err
		}
	}

	return stats, nil
}

func (g *GraphDB) scanGroupedCounts(query string, into map[string]int64) error {
	rows, err := g.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		into[key] = count
	}
	return rows.Err()
}
