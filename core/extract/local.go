package extract

import (
	"bytes"
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/adalundhe/scholar/core/knowledge"
	"github.com/adalundhe/scholar/core/profile"
)

// =============================================================================
// LocalExtractor
// =============================================================================

// skipDirs are dependency and build output directories never worth
// chunking.
var skipDirs = map[string]struct{}{
	"node_modules": {},
	"vendor":       {},
	"__pycache__":  {},
	"dist":         {},
	"build":        {},
}

// LocalExtractor extracts knowledge from a directory tree on disk.
type LocalExtractor struct {
	maxFileSize int64
	logger      *slog.Logger
}

// LocalConfig configures directory extraction.
type LocalConfig struct {
	// MaxFileSize skips files larger than this, in bytes.
	MaxFileSize int64
}

// NewLocalExtractor creates an extractor for local directories.
func NewLocalExtractor(cfg LocalConfig, logger *slog.Logger) *LocalExtractor {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalExtractor{
		maxFileSize: cfg.MaxFileSize,
		logger:      logger,
	}
}

// ValidateSource reports whether source is an existing directory.
func (e *LocalExtractor) ValidateSource(source string) bool {
	info, err := os.Stat(source)
	return err == nil && info.IsDir()
}

// Extract walks the directory and turns each matching text file into a
// scored chunk. Hidden directories and files below the relevance floor
// are skipped.
func (e *LocalExtractor) Extract(ctx context.Context, source string, prof *profile.AgentProfile) (*Result, error) {
	var patterns *patternSet
	if prof != nil {
		var err error
		patterns, err = compilePatternSet(prof.FilePatterns, prof.ExcludePatterns)
		if err != nil {
			return nil, err
		}
	}

	var chunks []*Chunk
	err := filepath.WalkDir(source, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			name := d.Name()
			if name != "." && len(name) > 1 && name[0] == '.' {
				return filepath.SkipDir
			}
			if _, skip := skipDirs[name]; skip {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(source, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if patterns != nil && !patterns.matches(rel, d.Name()) {
			return nil
		}

		chunk, ok, err := e.readChunk(path, rel, prof)
		if err != nil {
			return err
		}
		if ok {
			chunks = append(chunks, chunk)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortByRelevance(chunks)

	totalTokens := 0
	for _, c := range chunks {
		totalTokens += c.SizeTokens
	}

	agentName := ""
	if prof != nil {
		agentName = prof.Name
	}

	e.logger.Info("extracted local directory",
		"source", source,
		"agent", agentName,
		"chunks", len(chunks),
		"tokens", totalTokens)

	return &Result{
		SourceID:    source,
		SourceType:  "local_directory",
		TotalChunks: len(chunks),
		TotalTokens: totalTokens,
		Chunks:      chunks,
		Metadata: map[string]any{
			"source_path":       source,
			"agent_profile":     agentName,
			"extraction_method": "local_walk",
		},
	}, nil
}

// readChunk loads a file and scores it. Returns ok=false for files that
// are too large, binary, or below the relevance floor.
func (e *LocalExtractor) readChunk(path, rel string, prof *profile.AgentProfile) (*Chunk, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, false, err
	}
	if info.Size() > e.maxFileSize {
		return nil, false, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}
	if bytes.ContainsRune(data, 0) {
		return nil, false, nil
	}

	content := string(data)
	relevance := 1.0
	if prof != nil {
		relevance = RelevanceScore(content, prof.KnowledgeFilters)
	}
	if relevance < MinChunkRelevance {
		return nil, false, nil
	}

	return &Chunk{
		Content:        content,
		SourcePath:     rel,
		FileType:       filepath.Ext(rel),
		Language:       knowledge.DetectLanguage(rel),
		SizeTokens:     EstimateTokens(content),
		RelevanceScore: relevance,
		Metadata: map[string]any{
			"file_size": len(content),
		},
	}, true, nil
}
