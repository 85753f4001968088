package extract

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"

	scherr "github.com/adalundhe/scholar/core/errors"
	"github.com/adalundhe/scholar/core/profile"
)

// =============================================================================
// GitExtractor
// =============================================================================

// DefaultCloneTimeout bounds a repository clone.
const DefaultCloneTimeout = 5 * time.Minute

// GitExtractor extracts knowledge from a remote git repository by
// shallow-cloning it and delegating to the local extractor.
type GitExtractor struct {
	cloneDepth   int
	cloneTimeout time.Duration
	local        *LocalExtractor
	logger       *slog.Logger
}

// GitConfig configures repository extraction.
type GitConfig struct {
	CloneDepth   int
	CloneTimeout time.Duration
	MaxFileSize  int64
}

// NewGitExtractor creates an extractor for git repositories.
func NewGitExtractor(cfg GitConfig, logger *slog.Logger) *GitExtractor {
	if cfg.CloneDepth <= 0 {
		cfg.CloneDepth = 1
	}
	if cfg.CloneTimeout <= 0 {
		cfg.CloneTimeout = DefaultCloneTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GitExtractor{
		cloneDepth:   cfg.CloneDepth,
		cloneTimeout: cfg.CloneTimeout,
		local:        NewLocalExtractor(LocalConfig{MaxFileSize: cfg.MaxFileSize}, logger),
		logger:       logger,
	}
}

// ValidateSource reports whether source looks like a git repository URL.
func (e *GitExtractor) ValidateSource(source string) bool {
	for _, pattern := range []string{"github.com/", "gitlab.com/", "git@", ".git"} {
		if strings.Contains(source, pattern) {
			return true
		}
	}
	return strings.HasPrefix(source, "https://") || strings.HasPrefix(source, "ssh://")
}

// Extract shallow-clones the repository into a temp directory, walks it
// with the local extractor, and rewrites the result to identify the
// repository as the source.
func (e *GitExtractor) Extract(ctx context.Context, source string, prof *profile.AgentProfile) (*Result, error) {
	if !e.ValidateSource(source) {
		return nil, scherr.Newf(scherr.KindConfiguration, "invalid git source %q", source)
	}

	tempDir, err := os.MkdirTemp("", "scholar-clone-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tempDir)

	cloneCtx, cancel := context.WithTimeout(ctx, e.cloneTimeout)
	defer cancel()

	e.logger.Info("cloning repository", "url", source, "depth", e.cloneDepth)
	_, err = gogit.PlainCloneContext(cloneCtx, tempDir, false, &gogit.CloneOptions{
		URL:          source,
		Depth:        e.cloneDepth,
		SingleBranch: true,
	})
	if err != nil {
		return nil, scherr.Wrap(scherr.KindExternal, "git clone failed for "+source, err)
	}

	result, err := e.local.Extract(ctx, tempDir, prof)
	if err != nil {
		return nil, err
	}

	result.SourceID = source
	result.SourceType = "git_repository"
	result.Metadata = map[string]any{
		"repository_url":    source,
		"clone_depth":       e.cloneDepth,
		"extraction_method": "git_clone",
	}
	if prof != nil {
		result.Metadata["agent_profile"] = prof.Name
	}

	return result, nil
}
