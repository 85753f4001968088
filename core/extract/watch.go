package extract

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/adalundhe/scholar/core/graphdb"
	"github.com/adalundhe/scholar/core/profile"
)

// =============================================================================
// Watcher
// =============================================================================

// DefaultDebounce batches bursts of file events into one re-extraction.
const DefaultDebounce = 500 * time.Millisecond

// Watcher re-extracts a local directory whenever its contents change.
// Events are debounced so an editor save or a git checkout triggers one
// extraction, not one per file.
type Watcher struct {
	source    string
	prof      *profile.AgentProfile
	extractor *LocalExtractor
	graph     *graphdb.GraphDB
	debounce  time.Duration
	logger    *slog.Logger
}

// WatchConfig configures a directory watcher.
type WatchConfig struct {
	Source   string
	Debounce time.Duration
}

// NewWatcher creates a watcher that extracts cfg.Source for the agent
// and stores results in the graph.
func NewWatcher(cfg WatchConfig, prof *profile.AgentProfile, extractor *LocalExtractor, graph *graphdb.GraphDB, logger *slog.Logger) *Watcher {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		source:    cfg.Source,
		prof:      prof,
		extractor: extractor,
		graph:     graph,
		debounce:  cfg.Debounce,
		logger:    logger,
	}
}

// Run performs an initial extraction, then blocks re-extracting on
// changes until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.extractOnce(ctx); err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := addRecursive(fsw, w.source); err != nil {
		return err
	}

	var timer *time.Timer
	pending := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			// New directories must be watched too.
			if event.Has(fsnotify.Create) {
				if err := addRecursive(fsw, event.Name); err == nil {
					w.logger.Debug("watching new path", "path", event.Name)
				}
			}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, func() {
					select {
					case pending <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(w.debounce)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)

		case <-pending:
			timer = nil
			if err := w.extractOnce(ctx); err != nil {
				w.logger.Error("re-extraction failed", "error", err)
			}
		}
	}
}

func (w *Watcher) extractOnce(ctx context.Context) error {
	result, err := w.extractor.Extract(ctx, w.source, w.prof)
	if err != nil {
		return err
	}
	_, err = StoreResult(w.graph, result, w.prof, w.logger)
	return err
}

// addRecursive watches path and every directory beneath it, skipping
// hidden directories.
func addRecursive(fsw *fsnotify.Watcher, path string) error {
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if name := d.Name(); name != "." && len(name) > 1 && name[0] == '.' {
			return filepath.SkipDir
		}
		return fsw.Add(p)
	})
}
