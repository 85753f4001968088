// Package config loads pipeline configuration from YAML with environment
// overrides. Configuration is read once at process start and shared
// read-only via an atomically swapped pointer.
package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"
)

type Manager struct {
	configPtr atomic.Pointer[Config]
	path      string
	watchers  []func(*Config)
	watcherMu sync.RWMutex
}

type Config struct {
	Paths      PathsConfig      `yaml:"paths"`
	Generation GenerationConfig `yaml:"generation"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Review     ReviewConfig     `yaml:"review"`
	LLM        LLMConfig        `yaml:"llm"`
}

type PathsConfig struct {
	GraphDB      string `yaml:"graph_db"`
	ProfilesDir  string `yaml:"profiles_dir"`
	TemplatesDir string `yaml:"templates_dir"`
	OutputDir    string `yaml:"output_dir"`
}

type GenerationConfig struct {
	MaxSamplesPerTemplate int     `yaml:"max_samples_per_template"`
	MinRelevanceScore     float64 `yaml:"min_relevance_score"`
	OutputFormat          string  `yaml:"output_format"`
}

type ExtractionConfig struct {
	CloneDepth   int           `yaml:"clone_depth"`
	CloneTimeout time.Duration `yaml:"clone_timeout"`
	MaxFileSize  int64         `yaml:"max_file_size"`
}

type ReviewConfig struct {
	UploadCommand   string        `yaml:"upload_command"`
	DownloadCommand string        `yaml:"download_command"`
	Timeout         time.Duration `yaml:"timeout"`
}

type LLMConfig struct {
	Provider        string        `yaml:"provider"`
	Model           string        `yaml:"model"`
	MaxOutputTokens int           `yaml:"max_output_tokens"`
	Timeout         time.Duration `yaml:"timeout"`
}

func NewManager(path string) *Manager {
	m := &Manager{path: path}
	m.configPtr.Store(DefaultConfig())
	return m
}

func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			GraphDB:      "data/knowledge_base.db",
			ProfilesDir:  "configs/agents",
			TemplatesDir: "configs/templates",
			OutputDir:    "datasets",
		},
		Generation: GenerationConfig{
			MaxSamplesPerTemplate: 50,
			MinRelevanceScore:     0.2,
			OutputFormat:          "jsonl",
		},
		Extraction: ExtractionConfig{
			CloneDepth:   1,
			CloneTimeout: 5 * time.Minute,
			MaxFileSize:  10 * 1024 * 1024,
		},
		Review: ReviewConfig{
			UploadCommand:   "annotate-upload",
			DownloadCommand: "annotate-download",
			Timeout:         2 * time.Minute,
		},
		LLM: LLMConfig{
			Provider:        "static",
			Model:           "claude-sonnet-4-5-20250929",
			MaxOutputTokens: 8192,
			Timeout:         2 * time.Minute,
		},
	}
}

// Get returns the current configuration. The returned value is shared and
// must be treated as read-only.
func (m *Manager) Get() *Config {
	return m.configPtr.Load()
}

// Load reads the configuration file, applies environment overrides, and
// swaps the active configuration. A missing file is not an error; defaults
// plus environment apply.
func (m *Manager) Load() error {
	cfg := DefaultConfig()

	if err := m.loadYAMLFile(m.path, cfg); err != nil {
		return fmt.Errorf("config file %s: %w", m.path, err)
	}

	m.applyEnvironment(cfg)

	m.configPtr.Store(cfg)
	m.notifyWatchers(cfg)

	return nil
}

func (m *Manager) loadYAMLFile(path string, cfg *Config) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func (m *Manager) applyEnvironment(cfg *Config) {
	if v := os.Getenv("SCHOLAR_GRAPH_DB"); v != "" {
		cfg.Paths.GraphDB = v
	}
	if v := os.Getenv("SCHOLAR_PROFILES_DIR"); v != "" {
		cfg.Paths.ProfilesDir = v
	}
	if v := os.Getenv("SCHOLAR_TEMPLATES_DIR"); v != "" {
		cfg.Paths.TemplatesDir = v
	}
	if v := os.Getenv("SCHOLAR_OUTPUT_DIR"); v != "" {
		cfg.Paths.OutputDir = v
	}
	if v := os.Getenv("SCHOLAR_MAX_SAMPLES"); v != "" {
		if n, err := parseInt(v); err == nil {
			cfg.Generation.MaxSamplesPerTemplate = n
		}
	}
	if v := os.Getenv("SCHOLAR_MIN_RELEVANCE"); v != "" {
		if f, err := parseFloat(v); err == nil {
			cfg.Generation.MinRelevanceScore = f
		}
	}
	if v := os.Getenv("SCHOLAR_OUTPUT_FORMAT"); v != "" {
		cfg.Generation.OutputFormat = strings.ToLower(v)
	}
	if v := os.Getenv("SCHOLAR_LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("SCHOLAR_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("SCHOLAR_LLM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.LLM.Timeout = d
		}
	}
	if v := os.Getenv("SCHOLAR_REVIEW_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Review.Timeout = d
		}
	}
}

// OnChange registers a callback invoked after each successful Load.
func (m *Manager) OnChange(fn func(*Config)) {
	m.watcherMu.Lock()
	m.watchers = append(m.watchers, fn)
	m.watcherMu.Unlock()
}

func (m *Manager) notifyWatchers(cfg *Config) {
	m.watcherMu.RLock()
	watchers := m.watchers
	m.watcherMu.RUnlock()

	for _, fn := range watchers {
		fn(cfg)
	}
}

func (m *Manager) Reload() error {
	return m.Load()
}

func parseInt(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}

func parseFloat(s string) (float64, error) {
	var f float64
	_, err := fmt.Sscanf(s, "%f", &f)
	return f, err
}
