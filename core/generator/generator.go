// Package generator drives dataset generation: it joins an agent profile,
// its knowledge chunks, and a set of prompt templates into batches of
// training samples.
package generator

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/adalundhe/scholar/core/dataset"
	scherr "github.com/adalundhe/scholar/core/errors"
	"github.com/adalundhe/scholar/core/knowledge"
	"github.com/adalundhe/scholar/core/llm"
	"github.com/adalundhe/scholar/core/profile"
	"github.com/adalundhe/scholar/core/template"
)

// Default generation limits.
const (
	DefaultMaxSamplesPerTemplate = 50
	DefaultMinRelevanceScore     = 0.2
)

// Options controls one generation run.
type Options struct {
	// TemplateTypes names the templates to use. Empty selects every
	// registered template suitable for code chunks.
	TemplateTypes []string

	// MaxSamplesPerTemplate caps the samples generated per template.
	MaxSamplesPerTemplate int

	// MinRelevanceScore excludes chunks below this relevance.
	MinRelevanceScore float64
}

func (o *Options) withDefaults() Options {
	opts := *o
	if opts.MaxSamplesPerTemplate <= 0 {
		opts.MaxSamplesPerTemplate = DefaultMaxSamplesPerTemplate
	}
	if opts.MinRelevanceScore <= 0 {
		opts.MinRelevanceScore = DefaultMinRelevanceScore
	}
	return opts
}

// TemplateStats counts outcomes for one template type within a run.
type TemplateStats struct {
	Attempted   int            `json:"attempted"`
	Succeeded   int            `json:"succeeded"`
	Skipped     int            `json:"skipped"`
	SkipReasons map[string]int `json:"skip_reasons,omitempty"`
}

// Stats aggregates outcomes across a generation run.
type Stats struct {
	TotalSamples int                       `json:"total_samples"`
	ByTemplate   map[string]*TemplateStats `json:"by_template"`
}

// Generator produces dataset batches for agents.
type Generator struct {
	knowledge *knowledge.Store
	templates *template.Registry
	responder llm.Responder
	logger    *slog.Logger
}

// New creates a Generator. A nil responder defaults to the static one.
func New(store *knowledge.Store, registry *template.Registry, responder llm.Responder, logger *slog.Logger) *Generator {
	if responder == nil {
		responder = llm.NewStaticResponder()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		knowledge: store,
		templates: registry,
		responder: responder,
		logger:    logger,
	}
}

// GenerateAgentDataset generates one batch per template type for the
// agent. Every requested template type is resolved before any sample is
// generated, so an unknown type fails the run without partial output.
// Chunks are ranked by relevance, highest first, with ties kept in
// retrieval order so repeated runs produce identical datasets.
func (g *Generator) GenerateAgentDataset(ctx context.Context, prof *profile.AgentProfile, opts Options) ([]*dataset.Batch, *Stats, error) {
	opts = opts.withDefaults()

	templateTypes := opts.TemplateTypes
	if len(templateTypes) == 0 {
		templateTypes = g.templates.SuitableTypes(template.ContentTypeCode)
	}

	// Resolve all templates up front. A missing one halts the run
	// before any generation work happens.
	resolved := make([]*template.Template, 0, len(templateTypes))
	for _, templateType := range templateTypes {
		tmpl, err := g.templates.Get(templateType)
		if err != nil {
			return nil, nil, err
		}
		resolved = append(resolved, tmpl)
	}

	chunks, err := g.knowledge.QueryChunks(ctx, prof, knowledge.Query{
		MinRelevance: opts.MinRelevanceScore,
	})
	if err != nil {
		return nil, nil, err
	}

	stats := &Stats{ByTemplate: make(map[string]*TemplateStats)}
	if len(chunks) == 0 {
		g.logger.Warn("no knowledge chunks for agent",
			"agent", prof.Name,
			"min_relevance", opts.MinRelevanceScore)
		return nil, stats, nil
	}

	// Highest relevance first. The stable sort keeps retrieval order
	// for equal scores, which keeps output reproducible.
	ranked := make([]*knowledge.Chunk, len(chunks))
	copy(ranked, chunks)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RelevanceScore > ranked[j].RelevanceScore
	})

	g.logger.Info("generating dataset",
		"agent", prof.Name,
		"role", prof.Role.Title,
		"templates", templateTypes,
		"chunks", len(ranked))

	var batches []*dataset.Batch
	for _, tmpl := range resolved {
		batch, typeStats, err := g.generateBatch(ctx, prof, tmpl, ranked, opts)
		if err != nil {
			return nil, nil, err
		}
		stats.ByTemplate[tmpl.TemplateType] = typeStats
		stats.TotalSamples += typeStats.Succeeded
		if batch != nil {
			batches = append(batches, batch)
		}
	}

	g.logger.Info("dataset generation complete",
		"agent", prof.Name,
		"total_samples", stats.TotalSamples)

	return batches, stats, nil
}

func (g *Generator) generateBatch(ctx context.Context, prof *profile.AgentProfile, tmpl *template.Template, ranked []*knowledge.Chunk, opts Options) (*dataset.Batch, *TemplateStats, error) {
	typeStats := &TemplateStats{SkipReasons: make(map[string]int)}

	candidates := ranked
	if tmpl.CodeOnly() {
		candidates = codeChunks(ranked)
	}
	if len(candidates) > opts.MaxSamplesPerTemplate {
		candidates = candidates[:opts.MaxSamplesPerTemplate]
	}
	if len(candidates) == 0 {
		return nil, typeStats, nil
	}

	samples := make([]*dataset.Sample, 0, len(candidates))
	for i, chunk := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, typeStats, err
		}

		typeStats.Attempted++
		sample, err := g.generateSample(ctx, prof, tmpl, chunk, i)
		if err != nil {
			if scherr.IsSkippable(err) {
				typeStats.Skipped++
				typeStats.SkipReasons[scherr.GetKind(err).String()]++
				g.logger.Debug("skipped sample",
					"agent", prof.Name,
					"template_type", tmpl.TemplateType,
					"chunk", chunk.SourcePath,
					"error", err)
				continue
			}
			return nil, typeStats, err
		}
		typeStats.Succeeded++
		samples = append(samples, sample)
	}

	if len(samples) == 0 {
		return nil, typeStats, nil
	}

	minScore := candidates[len(candidates)-1].RelevanceScore
	maxScore := candidates[0].RelevanceScore
	batch := &dataset.Batch{
		AgentName:    prof.Name,
		TemplateType: tmpl.TemplateType,
		Samples:      samples,
		TotalSamples: len(samples),
		GenerationConfig: map[string]any{
			"template_type":       tmpl.TemplateType,
			"max_samples":         opts.MaxSamplesPerTemplate,
			"agent_name":          prof.Name,
			"min_relevance_score": minScore,
			"max_relevance_score": maxScore,
		},
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	return batch, typeStats, nil
}

func (g *Generator) generateSample(ctx context.Context, prof *profile.AgentProfile, tmpl *template.Template, chunk *knowledge.Chunk, index int) (*dataset.Sample, error) {
	vars := sampleVars(prof, chunk, index)

	rendered, err := tmpl.Render(vars)
	if err != nil {
		return nil, err
	}

	response, err := g.respondWithRetry(ctx, &llm.Request{
		Prompt:       rendered.Prompt,
		SystemPrompt: prof.Role.IdentityContext(),
		TemplateType: tmpl.TemplateType,
		RoleTitle:    prof.Role.Title,
		Technologies: prof.Technologies,
		FocusAreas:   prof.FocusAreas,
		Language:     chunk.Language,
	})
	if err != nil {
		return nil, err
	}

	return &dataset.Sample{
		ID:               uuid.NewString(),
		AgentName:        prof.Name,
		TemplateType:     tmpl.TemplateType,
		Prompt:           rendered.Prompt,
		ExpectedResponse: response,
		Metadata: map[string]any{
			"source_path":          chunk.SourcePath,
			"source_url":           chunk.Source.URL,
			"relevance_score":      chunk.RelevanceScore,
			"chunk_tokens":         chunk.SizeTokens,
			"file_type":            chunk.FileType,
			"language":             chunk.Language,
			"template_type":        tmpl.TemplateType,
			"agent_role":           prof.Role.Title,
			"agent_technologies":   prof.Technologies,
			"agent_focus_areas":    prof.FocusAreas,
			"generation_timestamp": time.Now().UTC().Format(time.RFC3339),
		},
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// respondWithRetry retries external responder failures with exponential
// backoff per the error taxonomy. Non-retryable errors return at once.
func (g *Generator) respondWithRetry(ctx context.Context, req *llm.Request) (string, error) {
	behavior := scherr.DefaultBehaviors()[scherr.KindExternal]

	var lastErr error
	backoff := behavior.BaseBackoff
	for attempt := 0; attempt <= behavior.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		response, err := g.responder.Respond(ctx, req)
		if err == nil {
			return response, nil
		}
		if !scherr.IsRetryable(err) {
			return "", err
		}
		lastErr = err
		g.logger.Warn("responder failed, retrying",
			"attempt", attempt+1,
			"max_retries", behavior.MaxRetries,
			"error", err)
	}

	return "", lastErr
}

func codeChunks(chunks []*knowledge.Chunk) []*knowledge.Chunk {
	filtered := make([]*knowledge.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		if knowledge.IsProgrammingLanguage(chunk.Language) {
			filtered = append(filtered, chunk)
		}
	}
	return filtered
}
