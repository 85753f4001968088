package generator

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	scherr "github.com/adalundhe/scholar/core/errors"
	"github.com/adalundhe/scholar/core/graphdb"
	"github.com/adalundhe/scholar/core/knowledge"
	"github.com/adalundhe/scholar/core/llm"
	"github.com/adalundhe/scholar/core/profile"
	"github.com/adalundhe/scholar/core/template"
)

type seedChunk struct {
	path      string
	language  string
	content   string
	relevance float64
}

func testProfile() *profile.AgentProfile {
	return &profile.AgentProfile{
		Name: "solution_architect",
		Role: profile.Role{
			Title:              "Solution Architect",
			Description:        "Designs distributed systems.",
			IdentityPrompt:     "You are a pragmatic architect.",
			CommunicationStyle: "direct",
			DomainExpertise:    []string{"distributed systems"},
		},
		Technologies: []string{"go", "sqlite"},
		FocusAreas:   []string{"scalability", "reliability"},
	}
}

func seedKnowledge(t *testing.T, chunks []seedChunk) *knowledge.Store {
	t.Helper()

	g, err := graphdb.Open(filepath.Join(t.TempDir(), "kb.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { g.Close() })

	agentID, err := g.InsertNode(graphdb.NodeAgent, map[string]any{"name": "solution_architect"}, "")
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

	store, err := knowledge.NewStore(g, nil)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return store
}

func testRegistry(t *testing.T, templates ...*template.Template) *template.Registry {
	t.Helper()
	registry := template.NewRegistry("", nil)
	for _, tmpl := range templates {
		if err := registry.Register(tmpl); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}
	return registry
}

func qaTemplate() *template.Template {
	return &template.Template{
		TemplateType:     "question_answer",
		SystemPrompt:     "You are {role.title}. {role.identity_prompt}",
		KnowledgeContext: "From {source.url}:\n{chunk.content}",
		TaskInstruction:  "Study this {chunk.language} code.",
		ResponseFormat:   "Answer as {role.title}.",
		Variables:        []string{"role.title", "chunk.content"},
	}
}

func TestGenerateRanksByRelevance(t *testing.T) {
	store := seedKnowledge(t, []seedChunk{
		{"a.go", "go", "package a", 0.5},
		{"b.go", "go", "package b", 0.2},
		{"c.go", "go", "package c", 0.1},
		{"d.go", "go", "package d", 0.3},
		{"e.go", "go", "package e", 0.9},
	})
	registry := testRegistry(t, qaTemplate())
	gen := New(store, registry, nil, nil)

	batches, stats, err := gen.GenerateAgentDataset(context.Background(), testProfile(), Options{
		TemplateTypes:         []string{"question_answer"},
		MaxSamplesPerTemplate: 3,
		MinRelevanceScore:     0.15,
	})
	if err != nil {
		t.Fatalf("GenerateAgentDataset failed: %v", err)
	}
	if len(batches) != 1 {
		t.Fatalf("got %d batches, want 1", len(batches))
	}

	batch := batches[0]
	if len(batch.Samples) != 3 {
		t.Fatalf("got %d samples, want 3", len(batch.Samples))
	}

	wantScores := []float64{0.9, 0.5, 0.3}
	for i, sample := range batch.Samples {
		score, ok := sample.Metadata["relevance_score"].(float64)
		if !ok || score != wantScores[i] {
			t.Errorf("sample %d: relevance %v, want %v", i, sample.Metadata["relevance_score"], wantScores[i])
		}
	}

	if stats.TotalSamples != 3 {
		t.Errorf("stats total: got %d", stats.TotalSamples)
	}
	typeStats := stats.ByTemplate["question_answer"]
	if typeStats == nil || typeStats.Attempted != 3 || typeStats.Succeeded != 3 || typeStats.Skipped != 0 {
		t.Errorf("type stats: %+v", typeStats)
	}
}

func TestGenerateUnknownTemplateFailsFast(t *testing.T) {
	store := seedKnowledge(t, []seedChunk{{"a.go", "go", "package a", 0.9}})
	registry := testRegistry(t, qaTemplate())
	gen := New(store, registry, nil, nil)

	batches, _, err := gen.GenerateAgentDataset(context.Background(), testProfile(), Options{
		TemplateTypes: []string{"question_answer", "no_such_template"},
	})
	if !errors.Is(err, scherr.ErrUnknownTemplateType) {
		t.Fatalf("expected unknown template error, got %v", err)
	}
	if batches != nil {
		t.Error("failed run must not return partial batches")
	}
}

func TestGenerateSkipsUnresolvableBindings(t *testing.T) {
	store := seedKnowledge(t, []seedChunk{
		{"a.go", "go", "package a", 0.9},
		{"b.go", "go", "package b", 0.8},
	})
	broken := qaTemplate()
	broken.TaskInstruction = "Uses {chunk.missing_field} here"
	broken.Variables = []string{"role.title", "chunk.missing_field"}
	registry := testRegistry(t, broken)
	gen := New(store, registry, nil, nil)

	batches, stats, err := gen.GenerateAgentDataset(context.Background(), testProfile(), Options{
		TemplateTypes: []string{"question_answer"},
	})
	if err != nil {
		t.Fatalf("binding failures must not fail the run: %v", err)
	}
	if len(batches) != 0 {
		t.Errorf("all samples skipped, expected no batches, got %d", len(batches))
	}

	typeStats := stats.ByTemplate["question_answer"]
	if typeStats == nil || typeStats.Skipped != 2 {
		t.Fatalf("type stats: %+v", typeStats)
	}
	if typeStats.SkipReasons["variable_binding"] != 2 {
		t.Errorf("skip reasons: %+v", typeStats.SkipReasons)
	}
}

func TestGenerateSkipsChunksWithoutLanguage(t *testing.T) {
	store := seedKnowledge(t, []seedChunk{
		{"handler.go", "go", "func Handle() {}", 0.9},
		{"LICENSE", "", "MIT License", 0.8},
	})
	tmpl := qaTemplate()
	tmpl.TaskInstruction = "Review this {chunk.language} code:\n{chunk.content}"
	tmpl.Variables = []string{"role.title", "chunk.language", "chunk.content"}
	registry := testRegistry(t, tmpl)
	gen := New(store, registry, nil, nil)

	batches, stats, err := gen.GenerateAgentDataset(context.Background(), testProfile(), Options{
		TemplateTypes: []string{"question_answer"},
	})
	if err != nil {
		t.Fatalf("GenerateAgentDataset failed: %v", err)
	}
	if len(batches) != 1 || len(batches[0].Samples) != 1 {
		t.Fatalf("expected one rendered sample, got %+v", batches)
	}
	if batches[0].Samples[0].Metadata["source_path"] != "handler.go" {
		t.Errorf("wrong chunk survived: %v", batches[0].Samples[0].Metadata["source_path"])
	}

	typeStats := stats.ByTemplate["question_answer"]
	if typeStats == nil || typeStats.Skipped != 1 {
		t.Fatalf("type stats: %+v", typeStats)
	}
	if typeStats.SkipReasons["variable_binding"] != 1 {
		t.Errorf("chunk without a language must skip as a binding failure: %+v", typeStats.SkipReasons)
	}
}

func TestGenerateCodeOnlyTemplate(t *testing.T) {
	store := seedKnowledge(t, []seedChunk{
		{"handler.go", "go", "func Handle() {}", 0.9},
		{"README.md", "markdown", "# Readme", 0.8},
	})
	codeTmpl := qaTemplate()
	codeTmpl.TemplateType = "code_review"
	codeTmpl.ContentTypes = []string{"code"}
	registry := testRegistry(t, codeTmpl)
	gen := New(store, registry, nil, nil)

	batches, _, err := gen.GenerateAgentDataset(context.Background(), testProfile(), Options{
		TemplateTypes: []string{"code_review"},
	})
	if err != nil {
		t.Fatalf("GenerateAgentDataset failed: %v", err)
	}
	if len(batches) != 1 || len(batches[0].Samples) != 1 {
		t.Fatalf("expected one code sample, got %+v", batches)
	}
	if batches[0].Samples[0].Metadata["language"] != "go" {
		t.Errorf("non-code chunk leaked into code-only template")
	}
}

func TestGeneratePromptContents(t *testing.T) {
	store := seedKnowledge(t, []seedChunk{
		{"a.go", "go", "package alpha", 0.9},
	})
	registry := testRegistry(t, qaTemplate())
	gen := New(store, registry, nil, nil)

	batches, _, err := gen.GenerateAgentDataset(context.Background(), testProfile(), Options{
		TemplateTypes: []string{"question_answer"},
	})
	if err != nil {
		t.Fatalf("GenerateAgentDataset failed: %v", err)
	}

	sample := batches[0].Samples[0]
	for _, want := range []string{
		"# System Prompt",
		"# Task",
		"# Expected Response Format",
		"You are Solution Architect.",
		"package alpha",
		"https://github.com/org/repo",
	} {
		if !strings.Contains(sample.Prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if sample.ID == "" {
		t.Error("sample ID missing")
	}
	if sample.ExpectedResponse == "" {
		t.Error("expected response missing")
	}
	if sample.Metadata["source_url"] != "https://github.com/org/repo" {
		t.Errorf("metadata source_url: %v", sample.Metadata["source_url"])
	}
}

func TestGenerateDeterministicPrompts(t *testing.T) {
	store := seedKnowledge(t, []seedChunk{
		{"a.go", "go", "package a", 0.5},
		{"b.go", "go", "package b", 0.5},
		{"c.go", "go", "package c", 0.9},
	})
	registry := testRegistry(t, qaTemplate())
	gen := New(store, registry, nil, nil)

	opts := Options{TemplateTypes: []string{"question_answer"}}
	first, _, err := gen.GenerateAgentDataset(context.Background(), testProfile(), opts)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, _, err := gen.GenerateAgentDataset(context.Background(), testProfile(), opts)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	for i := range first[0].Samples {
		if first[0].Samples[i].Prompt != second[0].Samples[i].Prompt {
			t.Errorf("prompt %d differs between runs", i)
		}
		if first[0].Samples[i].ExpectedResponse != second[0].Samples[i].ExpectedResponse {
			t.Errorf("response %d differs between runs", i)
		}
	}
}

type flakyResponder struct {
	failures int
	calls    int
}

func (r *flakyResponder) Name() string { return "flaky" }

func (r *flakyResponder) Respond(_ context.Context, req *llm.Request) (string, error) {
	r.calls++
	if r.calls <= r.failures {
		return "", scherr.New(scherr.KindExternal, "transient upstream failure")
	}
	return "recovered response", nil
}

func TestGenerateRetriesExternalFailures(t *testing.T) {
	store := seedKnowledge(t, []seedChunk{{"a.go", "go", "package a", 0.9}})
	registry := testRegistry(t, qaTemplate())
	responder := &flakyResponder{failures: 1}
	gen := New(store, registry, responder, nil)

	batches, _, err := gen.GenerateAgentDataset(context.Background(), testProfile(), Options{
		TemplateTypes: []string{"question_answer"},
	})
	if err != nil {
		t.Fatalf("retryable failure should recover: %v", err)
	}
	if responder.calls != 2 {
		t.Errorf("expected 2 responder calls, got %d", responder.calls)
	}
	if batches[0].Samples[0].ExpectedResponse != "recovered response" {
		t.Errorf("response: %q", batches[0].Samples[0].ExpectedResponse)
	}
}

func TestGenerateEmptyKnowledge(t *testing.T) {
	store := seedKnowledge(t, nil)
	registry := testRegistry(t, qaTemplate())
	gen := New(store, registry, nil, nil)

	batches, stats, err := gen.GenerateAgentDataset(context.Background(), testProfile(), Options{
		TemplateTypes: []string{"question_answer"},
	})
	if err != nil {
		t.Fatalf("empty knowledge should not error: %v", err)
	}
	if len(batches) != 0 || stats.TotalSamples != 0 {
		t.Errorf("expected empty result, got %d batches", len(batches))
	}
}
