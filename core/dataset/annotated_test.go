package dataset

import (
	"path/filepath"
	"testing"

	scherr "github.com/adalundhe/scholar/core/errors"
)

func annotatedSample(id, templateType, annotation string, score int) *Sample {
	metadata := map[string]any{"relevance_score": 0.4}
	if annotation != "" {
		metadata["human_annotation"] = annotation
		metadata["quality_score"] = score
	}
	return &Sample{
		ID:           id,
		AgentName:    "solution_architect",
		TemplateType: templateType,
		Prompt:       "prompt",
		Metadata:     metadata,
	}
}

func TestQualityScoreFor(t *testing.T) {
	cases := map[string]int{
		"excellent": 5,
		"good":      4,
		"fair":      3,
		"poor":      2,
		"terrible":  1,
		"unknown":   3,
	}
	for label, want := range cases {
		if got := QualityScoreFor(label); got != want {
			t.Errorf("%s: got %d, want %d", label, got, want)
		}
	}
}

func TestAnalyzeAnnotations(t *testing.T) {
	samples := []*Sample{
		annotatedSample("a", "question_answer", "excellent", 5),
		annotatedSample("b", "question_answer", "poor", 2),
		annotatedSample("c", "code_review", "good", 4),
		annotatedSample("d", "code_review", "", 0),
	}

	analysis := AnalyzeAnnotations(samples)

	if analysis.TotalSamples != 4 {
		t.Errorf("total: got %d", analysis.TotalSamples)
	}
	if analysis.AnnotatedSamples != 3 {
		t.Errorf("annotated: got %d", analysis.AnnotatedSamples)
	}
	if analysis.QualityDistribution["excellent"] != 1 {
		t.Errorf("distribution: %+v", analysis.QualityDistribution)
	}

	wantAvg := (5.0 + 2.0 + 4.0) / 3.0
	if analysis.AvgQualityScore != wantAvg {
		t.Errorf("avg: got %v, want %v", analysis.AvgQualityScore, wantAvg)
	}

	qa := analysis.TemplateQuality["question_answer"]
	if qa == nil || qa.SampleCount != 2 || qa.AvgScore != 3.5 {
		t.Errorf("question_answer stats: %+v", qa)
	}

	if len(analysis.LowQualitySamples) != 1 || analysis.LowQualitySamples[0].ID != "b" {
		t.Errorf("low quality: %+v", analysis.LowQualitySamples)
	}
}

func TestAnalyzeAnnotationsScoreFallback(t *testing.T) {
	sample := annotatedSample("a", "question_answer", "good", 0)
	delete(sample.Metadata, "quality_score")

	analysis := AnalyzeAnnotations([]*Sample{sample})
	if analysis.AvgQualityScore != 4 {
		t.Errorf("label fallback: got %v, want 4", analysis.AvgQualityScore)
	}
}

func TestLoadSamplesMissingFile(t *testing.T) {
	_, err := LoadSamples(filepath.Join(t.TempDir(), "absent.jsonl"))
	if err == nil || scherr.GetKind(err) != scherr.KindNotFound {
		t.Errorf("expected not_found kind, got %v", err)
	}
}
