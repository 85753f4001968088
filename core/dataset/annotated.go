package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	scherr "github.com/adalundhe/scholar/core/errors"
)

// QualityScoreFor maps a human quality label to its numeric score.
// Unknown labels map to 3, the middle of the scale.
func QualityScoreFor(annotation string) int {
	switch annotation {
	case "excellent":
		return 5
	case "good":
		return 4
	case "fair":
		return 3
	case "poor":
		return 2
	case "terrible":
		return 1
	default:
		return 3
	}
}

// LoadSamples reads samples from a JSONL or JSON dataset file. The
// format is inferred from the file extension.
func LoadSamples(path string) ([]*Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, scherr.Newf(scherr.KindNotFound, "dataset file %s does not exist", path)
		}
		return nil, fmt.Errorf("failed to open dataset file %s: %w", path, err)
	}
	defer f.Close()

	if strings.HasSuffix(path, ".json") {
		var batch Batch
		if err := json.NewDecoder(f).Decode(&batch); err != nil {
			return nil, scherr.Wrap(scherr.KindFormat,
				fmt.Sprintf("failed to parse dataset file %s", path), err)
		}
		return batch.Samples, nil
	}

	var samples []*Sample
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var sample Sample
		if err := json.Unmarshal([]byte(raw), &sample); err != nil {
			return nil, scherr.Wrap(scherr.KindFormat,
				fmt.Sprintf("failed to parse %s line %d", path, line), err)
		}
		samples = append(samples, &sample)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dataset file %s: %w", path, err)
	}

	return samples, nil
}

// QualityStats summarizes scores for one grouping key.
type QualityStats struct {
	AvgScore    float64 `json:"avg_score"`
	SampleCount int     `json:"sample_count"`
	Scores      []int   `json:"scores"`
}

// LowQualitySample identifies a reviewed sample that scored at or
// below 2 out of 5.
type LowQualitySample struct {
	ID             string  `json:"id"`
	TemplateType   string  `json:"template_type"`
	QualityScore   int     `json:"quality_score"`
	RelevanceScore float64 `json:"relevance_score"`
}

// AnnotationAnalysis aggregates human review results across a dataset.
type AnnotationAnalysis struct {
	TotalSamples        int                      `json:"total_samples"`
	AnnotatedSamples    int                      `json:"annotated_samples"`
	QualityDistribution map[string]int           `json:"quality_distribution"`
	TemplateQuality     map[string]*QualityStats `json:"template_quality"`
	AgentQuality        map[string]*QualityStats `json:"agent_quality"`
	AvgQualityScore     float64                  `json:"avg_quality_score"`
	LowQualitySamples   []LowQualitySample       `json:"low_quality_samples"`
}

// AnalyzeAnnotations computes quality statistics over reviewed samples.
// Samples without an annotation count toward the total but contribute
// nothing to the distributions.
func AnalyzeAnnotations(samples []*Sample) *AnnotationAnalysis {
	analysis := &AnnotationAnalysis{
		TotalSamples:        len(samples),
		QualityDistribution: make(map[string]int),
		TemplateQuality:     make(map[string]*QualityStats),
		AgentQuality:        make(map[string]*QualityStats),
	}

	var sum, count int
	for _, sample := range samples {
		annotation := sample.Annotation()
		if annotation == "" {
			continue
		}
		analysis.AnnotatedSamples++
		analysis.QualityDistribution[annotation]++

		score := sample.QualityScore()
		if score == 0 {
			score = QualityScoreFor(annotation)
		}
		sum += score
		count++

		appendScore(analysis.TemplateQuality, sample.TemplateType, score)
		appendScore(analysis.AgentQuality, sample.AgentName, score)

		if score <= 2 {
			relevance := 0.0
			if v, ok := sample.Metadata["relevance_score"].(float64); ok {
				relevance = v
			}
			analysis.LowQualitySamples = append(analysis.LowQualitySamples, LowQualitySample{
				ID:             sample.ID,
				TemplateType:   sample.TemplateType,
				QualityScore:   score,
				RelevanceScore: relevance,
			})
		}
	}

	if count > 0 {
		analysis.AvgQualityScore = float64(sum) / float64(count)
	}
	for _, stats := range analysis.TemplateQuality {
		finalizeStats(stats)
	}
	for _, stats := range analysis.AgentQuality {
		finalizeStats(stats)
	}

	return analysis
}

func appendScore(m map[string]*QualityStats, key string, score int) {
	stats, ok := m[key]
	if !ok {
		stats = &QualityStats{}
		m[key] = stats
	}
	stats.Scores = append(stats.Scores, score)
}

func finalizeStats(stats *QualityStats) {
	stats.SampleCount = len(stats.Scores)
	sum := 0
	for _, s := range stats.Scores {
		sum += s
	}
	if stats.SampleCount > 0 {
		stats.AvgScore = float64(sum) / float64(stats.SampleCount)
	}
}
