package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	scherr "github.com/adalundhe/scholar/core/errors"
)

// Supported serialization formats.
const (
	FormatJSONL = "jsonl"
	FormatJSON  = "json"
)

// Writer serializes dataset batches to the output directory. File names
// are derived from agent name and template type so that re-running a
// generation overwrites the previous output instead of accumulating
// timestamped copies.
type Writer struct {
	outputDir string
	logger    *slog.Logger
}

// NewWriter creates a Writer rooted at outputDir, creating the
// directory if it does not exist.
func NewWriter(outputDir string, logger *slog.Logger) (*Writer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}
	return &Writer{outputDir: outputDir, logger: logger}, nil
}

// OutputDir returns the directory the writer saves into.
func (w *Writer) OutputDir() string {
	return w.outputDir
}

// ValidateFormat reports whether format is a supported output format.
func ValidateFormat(format string) error {
	switch format {
	case FormatJSONL, FormatJSON:
		return nil
	default:
		return scherr.Newf(scherr.KindFormat, "unsupported output format %q", format)
	}
}

// SaveBatches writes each batch to its own file in the requested
// format. The format is validated before any file is touched so that
// a bad format never leaves a partial run on disk.
func (w *Writer) SaveBatches(batches []*Batch, format string) ([]string, error) {
	if err := ValidateFormat(format); err != nil {
		return nil, err
	}

	saved := make([]string, 0, len(batches))
	for _, batch := range batches {
		path := filepath.Join(w.outputDir,
			fmt.Sprintf("%s_%s.%s", batch.AgentName, batch.TemplateType, format))

		var (
			data []byte
			err  error
		)
		switch format {
		case FormatJSONL:
			data, err = encodeJSONL(batch.Samples)
		case FormatJSON:
			data, err = json.MarshalIndent(batch, "", "  ")
		}
		if err != nil {
			return saved, fmt.Errorf("failed to encode batch %s/%s: %w",
				batch.AgentName, batch.TemplateType, err)
		}

		if err := writeAtomic(path, data); err != nil {
			return saved, err
		}

		w.logger.Info("saved dataset batch",
			"agent", batch.AgentName,
			"template_type", batch.TemplateType,
			"samples", len(batch.Samples),
			"path", path)
		saved = append(saved, path)
	}

	return saved, nil
}

// ExportDistilabel flattens batches into instruction-following records
// and writes them as a single JSONL file. Each record carries the full
// sample metadata plus identity fields so downstream tooling can trace
// a record back to its source.
func (w *Writer) ExportDistilabel(batches []*Batch, filename string) (string, error) {
	if filename == "" {
		filename = "distilabel_dataset.jsonl"
	}
	path := filepath.Join(w.outputDir, filename)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	total := 0
	for _, batch := range batches {
		for _, sample := range batch.Samples {
			metadata := map[string]any{
				"agent_name":    sample.AgentName,
				"template_type": sample.TemplateType,
				"sample_id":     sample.ID,
			}
			for k, v := range sample.Metadata {
				metadata[k] = v
			}
			record := map[string]any{
				"instruction": sample.Prompt,
				"output":      sample.ExpectedResponse,
				"input":       "",
				"metadata":    metadata,
			}
			if err := enc.Encode(record); err != nil {
				return "", fmt.Errorf("failed to encode distilabel record: %w", err)
			}
			total++
		}
	}

	if err := writeAtomic(path, buf.Bytes()); err != nil {
		return "", err
	}

	w.logger.Info("exported distilabel dataset", "path", path, "samples", total)
	return path, nil
}

func encodeJSONL(samples []*Sample) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, sample := range samples {
		if err := enc.Encode(sample); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// writeAtomic writes to a temp file in the target directory, then
// renames into place so readers never observe a partial file.
func writeAtomic(path string, data []byte) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename %s: %w", tmpPath, err)
	}
	return nil
}
