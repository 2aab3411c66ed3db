// Package storage persists enriched records: one timestamped JSON file per
// category for the downstream ETL stage, plus an optional MongoDB sink.
package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"martminer/internal/types"
)

// ResultWriter serializes a category's enriched records to a timestamped
// file under the configured output directory.
type ResultWriter struct {
	outputDir string
	logger    *slog.Logger
	now       func() time.Time
}

// NewResultWriter creates a writer rooted at outputDir.
func NewResultWriter(outputDir string, logger *slog.Logger) *ResultWriter {
	return &ResultWriter{
		outputDir: outputDir,
		logger:    logger.With("component", "result_writer"),
		now:       time.Now,
	}
}

// WriteCategory writes records to {outputDir}/{category}_{timestamp}.json,
// creating parent directories as needed, and returns the path. The
// timestamp makes names effectively unique per run; overwrites are not
// guarded against.
func (w *ResultWriter) WriteCategory(category string, records []types.EnrichedRecord) (string, error) {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s.json", category, w.now().Format("20060102_150405"))
	path := filepath.Join(w.outputDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	// An empty category still produces a valid (empty) JSON array.
	if records == nil {
		records = []types.EnrichedRecord{}
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		return "", fmt.Errorf("encode JSON: %w", err)
	}

	w.logger.Info("category written", "path", path, "records", len(records))
	return path, nil
}
