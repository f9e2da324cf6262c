package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/soundtrace/engine/internal/logger"
	"go.uber.org/zap"
)

// BatchSummary tallies outcomes across a directory walk.
type BatchSummary struct {
	Ingested  int
	Duplicate int
	Skipped   int
	Errored   int
	Files     []BatchFileResult
}

// BatchFileResult pairs one input file with its ingestion result.
type BatchFileResult struct {
	Path   string
	Result Result
}

// Batch walks root and feeds every regular file through the pipeline
// sequentially, one at a time — the single-writer fingerprint index
// constraint is the same reason the teacher's audio_jobs queue existed for
// worker fan-out, except here it rules out concurrency rather than bounding
// it: this driver calls Pipeline.Ingest directly (blocking for the lock)
// rather than racing multiple files for it.
func Batch(ctx context.Context, p *Pipeline, root string) (BatchSummary, error) {
	var summary BatchSummary

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			logger.Log.Warn("batch ingest: failed to read file", zap.String("path", path), zap.Error(readErr))
			summary.Errored++
			summary.Files = append(summary.Files, BatchFileResult{Path: path, Result: Result{Status: StatusErrored, ErrorMessage: readErr.Error()}})
			return nil
		}

		result, ingestErr := p.Ingest(ctx, data, filepath.Base(path))
		if ingestErr != nil {
			logger.Log.Warn("batch ingest: pipeline error", zap.String("path", path), zap.Error(ingestErr))
			summary.Errored++
			summary.Files = append(summary.Files, BatchFileResult{Path: path, Result: Result{Status: StatusErrored, ErrorMessage: ingestErr.Error()}})
			return nil
		}

		switch result.Status {
		case StatusIngested:
			summary.Ingested++
		case StatusDuplicate:
			summary.Duplicate++
		case StatusSkipped:
			summary.Skipped++
		default:
			summary.Errored++
		}
		summary.Files = append(summary.Files, BatchFileResult{Path: path, Result: result})

		logger.Log.Info("batch ingest: file processed",
			zap.String("path", path), zap.String("status", string(result.Status)), zap.String("track_id", result.TrackID))

		select {
		case <-ctx.Done():
			return fmt.Errorf("batch ingest cancelled: %w", ctx.Err())
		default:
			return nil
		}
	})

	return summary, err
}
