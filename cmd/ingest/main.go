// Command ingest is the administrative batch driver: it walks a directory
// of audio files and feeds each one through the same ingestion pipeline the
// server uses, sequentially, without the HTTP fail-fast-429 behavior.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/soundtrace/engine/internal/audio"
	"github.com/soundtrace/engine/internal/config"
	"github.com/soundtrace/engine/internal/database"
	"github.com/soundtrace/engine/internal/dedup"
	"github.com/soundtrace/engine/internal/embedding"
	"github.com/soundtrace/engine/internal/fingerprintindex"
	"github.com/soundtrace/engine/internal/ingest"
	"github.com/soundtrace/engine/internal/logger"
	"github.com/soundtrace/engine/internal/rawstore"
	"github.com/soundtrace/engine/internal/repository"
	"github.com/soundtrace/engine/internal/vectorstore"
)

var rootCmd = &cobra.Command{
	Use:   "ingest [directory]",
	Short: "Batch-ingest a directory of audio files into the engine",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(args[0])
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runBatch(root string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer logger.Close()

	db, err := database.Initialize(cfg.DatabaseURL, cfg.Environment)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	defer database.Close(db)

	rawStore, err := rawstore.New(cfg.StorageRoot)
	if err != nil {
		return fmt.Errorf("initialize raw store: %w", err)
	}

	var mirror *rawstore.Mirror
	if cfg.S3Bucket != "" {
		mirror, err = rawstore.NewMirror(context.Background(), cfg.S3Region, cfg.S3Bucket)
		if err != nil {
			return fmt.Errorf("initialize S3 mirror: %w", err)
		}
	}

	fingerprints, err := fingerprintindex.New(cfg.FingerprintToolPath, cfg.FingerprintIndexDir)
	if err != nil {
		return fmt.Errorf("initialize fingerprint index: %w", err)
	}

	if cfg.VectorStoreURL != "" {
		os.Setenv("ELASTICSEARCH_URL", cfg.VectorStoreURL)
	}
	vectors, err := vectorstore.NewClient(cfg.VectorStoreCollection)
	if err != nil {
		return fmt.Errorf("connect to vector store: %w", err)
	}
	if err := vectors.EnsureCollection(context.Background(), cfg.EmbeddingDim); err != nil {
		return fmt.Errorf("ensure vector store collection: %w", err)
	}

	tracks := repository.NewTrackRepository(db)
	decoder := audio.NewDecoder("")

	embedder, err := embedding.NewEngine(cfg.EmbeddingONNXLibPath, cfg.EmbeddingModelPath, audio.EmbeddingRate, cfg.EmbeddingDim, cfg.EmbeddingConcurrency)
	if err != nil {
		return fmt.Errorf("load embedding model: %w", err)
	}
	defer embedder.Close()

	dedupFP := dedup.New(dedup.DefaultConfig())
	pipeline := ingest.NewPipeline(decoder, dedupFP, rawStore, mirror, fingerprints, embedder, vectors, tracks, cfg.EmbeddingModelID)

	summary, err := ingest.Batch(context.Background(), pipeline, root)
	if err != nil {
		return fmt.Errorf("batch ingest: %w", err)
	}

	fmt.Printf("ingested=%d duplicate=%d skipped=%d errored=%d\n",
		summary.Ingested, summary.Duplicate, summary.Skipped, summary.Errored)
	for _, f := range summary.Files {
		if f.Result.Status == ingest.StatusErrored {
			fmt.Printf("  ERROR %s: %s\n", f.Path, f.Result.ErrorMessage)
		}
	}
	return nil
}
