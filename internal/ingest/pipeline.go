// Package ingest implements the ingestion pipeline (C9): turn one raw file
// into a Track record plus entries in all three stores, or reject it as a
// duplicate/error, without leaving partial state visible to searches.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/soundtrace/engine/internal/audio"
	"github.com/soundtrace/engine/internal/dedup"
	"github.com/soundtrace/engine/internal/embedding"
	"github.com/soundtrace/engine/internal/errors"
	"github.com/soundtrace/engine/internal/fingerprintindex"
	"github.com/soundtrace/engine/internal/logger"
	"github.com/soundtrace/engine/internal/models"
	"github.com/soundtrace/engine/internal/rawstore"
	"github.com/soundtrace/engine/internal/repository"
	"github.com/soundtrace/engine/internal/vectorstore"
	"go.uber.org/zap"
)

const (
	minDurationSeconds = 3.0
	maxDurationSeconds = 30 * 60.0
	dedupThreshold     = 0.85
	dedupDurationSlack = 0.1
)

// Status tags the outcome of one ingestion attempt.
type Status string

const (
	StatusIngested  Status = "ingested"
	StatusDuplicate Status = "duplicate"
	StatusSkipped   Status = "skipped"
	StatusErrored   Status = "errored"
)

// Result is the tagged-union outcome of Pipeline.Ingest.
type Result struct {
	Status        Status
	TrackID       string
	Title         string
	Artist        string
	SkipReason    string
	ErrorMessage  string
}

// Pipeline wires together C1-C8 into the single-writer ingestion sequence
// described by §4.9. Only one file is processed at a time: Ingest takes the
// process-wide exclusive lock itself.
type Pipeline struct {
	decoder      *audio.Decoder
	dedup        *dedup.Fingerprinter
	rawStore     *rawstore.Store
	mirror       *rawstore.Mirror
	fingerprints *fingerprintindex.Index
	embedder     *embedding.Engine
	vectors      *vectorstore.Client
	tracks       *repository.TrackRepository

	embeddingModelID string

	lock sync.Mutex
}

func NewPipeline(
	decoder *audio.Decoder,
	dedupFP *dedup.Fingerprinter,
	rawStore *rawstore.Store,
	mirror *rawstore.Mirror,
	fingerprints *fingerprintindex.Index,
	embedder *embedding.Engine,
	vectors *vectorstore.Client,
	tracks *repository.TrackRepository,
	embeddingModelID string,
) *Pipeline {
	return &Pipeline{
		decoder: decoder, dedup: dedupFP, rawStore: rawStore, mirror: mirror,
		fingerprints: fingerprints, embedder: embedder, vectors: vectors, tracks: tracks,
		embeddingModelID: embeddingModelID,
	}
}

// TryIngest attempts to take the ingestion lock without blocking. Callers
// serving external requests must use this and return RateLimited on
// failure rather than queuing, per the concurrency guarantee in §4.9. The
// administrative batch driver calls Ingest directly instead, which blocks
// for the lock.
func (p *Pipeline) TryIngest(ctx context.Context, data []byte, originalFilename string) (Result, error) {
	if !p.lock.TryLock() {
		return Result{}, errors.RateLimited("")
	}
	defer p.lock.Unlock()
	return p.ingestLocked(ctx, data, originalFilename)
}

// Ingest blocks for the lock — used by the administrative batch driver,
// which is exempt from the fail-fast RateLimited check at the HTTP
// boundary but still must respect single-writer discipline.
func (p *Pipeline) Ingest(ctx context.Context, data []byte, originalFilename string) (Result, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.ingestLocked(ctx, data, originalFilename)
}

func (p *Pipeline) ingestLocked(ctx context.Context, data []byte, originalFilename string) (Result, error) {
	// Step 1: hash + existing-record lookup.
	sum := sha256.Sum256(data)
	sha256Hex := hex.EncodeToString(sum[:])

	existing, err := p.tracks.FindByHash(ctx, sha256Hex)
	if err != nil {
		return Result{Status: StatusErrored, ErrorMessage: err.Error()}, nil
	}
	if existing != nil {
		return Result{Status: StatusDuplicate, TrackID: existing.ID, Title: existing.Title, Artist: existing.Artist}, nil
	}

	// Step 2: metadata extraction.
	md := audio.ExtractMetadata(originalFilename, data)

	// Step 3: dual-rate decode + duration gate.
	pcm16k, pcm48k, err := p.decoder.DecodeDualRate(ctx, data)
	if err != nil {
		return Result{Status: StatusSkipped, SkipReason: "unreadable audio: " + err.Error()}, nil
	}
	durationSeconds := audio.DurationSeconds(pcm16k, audio.FingerprintRate)
	if durationSeconds < minDurationSeconds {
		return Result{Status: StatusSkipped, SkipReason: "audio shorter than the minimum duration"}, nil
	}
	if durationSeconds > maxDurationSeconds {
		return Result{Status: StatusSkipped, SkipReason: "audio exceeds the maximum duration"}, nil
	}

	// Step 4: perceptual dedup.
	fpText, fpDuration, err := p.dedup.Fingerprint(audio.ToInt16(pcm16k))
	if err != nil {
		logger.Log.Warn("perceptual fingerprint failed, continuing without dedup coverage", zap.Error(err))
	}
	if fpText != "" {
		candidates, err := p.tracks.DedupCandidatesInDurationRange(ctx,
			fpDuration*(1-dedupDurationSlack), fpDuration*(1+dedupDurationSlack))
		if err == nil {
			dedupCandidates := make([]dedup.Candidate, len(candidates))
			for i, c := range candidates {
				dedupCandidates[i] = dedup.Candidate{TrackID: c.TrackID, Text: c.Text, Duration: c.Duration}
			}
			if trackID, ok := dedup.IsDuplicate(fpText, dedupCandidates, dedupThreshold); ok {
				return Result{Status: StatusDuplicate, TrackID: trackID}, nil
			}
		}
	}

	// Step 5: persist the raw file.
	ext := filepath.Ext(originalFilename)
	_, storagePath, err := p.rawStore.Put(data, ext)
	if err != nil {
		return Result{Status: StatusErrored, ErrorMessage: err.Error()}, nil
	}
	p.mirror.PutAsync(sha256Hex, ext, data)

	// Step 6: assign the track identifier.
	trackID := uuid.NewString()

	// Step 7: index fingerprint + upsert vector chunks in parallel.
	var fpErr, vecErr error
	var chunks []embedding.Chunk
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		fpErr = p.fingerprints.Index(ctx, pcm16k, trackID)
	}()
	go func() {
		defer wg.Done()
		chunks, vecErr = p.embedder.Embed(ctx, pcm48k)
		if vecErr == nil && len(chunks) > 0 {
			vsChunks := make([]vectorstore.Chunk, len(chunks))
			for i, c := range chunks {
				vsChunks[i] = vectorstore.Chunk{Embedding: c.Embedding, OffsetSec: c.OffsetSec, ChunkIndex: c.ChunkIndex, DurationSec: c.DurationSec}
			}
			extras := map[string]interface{}{}
			if md.Artist != "" {
				extras["artist"] = md.Artist
			}
			vecErr = p.vectors.UpsertChunks(ctx, trackID, vsChunks, extras)
		}
	}()
	wg.Wait()

	if fpErr != nil || vecErr != nil {
		p.rollback(ctx, trackID, fpErr == nil, vecErr == nil)
		msg := joinErrs(fpErr, vecErr)
		return Result{Status: StatusErrored, ErrorMessage: msg}, nil
	}

	// Step 8: insert the catalog record with both flags set.
	title := md.Title
	if title == "" {
		title = originalFilename
	}
	embeddingModel := ""
	embeddingDim := 0
	if len(chunks) > 0 {
		embeddingModel = p.embeddingModelID
		embeddingDim = len(chunks[0].Embedding)
	}

	track := &models.Track{
		ID:                  trackID,
		Title:               title,
		Artist:              md.Artist,
		Album:               md.Album,
		DurationSeconds:     durationSeconds,
		SampleRate:          md.SampleRate,
		Channels:            md.Channels,
		Bitrate:             md.Bitrate,
		SourceFormat:        ext,
		SHA256:              sha256Hex,
		FileSizeBytes:       md.SizeBytes,
		StoragePath:         storagePath,
		FingerprintText:     fpText,
		FingerprintDuration: fpDuration,
		OlafIndexed:         true,
		EmbeddingModel:      embeddingModel,
		EmbeddingDim:        embeddingDim,
	}

	if err := p.tracks.Insert(ctx, track); err != nil {
		p.rollback(ctx, trackID, true, true)
		return Result{Status: StatusErrored, ErrorMessage: err.Error()}, nil
	}

	return Result{Status: StatusIngested, TrackID: trackID, Title: title, Artist: md.Artist}, nil
}

// rollback best-effort removes fingerprint/vector entries for a track
// whose catalog insert failed, so a failed ingest never leaves partial
// state visible to search. Rollback failures are logged, never returned —
// the caller already sees status=error.
func (p *Pipeline) rollback(ctx context.Context, trackID string, fpWasIndexed, vecWasUpserted bool) {
	if fpWasIndexed {
		if err := p.fingerprints.Delete(ctx, trackID); err != nil {
			logger.Log.Error("rollback: failed to delete fingerprint entries", zap.String("track_id", trackID), zap.Error(err))
		}
	}
	if vecWasUpserted {
		if err := p.vectors.DeleteTrack(ctx, trackID); err != nil {
			logger.Log.Error("rollback: failed to delete vector points", zap.String("track_id", trackID), zap.Error(err))
		}
	}
}

func joinErrs(errs ...error) string {
	msg := ""
	for _, e := range errs {
		if e == nil {
			continue
		}
		if msg != "" {
			msg += "; "
		}
		msg += e.Error()
	}
	if msg == "" {
		msg = "unknown ingestion error"
	}
	return msg
}
