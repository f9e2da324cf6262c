package ingest

import (
	"context"
	"fmt"
	"io"

	"github.com/soundtrace/engine/internal/embedding"
	"github.com/soundtrace/engine/internal/vectorstore"
)

// DeleteTrack removes a track's fingerprint-index and vector-store entries
// plus its catalog row. The raw file at StoragePath is left in place — it is
// content-addressed and may still be referenced by re-ingestion of the same
// bytes under a different track ID.
func (p *Pipeline) DeleteTrack(ctx context.Context, trackID string) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	if err := p.fingerprints.Delete(ctx, trackID); err != nil {
		return fmt.Errorf("delete fingerprint entries: %w", err)
	}
	if err := p.vectors.DeleteTrack(ctx, trackID); err != nil {
		return fmt.Errorf("delete vector entries: %w", err)
	}
	if err := p.tracks.Delete(ctx, trackID); err != nil {
		return fmt.Errorf("delete catalog row: %w", err)
	}
	return nil
}

// Reindex re-derives the fingerprint and embedding entries for an existing
// track from its stored raw file, replacing whatever is currently indexed.
// Used to recover a track whose index writes partially failed, or to pick up
// a new embedding model without re-uploading.
func (p *Pipeline) Reindex(ctx context.Context, trackID string) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	records, err := p.tracks.GetManyByIDs(ctx, []string{trackID})
	if err != nil {
		return fmt.Errorf("look up track: %w", err)
	}
	track, ok := records[trackID]
	if !ok {
		return fmt.Errorf("track %s not found", trackID)
	}

	f, err := p.rawStore.OpenPath(track.StoragePath)
	if err != nil {
		return fmt.Errorf("read raw file: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read raw file: %w", err)
	}

	pcm16k, pcm48k, err := p.decoder.DecodeDualRate(ctx, data)
	if err != nil {
		return fmt.Errorf("decode raw file: %w", err)
	}

	if err := p.fingerprints.Delete(ctx, trackID); err != nil {
		return fmt.Errorf("clear old fingerprint entries: %w", err)
	}
	if err := p.vectors.DeleteTrack(ctx, trackID); err != nil {
		return fmt.Errorf("clear old vector entries: %w", err)
	}

	if err := p.fingerprints.Index(ctx, pcm16k, trackID); err != nil {
		return fmt.Errorf("reindex fingerprint: %w", err)
	}

	var chunks []embedding.Chunk
	chunks, err = p.embedder.Embed(ctx, pcm48k)
	if err != nil {
		return fmt.Errorf("re-embed: %w", err)
	}
	embeddingModel := ""
	embeddingDim := 0
	if len(chunks) > 0 {
		embeddingModel = p.embeddingModelID
		embeddingDim = len(chunks[0].Embedding)
		vsChunks := make([]vectorstore.Chunk, len(chunks))
		for i, c := range chunks {
			vsChunks[i] = vectorstore.Chunk{Embedding: c.Embedding, OffsetSec: c.OffsetSec, ChunkIndex: c.ChunkIndex, DurationSec: c.DurationSec}
		}
		extras := map[string]interface{}{}
		if track.Artist != "" {
			extras["artist"] = track.Artist
		}
		if err := p.vectors.UpsertChunks(ctx, trackID, vsChunks, extras); err != nil {
			return fmt.Errorf("re-upsert vectors: %w", err)
		}
	}

	if err := p.tracks.UpdateFlags(ctx, trackID, true, embeddingModel, embeddingDim); err != nil {
		return fmt.Errorf("update track flags: %w", err)
	}
	return nil
}
