package lanes

import (
	"context"
	"sort"

	"github.com/soundtrace/engine/internal/embedding"
	"github.com/soundtrace/engine/internal/errors"
	"github.com/soundtrace/engine/internal/models"
	"github.com/soundtrace/engine/internal/repository"
	"github.com/soundtrace/engine/internal/vectorstore"
)

const (
	vibeSearchLimit = 50
	vibeTopK        = 3
	diversityStep   = 0.01
	diversityCap    = 0.05
)

// VibeMatch is one ranked embedding-similarity result.
type VibeMatch struct {
	Track          models.TrackInfo
	Similarity     float64
	EmbeddingModel string
}

// VibeLane runs neural-embedding similarity search against C5 + C6.
type VibeLane struct {
	embedder *embedding.Engine
	vectors  *vectorstore.Client
	tracks   *repository.TrackRepository

	matchThreshold float64
}

func NewVibeLane(embedder *embedding.Engine, vectors *vectorstore.Client, tracks *repository.TrackRepository, matchThreshold float64) *VibeLane {
	if matchThreshold <= 0 {
		matchThreshold = 0.60
	}
	return &VibeLane{embedder: embedder, vectors: vectors, tracks: tracks, matchThreshold: matchThreshold}
}

// Search embeds the query as a single (unchunked) window, queries the
// vector store for its nearest chunk neighbors, aggregates by track, and
// returns catalog-enriched, threshold-filtered matches. excludeTrackID, if
// non-empty, is dropped from the result. The orchestrator always passes ""
// and removes trusted exact matches itself (suppressTrustedExact).
func (l *VibeLane) Search(ctx context.Context, pcm48k []byte, maxResults int, excludeTrackID string) ([]VibeMatch, error) {
	if l.embedder == nil {
		return nil, errors.EmbeddingUnavailable()
	}

	chunks, err := l.embedder.Embed(ctx, pcm48k)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	queryVec := chunks[0].Embedding
	hits := l.vectors.Query(ctx, queryVec, vibeSearchLimit, 128)
	if len(hits) == 0 {
		return nil, nil
	}

	type trackAgg struct {
		scores        []float64
		chunkIndices  map[float64]bool
	}
	byTrack := make(map[string]*trackAgg)
	for _, hit := range hits {
		trackID, _ := hit.Payload["track_id"].(string)
		if trackID == "" {
			continue
		}
		agg, ok := byTrack[trackID]
		if !ok {
			agg = &trackAgg{chunkIndices: make(map[float64]bool)}
			byTrack[trackID] = agg
		}
		agg.scores = append(agg.scores, hit.Score)
		if ci, ok := hit.Payload["chunk_index"].(float64); ok {
			agg.chunkIndices[ci] = true
		}
	}

	type scored struct {
		trackID string
		score   float64
	}
	var candidates []scored
	for trackID, agg := range byTrack {
		sort.Sort(sort.Reverse(sort.Float64Slice(agg.scores)))
		k := vibeTopK
		if k > len(agg.scores) {
			k = len(agg.scores)
		}
		var sum float64
		for i := 0; i < k; i++ {
			sum += agg.scores[i]
		}
		baseScore := sum / float64(k)

		diversityBonus := diversityStep * float64(len(agg.chunkIndices))
		if diversityBonus > diversityCap {
			diversityBonus = diversityCap
		}

		finalScore := baseScore + diversityBonus
		if finalScore > 1.0 {
			finalScore = 1.0
		}

		if finalScore < l.matchThreshold {
			continue
		}
		candidates = append(candidates, scored{trackID: trackID, score: finalScore})
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.trackID)
	}
	records, err := l.tracks.GetManyByIDs(ctx, ids)
	if err != nil {
		return nil, nil
	}

	results := make([]VibeMatch, 0, len(candidates))
	for _, c := range candidates {
		if c.trackID == excludeTrackID {
			continue
		}
		rec, ok := records[c.trackID]
		if !ok {
			continue
		}
		results = append(results, VibeMatch{
			Track:          rec.Info(),
			Similarity:     c.score,
			EmbeddingModel: rec.EmbeddingModel,
		})
		if maxResults > 0 && len(results) == maxResults {
			break
		}
	}
	return results, nil
}
