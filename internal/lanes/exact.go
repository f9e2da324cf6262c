// Package lanes holds the two search lanes (exact, C10; vibe, C11) and the
// orchestrator (C12) that fans out to them.
package lanes

import (
	"context"
	"sort"

	"github.com/soundtrace/engine/internal/fingerprintindex"
	"github.com/soundtrace/engine/internal/models"
	"github.com/soundtrace/engine/internal/repository"
)

const (
	subWindowSeconds    = 3.5
	subWindowHopSec     = 0.75
	fullClipMinSeconds  = 6.0
	offsetTolerance     = 1.0
	bytesPerSampleF32   = 4
	highConfidenceFloor = 0.85
)

// ExactMatch is one ranked exact-match result, enriched from the catalog.
type ExactMatch struct {
	Track         models.TrackInfo
	Confidence    float64
	AlignedHashes int
	OffsetSeconds float64
}

// ExactLane runs acoustic-fingerprint ("exact match") search against C4.
type ExactLane struct {
	index  *fingerprintindex.Index
	tracks *repository.TrackRepository

	strongMatchHashes int
	minAlignedHashes  int
}

func NewExactLane(index *fingerprintindex.Index, tracks *repository.TrackRepository, strongMatchHashes, minAlignedHashes int) *ExactLane {
	if strongMatchHashes <= 0 {
		strongMatchHashes = 20
	}
	if minAlignedHashes <= 0 {
		minAlignedHashes = 8
	}
	return &ExactLane{index: index, tracks: tracks, strongMatchHashes: strongMatchHashes, minAlignedHashes: minAlignedHashes}
}

// Search runs the duration-gated full-clip or sub-window strategy over
// 16kHz f32le PCM and returns ranked, catalog-enriched matches. Fingerprint
// tool failures degrade to an empty list rather than an error, per the
// lane's failure model.
func (l *ExactLane) Search(ctx context.Context, pcm16k []byte, maxResults int) []ExactMatch {
	durationSec := float64(len(pcm16k)/bytesPerSampleF32) / 16000.0

	var aligned map[string]alignedCandidate
	if durationSec >= fullClipMinSeconds {
		aligned = l.fullClipQuery(ctx, pcm16k)
	} else {
		aligned = l.subWindowQuery(ctx, pcm16k)
	}

	return l.rankAndEnrich(ctx, aligned, maxResults)
}

type alignedCandidate struct {
	trackID        string
	alignedHashes  int
	windowsMatched int
	offsetSeconds  float64
}

func (l *ExactLane) fullClipQuery(ctx context.Context, pcm16k []byte) map[string]alignedCandidate {
	matches := l.index.Query(ctx, pcm16k)

	type trackAgg struct {
		alignedHashes int
		offsets       []float64
	}
	byTrack := make(map[string]*trackAgg)
	for _, m := range matches {
		t, ok := byTrack[m.ReferenceIdentifier]
		if !ok {
			t = &trackAgg{}
			byTrack[m.ReferenceIdentifier] = t
		}
		t.alignedHashes += m.MatchCount
		t.offsets = append(t.offsets, m.ReferenceStart)
	}

	out := make(map[string]alignedCandidate)
	for trackID, t := range byTrack {
		out[trackID] = alignedCandidate{
			trackID:        trackID,
			alignedHashes:  t.alignedHashes,
			windowsMatched: 1,
			offsetSeconds:  medianFloat64(t.offsets),
		}
	}
	return out
}

// subWindowQuery slices the short clip into overlapping 3.5s/0.75s-hop
// windows, queries each independently, and reconciles per-track offsets by
// subtracting each window's start time from its reported reference_start.
func (l *ExactLane) subWindowQuery(ctx context.Context, pcm16k []byte) map[string]alignedCandidate {
	windowLen := int(subWindowSeconds * 16000 * bytesPerSampleF32)
	hopLen := int(subWindowHopSec * 16000 * bytesPerSampleF32)

	type trackOffsets struct {
		hashesByWindow    map[int]int
		offsetSumByWindow map[int]float64
	}
	byTrack := make(map[string]*trackOffsets)

	windowIndex := 0
	for start := 0; start+windowLen <= len(pcm16k) || start == 0; start += hopLen {
		end := start + windowLen
		if end > len(pcm16k) {
			end = len(pcm16k)
		}
		if start >= end {
			break
		}
		windowStartSec := float64(start) / (16000 * bytesPerSampleF32)

		matches := l.index.Query(ctx, pcm16k[start:end])
		for _, m := range matches {
			t, ok := byTrack[m.ReferenceIdentifier]
			if !ok {
				t = &trackOffsets{hashesByWindow: make(map[int]int), offsetSumByWindow: make(map[int]float64)}
				byTrack[m.ReferenceIdentifier] = t
			}
			t.hashesByWindow[windowIndex] += m.MatchCount
			t.offsetSumByWindow[windowIndex] += m.ReferenceStart - windowStartSec
		}

		windowIndex++
		if end == len(pcm16k) {
			break
		}
	}

	out := make(map[string]alignedCandidate)
	for trackID, t := range byTrack {
		// One reconciled offset per window (its matched hashes averaged),
		// so agreement is judged window-by-window rather than hash-by-hash.
		windowOffsets := make([]float64, 0, len(t.hashesByWindow))
		for w, hashes := range t.hashesByWindow {
			windowOffsets = append(windowOffsets, t.offsetSumByWindow[w]/float64(hashes))
		}

		median := medianFloat64(windowOffsets)
		agreeingWindows := 0
		for _, off := range windowOffsets {
			if abs(off-median) <= offsetTolerance {
				agreeingWindows++
			}
		}

		totalHashes := 0
		for _, h := range t.hashesByWindow {
			totalHashes += h
		}

		out[trackID] = alignedCandidate{
			trackID:        trackID,
			alignedHashes:  totalHashes * len(t.hashesByWindow),
			windowsMatched: agreeingWindows,
			offsetSeconds:  median,
		}
	}
	return out
}

func (l *ExactLane) rankAndEnrich(ctx context.Context, aligned map[string]alignedCandidate, maxResults int) []ExactMatch {
	if len(aligned) == 0 {
		return nil
	}

	ids := make([]string, 0, len(aligned))
	filtered := make([]alignedCandidate, 0, len(aligned))
	for id, c := range aligned {
		if c.alignedHashes < l.minAlignedHashes {
			continue
		}
		ids = append(ids, id)
		filtered = append(filtered, c)
	}
	if len(filtered) == 0 {
		return nil
	}

	records, err := l.tracks.GetManyByIDs(ctx, ids)
	if err != nil {
		return nil
	}

	results := make([]ExactMatch, 0, len(filtered))
	for _, c := range filtered {
		rec, ok := records[c.trackID]
		if !ok {
			continue
		}
		confidence := float64(c.alignedHashes) / float64(l.strongMatchHashes)
		if confidence > 1.0 {
			confidence = 1.0
		}
		// Two or more windows whose reconciled offsets agree with the
		// track's median offset qualify the match for high confidence,
		// even if the raw hash-count ratio alone would not.
		if c.windowsMatched >= 2 && confidence < highConfidenceFloor {
			confidence = highConfidenceFloor
		}
		results = append(results, ExactMatch{
			Track:         rec.Info(),
			Confidence:    confidence,
			AlignedHashes: c.alignedHashes,
			OffsetSeconds: c.offsetSeconds,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Confidence != results[j].Confidence {
			return results[i].Confidence > results[j].Confidence
		}
		if results[i].AlignedHashes != results[j].AlignedHashes {
			return results[i].AlignedHashes > results[j].AlignedHashes
		}
		return results[i].Track.ID < results[j].Track.ID
	})

	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

func medianFloat64(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
