package lanes

import (
	"testing"

	"github.com/soundtrace/engine/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestSuppressTrustedExact_RemovesHighConfidenceOverlap(t *testing.T) {
	exact := []ExactMatch{
		{Track: models.TrackInfo{ID: "a"}, Confidence: 0.95},
		{Track: models.TrackInfo{ID: "b"}, Confidence: 0.5},
	}
	vibe := []VibeMatch{
		{Track: models.TrackInfo{ID: "a"}, Similarity: 0.8},
		{Track: models.TrackInfo{ID: "b"}, Similarity: 0.7},
		{Track: models.TrackInfo{ID: "c"}, Similarity: 0.6},
	}

	out := suppressTrustedExact(exact, vibe, 0.85)

	ids := make([]string, 0, len(out))
	for _, m := range out {
		ids = append(ids, m.Track.ID)
	}
	assert.ElementsMatch(t, []string{"b", "c"}, ids)
}

func TestSuppressTrustedExact_NoTrustedLeavesVibeUntouched(t *testing.T) {
	exact := []ExactMatch{{Track: models.TrackInfo{ID: "a"}, Confidence: 0.5}}
	vibe := []VibeMatch{{Track: models.TrackInfo{ID: "a"}, Similarity: 0.8}}

	out := suppressTrustedExact(exact, vibe, 0.85)
	assert.Len(t, out, 1)
	assert.Equal(t, "a", out[0].Track.ID)
}

func TestSuppressTrustedExact_EmptyExactReturnsVibeUnchanged(t *testing.T) {
	vibe := []VibeMatch{{Track: models.TrackInfo{ID: "x"}, Similarity: 0.9}}
	out := suppressTrustedExact(nil, vibe, 0.85)
	assert.Equal(t, vibe, out)
}

func TestNewOrchestrator_DefaultsTrustThreshold(t *testing.T) {
	o := NewOrchestrator(nil, nil, 0, 0, 0, 0)
	assert.Equal(t, 0.85, o.exactTrustThreshold)
}

func TestNewVibeLane_DefaultsThreshold(t *testing.T) {
	lane := NewVibeLane(nil, nil, nil, 0)
	assert.Equal(t, 0.60, lane.matchThreshold)
}
