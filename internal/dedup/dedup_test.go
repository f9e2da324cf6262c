package dedup

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sineWave generates a pure tone at freqHz, sampleRate samples/sec, for
// durationSec seconds, scaled to int16 range.
func sineWave(freqHz float64, sampleRate int, durationSec float64) []int16 {
	n := int(float64(sampleRate) * durationSec)
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(sampleRate)
		out[i] = int16(16000 * math.Sin(2*math.Pi*freqHz*t))
	}
	return out
}

func TestFingerprint_IdenticalAudioProducesIdenticalFingerprint(t *testing.T) {
	f := New(DefaultConfig())
	pcm := sineWave(440, 16000, 3.0)

	text1, dur1, err := f.Fingerprint(pcm)
	require.NoError(t, err)

	text2, dur2, err := f.Fingerprint(pcm)
	require.NoError(t, err)

	assert.Equal(t, text1, text2)
	assert.Equal(t, dur1, dur2)
	assert.NotEmpty(t, text1)
}

func TestFingerprint_TooShortReturnsError(t *testing.T) {
	f := New(DefaultConfig())
	pcm := make([]int16, 10)

	_, _, err := f.Fingerprint(pcm)
	assert.Error(t, err)
}

func TestIsDuplicate_MatchesIdenticalFingerprint(t *testing.T) {
	f := New(DefaultConfig())
	pcm := sineWave(440, 16000, 3.0)
	text, duration, err := f.Fingerprint(pcm)
	require.NoError(t, err)

	candidates := []Candidate{
		{TrackID: "track-1", Text: text, Duration: duration},
	}

	trackID, ok := IsDuplicate(text, candidates, 0.85)
	assert.True(t, ok)
	assert.Equal(t, "track-1", trackID)
}

func TestIsDuplicate_NoMatchBelowThreshold(t *testing.T) {
	f := New(DefaultConfig())
	lowTone := sineWave(220, 16000, 3.0)
	highTone := sineWave(3000, 16000, 3.0)

	lowText, _, err := f.Fingerprint(lowTone)
	require.NoError(t, err)
	highText, _, err := f.Fingerprint(highTone)
	require.NoError(t, err)

	candidates := []Candidate{{TrackID: "track-2", Text: highText}}

	_, ok := IsDuplicate(lowText, candidates, 0.85)
	assert.False(t, ok)
}

func TestIsDuplicate_EmptyTextNeverMatches(t *testing.T) {
	candidates := []Candidate{{TrackID: "track-3", Text: "deadbeef"}}
	_, ok := IsDuplicate("", candidates, 0.1)
	assert.False(t, ok)
}

func TestJaccard_IdenticalSetsIsOne(t *testing.T) {
	a := map[uint32]struct{}{1: {}, 2: {}, 3: {}}
	assert.Equal(t, 1.0, jaccard(a, a))
}

func TestJaccard_DisjointSetsIsZero(t *testing.T) {
	a := map[uint32]struct{}{1: {}, 2: {}}
	b := map[uint32]struct{}{3: {}, 4: {}}
	assert.Equal(t, 0.0, jaccard(a, b))
}

func TestEncodeDecodeHashes_RoundTrips(t *testing.T) {
	hashes := []uint32{42, 7, 1000000, 0}
	text := encodeHashes(hashes)
	decoded := decodeHashes(text)

	require.Len(t, decoded, len(hashes))
	for _, h := range hashes {
		_, ok := decoded[h]
		assert.True(t, ok, "expected hash %d to round-trip", h)
	}
}
