package fingerprintindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultsBinPath(t *testing.T) {
	idx, err := New("", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "olaf_c", idx.binPath)
}

func TestNew_KeepsExplicitBinPath(t *testing.T) {
	idx, err := New("/usr/local/bin/olaf_c", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "/usr/local/bin/olaf_c", idx.binPath)
}

func TestParseMatches_CommaSeparated(t *testing.T) {
	out := "12,0.5,1.5,trackA,7,10.0,11.0\n5,0.0,0.2,trackB,9,2.0,2.2\n"
	matches := parseMatches(out)
	require.Len(t, matches, 2)
	assert.Equal(t, Match{
		MatchCount: 12, QueryStart: 0.5, QueryStop: 1.5,
		ReferenceIdentifier: "trackA", InternalReferenceID: 7,
		ReferenceStart: 10.0, ReferenceStop: 11.0,
	}, matches[0])
}

func TestParseMatches_SemicolonFallback(t *testing.T) {
	out := "12;0.5;1.5;trackA;7;10.0;11.0\n"
	matches := parseMatches(out)
	require.Len(t, matches, 1)
	assert.Equal(t, "trackA", matches[0].ReferenceIdentifier)
}

func TestParseMatches_SkipsMalformedLines(t *testing.T) {
	out := "not a match line\n12,0.5,1.5,trackA,7,10.0,11.0\n1,2,3\n\n"
	matches := parseMatches(out)
	require.Len(t, matches, 1)
	assert.Equal(t, "trackA", matches[0].ReferenceIdentifier)
}

func TestParseMatchFields_InvalidNumberReturnsError(t *testing.T) {
	_, err := parseMatchFields([]string{"nope", "0.5", "1.5", "trackA", "7", "10.0", "11.0"})
	assert.Error(t, err)
}

func TestTruncate_ShortStringUnchanged(t *testing.T) {
	assert.Equal(t, "short", truncate("short"))
}

func TestTruncate_LongStringIsCapped(t *testing.T) {
	long := make([]byte, 3000)
	for i := range long {
		long[i] = 'x'
	}
	out := truncate(string(long))
	assert.Len(t, out, 2000)
}
