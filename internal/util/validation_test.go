package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidAudioFile(t *testing.T) {
	assert.True(t, IsValidAudioFile("song.mp3"))
	assert.True(t, IsValidAudioFile("SONG.WAV"))
	assert.False(t, IsValidAudioFile("song.txt"))
	assert.False(t, IsValidAudioFile("noextension"))
}

func TestSniffAudioMime_WAV(t *testing.T) {
	// Minimal RIFF/WAVE header, enough for magic-byte sniffing.
	data := []byte("RIFF\x00\x00\x00\x00WAVEfmt ")
	_, ok := SniffAudioMime(data)
	assert.True(t, ok)
}

func TestSniffAudioMime_NotAudio(t *testing.T) {
	data := []byte("%PDF-1.4 this is a pdf")
	_, ok := SniffAudioMime(data)
	assert.False(t, ok)
}

func TestValidateFilename(t *testing.T) {
	assert.NoError(t, ValidateFilename("track.mp3"))
	assert.Error(t, ValidateFilename(""))
	assert.Error(t, ValidateFilename("../etc/passwd"))
	assert.Error(t, ValidateFilename("dir\\file.mp3"))

	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
	}
	assert.Error(t, ValidateFilename(string(long)))
}

func TestEscapeLikePattern(t *testing.T) {
	assert.Equal(t, `100\%`, EscapeLikePattern("100%"))
	assert.Equal(t, `a\_b`, EscapeLikePattern("a_b"))
	assert.Equal(t, `a\\b`, EscapeLikePattern(`a\b`))
	assert.Equal(t, "plain", EscapeLikePattern("plain"))
}

func TestValidateUUID(t *testing.T) {
	assert.NoError(t, ValidateUUID("550e8400-e29b-41d4-a716-446655440000"))
	assert.Error(t, ValidateUUID(""))
	assert.Error(t, ValidateUUID("not-a-uuid"))
	assert.Error(t, ValidateUUID("550e8400e29b41d4a716446655440000"))
}
