package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrack_Info_ProjectsPublicFieldsOnly(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	track := &Track{
		ID:              "550e8400-e29b-41d4-a716-446655440000",
		Title:           "Test Song",
		Artist:          "Test Artist",
		Album:           "Test Album",
		DurationSeconds: 180.5,
		SHA256:          "deadbeef",
		StoragePath:     "/data/raw/de/deadbeef.wav",
		FingerprintText: "abc123",
		IngestedAt:      now,
	}

	info := track.Info()

	assert.Equal(t, track.ID, info.ID)
	assert.Equal(t, track.Title, info.Title)
	assert.Equal(t, track.Artist, info.Artist)
	assert.Equal(t, track.Album, info.Album)
	assert.Equal(t, track.DurationSeconds, info.DurationSeconds)
	assert.Equal(t, now, info.IngestedAt)
}

func TestTrack_TableName(t *testing.T) {
	assert.Equal(t, "tracks", Track{}.TableName())
}
