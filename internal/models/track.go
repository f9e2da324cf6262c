// Package models holds the persisted record types for the catalog.
package models

import "time"

// Track is the authoritative metadata row for one ingested audio file.
// SHA256 is unique across the catalog; OlafIndexed=true implies the
// fingerprint index holds entries keyed by ID; EmbeddingModel non-empty
// implies >=1 point exists in the vector store with track_id == ID.
//
// Created exactly once by the ingestion pipeline after all three store
// writes succeed. Never mutated thereafter except by administrative
// re-indexing (the index-flag/model fields only). Deleted only by
// administrative tooling, which must also clear the fingerprint index and
// vector store entries for this ID.
type Track struct {
	ID     string `gorm:"type:uuid;primaryKey" json:"id"`
	Title  string `gorm:"not null" json:"title"`
	Artist string `json:"artist,omitempty"`
	Album  string `json:"album,omitempty"`

	DurationSeconds float64 `json:"durationSeconds"`
	SampleRate      int     `json:"sampleRate"`
	Channels        int     `json:"channels"`
	Bitrate         int     `json:"bitrate,omitempty"`
	SourceFormat    string  `json:"sourceFormat"`

	SHA256        string `gorm:"uniqueIndex;size:64;not null" json:"sha256"`
	FileSizeBytes int64  `json:"fileSizeBytes"`
	StoragePath   string `json:"-"`

	FingerprintText     string  `json:"-"`
	FingerprintDuration float64 `json:"-"`

	OlafIndexed    bool   `json:"olafIndexed"`
	EmbeddingModel string `json:"embeddingModel,omitempty"`
	EmbeddingDim   int    `json:"embeddingDim,omitempty"`

	IngestedAt time.Time `gorm:"autoCreateTime" json:"ingestedAt"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Track) TableName() string { return "tracks" }

// TrackInfo is the public, search-result-safe projection of a Track.
type TrackInfo struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Artist          string    `json:"artist,omitempty"`
	Album           string    `json:"album,omitempty"`
	DurationSeconds float64   `json:"durationSeconds"`
	IngestedAt      time.Time `json:"ingestedAt"`
}

func (t *Track) Info() TrackInfo {
	return TrackInfo{
		ID:              t.ID,
		Title:           t.Title,
		Artist:          t.Artist,
		Album:           t.Album,
		DurationSeconds: t.DurationSeconds,
		IngestedAt:      t.IngestedAt,
	}
}
