// Package repository is the relational data-access layer for the track
// catalog (C7), a thin gorm wrapper the rest of the service depends on
// instead of touching *gorm.DB directly.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/soundtrace/engine/internal/models"
	"gorm.io/gorm"
)

// TrackRepository runs relational operations against the tracks table.
type TrackRepository struct {
	db *gorm.DB
}

func NewTrackRepository(db *gorm.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Insert fails if a row with the same SHA256 already exists.
func (r *TrackRepository) Insert(ctx context.Context, t *models.Track) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("insert track: %w", err)
	}
	return nil
}

// FindByHash returns nil, nil when no row matches — not found is not an error here.
func (r *TrackRepository) FindByHash(ctx context.Context, sha256Hex string) (*models.Track, error) {
	var t models.Track
	err := r.db.WithContext(ctx).Where("sha256 = ?", sha256Hex).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find track by hash: %w", err)
	}
	return &t, nil
}

// GetManyByIDs batches a lookup for search-result enrichment.
func (r *TrackRepository) GetManyByIDs(ctx context.Context, ids []string) (map[string]*models.Track, error) {
	if len(ids) == 0 {
		return map[string]*models.Track{}, nil
	}
	var rows []models.Track
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("get many tracks by id: %w", err)
	}
	out := make(map[string]*models.Track, len(rows))
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

// UpdateFlags sets the post-indexing flags (C9 step 8).
func (r *TrackRepository) UpdateFlags(ctx context.Context, id string, olafIndexed bool, embeddingModel string, embeddingDim int) error {
	err := r.db.WithContext(ctx).Model(&models.Track{}).Where("id = ?", id).Updates(map[string]any{
		"olaf_indexed":    olafIndexed,
		"embedding_model": embeddingModel,
		"embedding_dim":   embeddingDim,
	}).Error
	if err != nil {
		return fmt.Errorf("update track flags: %w", err)
	}
	return nil
}

// Delete hard-deletes a track row. Admin tooling is responsible for also
// clearing the fingerprint index and vector-store entries for this ID.
func (r *TrackRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Track{}).Error; err != nil {
		return fmt.Errorf("delete track: %w", err)
	}
	return nil
}

// ListPage backs GET /tracks: newest-first pagination, optionally filtered
// by a case-insensitive contains match against title or artist. search
// should already have its "%"/"_" wildcard characters escaped by the
// caller before this runs the ILIKE.
func (r *TrackRepository) ListPage(ctx context.Context, limit, offset int, search string) ([]models.Track, int64, error) {
	var rows []models.Track
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Track{})
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("title ILIKE ? ESCAPE '\\' OR artist ILIKE ? ESCAPE '\\'", pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count tracks: %w", err)
	}

	err := query.
		Order("ingested_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list tracks: %w", err)
	}

	return rows, total, nil
}

// DedupCandidatesInDurationRange feeds C8: rows whose duration lies within
// [minSeconds, maxSeconds], projected down to just what Jaccard comparison
// needs.
func (r *TrackRepository) DedupCandidatesInDurationRange(ctx context.Context, minSeconds, maxSeconds float64) ([]DedupCandidate, error) {
	var rows []DedupCandidate
	err := r.db.WithContext(ctx).Model(&models.Track{}).
		Select("id as track_id, fingerprint_text as text, duration_seconds as duration").
		Where("duration_seconds BETWEEN ? AND ?", minSeconds, maxSeconds).
		Where("fingerprint_text != ''").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list dedup candidates: %w", err)
	}
	return rows, nil
}

// DedupCandidate mirrors dedup.Candidate without importing internal/dedup,
// keeping the relational layer independent of the comparison algorithm.
type DedupCandidate struct {
	TrackID  string  `gorm:"column:track_id"`
	Text     string  `gorm:"column:text"`
	Duration float64 `gorm:"column:duration"`
}
