package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierr "github.com/soundtrace/engine/internal/errors"
	"github.com/soundtrace/engine/internal/ingest"
	"github.com/soundtrace/engine/internal/util"
)

type ingestResponseDTO struct {
	TrackID    string `json:"track_id,omitempty"`
	Title      string `json:"title,omitempty"`
	Artist     string `json:"artist,omitempty"`
	Status     string `json:"status"`
	SkipReason string `json:"skip_reason,omitempty"`
}

// Ingest handles POST /ingest. It sits behind middleware.RequireAdminKey and
// uses the fail-fast lock path: a second caller while ingestion is already
// running gets a 429 rather than waiting in line.
func (s *Server) Ingest(c *gin.Context) {
	fileHeader, err := c.FormFile("audio")
	if err != nil {
		util.RespondWithAPIError(c, apierr.EmptyFile())
		return
	}
	if fileHeader.Size == 0 {
		util.RespondWithAPIError(c, apierr.EmptyFile())
		return
	}
	if fileHeader.Size > s.ingestMaxFileBytes {
		util.RespondWithAPIError(c, apierr.FileTooLarge(s.ingestMaxFileBytes))
		return
	}

	data, err := s.readUploadedFile(fileHeader)
	if err != nil {
		util.RespondInternalError(c, "failed to read uploaded file")
		return
	}

	if _, ok := util.SniffAudioMime(data); !ok {
		util.RespondWithAPIError(c, apierr.UnsupportedFormat("file does not look like a supported audio container"))
		return
	}

	if err := util.ValidateFilename(fileHeader.Filename); err != nil {
		util.RespondValidationError(c, "filename", err.Error())
		return
	}

	result, err := s.pipeline.TryIngest(c.Request.Context(), data, fileHeader.Filename)
	if err != nil {
		if apiErr, ok := err.(*apierr.APIError); ok {
			util.RespondWithAPIError(c, apiErr)
			return
		}
		util.RespondInternalError(c, "ingestion failed")
		return
	}

	if s.cache != nil {
		s.cache.InvalidateListingCache(c.Request.Context())
	}

	status := http.StatusCreated
	if result.Status != ingest.StatusIngested {
		status = http.StatusOK
	}
	c.JSON(status, ingestResponseDTO{
		TrackID:    result.TrackID,
		Title:      result.Title,
		Artist:     result.Artist,
		Status:     string(result.Status),
		SkipReason: result.SkipReason,
	})
}
