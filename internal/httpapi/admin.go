package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/soundtrace/engine/internal/util"
)

// AdminDeleteTrack handles DELETE /admin/tracks/:id, removing a track from
// all three stores.
func (s *Server) AdminDeleteTrack(c *gin.Context) {
	id := c.Param("id")
	if err := util.ValidateUUID(id); err != nil {
		util.RespondValidationError(c, "id", err.Error())
		return
	}

	if err := s.pipeline.DeleteTrack(c.Request.Context(), id); err != nil {
		util.RespondInternalError(c, "failed to delete track")
		return
	}

	if s.cache != nil {
		s.cache.InvalidateListingCache(c.Request.Context())
	}

	c.Status(http.StatusNoContent)
}

// AdminReindexTrack handles POST /admin/tracks/:id/reindex, re-deriving the
// fingerprint and embedding entries for a track from its stored raw file.
func (s *Server) AdminReindexTrack(c *gin.Context) {
	id := c.Param("id")
	if err := util.ValidateUUID(id); err != nil {
		util.RespondValidationError(c, "id", err.Error())
		return
	}

	if err := s.pipeline.Reindex(c.Request.Context(), id); err != nil {
		util.RespondInternalError(c, "failed to reindex track")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "reindexed", "track_id": id})
}
