package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/soundtrace/engine/internal/errors"
	"github.com/soundtrace/engine/internal/util"
)

// GetTrackAudio handles GET /tracks/:id/audio, serving the archival raw
// file with standard HTTP Range support so clients can seek/stream.
func (s *Server) GetTrackAudio(c *gin.Context) {
	id := c.Param("id")
	if err := util.ValidateUUID(id); err != nil {
		util.RespondValidationError(c, "id", err.Error())
		return
	}

	records, err := s.tracks.GetManyByIDs(c.Request.Context(), []string{id})
	if err != nil {
		util.RespondInternalError(c, "failed to look up track")
		return
	}
	track, ok := records[id]
	if !ok {
		util.RespondNotFound(c, "track")
		return
	}

	f, err := s.rawStore.OpenPath(track.StoragePath)
	if err != nil {
		util.RespondWithAPIError(c, errors.FileNotFound())
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		util.RespondWithAPIError(c, errors.FileNotFound())
		return
	}

	c.Header("Content-Type", util.ContentTypeForExt(track.SourceFormat))
	c.Header("Content-Disposition", "inline")
	http.ServeContent(c.Writer, c.Request, track.StoragePath, info.ModTime(), f)
}
