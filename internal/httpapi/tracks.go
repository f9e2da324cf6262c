package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/soundtrace/engine/internal/models"
	"github.com/soundtrace/engine/internal/util"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type paginationDTO struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
}

type listTracksResponseDTO struct {
	Data       []models.TrackInfo `json:"data"`
	Pagination paginationDTO      `json:"pagination"`
}

// ListTracks handles GET /tracks?page=&pageSize=&search=.
func (s *Server) ListTracks(c *gin.Context) {
	page := util.ParseInt(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}
	pageSize := util.ParseInt(c.Query("pageSize"), defaultPageSize)
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	search := util.EscapeLikePattern(c.Query("search"))

	rows, total, err := s.tracks.ListPage(c.Request.Context(), pageSize, (page-1)*pageSize, search)
	if err != nil {
		util.RespondInternalError(c, "failed to list tracks")
		return
	}

	infos := make([]models.TrackInfo, 0, len(rows))
	for i := range rows {
		infos = append(infos, rows[i].Info())
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))

	c.JSON(http.StatusOK, listTracksResponseDTO{
		Data: infos,
		Pagination: paginationDTO{
			Page:       page,
			PageSize:   pageSize,
			TotalItems: total,
			TotalPages: totalPages,
		},
	})
}

// GetTrack handles GET /tracks/:id.
func (s *Server) GetTrack(c *gin.Context) {
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

	c.JSON(http.StatusOK, track.Info())
}
