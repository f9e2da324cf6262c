package httpapi

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/soundtrace/engine/internal/errors"
	"github.com/soundtrace/engine/internal/lanes"
	"github.com/soundtrace/engine/internal/models"
	"github.com/soundtrace/engine/internal/util"
)

const (
	searchMinResults    = 1
	searchMaxResults    = 50
	searchDefaultResult = 10
	minClipSeconds      = 3.0
)

type exactMatchDTO struct {
	Track         models.TrackInfo `json:"track"`
	Confidence    float64          `json:"confidence"`
	AlignedHashes int              `json:"aligned_hashes"`
	OffsetSeconds float64          `json:"offset_seconds"`
}

type vibeMatchDTO struct {
	Track          models.TrackInfo `json:"track"`
	Similarity     float64          `json:"similarity"`
	EmbeddingModel string           `json:"embedding_model,omitempty"`
}

type searchResponseDTO struct {
	RequestID      string          `json:"request_id"`
	ModeUsed       string          `json:"mode_used"`
	TotalElapsedMS int64           `json:"total_elapsed_ms"`
	ExactMatches   []exactMatchDTO `json:"exact_matches"`
	VibeMatches    []vibeMatchDTO  `json:"vibe_matches"`
}

// Search handles POST /search.
func (s *Server) Search(c *gin.Context) {
	fileHeader, err := c.FormFile("audio")
	if err != nil {
		util.RespondWithAPIError(c, errors.EmptyFile())
		return
	}
	if fileHeader.Size == 0 {
		util.RespondWithAPIError(c, errors.EmptyFile())
		return
	}
	if fileHeader.Size > s.searchMaxFileBytes {
		util.RespondWithAPIError(c, errors.FileTooLarge(s.searchMaxFileBytes))
		return
	}

	mode := lanes.Mode(c.DefaultPostForm("mode", string(lanes.ModeBoth)))
	if mode != lanes.ModeExact && mode != lanes.ModeVibe && mode != lanes.ModeBoth {
		util.RespondValidationError(c, "mode", "mode must be one of exact, vibe, both")
		return
	}

	maxResults := searchDefaultResult
	if raw := c.PostForm("max_results"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < searchMinResults || parsed > searchMaxResults {
			util.RespondValidationError(c, "max_results", "max_results must be an integer in [1,50]")
			return
		}
		maxResults = parsed
	}

	data, err := s.readUploadedFile(fileHeader)
	if err != nil {
		util.RespondInternalError(c, "failed to read uploaded file")
		return
	}

	if _, ok := util.SniffAudioMime(data); !ok {
		util.RespondWithAPIError(c, errors.UnsupportedFormat("file does not look like a supported audio container"))
		return
	}

	ctx := c.Request.Context()
	pcm16k, pcm48k, err := s.decoder.DecodeDualRate(ctx, data)
	if err != nil {
		util.RespondWithAPIError(c, errors.DecodeFailed(err.Error()))
		return
	}

	durationSeconds := float64(len(pcm16k)/4) / 16000.0
	if durationSeconds < minClipSeconds {
		util.RespondWithAPIError(c, errors.AudioTooShort())
		return
	}

	resp, searchErr := s.orchestrator.Search(ctx, pcm16k, pcm48k, mode, maxResults)
	if searchErr != nil {
		if apiErr, ok := searchErr.(*errors.APIError); ok {
			util.RespondWithAPIError(c, apiErr)
			return
		}
		util.RespondInternalError(c, "search failed")
		return
	}

	c.JSON(http.StatusOK, toSearchResponseDTO(resp))
}

func (s *Server) readUploadedFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func toSearchResponseDTO(resp *lanes.SearchResponse) searchResponseDTO {
	dto := searchResponseDTO{
		RequestID:      resp.RequestID,
		ModeUsed:       string(resp.ModeUsed),
		TotalElapsedMS: resp.TotalElapsedMS,
		ExactMatches:   make([]exactMatchDTO, 0, len(resp.ExactMatches)),
		VibeMatches:    make([]vibeMatchDTO, 0, len(resp.VibeMatches)),
	}
	for _, m := range resp.ExactMatches {
		dto.ExactMatches = append(dto.ExactMatches, exactMatchDTO{
			Track:         m.Track,
			Confidence:    m.Confidence,
			AlignedHashes: m.AlignedHashes,
			OffsetSeconds: m.OffsetSeconds,
		})
	}
	for _, m := range resp.VibeMatches {
		dto.VibeMatches = append(dto.VibeMatches, vibeMatchDTO{
			Track:          m.Track,
			Similarity:     m.Similarity,
			EmbeddingModel: m.EmbeddingModel,
		})
	}
	return dto
}
