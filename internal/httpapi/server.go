// Package httpapi exposes the service's HTTP surface (§6): search, ingest,
// catalog listing/lookup, archival audio byte-serving, and liveness.
// Handler shape (gin.Context, util.RespondWithAPIError envelopes) follows
// the teacher's internal/handlers package.
package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/soundtrace/engine/internal/audio"
	"github.com/soundtrace/engine/internal/ingest"
	"github.com/soundtrace/engine/internal/lanes"
	"github.com/soundtrace/engine/internal/middleware"
	"github.com/soundtrace/engine/internal/rawstore"
	"github.com/soundtrace/engine/internal/repository"
)

// Server holds every dependency the handlers need.
type Server struct {
	decoder      *audio.Decoder
	orchestrator *lanes.Orchestrator
	pipeline     *ingest.Pipeline
	tracks       *repository.TrackRepository
	rawStore     *rawstore.Store
	cache        *middleware.CacheManager

	adminKey           string
	searchMaxFileBytes int64
	ingestMaxFileBytes int64
	listingCacheTTL    time.Duration
}

func NewServer(
	decoder *audio.Decoder,
	orchestrator *lanes.Orchestrator,
	pipeline *ingest.Pipeline,
	tracks *repository.TrackRepository,
	rawStore *rawstore.Store,
	cache *middleware.CacheManager,
	adminKey string,
	searchMaxFileBytes, ingestMaxFileBytes int64,
) *Server {
	return &Server{
		decoder: decoder, orchestrator: orchestrator, pipeline: pipeline,
		tracks: tracks, rawStore: rawStore, cache: cache,
		adminKey: adminKey, searchMaxFileBytes: searchMaxFileBytes, ingestMaxFileBytes: ingestMaxFileBytes,
		listingCacheTTL: 30 * time.Second,
	}
}

// RegisterRoutes wires every handler onto router.
func (s *Server) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", s.Health)

	router.POST("/search", s.Search)

	admin := router.Group("/")
	admin.Use(middleware.RequireAdminKey(s.adminKey))
	admin.POST("/ingest", s.Ingest)
	admin.DELETE("/admin/tracks/:id", s.AdminDeleteTrack)
	admin.POST("/admin/tracks/:id/reindex", s.AdminReindexTrack)

	router.GET("/tracks", middleware.ResponseCacheMiddleware(s.listingCacheTTL), s.ListTracks)
	router.GET("/tracks/:id", s.GetTrack)
	router.GET("/tracks/:id/audio", s.GetTrackAudio)
}
