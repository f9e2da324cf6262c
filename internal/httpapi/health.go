package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health is a pure liveness check — 200 once the process is up. Readiness
// of individual dependencies is checked once at startup (C13), not here.
func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
