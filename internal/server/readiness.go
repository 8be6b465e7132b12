package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Healthz handles GET /healthz
func (s *Server) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
