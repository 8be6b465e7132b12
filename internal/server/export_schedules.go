package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	scheduledomain "github.com/railzwaylabs/audittrail/internal/schedule/domain"
)

// CreateExportSchedule handles POST /api/v1/schedules
func (s *Server) CreateExportSchedule(c *gin.Context) {
	var req scheduledomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	sched, err := s.scheduleSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": sched})
}

// ListExportSchedules handles GET /api/v1/schedules
func (s *Server) ListExportSchedules(c *gin.Context) {
	resp, err := s.scheduleSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, resp.Schedules)
}

// GetExportSchedule handles GET /api/v1/schedules/:id
func (s *Server) GetExportSchedule(c *gin.Context) {
	sched, err := s.scheduleSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, sched)
}

// UpdateExportSchedule handles PATCH /api/v1/schedules/:id. Any accepted
// edit, including an is_active toggle, recomputes next_run_at.
func (s *Server) UpdateExportSchedule(c *gin.Context) {
	var req scheduledomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.ID = c.Param("id")

	sched, err := s.scheduleSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, sched)
}

// DeleteExportSchedule handles DELETE /api/v1/schedules/:id
func (s *Server) DeleteExportSchedule(c *gin.Context) {
	if err := s.scheduleSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
