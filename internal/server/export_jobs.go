package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	exportdomain "github.com/railzwaylabs/audittrail/internal/export/domain"
	"go.uber.org/zap"
)

// CreateExportJob handles POST /api/v1/exports
func (s *Server) CreateExportJob(c *gin.Context) {
	var req exportdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if strings.TrimSpace(req.DateFrom) == "" || strings.TrimSpace(req.DateTo) == "" {
		AbortWithError(c, newValidationError("date_from", "required", "date_from and date_to are required"))
		return
	}

	job, err := s.exportSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": job})
}

// ListExportJobs handles GET /api/v1/exports
func (s *Server) ListExportJobs(c *gin.Context) {
	status := strings.ToLower(strings.TrimSpace(c.Query("status")))
	if status != "" && !exportdomain.Status(status).IsTerminal() &&
		exportdomain.Status(status) != exportdomain.StatusPending &&
		exportdomain.Status(status) != exportdomain.StatusProcessing {
		AbortWithError(c, newValidationError("status", "invalid", "unrecognized job status"))
		return
	}

	resp, err := s.exportSvc.List(c.Request.Context(), exportdomain.ListRequest{Status: status})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, resp.Jobs)
}

// GetExportJob handles GET /api/v1/exports/:id
func (s *Server) GetExportJob(c *gin.Context) {
	job, err := s.exportSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, job)
}

// DownloadExportArtifact handles GET /api/v1/exports/:id/download.
// It streams the artifact only for completed jobs within the retention
// window; anything else is an explicit error, never a partial file.
func (s *Server) DownloadExportArtifact(c *gin.Context) {
	result, err := s.exportSvc.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer result.Body.Close()

	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Header("Content-Type", result.ContentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, result.Body); err != nil {
		s.log.Error("artifact stream interrupted", zap.Error(err))
	}
}

// DeleteExportJob handles DELETE /api/v1/exports/:id
func (s *Server) DeleteExportJob(c *gin.Context) {
	if err := s.exportSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
