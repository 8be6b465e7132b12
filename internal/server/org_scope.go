package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/railzwaylabs/audittrail/internal/orgcontext"
)

// OrgScope resolves the caller's organization from the X-Org-ID header set by
// the upstream identity layer and stashes it on the request context. Every
// job, schedule, and artifact is owned by this scope.
func (s *Server) OrgScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("X-Org-ID"))
		if raw == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		orgID, err := snowflake.ParseString(raw)
		if err != nil || orgID == 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Request = c.Request.WithContext(orgcontext.WithOrgID(c.Request.Context(), orgID))
		c.Next()
	}
}
