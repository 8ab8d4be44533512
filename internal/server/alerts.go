package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) ListAlerts(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	open, err := parseOptionalBool(c.Query("open"))
	if err != nil {
		AbortWithError(c, newValidationError("open", "invalid_open", "invalid open"))
		return
	}
	onlyOpen := open == nil || *open

	alerts, err := s.completeness.List(c.Request.Context(), userID, projectID, onlyOpen)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": alerts})
}

func (s *Server) ResolveAlert(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	alertID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := s.completeness.Resolve(c.Request.Context(), userID, alertID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
