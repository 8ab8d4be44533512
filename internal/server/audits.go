package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	eadomain "github.com/voltixaudit/voltix/internal/energyaudit/domain"
)

type runAuditRequest struct {
	CountryCode string `json:"country_code"`
}

func (s *Server) RunAudit(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req runAuditRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	outcome, err := s.audits.RunAudit(c.Request.Context(), eadomain.RunRequest{
		UserID:      userID,
		ProjectID:   projectID,
		CountryCode: strings.TrimSpace(req.CountryCode),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": outcome})
}

func (s *Server) GetLatestResult(c *gin.Context) {
	_, projectID, ok := s.ownedProject(c)
	if !ok {
		return
	}

	result, err := s.audits.LatestResult(c.Request.Context(), projectID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if result == nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) ListResults(c *gin.Context) {
	_, projectID, ok := s.ownedProject(c)
	if !ok {
		return
	}

	limit, err := parseLimit(c.Query("limit"), defaultHistoryLimit, maxHistoryLimit)
	if err != nil {
		AbortWithError(c, newValidationError("limit", "invalid_limit", "invalid limit"))
		return
	}

	results, err := s.audits.History(c.Request.Context(), projectID, limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": results})
}

func (s *Server) ListRecommendations(c *gin.Context) {
	_, projectID, ok := s.ownedProject(c)
	if !ok {
		return
	}

	recs, err := s.recommendations.List(c.Request.Context(), projectID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": recs})
}

func (s *Server) GetRecommendationSummary(c *gin.Context) {
	_, projectID, ok := s.ownedProject(c)
	if !ok {
		return
	}

	summary, err := s.recommendations.Summary(c.Request.Context(), projectID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summary})
}
