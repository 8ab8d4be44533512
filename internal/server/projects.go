package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	invdomain "github.com/voltixaudit/voltix/internal/inventory/domain"
)

type createProjectRequest struct {
	Name         string `json:"name"`
	ClientName   string `json:"client_name"`
	BuildingType string `json:"building_type"`
}

type createBuildingRequest struct {
	Area             float64  `json:"area_m2"`
	ConstructionYear *int     `json:"construction_year"`
	SuppliedPowerKVA *float64 `json:"supplied_power_kva"`
}

// requireUser returns the authenticated user or aborts with 401.
func requireUser(c *gin.Context) (snowflake.ID, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
	}
	return userID, ok
}

// ownedProject resolves the :id project for the current user. Projects owned
// by someone else are reported as not found.
func (s *Server) ownedProject(c *gin.Context) (snowflake.ID, snowflake.ID, bool) {
	userID, ok := requireUser(c)
	if !ok {
		return 0, 0, false
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return 0, 0, false
	}
	if _, err := s.inventory.GetProject(c.Request.Context(), userID, projectID); err != nil {
		AbortWithError(c, err)
		return 0, 0, false
	}
	return userID, projectID, true
}

func (s *Server) CreateProject(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	project, err := s.inventory.CreateProject(c.Request.Context(), invdomain.CreateProjectRequest{
		UserID:       userID,
		Name:         strings.TrimSpace(req.Name),
		ClientName:   strings.TrimSpace(req.ClientName),
		BuildingType: strings.TrimSpace(req.BuildingType),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": project})
}

func (s *Server) ListProjects(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var query struct {
		PageToken string `form:"page_token"`
		PageSize  int    `form:"page_size"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.inventory.ListProjects(c.Request.Context(), invdomain.ListProjectsRequest{
		UserID:    userID,
		PageToken: strings.TrimSpace(query.PageToken),
		PageSize:  query.PageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Projects, "page_info": resp.PageInfo})
}

func (s *Server) GetProject(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	project, err := s.inventory.GetProject(c.Request.Context(), userID, projectID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": project})
}

func (s *Server) GetProjectStats(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	stats, err := s.inventory.Stats(c.Request.Context(), userID, projectID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stats})
}

func (s *Server) CreateBuilding(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req createBuildingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	building, err := s.inventory.CreateBuilding(c.Request.Context(), invdomain.CreateBuildingRequest{
		UserID:           userID,
		ProjectID:        projectID,
		Area:             req.Area,
		ConstructionYear: req.ConstructionYear,
		SuppliedPowerKVA: req.SuppliedPowerKVA,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": building})
}

func (s *Server) GetBuilding(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	building, err := s.inventory.GetBuilding(c.Request.Context(), userID, projectID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": building})
}
