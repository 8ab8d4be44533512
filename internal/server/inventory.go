package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	invdomain "github.com/voltixaudit/voltix/internal/inventory/domain"
)

type addFloorRequest struct {
	Index         int     `json:"index"`
	Name          string  `json:"name"`
	Area          float64 `json:"area_m2"`
	CeilingHeight float64 `json:"ceiling_height_m"`
}

type addRoomRequest struct {
	Name      string  `json:"name"`
	RoomType  string  `json:"room_type"`
	Area      float64 `json:"area_m2"`
	Occupants int     `json:"occupants"`
}

type addEquipmentRequest struct {
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	UnitWatts  float64 `json:"unit_watts"`
	Quantity   int     `json:"quantity"`
	DailyHours float64 `json:"daily_hours"`
	WeeklyDays int     `json:"weekly_days"`
}

func (s *Server) AddFloor(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	buildingID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req addFloorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	floor, err := s.inventory.AddFloor(c.Request.Context(), invdomain.AddFloorRequest{
		UserID:        userID,
		BuildingID:    buildingID,
		Index:         req.Index,
		Name:          strings.TrimSpace(req.Name),
		Area:          req.Area,
		CeilingHeight: req.CeilingHeight,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": floor})
}

func (s *Server) RemoveFloor(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	floorID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := s.inventory.RemoveFloor(c.Request.Context(), userID, floorID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) AddRoom(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	floorID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req addRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	room, err := s.inventory.AddRoom(c.Request.Context(), invdomain.AddRoomRequest{
		UserID:    userID,
		FloorID:   floorID,
		Name:      strings.TrimSpace(req.Name),
		RoomType:  strings.TrimSpace(req.RoomType),
		Area:      req.Area,
		Occupants: req.Occupants,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": room})
}

func (s *Server) AddEquipment(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req addEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	equipment, err := s.inventory.AddEquipment(c.Request.Context(), invdomain.AddEquipmentRequest{
		UserID:     userID,
		RoomID:     roomID,
		Name:       strings.TrimSpace(req.Name),
		Category:   strings.TrimSpace(req.Category),
		UnitWatts:  req.UnitWatts,
		Quantity:   req.Quantity,
		DailyHours: req.DailyHours,
		WeeklyDays: req.WeeklyDays,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": equipment})
}

func (s *Server) RemoveEquipment(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	equipmentID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := s.inventory.RemoveEquipment(c.Request.Context(), userID, equipmentID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
