package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/voltixaudit/voltix/pkg/db/pagination"
)

type CreateProjectRequest struct {
	UserID       snowflake.ID
	Name         string
	ClientName   string
	BuildingType string
}

type ListProjectsRequest struct {
	UserID    snowflake.ID
	PageToken string
	PageSize  int
}

type ListProjectsResponse struct {
	pagination.PageInfo
	Projects []Project `json:"projects"`
}

type CreateBuildingRequest struct {
	UserID           snowflake.ID
	ProjectID        snowflake.ID
	Area             float64
	ConstructionYear *int
	SuppliedPowerKVA *float64
}

type AddFloorRequest struct {
	UserID        snowflake.ID
	BuildingID    snowflake.ID
	Index         int
	Name          string
	Area          float64
	CeilingHeight float64
}

type AddRoomRequest struct {
	UserID    snowflake.ID
	FloorID   snowflake.ID
	Name      string
	RoomType  string
	Area      float64
	Occupants int
}

type AddEquipmentRequest struct {
	UserID     snowflake.ID
	RoomID     snowflake.ID
	Name       string
	Category   string
	UnitWatts  float64
	Quantity   int
	DailyHours float64
	WeeklyDays int
}

type Service interface {
	CreateProject(ctx context.Context, req CreateProjectRequest) (Project, error)
	GetProject(ctx context.Context, userID, projectID snowflake.ID) (Project, error)
	ListProjects(ctx context.Context, req ListProjectsRequest) (ListProjectsResponse, error)

	CreateBuilding(ctx context.Context, req CreateBuildingRequest) (Building, error)
	GetBuilding(ctx context.Context, userID, projectID snowflake.ID) (Building, error)

	AddFloor(ctx context.Context, req AddFloorRequest) (Floor, error)
	RemoveFloor(ctx context.Context, userID, floorID snowflake.ID) error
	AddRoom(ctx context.Context, req AddRoomRequest) (Room, error)
	AddEquipment(ctx context.Context, req AddEquipmentRequest) (Equipment, error)
	RemoveEquipment(ctx context.Context, userID, equipmentID snowflake.ID) error

	Stats(ctx context.Context, userID, projectID snowflake.ID) (Stats, error)
}

// ChangeListener is notified after an inventory mutation has been committed.
type ChangeListener interface {
	InventoryChanged(ctx context.Context, projectID snowflake.ID) error
}

// ProjectLimiter reports how many non-archived projects a user may hold.
type ProjectLimiter interface {
	ProjectLimit(ctx context.Context, userID snowflake.ID) (limit int, limited bool, err error)
}

var (
	ErrInvalidUser       = errors.New("invalid_user")
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidArea       = errors.New("invalid_area")
	ErrInvalidOccupants  = errors.New("invalid_occupants")
	ErrInvalidWattage    = errors.New("invalid_unit_watts")
	ErrInvalidQuantity   = errors.New("invalid_quantity")
	ErrInvalidDailyHours = errors.New("invalid_daily_hours")
	ErrInvalidWeeklyDays = errors.New("invalid_weekly_days")
	ErrInvalidCategory   = errors.New("invalid_category")
	ErrInvalidPageToken  = errors.New("invalid_page_token")
	ErrBuildingExists    = errors.New("building_exists")
	ErrFloorExists       = errors.New("floor_exists")
	ErrProjectArchived   = errors.New("project_archived")
	ErrProjectLimit      = errors.New("project_limit_reached")
	ErrNotFound          = errors.New("not_found")
)
