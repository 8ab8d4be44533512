package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertProject(ctx context.Context, db *gorm.DB, project *Project) error
	FindProject(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Project, error)
	ListProjects(ctx context.Context, db *gorm.DB, userID snowflake.ID, afterID snowflake.ID, limit int) ([]*Project, error)
	UpdateProjectStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status ProjectStatus, completionPct int, now time.Time) error
	TouchProject(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) error
	ArchiveInactiveProjects(ctx context.Context, db *gorm.DB, plan string, inactiveSince, now time.Time) (int64, error)
	CountActiveProjects(ctx context.Context, db *gorm.DB, userID snowflake.ID) (int64, error)

	InsertBuilding(ctx context.Context, db *gorm.DB, building *Building) error
	FindBuilding(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Building, error)
	FindBuildingByProject(ctx context.Context, db *gorm.DB, projectID snowflake.ID) (*Building, error)

	InsertFloor(ctx context.Context, db *gorm.DB, floor *Floor) error
	FindFloor(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Floor, error)
	ListFloors(ctx context.Context, db *gorm.DB, buildingID snowflake.ID) ([]Floor, error)
	DeleteFloorCascade(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	AdjustFloorCounters(ctx context.Context, db *gorm.DB, id snowflake.ID, roomDelta, equipmentDelta int) error

	InsertRoom(ctx context.Context, db *gorm.DB, room *Room) error
	FindRoom(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Room, error)
	ListRoomsByBuilding(ctx context.Context, db *gorm.DB, buildingID snowflake.ID) ([]Room, error)
	AdjustRoomCounters(ctx context.Context, db *gorm.DB, id snowflake.ID, equipmentDelta int, wattsDelta float64) error

	InsertEquipment(ctx context.Context, db *gorm.DB, equipment *Equipment) error
	FindEquipment(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Equipment, error)
	DeleteEquipment(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	ListEquipmentByBuilding(ctx context.Context, db *gorm.DB, buildingID snowflake.ID) ([]Equipment, error)

	ProjectIDForFloor(ctx context.Context, db *gorm.DB, floorID snowflake.ID) (snowflake.ID, error)
	ProjectIDForRoom(ctx context.Context, db *gorm.DB, roomID snowflake.ID) (snowflake.ID, error)
	CountStats(ctx context.Context, db *gorm.DB, projectID snowflake.ID) (Stats, error)
}
