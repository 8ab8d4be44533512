package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type ProjectStatus string

const (
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusIncomplete ProjectStatus = "incomplete"
	ProjectStatusDone       ProjectStatus = "done"
	ProjectStatusArchived   ProjectStatus = "archived"
)

type Project struct {
	ID             snowflake.ID  `gorm:"primaryKey" json:"id"`
	UserID         snowflake.ID  `gorm:"not null;index" json:"user_id"`
	Name           string        `gorm:"not null" json:"name"`
	ClientName     string        `gorm:"column:client_name" json:"client_name"`
	BuildingType   string        `gorm:"column:building_type" json:"building_type"`
	Status         ProjectStatus `gorm:"not null;default:in_progress" json:"status"`
	CompletionPct  int           `gorm:"column:completion_pct;not null;default:0" json:"completion_pct"`
	LastActivityAt time.Time     `gorm:"column:last_activity_at;not null" json:"last_activity_at"`
	CreatedAt      time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"not null" json:"updated_at"`
}

func (Project) TableName() string { return "projects" }

type Building struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	ProjectID        snowflake.ID `gorm:"not null;uniqueIndex" json:"project_id"`
	Area             float64      `gorm:"column:area_m2;not null" json:"area_m2"`
	ConstructionYear *int         `gorm:"column:construction_year" json:"construction_year,omitempty"`
	SuppliedPowerKVA *float64     `gorm:"column:supplied_power_kva" json:"supplied_power_kva,omitempty"`
	CreatedAt        time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time    `gorm:"not null" json:"updated_at"`
}

func (Building) TableName() string { return "buildings" }

type Floor struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	BuildingID     snowflake.ID `gorm:"not null;uniqueIndex:ux_floors_building_index" json:"building_id"`
	Index          int          `gorm:"column:floor_index;not null;uniqueIndex:ux_floors_building_index" json:"index"`
	Name           string       `gorm:"not null" json:"name"`
	Area           float64      `gorm:"column:area_m2" json:"area_m2"`
	CeilingHeight  float64      `gorm:"column:ceiling_height_m" json:"ceiling_height_m"`
	RoomCount      int          `gorm:"column:room_count;not null;default:0" json:"room_count"`
	EquipmentCount int          `gorm:"column:equipment_count;not null;default:0" json:"equipment_count"`
	CreatedAt      time.Time    `gorm:"not null" json:"created_at"`
}

func (Floor) TableName() string { return "floors" }

type Room struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	FloorID        snowflake.ID `gorm:"not null;index" json:"floor_id"`
	Name           string       `gorm:"not null" json:"name"`
	RoomType       string       `gorm:"column:room_type" json:"room_type"`
	Area           float64      `gorm:"column:area_m2" json:"area_m2"`
	Occupants      int          `gorm:"not null;default:0" json:"occupants"`
	EquipmentCount int          `gorm:"column:equipment_count;not null;default:0" json:"equipment_count"`
	TotalWatts     float64      `gorm:"column:total_watts;not null;default:0" json:"total_watts"`
	CreatedAt      time.Time    `gorm:"not null" json:"created_at"`
}

func (Room) TableName() string { return "rooms" }

type Equipment struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	RoomID     snowflake.ID      `gorm:"not null;index" json:"room_id"`
	Name       string            `gorm:"not null" json:"name"`
	Category   EquipmentCategory `gorm:"not null" json:"category"`
	UnitWatts  float64           `gorm:"column:unit_watts;not null" json:"unit_watts"`
	Quantity   int               `gorm:"not null" json:"quantity"`
	DailyHours float64           `gorm:"column:daily_hours;not null" json:"daily_hours"`
	WeeklyDays int               `gorm:"column:weekly_days;not null" json:"weekly_days"`
	CreatedAt  time.Time         `gorm:"not null" json:"created_at"`
}

func (Equipment) TableName() string { return "equipment" }

// Watts is the installed power of the line (unit wattage times quantity).
func (e Equipment) Watts() float64 {
	return e.UnitWatts * float64(e.Quantity)
}

// Stats summarizes the size of a project's inventory.
type Stats struct {
	Floors    int64 `json:"floors"`
	Rooms     int64 `json:"rooms"`
	Equipment int64 `json:"equipment"`
}
