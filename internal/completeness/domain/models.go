package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type AlertKind string

const (
	AlertMissingBuilding      AlertKind = "missing_building"
	AlertEmptyFloor           AlertKind = "empty_floor"
	AlertRoomWithoutEquipment AlertKind = "room_without_equipment"
	AlertMissingBuildingData  AlertKind = "missing_building_data"
)

// Critical reports whether alerts of this kind block an audit from being
// meaningful.
func (k AlertKind) Critical() bool {
	switch k {
	case AlertMissingBuilding, AlertEmptyFloor, AlertRoomWithoutEquipment:
		return true
	default:
		return false
	}
}

type Alert struct {
	ID         snowflake.ID  `gorm:"primaryKey" json:"id"`
	ProjectID  snowflake.ID  `gorm:"not null;index:ix_completion_alerts_project" json:"project_id"`
	Kind       AlertKind     `gorm:"not null" json:"kind"`
	SubjectID  *snowflake.ID `gorm:"column:subject_id" json:"subject_id,omitempty"`
	Message    string        `gorm:"not null" json:"message"`
	Resolved   bool          `gorm:"not null;default:false;index:ix_completion_alerts_project" json:"resolved"`
	CreatedAt  time.Time     `gorm:"not null" json:"created_at"`
	ResolvedAt *time.Time    `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
}

func (Alert) TableName() string { return "completion_alerts" }

// Report is the outcome of a completeness check.
type Report struct {
	ProjectID     snowflake.ID `json:"project_id"`
	Complete      bool         `json:"complete"`
	Status        string       `json:"status"`
	CompletionPct int          `json:"completion_pct"`
	OpenAlerts    int          `json:"open_alerts"`
	Critical      int          `json:"critical_alerts"`
	Alerts        []Alert      `json:"alerts"`
}
