package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// AuditResult is one calculation run for a project. Rows are never updated;
// the most recent one is the current result.
type AuditResult struct {
	ID                snowflake.ID      `gorm:"primaryKey" json:"id"`
	ProjectID         snowflake.ID      `gorm:"not null;index:ix_audit_results_project_calculated,priority:1" json:"project_id"`
	AnnualKWh         float64           `gorm:"column:annual_kwh;not null" json:"annual_kwh"`
	EnergyClass       string            `gorm:"column:energy_class;not null" json:"energy_class"`
	Score             int               `gorm:"not null" json:"score"`
	AnnualCO2Kg       float64           `gorm:"column:annual_co2_kg;not null" json:"annual_co2_kg"`
	AnnualCost        float64           `gorm:"column:annual_cost;not null" json:"annual_cost"`
	Currency          string            `gorm:"not null" json:"currency"`
	Density           float64           `gorm:"not null" json:"density_kwh_m2"`
	AreaUsed          float64           `gorm:"column:area_used_m2;not null" json:"area_used_m2"`
	Country           string            `gorm:"not null" json:"country"`
	Tariff            float64           `gorm:"not null" json:"tariff"`
	EmissionFactor    float64           `gorm:"column:emission_factor;not null" json:"emission_factor"`
	EquipmentCount    int               `gorm:"column:equipment_count;not null" json:"equipment_count"`
	CategoryBreakdown datatypes.JSONMap `gorm:"column:category_breakdown" json:"category_breakdown"`
	CalculatedAt      time.Time         `gorm:"column:calculated_at;not null;index:ix_audit_results_project_calculated,priority:2" json:"calculated_at"`
}

func (AuditResult) TableName() string { return "audit_results" }

// Stage is a step of the audit state machine.
type Stage string

const (
	StageIdle         Stage = "idle"
	StageAggregating  Stage = "aggregating"
	StageClassifying  Stage = "classifying"
	StageTranslating  Stage = "translating"
	StageSynthesizing Stage = "synthesizing"
	StagePersisted    Stage = "persisted"
	StageAborted      Stage = "aborted"
)

var stageOrder = []Stage{
	StageIdle,
	StageAggregating,
	StageClassifying,
	StageTranslating,
	StageSynthesizing,
	StagePersisted,
}

// Next returns the stage that follows s on the success path.
func (s Stage) Next() (Stage, bool) {
	for i, stage := range stageOrder {
		if stage == s && i+1 < len(stageOrder) {
			return stageOrder[i+1], true
		}
	}
	return "", false
}

// CanAdvance reports whether the machine may move from s to next: one step
// along the success path, or to Aborted from any stage that is not terminal.
func (s Stage) CanAdvance(next Stage) bool {
	if s.Terminal() {
		return false
	}
	if next == StageAborted {
		return true
	}
	following, ok := s.Next()
	return ok && following == next
}

// Terminal reports whether no transition leaves s.
func (s Stage) Terminal() bool {
	return s == StagePersisted || s == StageAborted
}
