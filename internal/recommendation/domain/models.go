package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank orders priorities for presentation, high first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

type Category string

const (
	CategoryLighting   Category = "lighting"
	CategoryCooling    Category = "cooling"
	CategoryInsulation Category = "insulation"
	CategoryRenewable  Category = "renewable"
	CategoryAutomation Category = "automation"
)

// Recommendation is one improvement measure generated by an audit run.
type Recommendation struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	ProjectID      snowflake.ID `gorm:"not null;index" json:"project_id"`
	AuditResultID  snowflake.ID `gorm:"column:audit_result_id;not null;index" json:"audit_result_id"`
	Position       int          `gorm:"not null" json:"position"`
	Category       Category     `gorm:"not null" json:"category"`
	Title          string       `gorm:"not null" json:"title"`
	Description    string       `gorm:"not null" json:"description"`
	Priority       Priority     `gorm:"not null" json:"priority"`
	AnnualSaving   float64      `gorm:"column:annual_saving;not null" json:"annual_saving"`
	Investment     float64      `gorm:"not null" json:"investment"`
	PaybackYears   float64      `gorm:"column:payback_years;not null" json:"payback_years"`
	CO2ReductionKg float64      `gorm:"column:co2_reduction_kg;not null" json:"co2_reduction_kg"`
	CreatedAt      time.Time    `gorm:"not null" json:"created_at"`
}

func (Recommendation) TableName() string { return "recommendations" }

// Summary totals a recommendation set for the action plan.
type Summary struct {
	TotalInvestment   float64 `json:"total_investment"`
	TotalAnnualSaving float64 `json:"total_annual_saving"`
	TotalCO2Reduction float64 `json:"total_co2_reduction_kg"`
	PaybackYears      float64 `json:"payback_years"`
}
