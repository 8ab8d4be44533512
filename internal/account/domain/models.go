package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// Unlimited marks a plan without a cap on the given allowance.
const Unlimited = -1

type PlanSpec struct {
	Code          Plan   `json:"code"`
	Name          string `json:"name"`
	MonthlyPrice  int64  `json:"monthly_price"`
	MonthlyAudits int    `json:"monthly_audits"`
	EmailDelivery bool   `json:"email_delivery"`
	HistoryDays   int    `json:"history_days"`

	// MaxActiveProjects bounds the projects a user holds outside the archive.
	MaxActiveProjects int `json:"max_active_projects"`
}

var plans = map[Plan]PlanSpec{
	PlanFree:       {Code: PlanFree, Name: "Gratuit", MonthlyPrice: 0, MonthlyAudits: 3, EmailDelivery: false, HistoryDays: 30, MaxActiveProjects: 3},
	PlanPro:        {Code: PlanPro, Name: "Pro", MonthlyPrice: 15000, MonthlyAudits: 20, EmailDelivery: true, HistoryDays: 365, MaxActiveProjects: Unlimited},
	PlanEnterprise: {Code: PlanEnterprise, Name: "Entreprise", MonthlyPrice: 50000, MonthlyAudits: Unlimited, EmailDelivery: true, HistoryDays: Unlimited, MaxActiveProjects: Unlimited},
}

func LookupPlan(code Plan) (PlanSpec, bool) {
	spec, ok := plans[code]
	return spec, ok
}

// Plans lists every plan from cheapest to most expensive.
func Plans() []PlanSpec {
	return []PlanSpec{plans[PlanFree], plans[PlanPro], plans[PlanEnterprise]}
}

type User struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	Email         string       `gorm:"not null;uniqueIndex" json:"email"`
	PasswordHash  string       `gorm:"column:password_hash;not null" json:"-"`
	FullName      string       `gorm:"column:full_name;not null" json:"full_name"`
	Phone         string       `json:"phone,omitempty"`
	Country       string       `gorm:"not null" json:"country"`
	Plan          Plan         `gorm:"not null;default:free;index" json:"plan"`
	PlanExpiresAt *time.Time   `gorm:"column:plan_expires_at" json:"plan_expires_at,omitempty"`
	AuditsUsed    int          `gorm:"column:audits_used;not null;default:0" json:"audits_used"`
	CreatedAt     time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "users" }

// Quota is the audit allowance left for the current month.
type Quota struct {
	Plan      Plan `json:"plan"`
	Used      int  `json:"used"`
	Limit     int  `json:"limit"`
	Remaining int  `json:"remaining"`
	Allowed   bool `json:"allowed"`
}

func QuotaFor(user User) Quota {
	spec, ok := LookupPlan(user.Plan)
	if !ok {
		spec, _ = LookupPlan(PlanFree)
	}
	q := Quota{Plan: spec.Code, Used: user.AuditsUsed, Limit: spec.MonthlyAudits}
	if spec.MonthlyAudits == Unlimited {
		q.Remaining = Unlimited
		q.Allowed = true
		return q
	}
	q.Remaining = spec.MonthlyAudits - user.AuditsUsed
	if q.Remaining < 0 {
		q.Remaining = 0
	}
	q.Allowed = q.Remaining > 0
	return q
}
