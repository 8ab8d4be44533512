package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// ReplaceOpen drops every unresolved alert of the project and inserts alerts.
	ReplaceOpen(ctx context.Context, db *gorm.DB, projectID snowflake.ID, alerts []Alert) error
	FindAlert(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Alert, error)
	Resolve(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error)
	List(ctx context.Context, db *gorm.DB, projectID snowflake.ID, onlyOpen bool) ([]Alert, error)
}
