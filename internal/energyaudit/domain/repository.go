package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertResult(ctx context.Context, db *gorm.DB, result *AuditResult) error
	LatestResult(ctx context.Context, db *gorm.DB, projectID snowflake.ID) (*AuditResult, error)
	// LatestResultID returns 0 when the project has no result.
	LatestResultID(ctx context.Context, db *gorm.DB, projectID snowflake.ID) (snowflake.ID, error)
	ListResults(ctx context.Context, db *gorm.DB, projectID snowflake.ID, limit int) ([]AuditResult, error)
}
