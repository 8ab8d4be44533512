package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// Replace swaps the project's recommendation set. Callers run it inside
	// the transaction that persists the audit result.
	Replace(ctx context.Context, db *gorm.DB, projectID snowflake.ID, recs []Recommendation) error
	ListByProject(ctx context.Context, db *gorm.DB, projectID snowflake.ID) ([]Recommendation, error)
}
