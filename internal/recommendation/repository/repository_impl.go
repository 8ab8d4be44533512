package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/voltixaudit/voltix/internal/recommendation/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Replace(ctx context.Context, db *gorm.DB, projectID snowflake.ID, recs []domain.Recommendation) error {
	tx := db.WithContext(ctx)
	if err := tx.Exec(`DELETE FROM recommendations WHERE project_id = ?`, projectID).Error; err != nil {
		return err
	}
	if len(recs) == 0 {
		return nil
	}
	return tx.Create(&recs).Error
}

func (r *repo) ListByProject(ctx context.Context, db *gorm.DB, projectID snowflake.ID) ([]domain.Recommendation, error) {
	var recs []domain.Recommendation
	err := db.WithContext(ctx).Raw(
		`SELECT id, project_id, audit_result_id, position, category, title, description, priority,
		        annual_saving, investment, payback_years, co2_reduction_kg, created_at
		 FROM recommendations
		 WHERE project_id = ?
		 ORDER BY position ASC`,
		projectID,
	).Scan(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}
