package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/voltixaudit/voltix/internal/energyaudit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertResult(ctx context.Context, db *gorm.DB, result *domain.AuditResult) error {
	return db.WithContext(ctx).Create(result).Error
}

func (r *repo) LatestResult(ctx context.Context, db *gorm.DB, projectID snowflake.ID) (*domain.AuditResult, error) {
	var results []domain.AuditResult
	err := db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("calculated_at DESC").
		Order("id DESC").
		Limit(1).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}

func (r *repo) LatestResultID(ctx context.Context, db *gorm.DB, projectID snowflake.ID) (snowflake.ID, error) {
	var ids []int64
	err := db.WithContext(ctx).
		Model(&domain.AuditResult{}).
		Where("project_id = ?", projectID).
		Order("calculated_at DESC").
		Order("id DESC").
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil || len(ids) == 0 {
		return 0, err
	}
	return snowflake.ID(ids[0]), nil
}

func (r *repo) ListResults(ctx context.Context, db *gorm.DB, projectID snowflake.ID, limit int) ([]domain.AuditResult, error) {
	var results []domain.AuditResult
	err := db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("calculated_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
