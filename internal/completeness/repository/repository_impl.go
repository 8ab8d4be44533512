package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/voltixaudit/voltix/internal/completeness/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const alertColumns = `id, project_id, kind, subject_id, message, resolved, created_at, resolved_at`

func (r *repo) ReplaceOpen(ctx context.Context, db *gorm.DB, projectID snowflake.ID, alerts []domain.Alert) error {
	tx := db.WithContext(ctx)
	if err := tx.Exec(
		`DELETE FROM completion_alerts WHERE project_id = ? AND resolved = ?`,
		projectID,
		false,
	).Error; err != nil {
		return err
	}
	if len(alerts) == 0 {
		return nil
	}
	return tx.Create(&alerts).Error
}

func (r *repo) FindAlert(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Alert, error) {
	var alert domain.Alert
	err := db.WithContext(ctx).Raw(
		`SELECT `+alertColumns+` FROM completion_alerts WHERE id = ?`,
		id,
	).Scan(&alert).Error
	if err != nil {
		return nil, err
	}
	if alert.ID == 0 {
		return nil, nil
	}
	return &alert, nil
}

func (r *repo) Resolve(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE completion_alerts SET resolved = ?, resolved_at = ? WHERE id = ? AND resolved = ?`,
		true,
		now,
		id,
		false,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, projectID snowflake.ID, onlyOpen bool) ([]domain.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM completion_alerts WHERE project_id = ?`
	args := []any{projectID}
	if onlyOpen {
		query += ` AND resolved = ?`
		args = append(args, false)
	}
	query += ` ORDER BY created_at DESC, id ASC`

	var alerts []domain.Alert
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}
