package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/voltixaudit/voltix/internal/account/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const userColumns = `id, email, password_hash, full_name, phone, country, plan, plan_expires_at, audits_used, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, user *domain.User) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FullName,
		user.Phone,
		user.Country,
		user.Plan,
		user.PlanExpiresAt,
		user.AuditsUsed,
		user.CreatedAt,
		user.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.User, error) {
	return r.findOne(ctx, db, `id = ?`, id)
}

func (r *repo) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	return r.findOne(ctx, db, `email = ?`, email)
}

func (r *repo) findOne(ctx context.Context, db *gorm.DB, where string, arg any) (*domain.User, error) {
	var user domain.User
	err := db.WithContext(ctx).Raw(
		`SELECT `+userColumns+` FROM users WHERE `+where,
		arg,
	).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, nil
	}
	return &user, nil
}

func (r *repo) IncrementAudits(ctx context.Context, db *gorm.DB, id snowflake.ID, limit int, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE users SET audits_used = audits_used + 1, updated_at = ?
		 WHERE id = ? AND (? < 0 OR audits_used < ?)`,
		now,
		id,
		limit,
		limit,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repo) ResetAudits(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE users SET audits_used = 0, updated_at = ? WHERE audits_used <> 0`,
		now,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) Downgrade(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE users SET plan = ?, plan_expires_at = NULL, updated_at = ? WHERE id = ?`,
		domain.PlanFree,
		now,
		id,
	).Error
}
