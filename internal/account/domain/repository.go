package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, user *User) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*User, error)
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*User, error)
	// IncrementAudits bumps the monthly counter unless limit is reached and
	// reports whether a row was updated.
	IncrementAudits(ctx context.Context, db *gorm.DB, id snowflake.ID, limit int, now time.Time) (bool, error)
	ResetAudits(ctx context.Context, db *gorm.DB, now time.Time) (int64, error)
	Downgrade(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) error
}
