package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type RegisterRequest struct {
	Email    string
	Password string
	FullName string
	Phone    string
	Country  string
	Plan     Plan
}

type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (User, error)
	Login(ctx context.Context, email, password string) (Session, error)
	Authenticate(ctx context.Context, token string) (snowflake.ID, error)
	GetUser(ctx context.Context, userID snowflake.ID) (User, error)
	// ProjectLimit reports the active project cap of the user's current plan.
	// limited is false when the plan has no cap.
	ProjectLimit(ctx context.Context, userID snowflake.ID) (limit int, limited bool, err error)

	CheckQuota(ctx context.Context, userID snowflake.ID) (Quota, error)
	// ConsumeAudit uses one audit of the monthly allowance inside tx.
	ConsumeAudit(ctx context.Context, tx *gorm.DB, userID snowflake.ID) error
	ResetMonthlyQuotas(ctx context.Context) (int64, error)
}

var (
	ErrInvalidEmail       = errors.New("invalid_email")
	ErrWeakPassword       = errors.New("weak_password")
	ErrInvalidFullName    = errors.New("invalid_full_name")
	ErrUnknownPlan        = errors.New("unknown_plan")
	ErrEmailTaken         = errors.New("email_taken")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidToken       = errors.New("invalid_token")
	ErrQuotaExceeded      = errors.New("quota_exceeded")
	ErrUserNotFound       = errors.New("user_not_found")
)
