package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	recdomain "github.com/voltixaudit/voltix/internal/recommendation/domain"
)

type RunRequest struct {
	// UserID, when set, must own the project.
	UserID      snowflake.ID
	ProjectID   snowflake.ID
	CountryCode string
}

// Outcome is the caller-facing result of a run. On failure Result is nil and
// FailureReason is set.
type Outcome struct {
	Success         bool                       `json:"success"`
	Result          *AuditResult               `json:"result,omitempty"`
	Recommendations []recdomain.Recommendation `json:"recommendations,omitempty"`
	FailureReason   FailureReason              `json:"failure_reason,omitempty"`
}

type Service interface {
	RunAudit(ctx context.Context, req RunRequest) (Outcome, error)
	LatestResult(ctx context.Context, projectID snowflake.ID) (*AuditResult, error)
	History(ctx context.Context, projectID snowflake.ID, limit int) ([]AuditResult, error)
}
