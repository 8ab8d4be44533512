package domain

import (
	"errors"
	"fmt"
)

type FailureReason string

const (
	ReasonMissingBuilding  FailureReason = "missing_building"
	ReasonNoEquipmentData  FailureReason = "no_equipment_data"
	ReasonPersistenceError FailureReason = "persistence_error"
	ReasonProjectNotFound  FailureReason = "project_not_found"
	ReasonQuotaExceeded    FailureReason = "quota_exceeded"
	ReasonAuditInProgress  FailureReason = "audit_in_progress"
	ReasonProjectArchived  FailureReason = "project_archived"
	ReasonInvalidProjectID FailureReason = "invalid_project_id"
)

var (
	ErrMissingBuilding  = errors.New("missing_building")
	ErrNoEquipmentData  = errors.New("no_equipment_data")
	ErrPersistence      = errors.New("persistence_error")
	ErrProjectNotFound  = errors.New("project_not_found")
	ErrQuotaExceeded    = errors.New("quota_exceeded")
	ErrAuditInProgress  = errors.New("audit_in_progress")
	ErrInvalidProjectID = errors.New("invalid_project_id")
	ErrProjectArchived  = errors.New("project_archived")

	ErrInvalidTransition = errors.New("invalid_stage_transition")
)

var reasonErrors = map[FailureReason]error{
	ReasonMissingBuilding:  ErrMissingBuilding,
	ReasonNoEquipmentData:  ErrNoEquipmentData,
	ReasonPersistenceError: ErrPersistence,
	ReasonProjectNotFound:  ErrProjectNotFound,
	ReasonQuotaExceeded:    ErrQuotaExceeded,
	ReasonAuditInProgress:  ErrAuditInProgress,
	ReasonProjectArchived:  ErrProjectArchived,
	ReasonInvalidProjectID: ErrInvalidProjectID,
}

// Failure is the typed error of an aborted run. It matches the sentinel for
// its reason with errors.Is and unwraps to the underlying cause.
type Failure struct {
	Reason FailureReason
	Stage  Stage
	Err    error
}

func NewFailure(reason FailureReason, stage Stage, cause error) *Failure {
	return &Failure{Reason: reason, Stage: stage, Err: cause}
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("audit aborted at %s: %s", f.Stage, f.Reason)
	}
	return fmt.Sprintf("audit aborted at %s: %s: %v", f.Stage, f.Reason, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func (f *Failure) Is(target error) bool {
	sentinel, ok := reasonErrors[f.Reason]
	return ok && target == sentinel
}

// ReasonOf extracts the failure reason carried by err, if any.
func ReasonOf(err error) (FailureReason, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Reason, true
	}
	return "", false
}
