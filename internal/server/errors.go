package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/voltixaudit/voltix/internal/account/domain"
	completenessdomain "github.com/voltixaudit/voltix/internal/completeness/domain"
	eadomain "github.com/voltixaudit/voltix/internal/energyaudit/domain"
	invdomain "github.com/voltixaudit/voltix/internal/inventory/domain"
	"github.com/voltixaudit/voltix/internal/report"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

type errorClass struct {
	status  int
	message string
	targets []error
}

// errorClasses is checked in order; the first class holding a target that
// matches the error decides the status. The matched sentinel's text becomes
// the payload type.
var errorClasses = []errorClass{
	{http.StatusBadRequest, "validation error", []error{
		ErrInvalidRequest,
		accountdomain.ErrInvalidEmail,
		accountdomain.ErrWeakPassword,
		accountdomain.ErrInvalidFullName,
		accountdomain.ErrUnknownPlan,
		invdomain.ErrInvalidUser,
		invdomain.ErrInvalidName,
		invdomain.ErrInvalidArea,
		invdomain.ErrInvalidOccupants,
		invdomain.ErrInvalidWattage,
		invdomain.ErrInvalidQuantity,
		invdomain.ErrInvalidDailyHours,
		invdomain.ErrInvalidWeeklyDays,
		invdomain.ErrInvalidCategory,
		invdomain.ErrInvalidPageToken,
		eadomain.ErrInvalidProjectID,
	}},
	{http.StatusUnauthorized, "unauthorized", []error{
		ErrUnauthorized,
		accountdomain.ErrInvalidCredentials,
		accountdomain.ErrInvalidToken,
	}},
	{http.StatusForbidden, "plan limit reached", []error{
		accountdomain.ErrQuotaExceeded,
		eadomain.ErrQuotaExceeded,
		invdomain.ErrProjectLimit,
		report.ErrEmailNotIncluded,
	}},
	{http.StatusNotFound, "not found", []error{
		ErrNotFound,
		invdomain.ErrNotFound,
		completenessdomain.ErrNotFound,
		eadomain.ErrProjectNotFound,
		accountdomain.ErrUserNotFound,
		report.ErrNoAuditResult,
		gorm.ErrRecordNotFound,
	}},
	{http.StatusConflict, "conflict", []error{
		accountdomain.ErrEmailTaken,
		invdomain.ErrBuildingExists,
		invdomain.ErrFloorExists,
		invdomain.ErrProjectArchived,
		completenessdomain.ErrAlreadyResolved,
		eadomain.ErrAuditInProgress,
		eadomain.ErrProjectArchived,
	}},
	{http.StatusUnprocessableEntity, "audit cannot run", []error{
		eadomain.ErrMissingBuilding,
		eadomain.ErrNoEquipmentData,
	}},
	{http.StatusTooManyRequests, "too many requests", []error{
		ErrRateLimited,
	}},
	{http.StatusServiceUnavailable, "service unavailable", []error{
		ErrServiceUnavailable,
		report.ErrDeliveryUnavailable,
	}},
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{{Field: field, Code: code, Message: message}},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, internalPayload()
	}

	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	for _, class := range errorClasses {
		for _, target := range class.targets {
			if !errors.Is(err, target) {
				continue
			}
			code := target.Error()
			if class.status == http.StatusBadRequest {
				return class.status, errorPayload{
					Type:    "validation_error",
					Message: class.message,
					Errors: []ValidationError{{
						Field:   validationErrorField(code),
						Code:    code,
						Message: "invalid value",
					}},
				}
			}
			return class.status, errorPayload{Type: code, Message: class.message}
		}
	}
	return http.StatusInternalServerError, internalPayload()
}

func internalPayload() errorPayload {
	return errorPayload{Type: "internal_error", Message: "internal server error"}
}

func validationErrorField(code string) string {
	switch code {
	case "invalid_request":
		return "request"
	case "weak_password":
		return "password"
	case "unknown_plan":
		return "plan"
	}
	return strings.TrimPrefix(code, "invalid_")
}

// classifyErrorForLog returns the error type and code attached to the
// request log line.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	if len(payload.Errors) > 0 {
		return payload.Type, payload.Errors[0].Code
	}
	if status >= http.StatusInternalServerError && payload.Type == "internal_error" {
		if reason, ok := eadomain.ReasonOf(err); ok {
			return payload.Type, string(reason)
		}
	}
	return payload.Type, payload.Type
}
