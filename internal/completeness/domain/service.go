package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Check(ctx context.Context, projectID snowflake.ID) (Report, error)
	List(ctx context.Context, userID, projectID snowflake.ID, onlyOpen bool) ([]Alert, error)
	Resolve(ctx context.Context, userID, alertID snowflake.ID) error

	// InventoryChanged re-runs Check after an inventory mutation.
	InventoryChanged(ctx context.Context, projectID snowflake.ID) error
}

var (
	ErrNotFound        = errors.New("not_found")
	ErrAlreadyResolved = errors.New("alert_already_resolved")
)
