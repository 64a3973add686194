package account

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the record-store contract the billing engine depends on.
// Implementations return shared.ErrNotFound for unknown accounts.
type Repository interface {
	// FindByID loads an account by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// FindByCustomerID loads an account by its provider customer ID
	FindByCustomerID(ctx context.Context, customerID string) (*Account, error)

	// UpdatePlanAndLimit persists the mirrored plan state. An empty
	// customerID leaves the stored customer link untouched.
	UpdatePlanAndLimit(ctx context.Context, id uuid.UUID, plan Plan, uploadLimit int64, customerID string) error

	// SetBanned sets or clears (until == nil) the ban marker on the
	// account's identity
	SetBanned(ctx context.Context, id uuid.UUID, until *time.Time) error

	// SetActive flags the account active or inactive
	SetActive(ctx context.Context, id uuid.UUID, active bool) error

	// CountByPlan counts accounts on the given plan
	CountByPlan(ctx context.Context, plan Plan) (int64, error)

	// DeleteOwnedContent removes every upload owned by the account
	DeleteOwnedContent(ctx context.Context, id uuid.UUID) error

	// Delete removes the account row
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteIdentity removes the account's identity row
	DeleteIdentity(ctx context.Context, id uuid.UUID) error
}
