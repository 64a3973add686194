package billing

import (
	"context"

	"github.com/google/uuid"

	"github.com/filehost/backend/internal/infrastructure/billing"
)

// ProviderClient is the payment-provider surface the billing services
// depend on. Implemented by the Stripe client; mocked in tests.
type ProviderClient interface {
	// EnsureCustomer returns a usable provider customer ID, creating one
	// when the stored ID is empty or no longer resolves
	EnsureCustomer(ctx context.Context, accountID uuid.UUID, email, existingID string) (string, error)

	// DeleteCustomer deletes the provider customer
	DeleteCustomer(ctx context.Context, customerID string) error

	// ListActiveLike lists the customer's active-like subscriptions
	ListActiveLike(ctx context.Context, customerID string) ([]billing.Subscription, error)

	// HasPaymentMethod reports whether the customer has a saved card
	HasPaymentMethod(ctx context.Context, customerID string) (bool, error)

	// UpsertPlusSubscription idempotently moves the customer onto the plus
	// price; returns billing.ErrNeedsPaymentMethod when a new subscription
	// is needed but no card is on file
	UpsertPlusSubscription(ctx context.Context, customerID string) (string, error)

	// CancelAllActiveLike cancels every active-like subscription
	CancelAllActiveLike(ctx context.Context, customerID string) (*billing.BulkResult, error)

	// PauseAllActiveLike pauses collection on every active-like subscription
	PauseAllActiveLike(ctx context.Context, customerID string) (*billing.BulkResult, error)

	// ResumeAllPaused clears the pause flag on every paused subscription
	ResumeAllPaused(ctx context.Context, customerID string) (*billing.BulkResult, error)

	// ScanSubscriptionsByStatus walks the full subscription collection
	ScanSubscriptionsByStatus(ctx context.Context, status billing.SubscriptionStatus) ([]billing.Subscription, error)

	// ScanInvoicesByStatus walks the full invoice collection
	ScanInvoicesByStatus(ctx context.Context, status billing.InvoiceStatus) ([]billing.Invoice, error)
}

var _ ProviderClient = (*billing.StripeClient)(nil)
