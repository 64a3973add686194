package billing

import (
	"errors"
	"time"

	"github.com/filehost/backend/internal/domain/shared"
	"github.com/stripe/stripe-go/v81"
)

// ErrNeedsPaymentMethod is returned when an upgrade requires a new
// subscription but the customer has no saved payment method. Callers must
// branch on this to route the user to card collection instead of surfacing
// a generic failure.
var ErrNeedsPaymentMethod = shared.NewDomainError("NEEDS_PAYMENT_METHOD", "No saved payment method on file")

// errSubscriptionHasNoItems guards against malformed provider payloads
var errSubscriptionHasNoItems = errors.New("subscription has no line items")

// ProviderError wraps any failed call into the payment provider
type ProviderError struct {
	Op  string
	Err error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	return "stripe: " + e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying provider error
func (e *ProviderError) Unwrap() error {
	return e.Err
}

func providerErr(op string, err error) error {
	return &ProviderError{Op: op, Err: err}
}

// SubscriptionStatus represents the status of a provider subscription
type SubscriptionStatus string

const (
	SubscriptionStatusActive            SubscriptionStatus = "active"
	SubscriptionStatusPastDue           SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled          SubscriptionStatus = "canceled"
	SubscriptionStatusIncomplete        SubscriptionStatus = "incomplete"
	SubscriptionStatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	SubscriptionStatusTrialing          SubscriptionStatus = "trialing"
	SubscriptionStatusUnpaid            SubscriptionStatus = "unpaid"
	SubscriptionStatusPaused            SubscriptionStatus = "paused"
)

// String returns the string representation of the status
func (s SubscriptionStatus) String() string {
	return string(s)
}

// IsActiveLike reports whether business logic should treat the
// subscription as live. Everything except terminal statuses counts.
func (s SubscriptionStatus) IsActiveLike() bool {
	return s != SubscriptionStatusCanceled && s != SubscriptionStatusIncompleteExpired
}

// Interval is the recurrence unit of a price
type Interval string

const (
	IntervalDay   Interval = "day"
	IntervalWeek  Interval = "week"
	IntervalMonth Interval = "month"
	IntervalYear  Interval = "year"
)

// LineItem is one priced line of a subscription
type LineItem struct {
	ItemID        string
	PriceID       string
	UnitAmount    int64 // minor currency units
	Quantity      int64
	Interval      Interval
	IntervalCount int64
	Recurring     bool
}

// Subscription is the provider-side subscription view the engine works with
type Subscription struct {
	ID         string
	CustomerID string
	Status     SubscriptionStatus
	Paused     bool
	CanceledAt *time.Time
	Items      []LineItem
}

// BulkFailure records one failed call inside a bulk fan-out
type BulkFailure struct {
	SubscriptionID string
	Err            error
}

// BulkResult reports per-subscription outcomes of a bulk fan-out
type BulkResult struct {
	Succeeded []string
	Failed    []BulkFailure
}

// Ok reports whether every call in the batch succeeded
func (r *BulkResult) Ok() bool {
	return len(r.Failed) == 0
}

// Err aggregates the batch failures into a single error, or nil when the
// whole batch succeeded.
func (r *BulkResult) Err() error {
	if r.Ok() {
		return nil
	}
	errs := make([]error, 0, len(r.Failed))
	for _, f := range r.Failed {
		errs = append(errs, f.Err)
	}
	return errors.Join(errs...)
}

// InvoiceStatus represents the status of a provider invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "draft"
	InvoiceStatusOpen          InvoiceStatus = "open"
	InvoiceStatusPaid          InvoiceStatus = "paid"
	InvoiceStatusUncollectible InvoiceStatus = "uncollectible"
	InvoiceStatusVoid          InvoiceStatus = "void"
)

// Invoice is the read-only invoice view used for failed-payment reporting
type Invoice struct {
	ID                 string
	CustomerID         string
	Status             InvoiceStatus
	AmountDue          int64 // minor currency units
	AmountRemaining    int64 // minor currency units
	AttemptCount       int64
	Attempted          bool
	NextPaymentAttempt *time.Time
	CreatedAt          time.Time
}

// fromStripeSubscription converts the SDK subscription to the engine view
func fromStripeSubscription(sub *stripe.Subscription) Subscription {
	out := Subscription{
		ID:     sub.ID,
		Status: SubscriptionStatus(sub.Status),
		Paused: sub.PauseCollection != nil && sub.PauseCollection.Behavior != "",
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	if sub.CanceledAt > 0 {
		t := time.Unix(sub.CanceledAt, 0)
		out.CanceledAt = &t
	}
	if sub.Items != nil {
		for _, item := range sub.Items.Data {
			if item.Price == nil {
				continue
			}
			li := LineItem{
				ItemID:     item.ID,
				PriceID:    item.Price.ID,
				UnitAmount: item.Price.UnitAmount,
				Quantity:   item.Quantity,
				Recurring:  item.Price.Type == stripe.PriceTypeRecurring,
			}
			if item.Price.Recurring != nil {
				li.Interval = Interval(item.Price.Recurring.Interval)
				li.IntervalCount = item.Price.Recurring.IntervalCount
			}
			out.Items = append(out.Items, li)
		}
	}
	return out
}

// fromStripeInvoice converts the SDK invoice to the engine view
func fromStripeInvoice(inv *stripe.Invoice) Invoice {
	out := Invoice{
		ID:              inv.ID,
		Status:          InvoiceStatus(inv.Status),
		AmountDue:       inv.AmountDue,
		AmountRemaining: inv.AmountRemaining,
		AttemptCount:    inv.AttemptCount,
		Attempted:       inv.Attempted,
		CreatedAt:       time.Unix(inv.Created, 0),
	}
	if inv.Customer != nil {
		out.CustomerID = inv.Customer.ID
	}
	if inv.NextPaymentAttempt > 0 {
		t := time.Unix(inv.NextPaymentAttempt, 0)
		out.NextPaymentAttempt = &t
	}
	return out
}
