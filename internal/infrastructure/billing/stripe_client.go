package billing

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/customer"
	"github.com/stripe/stripe-go/v81/invoice"
	"github.com/stripe/stripe-go/v81/paymentmethod"
	"github.com/stripe/stripe-go/v81/subscription"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// scanPageSize is the fixed page size for full-collection scans
const scanPageSize = 100

// StripeClient is the typed wrapper over the Stripe API used by the
// billing engine. All mutations are idempotent at the operation level:
// re-running a call after a partial failure converges on the same state.
type StripeClient struct {
	config *StripeConfig
	logger *zap.Logger
}

// NewStripeClient creates a new Stripe client
func NewStripeClient(config *StripeConfig, logger *zap.Logger) (*StripeClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	config.InitStripeClient()

	return &StripeClient{
		config: config,
		logger: logger,
	}, nil
}

// EnsureCustomer returns a usable Stripe customer ID for the account. A
// stored existingID is verified with a read call first; if it no longer
// resolves, a fresh customer is created.
func (c *StripeClient) EnsureCustomer(ctx context.Context, accountID uuid.UUID, email, existingID string) (string, error) {
	if existingID != "" {
		if _, err := customer.Get(existingID, nil); err == nil {
			return existingID, nil
		}
		c.logger.Warn("Stored Stripe customer no longer resolves, creating a new one",
			zap.String("account_id", accountID.String()),
			zap.String("customer_id", existingID))
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Metadata: map[string]string{
			"account_id": accountID.String(),
		},
	}

	cust, err := customer.New(params)
	if err != nil {
		c.logger.Error("Failed to create Stripe customer",
			zap.String("account_id", accountID.String()),
			zap.Error(err))
		return "", providerErr("create customer", err)
	}

	c.logger.Info("Created Stripe customer",
		zap.String("account_id", accountID.String()),
		zap.String("customer_id", cust.ID))
	return cust.ID, nil
}

// DeleteCustomer deletes a customer from Stripe
func (c *StripeClient) DeleteCustomer(ctx context.Context, customerID string) error {
	if _, err := customer.Del(customerID, nil); err != nil {
		return providerErr("delete customer", err)
	}
	c.logger.Info("Deleted Stripe customer", zap.String("customer_id", customerID))
	return nil
}

// ListActiveLike lists the customer's subscriptions and keeps only the
// active-like ones. Customer-scoped lists are small, so a single call
// suffices.
func (c *StripeClient) ListActiveLike(ctx context.Context, customerID string) ([]Subscription, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String("all"),
	}

	var subs []Subscription
	iter := subscription.List(params)
	for iter.Next() {
		sub := fromStripeSubscription(iter.Subscription())
		if sub.Status.IsActiveLike() {
			subs = append(subs, sub)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, providerErr("list subscriptions", err)
	}
	return subs, nil
}

// HasPaymentMethod reports whether the customer has a saved card
func (c *StripeClient) HasPaymentMethod(ctx context.Context, customerID string) (bool, error) {
	params := &stripe.PaymentMethodListParams{
		Customer: stripe.String(customerID),
		Type:     stripe.String("card"),
	}
	params.Limit = stripe.Int64(1)

	iter := paymentmethod.List(params)
	for iter.Next() {
		return true, nil
	}
	if err := iter.Err(); err != nil {
		return false, providerErr("list payment methods", err)
	}
	return false, nil
}

// UpsertPlusSubscription moves the customer onto the plus price without
// ever creating a duplicate subscription:
//   - already on plus: unpause if needed and return the same ID
//   - on another price: switch the line item with prorated billing
//   - no subscription: create one, or return ErrNeedsPaymentMethod when no
//     card is on file
func (c *StripeClient) UpsertPlusSubscription(ctx context.Context, customerID string) (string, error) {
	subs, err := c.ListActiveLike(ctx, customerID)
	if err != nil {
		return "", err
	}

	if len(subs) > 0 {
		// At most one active-like subscription is considered canonical
		sub := subs[0]

		if len(sub.Items) > 0 && sub.Items[0].PriceID == c.config.PlusPriceID {
			if sub.Paused {
				if err := c.unpauseSubscription(sub.ID); err != nil {
					return "", err
				}
			}
			c.logger.Debug("Customer already on plus price",
				zap.String("customer_id", customerID),
				zap.String("subscription_id", sub.ID))
			return sub.ID, nil
		}

		return c.switchToPlusPrice(customerID, sub)
	}

	hasCard, err := c.HasPaymentMethod(ctx, customerID)
	if err != nil {
		return "", err
	}
	if !hasCard {
		return "", ErrNeedsPaymentMethod
	}

	params := &stripe.SubscriptionParams{
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(c.config.PlusPriceID)},
		},
		// Let Stripe's dunning machinery own first-charge failures
		// instead of failing creation outright.
		PaymentBehavior:  stripe.String("allow_incomplete"),
		CollectionMethod: stripe.String("charge_automatically"),
	}

	sub, err := subscription.New(params)
	if err != nil {
		c.logger.Error("Failed to create Stripe subscription",
			zap.String("customer_id", customerID),
			zap.Error(err))
		return "", providerErr("create subscription", err)
	}

	c.logger.Info("Created plus subscription",
		zap.String("customer_id", customerID),
		zap.String("subscription_id", sub.ID),
		zap.String("status", string(sub.Status)))
	return sub.ID, nil
}

// switchToPlusPrice updates an existing subscription's line item to the
// plus price with prorated billing, clearing any pause in the same call.
func (c *StripeClient) switchToPlusPrice(customerID string, sub Subscription) (string, error) {
	if len(sub.Items) == 0 {
		return "", providerErr("update subscription", errSubscriptionHasNoItems)
	}

	params := &stripe.SubscriptionParams{
		Items: []*stripe.SubscriptionItemsParams{
			{
				ID:    stripe.String(sub.Items[0].ItemID),
				Price: stripe.String(c.config.PlusPriceID),
			},
		},
		ProrationBehavior: stripe.String("create_prorations"),
	}
	if sub.Paused {
		params.AddExtra("pause_collection", "")
	}

	updated, err := subscription.Update(sub.ID, params)
	if err != nil {
		c.logger.Error("Failed to switch subscription to plus price",
			zap.String("subscription_id", sub.ID),
			zap.Error(err))
		return "", providerErr("update subscription", err)
	}

	c.logger.Info("Switched subscription to plus price",
		zap.String("customer_id", customerID),
		zap.String("subscription_id", updated.ID),
		zap.String("previous_price", sub.Items[0].PriceID))
	return updated.ID, nil
}

// bulkFanOutConcurrency bounds concurrent provider calls per batch
const bulkFanOutConcurrency = 4

// fanOut runs op once per subscription concurrently and collects per-item
// outcomes, so one bad subscription never masks the result of the rest.
// Only the listing error aborts the batch.
func (c *StripeClient) fanOut(ctx context.Context, subs []Subscription, op func(Subscription) error) *BulkResult {
	var (
		mu     sync.Mutex
		result BulkResult
	)

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(bulkFanOutConcurrency)
	for _, sub := range subs {
		g.Go(func() error {
			err := op(sub)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed = append(result.Failed, BulkFailure{SubscriptionID: sub.ID, Err: err})
			} else {
				result.Succeeded = append(result.Succeeded, sub.ID)
			}
			return nil
		})
	}
	_ = g.Wait()

	return &result
}

// CancelAllActiveLike immediately cancels every active-like subscription
// for the customer. Calls fan out concurrently; per-subscription outcomes
// are reported in the result.
func (c *StripeClient) CancelAllActiveLike(ctx context.Context, customerID string) (*BulkResult, error) {
	subs, err := c.ListActiveLike(ctx, customerID)
	if err != nil {
		return nil, err
	}

	result := c.fanOut(ctx, subs, func(sub Subscription) error {
		if _, err := subscription.Cancel(sub.ID, nil); err != nil {
			return providerErr("cancel subscription "+sub.ID, err)
		}
		return nil
	})

	c.logger.Info("Canceled active-like subscriptions",
		zap.String("customer_id", customerID),
		zap.Int("succeeded", len(result.Succeeded)),
		zap.Int("failed", len(result.Failed)))
	return result, nil
}

// PauseAllActiveLike pauses collection on every active-like subscription
// for the customer, voiding invoices raised while paused.
func (c *StripeClient) PauseAllActiveLike(ctx context.Context, customerID string) (*BulkResult, error) {
	subs, err := c.ListActiveLike(ctx, customerID)
	if err != nil {
		return nil, err
	}

	result := c.fanOut(ctx, subs, func(sub Subscription) error {
		params := &stripe.SubscriptionParams{
			PauseCollection: &stripe.SubscriptionPauseCollectionParams{
				Behavior: stripe.String("void"),
			},
		}
		if _, err := subscription.Update(sub.ID, params); err != nil {
			return providerErr("pause subscription "+sub.ID, err)
		}
		return nil
	})

	c.logger.Info("Paused active-like subscriptions",
		zap.String("customer_id", customerID),
		zap.Int("succeeded", len(result.Succeeded)),
		zap.Int("failed", len(result.Failed)))
	return result, nil
}

// ResumeAllPaused clears the pause flag on every paused subscription for
// the customer. Unpaused subscriptions are left untouched.
func (c *StripeClient) ResumeAllPaused(ctx context.Context, customerID string) (*BulkResult, error) {
	subs, err := c.ListActiveLike(ctx, customerID)
	if err != nil {
		return nil, err
	}

	paused := subs[:0:0]
	for _, sub := range subs {
		if sub.Paused {
			paused = append(paused, sub)
		}
	}

	result := c.fanOut(ctx, paused, func(sub Subscription) error {
		return c.unpauseSubscription(sub.ID)
	})

	if len(paused) > 0 {
		c.logger.Info("Resumed paused subscriptions",
			zap.String("customer_id", customerID),
			zap.Int("succeeded", len(result.Succeeded)),
			zap.Int("failed", len(result.Failed)))
	}
	return result, nil
}

// unpauseSubscription clears pause_collection on a subscription
func (c *StripeClient) unpauseSubscription(subscriptionID string) error {
	params := &stripe.SubscriptionParams{}
	params.AddExtra("pause_collection", "")

	if _, err := subscription.Update(subscriptionID, params); err != nil {
		return providerErr("resume subscription "+subscriptionID, err)
	}
	return nil
}

// ScanSubscriptionsByStatus walks the full provider collection of
// subscriptions with the given status. Pages are fetched sequentially:
// each page's cursor is the last ID of the previous page, continuing
// while the provider reports more results.
func (c *StripeClient) ScanSubscriptionsByStatus(ctx context.Context, status SubscriptionStatus) ([]Subscription, error) {
	var (
		all    []Subscription
		cursor string
	)

	for {
		params := &stripe.SubscriptionListParams{
			Status: stripe.String(string(status)),
		}
		params.Limit = stripe.Int64(scanPageSize)
		params.Single = true
		if cursor != "" {
			params.StartingAfter = stripe.String(cursor)
		}

		iter := subscription.List(params)
		var pageCount int
		var lastID string
		for iter.Next() {
			sub := iter.Subscription()
			all = append(all, fromStripeSubscription(sub))
			lastID = sub.ID
			pageCount++
		}
		if err := iter.Err(); err != nil {
			return nil, providerErr("scan subscriptions", err)
		}

		if pageCount == 0 || !iter.List().GetListMeta().HasMore {
			break
		}
		cursor = lastID
	}

	return all, nil
}

// ScanInvoicesByStatus walks the full provider collection of invoices with
// the given status, using the same cursor contract as subscription scans.
func (c *StripeClient) ScanInvoicesByStatus(ctx context.Context, status InvoiceStatus) ([]Invoice, error) {
	var (
		all    []Invoice
		cursor string
	)

	for {
		params := &stripe.InvoiceListParams{
			Status: stripe.String(string(status)),
		}
		params.Limit = stripe.Int64(scanPageSize)
		params.Single = true
		if cursor != "" {
			params.StartingAfter = stripe.String(cursor)
		}

		iter := invoice.List(params)
		var pageCount int
		var lastID string
		for iter.Next() {
			inv := iter.Invoice()
			all = append(all, fromStripeInvoice(inv))
			lastID = inv.ID
			pageCount++
		}
		if err := iter.Err(); err != nil {
			return nil, providerErr("scan invoices", err)
		}

		if pageCount == 0 || !iter.List().GetListMeta().HasMore {
			break
		}
		cursor = lastID
	}

	return all, nil
}
