package billing

import (
	"fmt"

	"github.com/stripe/stripe-go/v81"
)

// StripeConfig holds configuration for the Stripe integration
type StripeConfig struct {
	// SecretKey is the Stripe secret API key (sk_test_xxx or sk_live_xxx)
	SecretKey string `json:"secret_key" mapstructure:"secret_key"`

	// WebhookSecret is the secret for verifying webhook signatures. An
	// empty value makes webhook processing accept events unverified; this
	// soft-pass is deliberate for local development and logged loudly.
	WebhookSecret string `json:"webhook_secret" mapstructure:"webhook_secret"`

	// PlusPriceID is the Stripe Price ID of the plus plan
	PlusPriceID string `json:"plus_price_id" mapstructure:"plus_price_id"`

	// DefaultCurrency is the currency for new subscriptions (e.g. "usd")
	DefaultCurrency string `json:"default_currency" mapstructure:"default_currency"`

	// IsTestMode indicates whether the test-mode API key is expected
	IsTestMode bool `json:"is_test_mode" mapstructure:"is_test_mode"`

	// PlanNames maps Stripe Price IDs to reporting plan names
	PlanNames map[string]string `json:"plan_names" mapstructure:"plan_names"`
}

// Validate validates the Stripe configuration
func (c *StripeConfig) Validate() error {
	if c.SecretKey == "" {
		return fmt.Errorf("stripe: secret key is required")
	}

	if c.IsTestMode {
		if len(c.SecretKey) > 7 && c.SecretKey[:7] != "sk_test" {
			return fmt.Errorf("stripe: test mode enabled but secret key is not a test key")
		}
	} else {
		if len(c.SecretKey) > 7 && c.SecretKey[:7] != "sk_live" {
			return fmt.Errorf("stripe: live mode enabled but secret key is not a live key")
		}
	}

	if c.PlusPriceID == "" {
		return fmt.Errorf("stripe: plus price id is required")
	}

	if c.DefaultCurrency == "" {
		return fmt.Errorf("stripe: default currency is required")
	}

	return nil
}

// PlanName returns the reporting plan name for a Stripe price ID, or the
// raw price ID when no mapping is configured.
func (c *StripeConfig) PlanName(priceID string) string {
	if name, ok := c.PlanNames[priceID]; ok {
		return name
	}
	return priceID
}

// InitStripeClient initializes the Stripe client with the configured API key
func (c *StripeConfig) InitStripeClient() {
	stripe.Key = c.SecretKey
}
