package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/filehost/backend/internal/domain/account"
	"github.com/filehost/backend/internal/domain/shared"
	"github.com/filehost/backend/internal/infrastructure/config"
)

// banDuration is the far-future ban horizon used by deactivation
const banDuration = 100 * 365 * 24 * time.Hour

// PlanChangeResult reports the persisted state after a plan transition
type PlanChangeResult struct {
	AccountID   uuid.UUID
	Plan        account.Plan
	UploadLimit int64
	CustomerID  string
}

// SubscriptionService drives the per-account plan state machine. Each
// transition completes fully or raises a typed error; there is no
// compensating rollback of applied provider-side effects, because every
// transition is idempotent and safe to re-run after a mid-sequence
// failure.
type SubscriptionService struct {
	provider ProviderClient
	accounts account.Repository
	cfg      config.BillingConfig
	logger   *zap.Logger
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(
	provider ProviderClient,
	accounts account.Repository,
	cfg config.BillingConfig,
	logger *zap.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		provider: provider,
		accounts: accounts,
		cfg:      cfg,
		logger:   logger,
	}
}

// ChangePlan dispatches a plan change to the upgrade or downgrade path
func (s *SubscriptionService) ChangePlan(ctx context.Context, accountID uuid.UUID, plan account.Plan) (*PlanChangeResult, error) {
	if !plan.IsValid() {
		return nil, shared.NewDomainError("VALIDATION", "unknown plan: "+string(plan))
	}
	if plan == account.PlanPlus {
		return s.Upgrade(ctx, accountID)
	}
	return s.Downgrade(ctx, accountID)
}

// Upgrade moves the account onto the plus plan: ensure a provider
// customer, idempotently upsert the plus subscription, defensively resume
// anything a prior deactivation left paused, then persist the mirror.
// billing.ErrNeedsPaymentMethod propagates untouched so the boundary can
// route the user to card collection.
func (s *SubscriptionService) Upgrade(ctx context.Context, accountID uuid.UUID) (*PlanChangeResult, error) {
	acc, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	customerID, err := s.provider.EnsureCustomer(ctx, acc.ID, acc.Email, acc.StripeCustomerID)
	if err != nil {
		return nil, err
	}

	subscriptionID, err := s.provider.UpsertPlusSubscription(ctx, customerID)
	if err != nil {
		return nil, err
	}

	resumed, err := s.provider.ResumeAllPaused(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if err := resumed.Err(); err != nil {
		return nil, err
	}

	if err := s.accounts.UpdatePlanAndLimit(ctx, acc.ID, account.PlanPlus, s.cfg.PlusUploadLimit, customerID); err != nil {
		return nil, err
	}

	s.logger.Info("Account upgraded to plus",
		zap.String("account_id", acc.ID.String()),
		zap.String("customer_id", customerID),
		zap.String("subscription_id", subscriptionID))

	return &PlanChangeResult{
		AccountID:   acc.ID,
		Plan:        account.PlanPlus,
		UploadLimit: s.cfg.PlusUploadLimit,
		CustomerID:  customerID,
	}, nil
}

// Downgrade cancels every active-like subscription immediately, with no
// grace period, then persists the free-plan mirror. The stored customer
// link is kept for future upgrades.
func (s *SubscriptionService) Downgrade(ctx context.Context, accountID uuid.UUID) (*PlanChangeResult, error) {
	acc, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if acc.StripeCustomerID != "" {
		canceled, err := s.provider.CancelAllActiveLike(ctx, acc.StripeCustomerID)
		if err != nil {
			return nil, err
		}
		if err := canceled.Err(); err != nil {
			return nil, err
		}
	}

	if err := s.accounts.UpdatePlanAndLimit(ctx, acc.ID, account.PlanFree, s.cfg.FreeUploadLimit, ""); err != nil {
		return nil, err
	}

	s.logger.Info("Account downgraded to free",
		zap.String("account_id", acc.ID.String()))

	return &PlanChangeResult{
		AccountID:   acc.ID,
		Plan:        account.PlanFree,
		UploadLimit: s.cfg.FreeUploadLimit,
		CustomerID:  acc.StripeCustomerID,
	}, nil
}

// Deactivate bans the identity far into the future, flags the account
// inactive, and pauses collection on its subscriptions. Reversible and
// revenue-preserving; nothing is canceled.
func (s *SubscriptionService) Deactivate(ctx context.Context, accountID uuid.UUID) error {
	acc, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return err
	}

	bannedUntil := time.Now().Add(banDuration)
	if err := s.accounts.SetBanned(ctx, acc.ID, &bannedUntil); err != nil {
		return err
	}
	if err := s.accounts.SetActive(ctx, acc.ID, false); err != nil {
		return err
	}

	if acc.StripeCustomerID != "" {
		paused, err := s.provider.PauseAllActiveLike(ctx, acc.StripeCustomerID)
		if err != nil {
			return err
		}
		if err := paused.Err(); err != nil {
			return err
		}
	}

	s.logger.Info("Account deactivated",
		zap.String("account_id", acc.ID.String()))
	return nil
}

// Reactivate clears the ban marker, flags the account active, and resumes
// every paused subscription regardless of why it was paused.
func (s *SubscriptionService) Reactivate(ctx context.Context, accountID uuid.UUID) error {
	acc, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return err
	}

	if err := s.accounts.SetBanned(ctx, acc.ID, nil); err != nil {
		return err
	}
	if err := s.accounts.SetActive(ctx, acc.ID, true); err != nil {
		return err
	}

	if acc.StripeCustomerID != "" {
		resumed, err := s.provider.ResumeAllPaused(ctx, acc.StripeCustomerID)
		if err != nil {
			return err
		}
		if err := resumed.Err(); err != nil {
			return err
		}
	}

	s.logger.Info("Account reactivated",
		zap.String("account_id", acc.ID.String()))
	return nil
}

// DeleteAccount tears the account down: cancel subscriptions, best-effort
// delete the provider customer, then remove owned content, the account
// row, and the identity. The provider-side steps run first because they
// are idempotent, so re-running the whole sequence after a mid-sequence
// failure is safe. A customer deletion rejected by the provider (billing
// history exists) is the one intentional error suppression here.
func (s *SubscriptionService) DeleteAccount(ctx context.Context, accountID uuid.UUID) error {
	acc, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return err
	}

	if acc.StripeCustomerID != "" {
		canceled, err := s.provider.CancelAllActiveLike(ctx, acc.StripeCustomerID)
		if err != nil {
			return err
		}
		if err := canceled.Err(); err != nil {
			return err
		}

		if err := s.provider.DeleteCustomer(ctx, acc.StripeCustomerID); err != nil {
			s.logger.Warn("Provider customer deletion rejected, continuing",
				zap.String("account_id", acc.ID.String()),
				zap.String("customer_id", acc.StripeCustomerID),
				zap.Error(err))
		}
	}

	if err := s.accounts.DeleteOwnedContent(ctx, acc.ID); err != nil {
		return err
	}
	if err := s.accounts.Delete(ctx, acc.ID); err != nil {
		return err
	}
	if err := s.accounts.DeleteIdentity(ctx, acc.ID); err != nil {
		return err
	}

	s.logger.Info("Account deleted",
		zap.String("account_id", acc.ID.String()))
	return nil
}
