package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/filehost/backend/internal/domain/account"
	"github.com/filehost/backend/internal/domain/shared"
	infrabilling "github.com/filehost/backend/internal/infrastructure/billing"
)

func newSubscriptionService(provider *MockProviderClient, accounts *MockAccountRepository) *SubscriptionService {
	return NewSubscriptionService(provider, accounts, testBillingConfig(), zap.NewNop())
}

func testAccount(t *testing.T, customerID string) *account.Account {
	t.Helper()
	acc, err := account.NewAccount("user@example.com", 100)
	require.NoError(t, err)
	acc.StripeCustomerID = customerID
	return acc
}

func TestSubscriptionService_Upgrade(t *testing.T) {
	provider := new(MockProviderClient)
	accounts := new(MockAccountRepository)
	svc := newSubscriptionService(provider, accounts)

	acc := testAccount(t, "")
	accounts.On("FindByID", mock.Anything, acc.ID).Return(acc, nil)
	provider.On("EnsureCustomer", mock.Anything, acc.ID, acc.Email, "").Return("cus_new", nil)
	provider.On("UpsertPlusSubscription", mock.Anything, "cus_new").Return("sub_plus", nil)
	provider.On("ResumeAllPaused", mock.Anything, "cus_new").Return(&infrabilling.BulkResult{}, nil)
	accounts.On("UpdatePlanAndLimit", mock.Anything, acc.ID, account.PlanPlus, int64(10000), "cus_new").Return(nil)

	result, err := svc.Upgrade(context.Background(), acc.ID)

	require.NoError(t, err)
	assert.Equal(t, account.PlanPlus, result.Plan)
	assert.Equal(t, int64(10000), result.UploadLimit)
	assert.Equal(t, "cus_new", result.CustomerID)
	provider.AssertExpectations(t)
	accounts.AssertExpectations(t)
}

func TestSubscriptionService_Upgrade_NeedsPaymentMethod(t *testing.T) {
	provider := new(MockProviderClient)
	accounts := new(MockAccountRepository)
	svc := newSubscriptionService(provider, accounts)

	acc := testAccount(t, "cus_1")
	accounts.On("FindByID", mock.Anything, acc.ID).Return(acc, nil)
	provider.On("EnsureCustomer", mock.Anything, acc.ID, acc.Email, "cus_1").Return("cus_1", nil)
	provider.On("UpsertPlusSubscription", mock.Anything, "cus_1").
		Return("", infrabilling.ErrNeedsPaymentMethod)

	_, err := svc.Upgrade(context.Background(), acc.ID)

	assert.ErrorIs(t, err, infrabilling.ErrNeedsPaymentMethod)
	accounts.AssertNotCalled(t, "UpdatePlanAndLimit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubscriptionService_Upgrade_ResumeFailureAborts(t *testing.T) {
	provider := new(MockProviderClient)
	accounts := new(MockAccountRepository)
	svc := newSubscriptionService(provider, accounts)

	acc := testAccount(t, "cus_1")
	accounts.On("FindByID", mock.Anything, acc.ID).Return(acc, nil)
	provider.On("EnsureCustomer", mock.Anything, acc.ID, acc.Email, "cus_1").Return("cus_1", nil)
	provider.On("UpsertPlusSubscription", mock.Anything, "cus_1").Return("sub_plus", nil)
	provider.On("ResumeAllPaused", mock.Anything, "cus_1").Return(&infrabilling.BulkResult{
		Failed: []infrabilling.BulkFailure{
			{SubscriptionID: "sub_stuck", Err: errors.New("rate limited")},
		},
	}, nil)

	_, err := svc.Upgrade(context.Background(), acc.ID)

	require.Error(t, err)
	accounts.AssertNotCalled(t, "UpdatePlanAndLimit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubscriptionService_Downgrade(t *testing.T) {
	provider := new(MockProviderClient)
	accounts := new(MockAccountRepository)
	svc := newSubscriptionService(provider, accounts)

	acc := testAccount(t, "cus_1")
	acc.Plan = account.PlanPlus
	accounts.On("FindByID", mock.Anything, acc.ID).Return(acc, nil)
	provider.On("CancelAllActiveLike", mock.Anything, "cus_1").Return(&infrabilling.BulkResult{
		Succeeded: []string{"sub_plus"},
	}, nil)
	accounts.On("UpdatePlanAndLimit", mock.Anything, acc.ID, account.PlanFree, int64(100), "").Return(nil)

	result, err := svc.Downgrade(context.Background(), acc.ID)

	require.NoError(t, err)
	assert.Equal(t, account.PlanFree, result.Plan)
	assert.Equal(t, int64(100), result.UploadLimit)
	provider.AssertExpectations(t)
}

func TestSubscriptionService_Downgrade_NoCustomer(t *testing.T) {
	provider := new(MockProviderClient)
	accounts := new(MockAccountRepository)
	svc := newSubscriptionService(provider, accounts)

	acc := testAccount(t, "")
	accounts.On("FindByID", mock.Anything, acc.ID).Return(acc, nil)
	accounts.On("UpdatePlanAndLimit", mock.Anything, acc.ID, account.PlanFree, int64(100), "").Return(nil)

	_, err := svc.Downgrade(context.Background(), acc.ID)

	require.NoError(t, err)
	provider.AssertNotCalled(t, "CancelAllActiveLike", mock.Anything, mock.Anything)
}

func TestSubscriptionService_ChangePlan_InvalidPlan(t *testing.T) {
	provider := new(MockProviderClient)
	accounts := new(MockAccountRepository)
	svc := newSubscriptionService(provider, accounts)

	_, err := svc.ChangePlan(context.Background(), uuid.New(), account.Plan("enterprise"))

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VALIDATION", domainErr.Code)
}

func TestSubscriptionService_Deactivate(t *testing.T) {
	provider := new(MockProviderClient)
	accounts := new(MockAccountRepository)
	svc := newSubscriptionService(provider, accounts)

	acc := testAccount(t, "cus_1")
	accounts.On("FindByID", mock.Anything, acc.ID).Return(acc, nil)
	accounts.On("SetBanned", mock.Anything, acc.ID, mock.MatchedBy(func(until *time.Time) bool {
		return until != nil && until.After(time.Now().Add(50*365*24*time.Hour))
	})).Return(nil)
	accounts.On("SetActive", mock.Anything, acc.ID, false).Return(nil)
	provider.On("PauseAllActiveLike", mock.Anything, "cus_1").Return(&infrabilling.BulkResult{
		Succeeded: []string{"sub_plus"},
	}, nil)

	err := svc.Deactivate(context.Background(), acc.ID)

	require.NoError(t, err)
	provider.AssertExpectations(t)
	accounts.AssertExpectations(t)
}

func TestSubscriptionService_Reactivate(t *testing.T) {
	provider := new(MockProviderClient)
	accounts := new(MockAccountRepository)
	svc := newSubscriptionService(provider, accounts)

	acc := testAccount(t, "cus_1")
	accounts.On("FindByID", mock.Anything, acc.ID).Return(acc, nil)
	accounts.On("SetBanned", mock.Anything, acc.ID, (*time.Time)(nil)).Return(nil)
	accounts.On("SetActive", mock.Anything, acc.ID, true).Return(nil)
	provider.On("ResumeAllPaused", mock.Anything, "cus_1").Return(&infrabilling.BulkResult{}, nil)

	err := svc.Reactivate(context.Background(), acc.ID)

	require.NoError(t, err)
	provider.AssertExpectations(t)
	accounts.AssertExpectations(t)
}

func TestSubscriptionService_DeleteAccount(t *testing.T) {
	provider := new(MockProviderClient)
	accounts := new(MockAccountRepository)
	svc := newSubscriptionService(provider, accounts)

	acc := testAccount(t, "cus_1")
	accounts.On("FindByID", mock.Anything, acc.ID).Return(acc, nil)
	provider.On("CancelAllActiveLike", mock.Anything, "cus_1").Return(&infrabilling.BulkResult{}, nil)
	provider.On("DeleteCustomer", mock.Anything, "cus_1").Return(nil)
	accounts.On("DeleteOwnedContent", mock.Anything, acc.ID).Return(nil)
	accounts.On("Delete", mock.Anything, acc.ID).Return(nil)
	accounts.On("DeleteIdentity", mock.Anything, acc.ID).Return(nil)

	err := svc.DeleteAccount(context.Background(), acc.ID)

	require.NoError(t, err)
	provider.AssertExpectations(t)
	accounts.AssertExpectations(t)
}

func TestSubscriptionService_DeleteAccount_CustomerDeletionRejected(t *testing.T) {
	provider := new(MockProviderClient)
	accounts := new(MockAccountRepository)
	svc := newSubscriptionService(provider, accounts)

	acc := testAccount(t, "cus_1")
	accounts.On("FindByID", mock.Anything, acc.ID).Return(acc, nil)
	provider.On("CancelAllActiveLike", mock.Anything, "cus_1").Return(&infrabilling.BulkResult{}, nil)
	provider.On("DeleteCustomer", mock.Anything, "cus_1").
		Return(&infrabilling.ProviderError{Op: "delete customer", Err: errors.New("customer has invoices")})
	accounts.On("DeleteOwnedContent", mock.Anything, acc.ID).Return(nil)
	accounts.On("Delete", mock.Anything, acc.ID).Return(nil)
	accounts.On("DeleteIdentity", mock.Anything, acc.ID).Return(nil)

	// A rejected customer deletion must not stop the local teardown
	err := svc.DeleteAccount(context.Background(), acc.ID)

	require.NoError(t, err)
	accounts.AssertExpectations(t)
}

func TestSubscriptionService_DeleteAccount_CancelFailureAborts(t *testing.T) {
	provider := new(MockProviderClient)
	accounts := new(MockAccountRepository)
	svc := newSubscriptionService(provider, accounts)

	acc := testAccount(t, "cus_1")
	accounts.On("FindByID", mock.Anything, acc.ID).Return(acc, nil)
	provider.On("CancelAllActiveLike", mock.Anything, "cus_1").Return(&infrabilling.BulkResult{
		Failed: []infrabilling.BulkFailure{
			{SubscriptionID: "sub_plus", Err: errors.New("api unreachable")},
		},
	}, nil)

	err := svc.DeleteAccount(context.Background(), acc.ID)

	require.Error(t, err)
	accounts.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	accounts.AssertNotCalled(t, "DeleteIdentity", mock.Anything, mock.Anything)
}
