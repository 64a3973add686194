package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/filehost/backend/internal/domain/account"
	infrabilling "github.com/filehost/backend/internal/infrastructure/billing"
)

// MockProviderClient is a mock implementation of ProviderClient
type MockProviderClient struct {
	mock.Mock
}

func (m *MockProviderClient) EnsureCustomer(ctx context.Context, accountID uuid.UUID, email, existingID string) (string, error) {
	args := m.Called(ctx, accountID, email, existingID)
	return args.String(0), args.Error(1)
}

func (m *MockProviderClient) DeleteCustomer(ctx context.Context, customerID string) error {
	args := m.Called(ctx, customerID)
	return args.Error(0)
}

func (m *MockProviderClient) ListActiveLike(ctx context.Context, customerID string) ([]infrabilling.Subscription, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]infrabilling.Subscription), args.Error(1)
}

func (m *MockProviderClient) HasPaymentMethod(ctx context.Context, customerID string) (bool, error) {
	args := m.Called(ctx, customerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockProviderClient) UpsertPlusSubscription(ctx context.Context, customerID string) (string, error) {
	args := m.Called(ctx, customerID)
	return args.String(0), args.Error(1)
}

func (m *MockProviderClient) CancelAllActiveLike(ctx context.Context, customerID string) (*infrabilling.BulkResult, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*infrabilling.BulkResult), args.Error(1)
}

func (m *MockProviderClient) PauseAllActiveLike(ctx context.Context, customerID string) (*infrabilling.BulkResult, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*infrabilling.BulkResult), args.Error(1)
}

func (m *MockProviderClient) ResumeAllPaused(ctx context.Context, customerID string) (*infrabilling.BulkResult, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*infrabilling.BulkResult), args.Error(1)
}

func (m *MockProviderClient) ScanSubscriptionsByStatus(ctx context.Context, status infrabilling.SubscriptionStatus) ([]infrabilling.Subscription, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]infrabilling.Subscription), args.Error(1)
}

func (m *MockProviderClient) ScanInvoicesByStatus(ctx context.Context, status infrabilling.InvoiceStatus) ([]infrabilling.Invoice, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]infrabilling.Invoice), args.Error(1)
}

// MockAccountRepository is a mock implementation of account.Repository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByCustomerID(ctx context.Context, customerID string) (*account.Account, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) UpdatePlanAndLimit(ctx context.Context, id uuid.UUID, plan account.Plan, uploadLimit int64, customerID string) error {
	args := m.Called(ctx, id, plan, uploadLimit, customerID)
	return args.Error(0)
}

func (m *MockAccountRepository) SetBanned(ctx context.Context, id uuid.UUID, until *time.Time) error {
	args := m.Called(ctx, id, until)
	return args.Error(0)
}

func (m *MockAccountRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

func (m *MockAccountRepository) CountByPlan(ctx context.Context, plan account.Plan) (int64, error) {
	args := m.Called(ctx, plan)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountRepository) DeleteOwnedContent(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAccountRepository) DeleteIdentity(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
