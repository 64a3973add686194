package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	billingapp "github.com/filehost/backend/internal/application/billing"
	"github.com/filehost/backend/internal/domain/account"
	infrabilling "github.com/filehost/backend/internal/infrastructure/billing"
	"github.com/filehost/backend/internal/infrastructure/cache"
	"github.com/filehost/backend/internal/infrastructure/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testBillingConfig() config.BillingConfig {
	return config.BillingConfig{
		FreeUploadLimit:       100,
		PlusUploadLimit:       10000,
		MetricsCacheTTL:       10 * time.Minute,
		FailedPaymentsTTL:     3 * time.Minute,
		WebhookIdempotencyTTL: 24 * time.Hour,
	}
}

func testStripeCfg() *infrabilling.StripeConfig {
	return &infrabilling.StripeConfig{
		SecretKey:       "sk_test_123",
		WebhookSecret:   "whsec_test_123456789",
		PlusPriceID:     "price_plus",
		DefaultCurrency: "usd",
		IsTestMode:      true,
		PlanNames:       map[string]string{"price_plus": "plus"},
	}
}

func performRequest(t *testing.T, engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func testAccount(t *testing.T, customerID string) *account.Account {
	t.Helper()
	acc, err := account.NewAccount("user@example.com", 100)
	require.NoError(t, err)
	acc.StripeCustomerID = customerID
	return acc
}

func newTTLCache() *cache.TTLCache {
	return cache.NewTTLCache()
}

func nopLogger() *zap.Logger {
	return zap.NewNop()
}

// mockProvider is a mock implementation of billingapp.ProviderClient
type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) EnsureCustomer(ctx context.Context, accountID uuid.UUID, email, existingID string) (string, error) {
	args := m.Called(ctx, accountID, email, existingID)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) DeleteCustomer(ctx context.Context, customerID string) error {
	args := m.Called(ctx, customerID)
	return args.Error(0)
}

func (m *mockProvider) ListActiveLike(ctx context.Context, customerID string) ([]infrabilling.Subscription, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]infrabilling.Subscription), args.Error(1)
}

func (m *mockProvider) HasPaymentMethod(ctx context.Context, customerID string) (bool, error) {
	args := m.Called(ctx, customerID)
	return args.Bool(0), args.Error(1)
}

func (m *mockProvider) UpsertPlusSubscription(ctx context.Context, customerID string) (string, error) {
	args := m.Called(ctx, customerID)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) CancelAllActiveLike(ctx context.Context, customerID string) (*infrabilling.BulkResult, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*infrabilling.BulkResult), args.Error(1)
}

func (m *mockProvider) PauseAllActiveLike(ctx context.Context, customerID string) (*infrabilling.BulkResult, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*infrabilling.BulkResult), args.Error(1)
}

func (m *mockProvider) ResumeAllPaused(ctx context.Context, customerID string) (*infrabilling.BulkResult, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*infrabilling.BulkResult), args.Error(1)
}

func (m *mockProvider) ScanSubscriptionsByStatus(ctx context.Context, status infrabilling.SubscriptionStatus) ([]infrabilling.Subscription, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]infrabilling.Subscription), args.Error(1)
}

func (m *mockProvider) ScanInvoicesByStatus(ctx context.Context, status infrabilling.InvoiceStatus) ([]infrabilling.Invoice, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]infrabilling.Invoice), args.Error(1)
}

// mockAccountRepo is a mock implementation of account.Repository
type mockAccountRepo struct {
	mock.Mock
}

func (m *mockAccountRepo) FindByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *mockAccountRepo) FindByCustomerID(ctx context.Context, customerID string) (*account.Account, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *mockAccountRepo) UpdatePlanAndLimit(ctx context.Context, id uuid.UUID, plan account.Plan, uploadLimit int64, customerID string) error {
	args := m.Called(ctx, id, plan, uploadLimit, customerID)
	return args.Error(0)
}

func (m *mockAccountRepo) SetBanned(ctx context.Context, id uuid.UUID, until *time.Time) error {
	args := m.Called(ctx, id, until)
	return args.Error(0)
}

func (m *mockAccountRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

func (m *mockAccountRepo) CountByPlan(ctx context.Context, plan account.Plan) (int64, error) {
	args := m.Called(ctx, plan)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAccountRepo) DeleteOwnedContent(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockAccountRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockAccountRepo) DeleteIdentity(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newSubscriptionEngine(provider *mockProvider, repo *mockAccountRepo) *billingapp.SubscriptionService {
	return billingapp.NewSubscriptionService(provider, repo, testBillingConfig(), nopLogger())
}
