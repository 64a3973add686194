package billing

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/filehost/backend/internal/domain/account"
	"github.com/filehost/backend/internal/domain/shared"
	"github.com/filehost/backend/internal/infrastructure/billing"
	"github.com/filehost/backend/internal/infrastructure/cache"
	"github.com/filehost/backend/internal/infrastructure/config"
)

const (
	churnWindow = 30 * 24 * time.Hour

	defaultPageSize = 20
	maxPageSize     = 100
)

// BillingMetrics is the dashboard headline aggregate
type BillingMetrics struct {
	MRR               decimal.Decimal `json:"mrr"`
	ARR               decimal.Decimal `json:"arr"`
	ActiveSubscribers int             `json:"activeSubscribers"`
	ARPU              decimal.Decimal `json:"arpu"`
	ChurnRate30d      float64         `json:"churnRate30d"`
}

// PlanBucket aggregates one plan's subscriber count and monthly revenue
type PlanBucket struct {
	Plan        string          `json:"plan"`
	Subscribers int             `json:"subscribers"`
	MRR         decimal.Decimal `json:"mrr"`
}

// FailedPayment is one row of the failed-payment report
type FailedPayment struct {
	InvoiceID    string          `json:"invoiceId"`
	CustomerID   string          `json:"customerId"`
	Email        string          `json:"email"`
	Plan         string          `json:"plan"`
	AmountDue    decimal.Decimal `json:"amountDue"`
	Status       string          `json:"status"`
	AttemptCount int64           `json:"attemptCount"`
	NextAttempt  *time.Time      `json:"nextAttempt,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// Failed-payment report statuses
const (
	FailedPaymentStatusCanceled       = "Canceled"
	FailedPaymentStatusRetryScheduled = "Retry Scheduled"
	FailedPaymentStatusOpen           = "Open"
)

// FailedPaymentsQuery carries the caller-supplied filters and pagination
type FailedPaymentsQuery struct {
	Page     int
	PageSize int
	Plan     string
	Status   string
	Email    string
}

// normalize fills defaults and clamps the page size
func (q FailedPaymentsQuery) normalize() FailedPaymentsQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}
	return q
}

// FailedPaymentsPage is one page of the filtered, sorted report
type FailedPaymentsPage struct {
	Items    []FailedPayment `json:"items"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
}

// MetricsService computes the billing aggregates by fully scanning the
// provider's collections, caching each result for its configured TTL.
// Every aggregate is a pure function of the provider+store state visible
// at call time; a miss recomputes from scratch.
type MetricsService struct {
	provider  ProviderClient
	accounts  account.Repository
	cache     *cache.TTLCache
	stripeCfg *billing.StripeConfig
	cfg       config.BillingConfig
	logger    *zap.Logger
}

// NewMetricsService creates a new metrics service
func NewMetricsService(
	provider ProviderClient,
	accounts account.Repository,
	ttlCache *cache.TTLCache,
	stripeCfg *billing.StripeConfig,
	cfg config.BillingConfig,
	logger *zap.Logger,
) *MetricsService {
	return &MetricsService{
		provider:  provider,
		accounts:  accounts,
		cache:     ttlCache,
		stripeCfg: stripeCfg,
		cfg:       cfg,
		logger:    logger,
	}
}

// CalculateMRR sums the monthly-normalized revenue of every recurring line
// item across all active subscriptions.
func (s *MetricsService) CalculateMRR(ctx context.Context) (decimal.Decimal, error) {
	subs, err := s.provider.ScanSubscriptionsByStatus(ctx, billing.SubscriptionStatusActive)
	if err != nil {
		return decimal.Zero, err
	}
	return sumMonthlyRevenue(subs), nil
}

// ActiveSubscriberCount counts active-status subscriptions. This counts
// subscriptions, not unique customers.
func (s *MetricsService) ActiveSubscriberCount(ctx context.Context) (int, error) {
	subs, err := s.provider.ScanSubscriptionsByStatus(ctx, billing.SubscriptionStatusActive)
	if err != nil {
		return 0, err
	}
	return len(subs), nil
}

// ChurnRate30d approximates the 30-day churn rate as
// canceled-in-window / (active-now + canceled-in-window). The denominator
// stands in for "active 30 days ago"; returns 0 when it is 0.
func (s *MetricsService) ChurnRate30d(ctx context.Context) (float64, error) {
	active, err := s.ActiveSubscriberCount(ctx)
	if err != nil {
		return 0, err
	}

	canceledSubs, err := s.provider.ScanSubscriptionsByStatus(ctx, billing.SubscriptionStatusCanceled)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-churnWindow)
	var canceled int
	for _, sub := range canceledSubs {
		if sub.CanceledAt != nil && sub.CanceledAt.After(cutoff) {
			canceled++
		}
	}

	denominator := active + canceled
	if denominator == 0 {
		return 0, nil
	}
	return float64(canceled) / float64(denominator), nil
}

// GetBillingMetrics returns the cached headline aggregate, recomputing it
// on a miss.
func (s *MetricsService) GetBillingMetrics(ctx context.Context) (*BillingMetrics, error) {
	if cached, ok := s.cache.Get(MetricsCacheKey); ok {
		if metrics, ok := cached.(*BillingMetrics); ok {
			return metrics, nil
		}
	}

	mrr, err := s.CalculateMRR(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.ActiveSubscriberCount(ctx)
	if err != nil {
		return nil, err
	}
	churn, err := s.ChurnRate30d(ctx)
	if err != nil {
		return nil, err
	}

	arpu := decimal.Zero
	if active > 0 {
		arpu = mrr.Div(decimal.NewFromInt(int64(active))).Round(2)
	}

	metrics := &BillingMetrics{
		MRR:               mrr,
		ARR:               mrr.Mul(decimal.NewFromInt(12)),
		ActiveSubscribers: active,
		ARPU:              arpu,
		ChurnRate30d:      churn,
	}

	s.cache.Set(MetricsCacheKey, metrics, s.cfg.MetricsCacheTTL)
	s.logger.Debug("Computed billing metrics",
		zap.String("mrr", mrr.String()),
		zap.Int("active_subscribers", active))
	return metrics, nil
}

// GetPlanDistribution buckets active subscriptions by price, maps prices
// to plan names, and appends a zero-revenue free-tier bucket sourced from
// the record store. Cached.
func (s *MetricsService) GetPlanDistribution(ctx context.Context) ([]PlanBucket, error) {
	if cached, ok := s.cache.Get(PlanDistributionCacheKey); ok {
		if buckets, ok := cached.([]PlanBucket); ok {
			return buckets, nil
		}
	}

	subs, err := s.provider.ScanSubscriptionsByStatus(ctx, billing.SubscriptionStatusActive)
	if err != nil {
		return nil, err
	}

	type bucket struct {
		subscribers int
		mrr         decimal.Decimal
	}
	byPrice := make(map[string]*bucket)
	for _, sub := range subs {
		for _, item := range sub.Items {
			if !item.Recurring {
				continue
			}
			b, ok := byPrice[item.PriceID]
			if !ok {
				b = &bucket{mrr: decimal.Zero}
				byPrice[item.PriceID] = b
			}
			b.subscribers++
			b.mrr = b.mrr.Add(billing.NormalizeToMonthly(item.UnitAmount, item.Interval, item.IntervalCount, item.Quantity))
		}
	}

	priceIDs := make([]string, 0, len(byPrice))
	for priceID := range byPrice {
		priceIDs = append(priceIDs, priceID)
	}
	sort.Strings(priceIDs)

	buckets := make([]PlanBucket, 0, len(byPrice)+1)
	for _, priceID := range priceIDs {
		b := byPrice[priceID]
		buckets = append(buckets, PlanBucket{
			Plan:        s.stripeCfg.PlanName(priceID),
			Subscribers: b.subscribers,
			MRR:         b.mrr,
		})
	}

	freeCount, err := s.accounts.CountByPlan(ctx, account.PlanFree)
	if err != nil {
		return nil, err
	}
	buckets = append(buckets, PlanBucket{
		Plan:        string(account.PlanFree),
		Subscribers: int(freeCount),
		MRR:         decimal.Zero,
	})

	s.cache.Set(PlanDistributionCacheKey, buckets, s.cfg.MetricsCacheTTL)
	return buckets, nil
}

// GetFailedPayments builds the failed-payment report: uncollectible
// invoices plus open invoices with an attempted charge and a remaining
// balance, joined against the record store for email and plan, filtered,
// sorted newest first, and paginated in memory. Each filter view is
// cached under its own key.
func (s *MetricsService) GetFailedPayments(ctx context.Context, query FailedPaymentsQuery) (*FailedPaymentsPage, error) {
	query = query.normalize()
	cacheKey := FailedPaymentsCacheKey(query.Page, query.PageSize, query.Plan, query.Status, query.Email)

	if cached, ok := s.cache.Get(cacheKey); ok {
		if page, ok := cached.(*FailedPaymentsPage); ok {
			return page, nil
		}
	}

	uncollectible, err := s.provider.ScanInvoicesByStatus(ctx, billing.InvoiceStatusUncollectible)
	if err != nil {
		return nil, err
	}
	open, err := s.provider.ScanInvoicesByStatus(ctx, billing.InvoiceStatusOpen)
	if err != nil {
		return nil, err
	}

	rows := make([]FailedPayment, 0, len(uncollectible)+len(open))
	for _, inv := range uncollectible {
		row, err := s.toFailedPayment(ctx, inv, FailedPaymentStatusCanceled)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	for _, inv := range open {
		if !inv.Attempted || inv.AmountRemaining <= 0 {
			continue
		}
		status := FailedPaymentStatusOpen
		if inv.NextPaymentAttempt != nil {
			status = FailedPaymentStatusRetryScheduled
		}
		row, err := s.toFailedPayment(ctx, inv, status)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	filtered := rows[:0:0]
	for _, row := range rows {
		if query.Plan != "" && row.Plan != query.Plan {
			continue
		}
		if query.Status != "" && row.Status != query.Status {
			continue
		}
		if query.Email != "" && !strings.Contains(strings.ToLower(row.Email), strings.ToLower(query.Email)) {
			continue
		}
		filtered = append(filtered, row)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	start := (query.Page - 1) * query.PageSize
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + query.PageSize
	if end > len(filtered) {
		end = len(filtered)
	}

	page := &FailedPaymentsPage{
		Items:    filtered[start:end],
		Total:    len(filtered),
		Page:     query.Page,
		PageSize: query.PageSize,
	}

	s.cache.Set(cacheKey, page, s.cfg.FailedPaymentsTTL)
	return page, nil
}

// toFailedPayment joins one invoice against the record store. Customers
// with no matching account keep empty email/plan fields instead of
// failing the whole report.
func (s *MetricsService) toFailedPayment(ctx context.Context, inv billing.Invoice, status string) (FailedPayment, error) {
	row := FailedPayment{
		InvoiceID:    inv.ID,
		CustomerID:   inv.CustomerID,
		AmountDue:    decimal.NewFromInt(inv.AmountDue).Div(decimal.NewFromInt(100)),
		Status:       status,
		AttemptCount: inv.AttemptCount,
		NextAttempt:  inv.NextPaymentAttempt,
		CreatedAt:    inv.CreatedAt,
	}

	if inv.CustomerID != "" {
		acc, err := s.accounts.FindByCustomerID(ctx, inv.CustomerID)
		switch {
		case err == nil:
			row.Email = acc.Email
			row.Plan = string(acc.Plan)
		case errors.Is(err, shared.ErrNotFound):
			// keep the row, unjoined
		default:
			return FailedPayment{}, err
		}
	}
	return row, nil
}

// sumMonthlyRevenue adds up the monthly-normalized revenue of every
// recurring line item.
func sumMonthlyRevenue(subs []billing.Subscription) decimal.Decimal {
	total := decimal.Zero
	for _, sub := range subs {
		for _, item := range sub.Items {
			if !item.Recurring {
				continue
			}
			total = total.Add(billing.NormalizeToMonthly(item.UnitAmount, item.Interval, item.IntervalCount, item.Quantity))
		}
	}
	return total
}
