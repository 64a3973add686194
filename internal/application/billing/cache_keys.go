package billing

import "fmt"

// Cache key families. Fixed keys for the two dashboard aggregates; failed
// payments get one key per page/filter combination so different admin
// views expire independently but are invalidated together by the family
// pattern.
const (
	MetricsCacheKey          = "billing:metrics"
	PlanDistributionCacheKey = "billing:plan-distribution"

	FailedPaymentsCachePrefix  = "billing:failed-payments"
	FailedPaymentsCachePattern = FailedPaymentsCachePrefix + ":*"
)

// FailedPaymentsCacheKey builds the cache key for one failed-payments view
func FailedPaymentsCacheKey(page, pageSize int, plan, status, email string) string {
	return fmt.Sprintf("%s:%d:%d:%s:%s:%s", FailedPaymentsCachePrefix, page, pageSize, plan, status, email)
}
