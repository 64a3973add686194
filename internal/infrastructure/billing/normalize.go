package billing

import "github.com/shopspring/decimal"

// Average month lengths used to normalize sub-monthly intervals. These are
// the only conversion factors allowed anywhere in the engine; every MRR
// figure must go through NormalizeToMonthly.
var (
	weeksPerMonth = decimal.RequireFromString("4.33")
	daysPerMonth  = decimal.RequireFromString("30.44")
	hundred       = decimal.NewFromInt(100)
	twelve        = decimal.NewFromInt(12)
)

// NormalizeToMonthly converts a recurring price to its monthly revenue in
// major currency units. unitAmountMinor is the per-unit price in minor
// units (cents); quantity multiplies it.
func NormalizeToMonthly(unitAmountMinor int64, interval Interval, intervalCount, quantity int64) decimal.Decimal {
	if intervalCount <= 0 {
		intervalCount = 1
	}
	if quantity <= 0 {
		quantity = 1
	}

	base := decimal.NewFromInt(unitAmountMinor).
		Mul(decimal.NewFromInt(quantity)).
		Div(hundred)
	count := decimal.NewFromInt(intervalCount)

	switch interval {
	case IntervalMonth:
		return base.Div(count)
	case IntervalYear:
		return base.Div(count.Mul(twelve))
	case IntervalWeek:
		return base.Mul(weeksPerMonth).Div(count)
	case IntervalDay:
		return base.Mul(daysPerMonth).Div(count)
	default:
		return decimal.Zero
	}
}
