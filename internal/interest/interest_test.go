package interest_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"cbibank/internal/interest"
)

var tolerance = decimal.NewFromFloat(0.01)

func assertDecimalNear(t *testing.T, expected, actual decimal.Decimal) {
	t.Helper()
	diff := expected.Sub(actual).Abs()
	assert.True(t, diff.LessThanOrEqual(tolerance),
		"expected %s, got %s (diff %s)", expected, actual, diff)
}

func TestRateForTenure_Tiers(t *testing.T) {
	cases := []struct {
		tenure int
		rate   float64
	}{
		{6, 6.5},
		{12, 6.5},
		{13, 7.0},
		{24, 7.0},
		{25, 7.5},
		{36, 7.5},
		{37, 8.0},
		{120, 8.0},
	}
	for _, c := range cases {
		rate := interest.RateForTenure(c.tenure)
		assert.True(t, rate.Equal(decimal.NewFromFloat(c.rate)),
			"tenure=%d: expected %v, got %s", c.tenure, c.rate, rate)
	}
}

func TestMaturityAmount_OneYear(t *testing.T) {
	// 1000 × 1.065^1 = 1065
	principal := decimal.NewFromInt(1000)
	rate := interest.RateForTenure(12)
	maturity := interest.MaturityAmount(principal, rate, 12)
	assertDecimalNear(t, decimal.NewFromInt(1065), maturity)
}

func TestMaturityAmount_TwoYears(t *testing.T) {
	// 1000 × 1.07^2 = 1144.9
	principal := decimal.NewFromInt(1000)
	rate := interest.RateForTenure(24)
	maturity := interest.MaturityAmount(principal, rate, 24)
	assertDecimalNear(t, decimal.NewFromFloat(1144.9), maturity)
}

func TestMaturityAmount_FractionalYears(t *testing.T) {
	// 2000 × 1.065^(6/12) ≈ 2063.98
	principal := decimal.NewFromInt(2000)
	rate := interest.RateForTenure(6)
	maturity := interest.MaturityAmount(principal, rate, 6)
	assertDecimalNear(t, decimal.NewFromFloat(2063.98), maturity)
	assert.True(t, maturity.GreaterThan(principal))
}

func TestBreakPayout_FreshDeposit(t *testing.T) {
	// 刚开立即支取，期数为 0，兑付即本金
	principal := decimal.NewFromInt(5000)
	payout := interest.BreakPayout(principal, interest.RateTier12, decimal.NewFromInt(1), 0, 360)
	assertDecimalNear(t, principal, payout)
}

func TestBreakPayout_MidTenure(t *testing.T) {
	// 10000 × 1.055^(180/360) ≈ 10271.32
	principal := decimal.NewFromInt(10000)
	payout := interest.BreakPayout(principal, interest.RateTier12, decimal.NewFromInt(1), 180, 360)
	assertDecimalNear(t, decimal.NewFromFloat(10271.32), payout)
}

func TestBreakPayout_PenaltyReducesPayout(t *testing.T) {
	principal := decimal.NewFromInt(10000)
	penalized := interest.BreakPayout(principal, interest.RateTier12, decimal.NewFromInt(1), 180, 360)
	unpenalized := interest.BreakPayout(principal, interest.RateTier12, decimal.Zero, 180, 360)
	assert.True(t, penalized.LessThan(unpenalized))
	assert.True(t, penalized.GreaterThanOrEqual(principal))
}

func TestBreakPayout_ElapsedClampedToTotal(t *testing.T) {
	principal := decimal.NewFromInt(1000)
	atTotal := interest.BreakPayout(principal, interest.RateTier12, decimal.NewFromInt(1), 360, 360)
	beyond := interest.BreakPayout(principal, interest.RateTier12, decimal.NewFromInt(1), 400, 360)
	assert.True(t, atTotal.Equal(beyond))
}

func TestCurrentValue_Bounds(t *testing.T) {
	principal := decimal.NewFromInt(1000)
	maturity := decimal.NewFromInt(1065)

	// 起始日等于本金
	assert.True(t, interest.CurrentValue(principal, maturity, 0, 360).Equal(principal))
	// 到期日等于到期金额
	assert.True(t, interest.CurrentValue(principal, maturity, 360, 360).Equal(maturity))
	// 到期之后仍为到期金额
	assert.True(t, interest.CurrentValue(principal, maturity, 500, 360).Equal(maturity))
	// 负天数钳到本金
	assert.True(t, interest.CurrentValue(principal, maturity, -5, 360).Equal(principal))
}

func TestCurrentValue_Interpolation(t *testing.T) {
	principal := decimal.NewFromInt(1000)
	maturity := decimal.NewFromInt(1065)

	// 一半存期，价值为中点
	half := interest.CurrentValue(principal, maturity, 180, 360)
	assertDecimalNear(t, decimal.NewFromFloat(1032.5), half)

	// 单调：任意时点不低于本金、不高于到期金额
	for _, days := range []int{1, 90, 180, 270, 359} {
		v := interest.CurrentValue(principal, maturity, days, 360)
		assert.True(t, v.GreaterThanOrEqual(principal), "day %d below principal", days)
		assert.True(t, v.LessThanOrEqual(maturity), "day %d above maturity", days)
	}
}

func TestRemainingDays(t *testing.T) {
	assert.Equal(t, 360, interest.RemainingDays(0, 360))
	assert.Equal(t, 180, interest.RemainingDays(180, 360))
	assert.Equal(t, 0, interest.RemainingDays(360, 360))
	assert.Equal(t, 0, interest.RemainingDays(400, 360))
}
