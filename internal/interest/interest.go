package interest

import (
	"github.com/shopspring/decimal"
)

// ============================================================================
// 定期存款利息引擎
// ============================================================================
//
// 【计算口径】
//
// 到期金额 = 本金 × (1 + 年利率/100)^(存期/12)，按年复利
// 提前支取 = 本金 × (1 + (年利率-罚息点)/100)^(已存天数/总天数)
// 当前价值 = 本金与到期金额之间按天数线性插值
//
// 存期按 30 天/月折算总天数。全部金额运算走 decimal，避免浮点误差。

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)

	// powPrecision 复利幂运算保留的小数位数
	powPrecision = int32(16)
)

// 利率档位（年利率 %），按存期月数划分，开立时选定后冻结
var (
	RateTier12 = decimal.NewFromFloat(6.5) // <= 12 个月
	RateTier24 = decimal.NewFromFloat(7.0) // <= 24 个月
	RateTier36 = decimal.NewFromFloat(7.5) // <= 36 个月
	RateTierUp = decimal.NewFromFloat(8.0) // > 36 个月
)

// RateForTenure 按存期选择年利率档位
func RateForTenure(tenureMonths int) decimal.Decimal {
	switch {
	case tenureMonths <= 12:
		return RateTier12
	case tenureMonths <= 24:
		return RateTier24
	case tenureMonths <= 36:
		return RateTier36
	default:
		return RateTierUp
	}
}

// MaturityAmount 到期金额：principal × (1+rate/100)^(tenure/12)
func MaturityAmount(principal, ratePercent decimal.Decimal, tenureMonths int) decimal.Decimal {
	years := decimal.NewFromInt(int64(tenureMonths)).Div(twelve)
	return compound(principal, ratePercent, years)
}

// BreakPayout 提前支取兑付金额
// 利率按罚息减点后，以 已存天数/总天数 作为复利期数
// elapsedDays <= 0 时期数为 0，兑付即本金
func BreakPayout(principal, ratePercent, penaltyPoints decimal.Decimal, elapsedDays, totalDays int) decimal.Decimal {
	if totalDays <= 0 {
		return principal
	}
	if elapsedDays < 0 {
		elapsedDays = 0
	}
	if elapsedDays > totalDays {
		elapsedDays = totalDays
	}
	penalizedRate := ratePercent.Sub(penaltyPoints)
	ratio := decimal.NewFromInt(int64(elapsedDays)).Div(decimal.NewFromInt(int64(totalDays)))
	return compound(principal, penalizedRate, ratio)
}

// CurrentValue 当前价值：本金与到期金额之间按天数线性插值
// 结果被钳制在 [本金, 到期金额] 区间内；到期及之后恒等于到期金额
func CurrentValue(principal, maturityAmount decimal.Decimal, elapsedDays, totalDays int) decimal.Decimal {
	if totalDays <= 0 || elapsedDays >= totalDays {
		return maturityAmount
	}
	if elapsedDays <= 0 {
		return principal
	}
	progress := decimal.NewFromInt(int64(elapsedDays)).Div(decimal.NewFromInt(int64(totalDays)))
	value := principal.Add(maturityAmount.Sub(principal).Mul(progress))
	if value.LessThan(principal) {
		return principal
	}
	if value.GreaterThan(maturityAmount) {
		return maturityAmount
	}
	return value
}

// RemainingDays 剩余天数，到期后为 0
func RemainingDays(elapsedDays, totalDays int) int {
	if remaining := totalDays - elapsedDays; remaining > 0 {
		return remaining
	}
	return 0
}

// compound 复利：principal × (1+rate/100)^periods
func compound(principal, ratePercent, periods decimal.Decimal) decimal.Decimal {
	base := one.Add(ratePercent.Div(hundred))
	factor, err := base.PowWithPrecision(periods, powPrecision)
	if err != nil {
		// 底数非正在合法利率配置下不会出现，兜底按本金兑付
		return principal
	}
	return principal.Mul(factor)
}
