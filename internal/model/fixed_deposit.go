package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	FDStatusActive  = "active"  // 存续中
	FDStatusMatured = "matured" // 已到期兑付
	FDStatusBroken  = "broken"  // 提前支取
)

// ValidFDTransitions 定期存款状态机
// active 是唯一可流出的状态：到期兑付或提前支取，二者互斥且终态
var ValidFDTransitions = map[string][]string{
	FDStatusActive: {FDStatusMatured, FDStatusBroken},
}

func CanFDTransitionTo(currentStatus, targetStatus string) bool {
	allowedStatuses, exists := ValidFDTransitions[currentStatus]
	if !exists {
		return false
	}
	for _, s := range allowedStatuses {
		if s == targetStatus {
			return true
		}
	}
	return false
}

// FixedDeposit 定期存款表
//
// 【不变量】开立后利率和到期金额立即冻结，永不修改；
// 之后只有 status 和 actual_payout 两个字段会变化
type FixedDeposit struct {
	ID             int64               `gorm:"primaryKey;autoIncrement" json:"id"`
	FDNumber       string              `gorm:"type:varchar(64);uniqueIndex;not null" json:"fd_number"`
	UserID         int64               `gorm:"index;not null" json:"user_id"`
	AccountID      int64               `gorm:"index;not null" json:"account_id"` // 资金来源账户
	Amount         decimal.Decimal     `gorm:"type:decimal(18,2);not null" json:"amount"`           // 本金
	Tenure         int                 `gorm:"not null" json:"tenure"`                              // 存期（月）
	InterestRate   decimal.Decimal     `gorm:"type:decimal(5,2);not null" json:"interest_rate"`     // 年利率（%），按存期档位定
	MaturityAmount decimal.Decimal     `gorm:"type:decimal(18,2);not null" json:"maturity_amount"`  // 到期金额（开立时算定）
	ActualPayout   decimal.NullDecimal `gorm:"type:decimal(18,2)" json:"actual_payout"`             // 实际兑付金额（仅终态时写入）
	StartDate      time.Time           `gorm:"not null" json:"start_date"`
	MaturityDate   time.Time           `gorm:"index;not null" json:"maturity_date"` // start + tenure*30 天
	Status         string              `gorm:"type:varchar(20);index;not null;default:active" json:"status"`
	CreatedAt      time.Time           `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt      time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func (FixedDeposit) TableName() string {
	return "fixed_deposit"
}

// TotalDays 存期对应的总天数（存期以 30 天/月折算）
func (fd *FixedDeposit) TotalDays() int {
	return fd.Tenure * 30
}
