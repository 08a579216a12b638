package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================================
// 交易类型常量
// ============================================================================

const (
	TransactionTypeCredit = "credit" // 入账
	TransactionTypeDebit  = "debit"  // 出账
)

const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
)

// ============================================================================
// 交易流水实体
// ============================================================================

// Transaction 交易流水表
// 记录账户的每一笔资金变动，是对账单和统计的数据来源
//
// 【重要】流水表设计原则：
// 1. 只追加，不修改，不删除 —— 保证审计可追溯
// 2. 金额恒为正数，方向由 type 表达
// 3. 记录交易后余额 —— 便于校验余额一致性
type Transaction struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionNo string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"transaction_no"` // 流水号（全局唯一）
	UserID        int64           `gorm:"index;not null" json:"user_id"`
	AccountID     int64           `gorm:"index;not null" json:"account_id"`
	Type          string          `gorm:"type:varchar(10);index;not null" json:"type"` // credit / debit
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`   // 恒为正数
	Description   string          `gorm:"type:varchar(256);not null" json:"description"`
	Status        string          `gorm:"type:varchar(20);not null;default:completed" json:"status"`
	PaymentID     string          `gorm:"type:varchar(64)" json:"payment_id,omitempty"`       // 网关支付参考号（可空）
	BalanceAfter  decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"balance_after"`   // 交易后余额
	CreatedAt     time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Transaction) TableName() string {
	return "transaction"
}
