package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	AccountTypeSavings = "savings"
	AccountTypeCurrent = "current"

	AccountStatusActive = "active"
	AccountStatusFrozen = "frozen"
)

// Account 账户表
// 每个用户持有一个主账户（user_id 唯一），余额是整个系统的核心数据
//
// 【不变量】余额永远不为负：扣款走条件更新（balance >= amount），
// 并发场景下由乐观锁版本号保证不丢失更新
type Account struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        int64           `gorm:"uniqueIndex;not null" json:"user_id"`                      // 持有人，一人一个主账户
	AccountNumber string          `gorm:"type:varchar(32);uniqueIndex;not null" json:"account_number"` // CBI 开头的账号
	AccountType   string          `gorm:"type:varchar(20);not null;default:savings" json:"account_type"`
	Balance       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"balance"` // 可用余额（卢比）
	Status        string          `gorm:"type:varchar(20);not null;default:active" json:"status"`
	Version       int             `gorm:"not null;default:0" json:"version"` // 乐观锁版本号
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Account) TableName() string {
	return "account"
}
