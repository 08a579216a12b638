package model

import (
	"fmt"
	"time"
)

const (
	CardTypeDebit  = "debit"
	CardTypeCredit = "credit"
)

const (
	CardStatusRequested = "requested" // 已申请，待制卡寄送
	CardStatusDelivered = "delivered" // 已送达，待设置密码激活
	CardStatusActive    = "active"    // 已激活
	CardStatusBlocked   = "blocked"   // 已注销
)

// ValidCardTransitions 卡片状态机
var ValidCardTransitions = map[string][]string{
	CardStatusRequested: {CardStatusDelivered, CardStatusBlocked},
	CardStatusDelivered: {CardStatusActive, CardStatusBlocked},
	CardStatusActive:    {CardStatusBlocked},
}

func CanCardTransitionTo(currentStatus, targetStatus string) bool {
	allowedStatuses, exists := ValidCardTransitions[currentStatus]
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

// ATMCard 借记卡/信用卡表
// PIN 只保存 bcrypt 哈希；列表接口只返回掩码卡号
type ATMCard struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          int64     `gorm:"index;not null" json:"user_id"`
	CardNumber      string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"card_number"`
	CardType        string    `gorm:"type:varchar(10);not null" json:"card_type"`
	CVV             string    `gorm:"type:varchar(4);not null" json:"-"`
	ExpiryDate      time.Time `gorm:"not null" json:"expiry_date"` // 申请日 + 3 年
	DeliveryAddress string    `gorm:"type:varchar(512);not null" json:"delivery_address"`
	Status          string    `gorm:"type:varchar(20);index;not null;default:requested" json:"status"`
	PinHash         string    `gorm:"type:varchar(128)" json:"-"` // bcrypt 哈希，未设置时为空
	PinSet          bool      `gorm:"not null;default:false" json:"pin_set"`
	IsBlocked       bool      `gorm:"not null;default:false" json:"is_blocked"` // 临时挂失，与注销（status）独立
	CreatedAt       time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ATMCard) TableName() string {
	return "atm_card"
}

// MaskedNumber 掩码卡号，只露出后四位
func (c *ATMCard) MaskedNumber() string {
	if len(c.CardNumber) < 4 {
		return c.CardNumber
	}
	return fmt.Sprintf("****-****-****-%s", c.CardNumber[len(c.CardNumber)-4:])
}
