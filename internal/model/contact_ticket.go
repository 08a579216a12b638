package model

import (
	"time"
)

const (
	TicketStatusOpen       = "open"
	TicketStatusInProgress = "in-progress"
	TicketStatusResolved   = "resolved"
	TicketStatusClosed     = "closed"
)

const (
	TicketPriorityLow    = "low"
	TicketPriorityMedium = "medium"
	TicketPriorityHigh   = "high"
	TicketPriorityUrgent = "urgent"
)

// IsValidTicketStatus 校验工单状态取值
func IsValidTicketStatus(status string) bool {
	switch status {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// ContactTicket 客服工单表
// 提交入口是公开接口，登录用户提交时会关联 user_id
type ContactTicket struct {
	ID              int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	TicketNumber    string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"ticket_number"` // TKT 开头
	Name            string     `gorm:"type:varchar(100);not null" json:"name"`
	Email           string     `gorm:"type:varchar(128);index;not null" json:"email"`
	Subject         string     `gorm:"type:varchar(200);not null" json:"subject"`
	Message         string     `gorm:"type:varchar(1024);not null" json:"message"`
	Category        string     `gorm:"type:varchar(20);not null;default:general" json:"category"`
	Priority        string     `gorm:"type:varchar(10);not null;default:medium" json:"priority"`
	Status          string     `gorm:"type:varchar(20);index;not null;default:open" json:"status"`
	UserID          *int64     `gorm:"index" json:"user_id,omitempty"` // 匿名提交时为空
	ResponseMessage string     `gorm:"type:varchar(1024)" json:"response_message,omitempty"`
	ResponseDate    *time.Time `json:"response_date,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ContactTicket) TableName() string {
	return "contact_ticket"
}
