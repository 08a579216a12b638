package model

import (
	"time"
)

const (
	OutboxStatusPending = "PENDING"
	OutboxStatusSent    = "SENT"
	OutboxStatusFailed  = "FAILED"
)

// ============================================================================
// 通知事件类型
// ============================================================================
//
// 邮件/短信等触达渠道不在本服务内直连，统一通过 outbox -> Kafka 投递事件，
// 由下游通知服务消费。事件与业务数据同一事务落库，保证不丢。

const (
	EventTypeWelcome      = "user.registered"   // 开户欢迎（含账号信息）
	EventTypeTransaction  = "transaction.created"
	EventTypeFDCreated    = "fd.created"
	EventTypeFDBroken     = "fd.broken"
	EventTypeFDMatured    = "fd.matured"
	EventTypeTicketOpened = "ticket.opened" // 工单受理确认
	EventTypeTicketReply  = "ticket.replied"
)

// OutboxMessage 事务发件箱表
// 业务事务内写入，由后台任务轮询发送到 Kafka
type OutboxMessage struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	MessageKey string    `gorm:"type:varchar(64);not null" json:"message_key"`
	EventType  string    `gorm:"type:varchar(64);not null" json:"event_type"`
	Topic      string    `gorm:"type:varchar(64);not null" json:"topic"`
	Payload    string    `gorm:"type:text;not null" json:"payload"`
	Status     string    `gorm:"type:varchar(20);index;not null;default:PENDING" json:"status"`
	RetryCount int       `gorm:"not null;default:0" json:"retry_count"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (OutboxMessage) TableName() string {
	return "outbox_message"
}
