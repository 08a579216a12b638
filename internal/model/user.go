package model

import (
	"time"
)

// ============================================================================
// 用户角色常量
// ============================================================================

const (
	RoleCustomer = "customer" // 普通客户
	RoleAdmin    = "admin"    // 管理员（工单处理等后台操作）
)

// User 用户表
// 记录注册客户的基本资料，密码只保存 bcrypt 哈希
type User struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	Email       string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"email"`
	Phone       string    `gorm:"type:varchar(20);not null" json:"phone"`
	Password    string    `gorm:"type:varchar(128);not null" json:"-"` // bcrypt 哈希，永不下发
	DateOfBirth time.Time `gorm:"not null" json:"date_of_birth"`
	Address     string    `gorm:"type:varchar(512);not null" json:"address"`
	Role        string    `gorm:"type:varchar(20);not null;default:customer" json:"role"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"` // 停用账户无法登录/鉴权
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "user"
}
