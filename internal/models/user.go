package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户表
// 无密码字段：用户通过会话 + OTP 完成识别，登录态由 JWT 承载。
type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`           // 主键
	Name         string         `gorm:"default:''" json:"name"`         // 姓名
	Email        string         `gorm:"uniqueIndex" json:"email"`       // 邮箱
	Phone        string         `gorm:"type:varchar(32)" json:"phone"`  // 手机号
	SessionID    *string        `gorm:"index;type:varchar(64)" json:"-"` // 绑定的匿名会话（登录前）
	Status       string         `gorm:"default:'active'" json:"status"` // 账号状态
	TokenVersion uint64         `gorm:"not null;default:0" json:"-"`    // Token 版本（用于全量失效）
	LastLoginAt  *time.Time     `json:"last_login_at"`                  // 最后登录时间
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`        // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`        // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                 // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
