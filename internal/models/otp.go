package models

import "time"

// UserOTP 一次性验证码表
// 单次有效：校验成功即物理删除，过期记录允许自然残留（查询按 created_at 取最新）。
type UserOTP struct {
	ID        uint      `gorm:"primarykey" json:"id"`                 // 主键
	UserID    uint      `gorm:"index;not null" json:"user_id"`        // 用户ID
	Code      string    `gorm:"index;type:varchar(12)" json:"-"`      // 验证码
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`     // 过期时间
	CreatedAt time.Time `gorm:"index" json:"created_at"`              // 签发时间
}

// TableName 指定表名
func (UserOTP) TableName() string {
	return "user_otps"
}
