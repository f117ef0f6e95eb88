package models

import "time"

// ErrorLog 服务端错误审计表
// 仅用于事后排查，写入失败不影响主流程。
type ErrorLog struct {
	ID        uint      `gorm:"primarykey" json:"id"`               // 主键
	Source    string    `gorm:"index;not null" json:"source"`       // 来源模块
	Code      string    `gorm:"index" json:"code"`                  // 机器可读错误码
	Message   string    `gorm:"not null" json:"message"`            // 错误描述
	Detail    JSON      `gorm:"type:json" json:"detail"`            // 上下文数据
	RequestID string    `gorm:"index;type:varchar(64)" json:"request_id"` // 请求ID
	CreatedAt time.Time `gorm:"index" json:"created_at"`            // 记录时间
}

// TableName 指定表名
func (ErrorLog) TableName() string {
	return "app_errors"
}
