package models

import (
	"time"

	"gorm.io/gorm"
)

// Coupon 优惠券表
// 单次使用语义：下单引用后置 is_active = false。
type Coupon struct {
	ID        uint           `gorm:"primarykey" json:"id"`                         // 主键
	Code      string         `gorm:"uniqueIndex;not null" json:"code"`             // 券码
	Type      string         `gorm:"not null" json:"type"`                         // 类型（fixed/percent）
	Value     Money          `gorm:"type:decimal(20,2);not null" json:"value"`     // 面值或百分比
	IsActive  bool           `gorm:"index;default:true" json:"is_active"`          // 是否可用
	ExpiresAt *time.Time     `gorm:"index" json:"expires_at"`                      // 过期时间
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                      // 创建时间
	UpdatedAt time.Time      `json:"updated_at"`                                   // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                               // 软删除时间
}

// TableName 指定表名
func (Coupon) TableName() string {
	return "discount_coupons"
}
