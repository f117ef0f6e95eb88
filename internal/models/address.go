package models

import (
	"time"

	"gorm.io/gorm"
)

// UserAddress 用户地址表
// 每个用户可存多条地址，其中至多一条标记为默认收货地址。
type UserAddress struct {
	ID         uint           `gorm:"primarykey" json:"id"`                    // 主键
	UserID     uint           `gorm:"index;not null" json:"user_id"`           // 用户ID
	Line1      string         `gorm:"not null" json:"line1"`                   // 地址行1
	Line2      string         `json:"line2"`                                   // 地址行2
	City       string         `gorm:"type:varchar(100)" json:"city"`           // 城市
	State      string         `gorm:"type:varchar(100)" json:"state"`          // 省/邦
	PostalCode string         `gorm:"type:varchar(20)" json:"postal_code"`     // 邮编
	Country    string         `gorm:"type:varchar(100)" json:"country"`        // 国家
	Phone      string         `gorm:"type:varchar(32)" json:"phone"`           // 联系电话
	IsDefault  bool           `gorm:"index;default:false" json:"is_default"`   // 是否默认地址
	IsActive   bool           `gorm:"index;default:true" json:"is_active"`     // 是否有效
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`                 // 创建时间
	UpdatedAt  time.Time      `json:"updated_at"`                              // 更新时间
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`                          // 软删除时间
}

// TableName 指定表名
func (UserAddress) TableName() string {
	return "user_addresses"
}
