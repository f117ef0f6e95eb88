package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// CartLine 购物车行项目
// product_id + variant 共同确定一行；subtotal = quantity * unit_price。
type CartLine struct {
	ProductID uint   `json:"product_id"`
	Variant   string `json:"variant"`
	Quantity  int    `json:"quantity"`
	UnitPrice Money  `json:"unit_price"`
	Subtotal  Money  `json:"subtotal"`
}

// CartLines 购物车行集合（整体以 JSON 存储）
type CartLines []CartLine

// Value 实现 driver.Valuer 接口
func (l CartLines) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal(CartLines{})
	}
	return json.Marshal(l)
}

// Scan 实现 sql.Scanner 接口
func (l *CartLines) Scan(value interface{}) error {
	if value == nil {
		*l = CartLines{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			bytes = []byte(s)
		} else {
			return nil
		}
	}
	return json.Unmarshal(bytes, l)
}

// Cart 购物车表
// 归属不变式：user_id 与 session_id 至少有一个非空；每个用户、每个会话至多一张购物车。
// product_count 与 total_price 为派生字段，任何改写 items 的路径必须先重算二者再落库。
// version 用于乐观并发控制：更新时附带 WHERE version = ?，冲突则重试。
type Cart struct {
	ID           uint       `gorm:"primarykey" json:"id"`                                 // 主键
	UserID       *uint      `gorm:"uniqueIndex" json:"user_id,omitempty"`                 // 归属用户ID
	SessionID    *string    `gorm:"uniqueIndex;type:varchar(64)" json:"session_id,omitempty"` // 归属会话ID
	Items        CartLines  `gorm:"type:json;not null" json:"items"`                      // 行项目
	ProductCount int        `gorm:"not null;default:0" json:"product_count"`              // 派生：数量合计
	TotalPrice   Money      `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"` // 派生：金额合计
	Version      uint64     `gorm:"not null;default:0" json:"-"`                          // 乐观锁版本号
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`                              // 创建时间（会话过期以此为准）
	UpdatedAt    time.Time  `json:"updated_at"`                                           // 更新时间
}

// TableName 指定表名
func (Cart) TableName() string {
	return "carts"
}

// Recalculate 按当前行项目重算派生字段
func (c *Cart) Recalculate() {
	if c == nil {
		return
	}
	count := 0
	total := Money{}
	for _, line := range c.Items {
		count += line.Quantity
		total = NewMoneyFromDecimal(total.Decimal.Add(line.Subtotal.Decimal))
	}
	c.ProductCount = count
	c.TotalPrice = total
}
