package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
// 订单由购物车快照生成，状态只能沿固定状态机前进，永不删除。
type Order struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                      // 主键
	OrderNo     string         `gorm:"uniqueIndex;not null" json:"order_no"`                      // 订单编号
	UserID      uint           `gorm:"index;not null" json:"user_id"`                             // 用户ID
	Status      string         `gorm:"index;not null" json:"status"`                              // 订单状态
	Currency    string         `gorm:"not null" json:"currency"`                                  // 币种
	TotalAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"` // 实付金额（下单时冻结）
	IntentRef   string         `gorm:"index" json:"intent_ref"`                                   // 网关支付意向标识
	CouponID    *uint          `gorm:"index" json:"coupon_id,omitempty"`                          // 优惠券ID
	ClientIP    string         `gorm:"type:varchar(64)" json:"client_ip,omitempty"`               // 下单客户端IP
	PaidAt      *time.Time     `gorm:"index" json:"paid_at"`                                      // 支付确认时间
	ShippedAt   *time.Time     `gorm:"index" json:"shipped_at"`                                   // 发货时间
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                                   // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间

	// 关联
	Payment  *Payment  `gorm:"foreignKey:OrderID" json:"payment,omitempty"`  // 支付记录
	Shipment *Shipment `gorm:"foreignKey:OrderID" json:"shipment,omitempty"` // 运单记录
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
