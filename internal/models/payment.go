package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment 支付记录
// 每个订单恰好一条支付记录（order_id 唯一约束）。
// 状态流转：initiated -> success|failed（在线支付）；initiated -> pending（货到付款）。
type Payment struct {
	ID              uint           `gorm:"primarykey" json:"id"`                       // 主键
	OrderID         uint           `gorm:"uniqueIndex;not null" json:"order_id"`       // 订单ID
	Method          string         `gorm:"not null" json:"method"`                     // 支付方式（ONLINE/COD）
	Status          string         `gorm:"index;not null" json:"status"`               // 支付状态
	Amount          Money          `gorm:"type:decimal(20,2);not null" json:"amount"`  // 支付金额
	Currency        string         `gorm:"not null" json:"currency"`                   // 币种
	IntentRef       string         `gorm:"index" json:"intent_ref"`                    // 网关支付意向标识
	PaymentRef      string         `gorm:"index" json:"payment_ref"`                   // 网关支付流水号
	ProviderPayload JSON           `gorm:"type:json" json:"provider_payload"`          // 网关原始数据
	PaidAt          *time.Time     `gorm:"index" json:"paid_at"`                       // 支付时间
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                    // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                    // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                             // 软删除时间
}

// TableName 指定表名
func (Payment) TableName() string {
	return "payments"
}
