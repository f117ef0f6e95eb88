package models

import (
	"time"

	"gorm.io/gorm"
)

// Shipment 运单表
// 幂等不变式：每个订单至多一条运单（order_id 唯一约束兜底并发重复创建）。
// 收件人信息为发货时刻的快照，不引用地址表，避免后续改址影响历史运单。
type Shipment struct {
	ID                  uint           `gorm:"primarykey" json:"id"`                  // 主键
	OrderID             uint           `gorm:"uniqueIndex;not null" json:"order_id"`  // 订单ID
	Waybill             string         `gorm:"index" json:"waybill"`                  // 承运商运单号
	Status              string         `gorm:"index;not null" json:"status"`          // 运单状态
	ConsigneeName       string         `gorm:"not null" json:"consignee_name"`        // 收件人姓名
	ConsigneePhone      string         `gorm:"type:varchar(32)" json:"consignee_phone"` // 收件人电话
	ConsigneeAddress    string         `gorm:"not null" json:"consignee_address"`     // 收件地址
	ConsigneePostalCode string         `gorm:"type:varchar(20)" json:"consignee_postal_code"` // 收件邮编
	ConsigneeCountry    string         `gorm:"type:varchar(100)" json:"consignee_country"`    // 收件国家
	Attempts            int            `gorm:"not null;default:0" json:"attempts"`    // 创建尝试次数
	LastCarrierResponse JSON           `gorm:"type:json" json:"last_carrier_response"` // 承运商最近一次原始响应
	CreatedAt           time.Time      `gorm:"index" json:"created_at"`               // 创建时间
	UpdatedAt           time.Time      `gorm:"index" json:"updated_at"`               // 更新时间
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`                        // 软删除时间
}

// TableName 指定表名
func (Shipment) TableName() string {
	return "shipments"
}
