package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品表
// 价格按规格（尺寸/重量）维护两套映射：基础价与折扣价，折扣价存在时优先生效。
type Product struct {
	ID               uint           `gorm:"primarykey" json:"id"`                                         // 主键
	Slug             string         `gorm:"uniqueIndex;not null" json:"slug"`                             // 唯一标识
	Name             string         `gorm:"not null" json:"name"`                                         // 商品名称
	Image            string         `gorm:"type:varchar(500)" json:"image"`                               // 主图
	ProductType      string         `gorm:"type:varchar(50);index" json:"product_type"`                   // 商品类型
	Variants         StringArray    `gorm:"type:json;not null" json:"variants"`                           // 可售规格标签
	BasePrices       PriceMap       `gorm:"type:json;not null" json:"base_prices"`                        // 基础价（规格 -> 金额）
	DiscountedPrices PriceMap       `gorm:"type:json" json:"discounted_prices"`                           // 折扣价（规格 -> 金额，可空）
	IsActive         bool           `gorm:"default:true;index" json:"is_active"`                          // 是否上架
	SortOrder        int            `gorm:"default:0;index" json:"sort_order"`                            // 排序权重
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt        time.Time      `json:"updated_at"`                                                   // 更新时间
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`                                               // 软删除时间
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// HasVariant 判断规格是否在可售集合内
func (p *Product) HasVariant(variant string) bool {
	if p == nil {
		return false
	}
	for _, v := range p.Variants {
		if v == variant {
			return true
		}
	}
	return false
}
