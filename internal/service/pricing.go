package service

import (
	"github.com/dasam-next/internal/models"
)

// ResolvePrice 解析指定规格的有效单价
// 规则：折扣价存在则优先生效，否则取基础价；两者皆无或金额非正视为配置错误。
// 纯函数，不触库，方便单测与并发调用。
func ResolvePrice(product *models.Product, variant string) (models.Money, error) {
	if product == nil {
		return models.Money{}, ErrProductNotFound
	}
	if variant == "" {
		return models.Money{}, ErrVariantRequired
	}
	if !product.HasVariant(variant) {
		return models.Money{}, ErrInvalidVariant
	}

	price, ok := product.DiscountedPrices[variant]
	if !ok {
		price, ok = product.BasePrices[variant]
	}
	if !ok || !price.Decimal.IsPositive() {
		return models.Money{}, ErrInvalidPrice
	}
	return price, nil
}
