package repository

import "time"

// ProductListFilter 查询商品列表的过滤条件
type ProductListFilter struct {
	Page        int
	PageSize    int
	ProductType string
	Search      string
	OnlyActive  bool
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      string
	OrderNo     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// ErrorLogListFilter 查询错误日志列表的过滤条件
type ErrorLogListFilter struct {
	Page        int
	PageSize    int
	Source      string
	Code        string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}
