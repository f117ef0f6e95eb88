package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dasam-next/internal/cache"
	"github.com/dasam-next/internal/logger"
	"github.com/dasam-next/internal/models"
	"github.com/dasam-next/internal/repository"
)

// productCacheTTL 商品读缓存时长，目录变更通过过期自然收敛
const productCacheTTL = 60 * time.Second

// ProductService 商品目录服务（只读）
type ProductService struct {
	productRepo repository.ProductRepository
}

// NewProductService 创建商品服务
func NewProductService(productRepo repository.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

// ProductListResult 商品列表结果
type ProductListResult struct {
	Items []models.Product `json:"items"`
	Total int64            `json:"total"`
}

// List 上架商品列表（短缓存）
func (s *ProductService) List(ctx context.Context, filter repository.ProductListFilter) (*ProductListResult, error) {
	filter.OnlyActive = true
	cacheKey := fmt.Sprintf("product:list:%d:%d:%s:%s", filter.Page, filter.PageSize, filter.ProductType, filter.Search)

	var cached ProductListResult
	if hit, err := cache.GetJSON(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	items, total, err := s.productRepo.List(filter)
	if err != nil {
		return nil, err
	}
	result := &ProductListResult{Items: items, Total: total}

	if err := cache.SetJSON(ctx, cacheKey, result, productCacheTTL); err != nil {
		logger.Debugw("product_list_cache_failed", "error", err)
	}
	return result, nil
}

// GetBySlug 商品详情（短缓存）
func (s *ProductService) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	cacheKey := "product:slug:" + slug

	var cached models.Product
	if hit, err := cache.GetJSON(ctx, cacheKey, &cached); err == nil && hit && cached.ID != 0 {
		return &cached, nil
	}

	product, err := s.productRepo.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, ErrProductNotFound
	}

	if err := cache.SetJSON(ctx, cacheKey, product, productCacheTTL); err != nil {
		logger.Debugw("product_cache_failed", "slug", slug, "error", err)
	}
	return product, nil
}
