package repository

import (
	"github.com/dasam-next/internal/models"

	"gorm.io/gorm"
)

// ErrorLogRepository 错误审计数据访问接口
type ErrorLogRepository interface {
	Create(entry *models.ErrorLog) error
	List(filter ErrorLogListFilter) ([]models.ErrorLog, int64, error)
}

// GormErrorLogRepository GORM 实现
type GormErrorLogRepository struct {
	db *gorm.DB
}

// NewErrorLogRepository 创建错误审计仓库
func NewErrorLogRepository(db *gorm.DB) *GormErrorLogRepository {
	return &GormErrorLogRepository{db: db}
}

// Create 写入错误记录
func (r *GormErrorLogRepository) Create(entry *models.ErrorLog) error {
	return r.db.Create(entry).Error
}

// List 错误日志列表（倒序）
func (r *GormErrorLogRepository) List(filter ErrorLogListFilter) ([]models.ErrorLog, int64, error) {
	query := r.db.Model(&models.ErrorLog{})

	if filter.Source != "" {
		query = query.Where("source = ?", filter.Source)
	}
	if filter.Code != "" {
		query = query.Where("code = ?", filter.Code)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.ErrorLog
	query = query.Order("created_at DESC")
	if err := applyPagination(query, filter.Page, filter.PageSize).Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
