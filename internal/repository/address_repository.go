package repository

import (
	"errors"

	"github.com/dasam-next/internal/models"

	"gorm.io/gorm"
)

// AddressRepository 地址数据访问接口
type AddressRepository interface {
	GetDefaultByUser(userID uint) (*models.UserAddress, error)
	GetLatestActiveByUser(userID uint) (*models.UserAddress, error)
	UpsertDefault(userID uint, addr *models.UserAddress) error
	WithTx(tx *gorm.DB) *GormAddressRepository
}

// GormAddressRepository GORM 实现
type GormAddressRepository struct {
	db *gorm.DB
}

// NewAddressRepository 创建地址仓库
func NewAddressRepository(db *gorm.DB) *GormAddressRepository {
	return &GormAddressRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAddressRepository) WithTx(tx *gorm.DB) *GormAddressRepository {
	if tx == nil {
		return r
	}
	return &GormAddressRepository{db: tx}
}

// GetDefaultByUser 获取用户默认地址
func (r *GormAddressRepository) GetDefaultByUser(userID uint) (*models.UserAddress, error) {
	var addr models.UserAddress
	err := r.db.Where("user_id = ? AND is_default = ? AND is_active = ?", userID, true, true).
		Order("updated_at DESC").
		First(&addr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &addr, nil
}

// GetLatestActiveByUser 获取用户最近创建的有效地址（默认标记缺失时的兜底）
func (r *GormAddressRepository) GetLatestActiveByUser(userID uint) (*models.UserAddress, error) {
	var addr models.UserAddress
	err := r.db.Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC").
		First(&addr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &addr, nil
}

// UpsertDefault 维护用户唯一默认地址：存在则原地更新，否则插入
func (r *GormAddressRepository) UpsertDefault(userID uint, addr *models.UserAddress) error {
	existing, err := r.GetDefaultByUser(userID)
	if err != nil {
		return err
	}
	addr.UserID = userID
	addr.IsDefault = true
	addr.IsActive = true
	if existing == nil {
		return r.db.Create(addr).Error
	}
	addr.ID = existing.ID
	addr.CreatedAt = existing.CreatedAt
	return r.db.Save(addr).Error
}
