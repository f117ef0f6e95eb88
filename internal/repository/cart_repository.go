package repository

import (
	"errors"

	"github.com/dasam-next/internal/models"

	"gorm.io/gorm"
)

// ErrCartVersionConflict 乐观锁冲突：购物车在读写间隙被并发修改
var ErrCartVersionConflict = errors.New("cart version conflict")

// CartRepository 购物车数据访问接口
type CartRepository interface {
	GetByUserID(userID uint) (*models.Cart, error)
	GetBySessionID(sessionID string) (*models.Cart, error)
	Create(cart *models.Cart) error
	UpdateWithVersion(cart *models.Cart) error
	UpdateOwner(cartID uint, userID *uint, sessionID *string) error
	Delete(id uint) error
	WithTx(tx *gorm.DB) *GormCartRepository
}

// GormCartRepository GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓库
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCartRepository) WithTx(tx *gorm.DB) *GormCartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

// GetByUserID 获取用户购物车
func (r *GormCartRepository) GetByUserID(userID uint) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

// GetBySessionID 获取会话购物车
func (r *GormCartRepository) GetBySessionID(sessionID string) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.Where("session_id = ?", sessionID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

// Create 创建购物车
func (r *GormCartRepository) Create(cart *models.Cart) error {
	return r.db.Create(cart).Error
}

// UpdateWithVersion 带版本号的条件更新
// WHERE 中携带读取时的 version，零行受影响即判定并发冲突，由调用方重读重试。
// 成功后同步把内存中的 version 递增，避免同一实例连续更新失配。
func (r *GormCartRepository) UpdateWithVersion(cart *models.Cart) error {
	result := r.db.Model(&models.Cart{}).
		Where("id = ? AND version = ?", cart.ID, cart.Version).
		Updates(map[string]interface{}{
			"items":         cart.Items,
			"product_count": cart.ProductCount,
			"total_price":   cart.TotalPrice,
			"version":       cart.Version + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCartVersionConflict
	}
	cart.Version++
	return nil
}

// UpdateOwner 改写购物车归属（会话购物车提升为用户购物车）
func (r *GormCartRepository) UpdateOwner(cartID uint, userID *uint, sessionID *string) error {
	return r.db.Model(&models.Cart{}).
		Where("id = ?", cartID).
		Updates(map[string]interface{}{
			"user_id":    userID,
			"session_id": sessionID,
		}).Error
}

// Delete 物理删除购物车（清空即删，不保留空行）
func (r *GormCartRepository) Delete(id uint) error {
	return r.db.Unscoped().Delete(&models.Cart{}, id).Error
}
