package repository

import (
	"errors"

	"github.com/dasam-next/internal/models"

	"gorm.io/gorm"
)

// OTPRepository 一次性验证码数据访问接口
type OTPRepository interface {
	Create(otp *models.UserOTP) error
	GetLatestByCode(code string) (*models.UserOTP, error)
	DeleteByID(id uint) (bool, error)
	WithTx(tx *gorm.DB) *GormOTPRepository
}

// GormOTPRepository GORM 实现
type GormOTPRepository struct {
	db *gorm.DB
}

// NewOTPRepository 创建验证码仓库
func NewOTPRepository(db *gorm.DB) *GormOTPRepository {
	return &GormOTPRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOTPRepository) WithTx(tx *gorm.DB) *GormOTPRepository {
	if tx == nil {
		return r
	}
	return &GormOTPRepository{db: tx}
}

// Create 创建验证码记录
func (r *GormOTPRepository) Create(otp *models.UserOTP) error {
	return r.db.Create(otp).Error
}

// GetLatestByCode 按码值取最近一次签发的记录
func (r *GormOTPRepository) GetLatestByCode(code string) (*models.UserOTP, error) {
	var otp models.UserOTP
	err := r.db.Where("code = ?", code).Order("created_at DESC").First(&otp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &otp, nil
}

// DeleteByID 物理删除验证码（单次有效的落点）
// 返回是否确有删除，供并发校验场景判定先到者。
func (r *GormOTPRepository) DeleteByID(id uint) (bool, error) {
	result := r.db.Delete(&models.UserOTP{}, id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
