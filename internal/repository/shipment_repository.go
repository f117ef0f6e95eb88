package repository

import (
	"errors"

	"github.com/dasam-next/internal/models"

	"gorm.io/gorm"
)

// ShipmentRepository 运单数据访问接口
type ShipmentRepository interface {
	Create(shipment *models.Shipment) error
	Update(shipment *models.Shipment) error
	GetByOrderID(orderID uint) (*models.Shipment, error)
	GetByWaybill(waybill string) (*models.Shipment, error)
	ListByOrderIDs(orderIDs []uint) ([]models.Shipment, error)
	UpdateStatus(id uint, status string) error
	WithTx(tx *gorm.DB) *GormShipmentRepository
}

// GormShipmentRepository GORM 实现
type GormShipmentRepository struct {
	db *gorm.DB
}

// NewShipmentRepository 创建运单仓库
func NewShipmentRepository(db *gorm.DB) *GormShipmentRepository {
	return &GormShipmentRepository{db: db}
}

// WithTx 绑定事务
func (r *GormShipmentRepository) WithTx(tx *gorm.DB) *GormShipmentRepository {
	if tx == nil {
		return r
	}
	return &GormShipmentRepository{db: tx}
}

// Create 创建运单（order_id 唯一约束兜底并发重复）
func (r *GormShipmentRepository) Create(shipment *models.Shipment) error {
	return r.db.Create(shipment).Error
}

// Update 更新运单
func (r *GormShipmentRepository) Update(shipment *models.Shipment) error {
	return r.db.Save(shipment).Error
}

// GetByOrderID 获取订单的运单
func (r *GormShipmentRepository) GetByOrderID(orderID uint) (*models.Shipment, error) {
	var shipment models.Shipment
	if err := r.db.Where("order_id = ?", orderID).First(&shipment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shipment, nil
}

// GetByWaybill 根据运单号获取运单
func (r *GormShipmentRepository) GetByWaybill(waybill string) (*models.Shipment, error) {
	var shipment models.Shipment
	if err := r.db.Where("waybill = ?", waybill).First(&shipment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shipment, nil
}

// ListByOrderIDs 批量获取运单
func (r *GormShipmentRepository) ListByOrderIDs(orderIDs []uint) ([]models.Shipment, error) {
	if len(orderIDs) == 0 {
		return []models.Shipment{}, nil
	}
	var shipments []models.Shipment
	if err := r.db.Where("order_id IN ?", orderIDs).Find(&shipments).Error; err != nil {
		return nil, err
	}
	return shipments, nil
}

// UpdateStatus 更新运单状态
func (r *GormShipmentRepository) UpdateStatus(id uint, status string) error {
	return r.db.Model(&models.Shipment{}).Where("id = ?", id).Update("status", status).Error
}
