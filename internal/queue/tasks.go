package queue

import (
	"encoding/json"

	"github.com/dasam-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderStatusEmail 订单状态邮件通知任务
	TaskOrderStatusEmail = constants.TaskOrderStatusEmail
	// TaskShipmentAlertEmail 运单失败运营告警任务
	TaskShipmentAlertEmail = constants.TaskShipmentAlertEmail
	// TaskShipmentTrackSync 运单轨迹状态同步任务
	TaskShipmentTrackSync = constants.TaskShipmentTrackSync
)

// OrderStatusEmailPayload 订单状态邮件任务载荷
type OrderStatusEmailPayload struct {
	OrderID uint   `json:"order_id"`
	Status  string `json:"status"`
}

// ShipmentAlertEmailPayload 运单失败告警任务载荷
type ShipmentAlertEmailPayload struct {
	OrderID uint   `json:"order_id"`
	OrderNo string `json:"order_no"`
	Attempt int    `json:"attempt"`
	Max     int    `json:"max"`
	IsFinal bool   `json:"is_final"`
	Remark  string `json:"remark"`
}

// ShipmentTrackSyncPayload 运单状态同步任务载荷
type ShipmentTrackSyncPayload struct {
	ShipmentID uint   `json:"shipment_id"`
	Waybill    string `json:"waybill"`
}

// NewOrderStatusEmailTask 创建订单状态邮件任务
func NewOrderStatusEmailTask(payload OrderStatusEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderStatusEmail, body), nil
}

// NewShipmentAlertEmailTask 创建运单失败告警任务
func NewShipmentAlertEmailTask(payload ShipmentAlertEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskShipmentAlertEmail, body), nil
}

// NewShipmentTrackSyncTask 创建运单状态同步任务
func NewShipmentTrackSyncTask(payload ShipmentTrackSyncPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskShipmentTrackSync, body), nil
}
