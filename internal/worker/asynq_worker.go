package worker

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/dasam-next/internal/logger"
	"github.com/dasam-next/internal/provider"
	"github.com/dasam-next/internal/queue"
	"github.com/dasam-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderStatusEmail, c.handleOrderStatusEmail)
	mux.HandleFunc(queue.TaskShipmentAlertEmail, c.handleShipmentAlertEmail)
	mux.HandleFunc(queue.TaskShipmentTrackSync, c.handleShipmentTrackSync)
}

func (c *Consumer) handleOrderStatusEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_status_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderStatusEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_status_email_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_status_email_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	order, err := c.OrderRepo.GetByID(payload.OrderID)
	if err != nil {
		logger.Warnw("worker_order_status_email_fetch_order_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	if order == nil {
		logger.Debugw("worker_order_status_email_skip_order_not_found", "order_id", payload.OrderID)
		return nil
	}
	user, err := c.UserRepo.GetByID(order.UserID)
	if err != nil {
		logger.Warnw("worker_order_status_email_fetch_user_failed", "order_id", order.ID, "user_id", order.UserID, "error", err)
		return err
	}
	if user == nil || strings.TrimSpace(user.Email) == "" {
		logger.Debugw("worker_order_status_email_skip_empty_receiver", "order_id", order.ID, "order_no", order.OrderNo)
		return nil
	}
	if c.EmailService == nil {
		logger.Warnw("worker_order_status_email_skip_email_service_nil", "order_id", order.ID, "order_no", order.OrderNo)
		return nil
	}
	status := strings.TrimSpace(payload.Status)
	if status == "" {
		status = order.Status
	}
	input := service.OrderStatusEmailInput{
		OrderNo:  order.OrderNo,
		Status:   status,
		Amount:   order.TotalAmount,
		Currency: order.Currency,
	}
	if order.Shipment != nil {
		input.Waybill = order.Shipment.Waybill
	}
	if err := c.EmailService.SendOrderStatusEmail(strings.TrimSpace(user.Email), input); err != nil {
		logger.Warnw("worker_order_status_email_send_failed",
			"order_id", order.ID,
			"order_no", order.OrderNo,
			"status", status,
			"error", err,
		)
		return err
	}
	return nil
}

func (c *Consumer) handleShipmentAlertEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_shipment_alert_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.ShipmentAlertEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_shipment_alert_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_shipment_alert_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.EmailService == nil {
		logger.Warnw("worker_shipment_alert_skip_email_service_nil", "order_id", payload.OrderID)
		return nil
	}
	operator := c.EmailService.OperatorEmail()
	if operator == "" {
		logger.Debugw("worker_shipment_alert_skip_no_operator", "order_id", payload.OrderID)
		return nil
	}
	input := service.OperatorAlertInput{
		OrderNo: payload.OrderNo,
		Attempt: payload.Attempt,
		Max:     payload.Max,
		IsFinal: payload.IsFinal,
		Remark:  payload.Remark,
	}
	if err := c.EmailService.SendOperatorAlert(operator, input); err != nil {
		logger.Warnw("worker_shipment_alert_send_failed",
			"order_id", payload.OrderID,
			"order_no", payload.OrderNo,
			"error", err,
		)
		return err
	}
	return nil
}

func (c *Consumer) handleShipmentTrackSync(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_track_sync_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.ShipmentTrackSyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_track_sync_unmarshal_failed", "error", err)
		return err
	}
	if payload.ShipmentID == 0 || strings.TrimSpace(payload.Waybill) == "" {
		logger.Debugw("worker_track_sync_skip_invalid_payload", "shipment_id", payload.ShipmentID)
		return nil
	}
	if c.ShipmentService == nil {
		logger.Warnw("worker_track_sync_skip_service_nil", "shipment_id", payload.ShipmentID)
		return nil
	}
	if err := c.ShipmentService.SyncTracking(ctx, payload.ShipmentID, payload.Waybill); err != nil {
		logger.Warnw("worker_track_sync_failed",
			"shipment_id", payload.ShipmentID,
			"waybill", payload.Waybill,
			"error", err,
		)
		return err
	}
	return nil
}
