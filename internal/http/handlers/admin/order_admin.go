package admin

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/dasam-next/internal/constants"
	handlershared "github.com/dasam-next/internal/http/handlers/shared"
	"github.com/dasam-next/internal/http/response"
	"github.com/dasam-next/internal/repository"
	"github.com/dasam-next/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminListOrders 订单列表
func (h *Handler) AdminListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	filter := repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.TrimSpace(c.Query("status")),
		OrderNo:  strings.TrimSpace(c.Query("order_no")),
	}
	if rawUserID := strings.TrimSpace(c.Query("user_id")); rawUserID != "" {
		if userID, err := strconv.ParseUint(rawUserID, 10, 64); err == nil {
			filter.UserID = uint(userID)
		}
	}

	orders, total, err := h.OrderRepo.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to load orders", err)
		return
	}
	response.SuccessWithPage(c, orders, handlershared.BuildPagination(page, pageSize, total))
}

// AdminGetOrder 订单详情
func (h *Handler) AdminGetOrder(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", err)
		return
	}

	order, err := h.OrderRepo.GetByID(uint(orderID))
	if err != nil {
		respondError(c, response.CodeInternal, "failed to load order", err)
		return
	}
	if order == nil {
		respondError(c, response.CodeNotFound, "order not found", nil)
		return
	}
	response.Success(c, order)
}

// AdminRetryShipment 人工重试运单创建
// 自动重试耗尽后的兜底入口；运单已存在时幂等返回既有运单。
func (h *Handler) AdminRetryShipment(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", err)
		return
	}

	order, err := h.OrderRepo.GetByID(uint(orderID))
	if err != nil {
		respondError(c, response.CodeInternal, "failed to load order", err)
		return
	}
	if order == nil {
		respondError(c, response.CodeNotFound, "order not found", nil)
		return
	}
	if order.Shipment != nil {
		response.Success(c, order.Shipment)
		return
	}
	if order.Status != constants.OrderStatusPaid && order.Status != constants.OrderStatusCodConfirmed {
		respondError(c, response.CodeBadRequest, "order is not ready for shipment", nil)
		return
	}
	if order.Payment == nil {
		respondError(c, response.CodeInternal, "order has no payment record", nil)
		return
	}

	consignee, err := h.ShipmentService.ResolveConsignee(order.UserID)
	if err != nil {
		if errors.Is(err, service.ErrAddressMissing) {
			respondError(c, response.CodeBadRequest, "shipping address missing", nil)
			return
		}
		respondError(c, response.CodeInternal, "failed to resolve consignee", err)
		return
	}

	consigneeName := ""
	if user, err := h.UserRepo.GetByID(order.UserID); err == nil && user != nil {
		consigneeName = user.Name
	}

	shipment, err := h.ShipmentService.Create(c.Request.Context(), service.ShipmentCreateInput{
		Order:         order,
		Consignee:     consignee,
		ConsigneeName: consigneeName,
		PaymentMethod: order.Payment.Method,
	})
	if err != nil {
		if errors.Is(err, service.ErrCarrierDisabled) {
			respondError(c, response.CodeBadRequest, "carrier is not configured", nil)
			return
		}
		respondError(c, response.CodeInternal, "carrier rejected shipment after retries", err)
		return
	}

	if err := h.OrderService.AdvanceStatus(order, constants.OrderStatusShipped, map[string]interface{}{
		"shipped_at": time.Now(),
	}); err != nil {
		requestLog(c).Warnw("admin_mark_shipped_failed", "order_id", order.ID, "error", err)
	}

	requestLog(c).Infow("admin_shipment_retried",
		"admin_id", adminID,
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"waybill", shipment.Waybill,
	)
	response.Success(c, shipment)
}
