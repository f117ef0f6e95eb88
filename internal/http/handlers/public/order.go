package public

import (
	"strconv"
	"strings"

	handlershared "github.com/dasam-next/internal/http/handlers/shared"
	"github.com/dasam-next/internal/http/response"
	"github.com/dasam-next/internal/repository"
	"github.com/dasam-next/internal/service"

	"github.com/gin-gonic/gin"
)

type createOrderRequest struct {
	Name          string `json:"name" binding:"required"`
	Email         string `json:"email" binding:"required"`
	PaymentMethod string `json:"payment_method" binding:"required"`
	CouponCode    string `json:"coupon_code"`
	Address       struct {
		Line1      string `json:"line1" binding:"required"`
		Line2      string `json:"line2"`
		City       string `json:"city" binding:"required"`
		State      string `json:"state" binding:"required"`
		PostalCode string `json:"postal_code" binding:"required"`
		Country    string `json:"country"`
		Phone      string `json:"phone" binding:"required"`
	} `json:"address" binding:"required"`
}

// CreateOrder 从购物车快照下单
func (h *Handler) CreateOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request payload", err)
		return
	}

	input := service.CreateOrderInput{
		UserID: userID,
		Customer: service.CustomerInfo{
			Name:  strings.TrimSpace(req.Name),
			Email: strings.ToLower(strings.TrimSpace(req.Email)),
		},
		Address: service.AddressInfo{
			Line1:      strings.TrimSpace(req.Address.Line1),
			Line2:      strings.TrimSpace(req.Address.Line2),
			City:       strings.TrimSpace(req.Address.City),
			State:      strings.TrimSpace(req.Address.State),
			PostalCode: strings.TrimSpace(req.Address.PostalCode),
			Country:    strings.TrimSpace(req.Address.Country),
			Phone:      strings.TrimSpace(req.Address.Phone),
		},
		PaymentMethod: strings.ToUpper(strings.TrimSpace(req.PaymentMethod)),
		CouponCode:    strings.TrimSpace(req.CouponCode),
		ClientIP:      c.ClientIP(),
	}

	result, err := h.OrderService.CreateOrder(c.Request.Context(), input)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, codeServerError)
		return
	}
	response.Success(c, result)
}

// ListOrders 我的订单列表（已发货订单并发补充承运商轨迹）
func (h *Handler) ListOrders(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	filter := repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   userID,
		Status:   strings.TrimSpace(c.Query("status")),
	}

	orders, total, err := h.ShipmentService.ListOrdersWithTracking(c.Request.Context(), filter)
	if err != nil {
		respondError(c, response.CodeInternal, codeServerError, err)
		return
	}
	response.SuccessWithPage(c, orders, handlershared.BuildPagination(page, pageSize, total))
}

// GetOrder 我的订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", err)
		return
	}

	order, err := h.OrderService.GetUserOrder(userID, uint(orderID))
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, codeServerError)
		return
	}
	response.Success(c, order)
}

// GetCurrentUser 我的档案
func (h *Handler) GetCurrentUser(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	user, err := h.UserRepo.GetByID(userID)
	if err != nil {
		respondError(c, response.CodeInternal, codeServerError, err)
		return
	}
	if user == nil {
		respondError(c, response.CodeNotFound, codeUserNotFound, nil)
		return
	}

	address, err := h.AddressRepo.GetDefaultByUser(userID)
	if err != nil {
		respondError(c, response.CodeInternal, codeServerError, err)
		return
	}

	response.Success(c, gin.H{
		"user":    user,
		"address": address,
	})
}
