package public

import (
	"strconv"
	"strings"

	"github.com/dasam-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

type cartItemRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Variant   string `json:"variant"`
	Quantity  int    `json:"quantity"`
}

// GetCart 当前会话购物车
func (h *Handler) GetCart(c *gin.Context) {
	owner, ok := cartOwnerFromSession(c)
	if !ok {
		return
	}

	view, err := h.CartService.GetCart(owner)
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "failed to load cart")
		return
	}
	response.Success(c, view)
}

// AddCartItem 加购（同行合并数量）
func (h *Handler) AddCartItem(c *gin.Context) {
	owner, ok := cartOwnerFromSession(c)
	if !ok {
		return
	}

	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request payload", err)
		return
	}
	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	view, err := h.CartService.AddItem(owner, req.ProductID, strings.TrimSpace(req.Variant), quantity)
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "failed to update cart")
		return
	}
	response.Success(c, view)
}

// RemoveCartItem 减购或整行移除
func (h *Handler) RemoveCartItem(c *gin.Context) {
	owner, ok := cartOwnerFromSession(c)
	if !ok {
		return
	}

	productID, err := strconv.ParseUint(c.Param("product_id"), 10, 64)
	if err != nil || productID == 0 {
		respondError(c, response.CodeBadRequest, "invalid product id", err)
		return
	}
	variant := strings.TrimSpace(c.Query("variant"))
	removeEntirely := strings.EqualFold(c.DefaultQuery("all", "false"), "true")

	view, err := h.CartService.RemoveItem(owner, uint(productID), variant, removeEntirely)
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "failed to update cart")
		return
	}
	response.Success(c, view)
}
