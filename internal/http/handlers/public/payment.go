package public

import (
	"strings"

	"github.com/dasam-next/internal/http/response"
	"github.com/dasam-next/internal/service"

	"github.com/gin-gonic/gin"
)

type verifyPaymentRequest struct {
	OrderID    uint   `json:"order_id" binding:"required"`
	IntentRef  string `json:"intent_ref"`
	PaymentRef string `json:"payment_ref"`
	Signature  string `json:"signature"`
}

// VerifyPayment 支付确认
// 在线支付校验网关签名；货到付款直接确认。成功后同步触发运单创建。
func (h *Handler) VerifyPayment(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request payload", err)
		return
	}

	input := service.VerifyPaymentInput{
		OrderID:    req.OrderID,
		UserID:     userID,
		IntentRef:  strings.TrimSpace(req.IntentRef),
		PaymentRef: strings.TrimSpace(req.PaymentRef),
		Signature:  strings.TrimSpace(req.Signature),
	}

	result, err := h.PaymentService.VerifyPayment(c.Request.Context(), input)
	if err != nil {
		respondWithMappedError(c, err, paymentErrorRules, response.CodeInternal, codeServerError)
		return
	}
	response.Success(c, result)
}
