package public

import (
	"github.com/dasam-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetSession 会话自举
// 中间件已解析/铸造会话令牌，此处回显令牌与当前购物车。
func (h *Handler) GetSession(c *gin.Context) {
	owner, ok := cartOwnerFromSession(c)
	if !ok {
		return
	}

	view, err := h.CartService.GetCart(owner)
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, codeServerError)
		return
	}

	response.Success(c, gin.H{
		"session_token": owner.SessionID,
		"cart":          view,
	})
}
