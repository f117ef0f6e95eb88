package admin

import (
	"errors"
	"strings"

	handlershared "github.com/dasam-next/internal/http/handlers/shared"
	"github.com/dasam-next/internal/http/response"
	"github.com/dasam-next/internal/service"

	"github.com/gin-gonic/gin"
)

type adminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	handlershared.CaptchaPayloadRequest
}

// AdminLogin 管理员登录
func (h *Handler) AdminLogin(c *gin.Context) {
	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request payload", err)
		return
	}

	if h.CaptchaService.SceneEnabled(service.CaptchaSceneAdminLogin) {
		if err := h.CaptchaService.Verify(service.CaptchaSceneAdminLogin, req.ToServicePayload()); err != nil {
			if errors.Is(err, service.ErrCaptchaRequired) {
				respondError(c, response.CodeBadRequest, "captcha is required", nil)
				return
			}
			respondError(c, response.CodeBadRequest, "captcha verification failed", nil)
			return
		}
	}

	admin, token, err := h.AuthService.Login(strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(c, response.CodeUnauthorized, "invalid username or password", nil)
			return
		}
		respondError(c, response.CodeInternal, "login failed", err)
		return
	}

	response.Success(c, gin.H{
		"token": token,
		"admin": gin.H{
			"id":       admin.ID,
			"username": admin.Username,
			"is_super": admin.IsSuper,
		},
	})
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// UpdateAdminPassword 修改当前管理员密码
// 修改成功后 TokenVersion 递增，既有 Token 全部失效。
func (h *Handler) UpdateAdminPassword(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request payload", err)
		return
	}

	if err := h.AuthService.ChangePassword(adminID, req.OldPassword, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(c, response.CodeBadRequest, "old password incorrect", nil)
			return
		}
		respondError(c, response.CodeInternal, "failed to change password", err)
		return
	}

	requestLog(c).Infow("admin_password_changed", "admin_id", adminID)
	response.SuccessWithMsg(c, "password changed, please login again", nil)
}
