package public

import (
	"strings"

	handlershared "github.com/dasam-next/internal/http/handlers/shared"
	"github.com/dasam-next/internal/http/response"
	"github.com/dasam-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetImageCaptcha 获取图片验证码
func (h *Handler) GetImageCaptcha(c *gin.Context) {
	challenge, err := h.CaptchaService.GenerateImageChallenge()
	if err != nil {
		respondError(c, response.CodeInternal, "failed to generate captcha", err)
		return
	}
	response.Success(c, challenge)
}

type otpRequestPayload struct {
	Email string `json:"email" binding:"required"`
	handlershared.CaptchaPayloadRequest
}

// RequestOTP 签发一次性验证码
func (h *Handler) RequestOTP(c *gin.Context) {
	var req otpRequestPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request payload", err)
		return
	}

	if h.CaptchaService.SceneEnabled(service.CaptchaSceneOTPRequest) {
		if err := h.CaptchaService.Verify(service.CaptchaSceneOTPRequest, req.ToServicePayload()); err != nil {
			respondWithMappedError(c, err, authErrorRules, response.CodeInternal, "captcha verification failed")
			return
		}
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := h.OTPService.Request(c.Request.Context(), email); err != nil {
		respondWithMappedError(c, err, authErrorRules, response.CodeInternal, "failed to issue verification code")
		return
	}
	response.SuccessWithMsg(c, "verification code sent", nil)
}

type otpVerifyPayload struct {
	Code string `json:"code" binding:"required"`
}

// VerifyOTP 校验验证码并登录
func (h *Handler) VerifyOTP(c *gin.Context) {
	var req otpVerifyPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request payload", err)
		return
	}

	result, err := h.OTPService.Verify(strings.TrimSpace(req.Code))
	if err != nil {
		respondWithMappedError(c, err, authErrorRules, response.CodeInternal, "verification failed")
		return
	}
	response.Success(c, result)
}

// SessionLogin 会话登录
// 以匿名会话为身份铸造（或找回）用户并返回 JWT，同时提升会话购物车。
func (h *Handler) SessionLogin(c *gin.Context) {
	token, ok := getSessionToken(c)
	if !ok {
		return
	}

	result, err := h.SessionService.LoginWithSession(token)
	if err != nil {
		respondWithMappedError(c, err, authErrorRules, response.CodeInternal, "session login failed")
		return
	}
	response.Success(c, result)
}
