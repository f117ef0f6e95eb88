package admin

import (
	"errors"
	"strings"

	"github.com/dasam-next/internal/http/response"
	"github.com/dasam-next/internal/service"

	"github.com/gin-gonic/gin"
)

type smtpTestSendRequest struct {
	ToEmail string `json:"to_email" binding:"required"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// TestSMTPSend 用当前 SMTP 配置发送一封测试邮件
// 临时实例强制 Enabled，便于在全局邮件开关关闭时验证配置。
func (h *Handler) TestSMTPSend(c *gin.Context) {
	var req smtpTestSendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request payload", err)
		return
	}

	toEmail := strings.TrimSpace(req.ToEmail)
	if toEmail == "" {
		respondError(c, response.CodeBadRequest, "invalid email address", nil)
		return
	}

	configForSend := h.Config.Email
	configForSend.Enabled = true
	tempEmailService := service.NewEmailService(&configForSend)

	if err := tempEmailService.SendCustomEmail(toEmail, req.Subject, req.Body); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEmail):
			respondError(c, response.CodeBadRequest, "invalid email address", nil)
		case errors.Is(err, service.ErrEmailServiceNotConfigured):
			respondError(c, response.CodeBadRequest, "email service not configured", err)
		default:
			respondError(c, response.CodeInternal, "failed to send test email", err)
		}
		return
	}

	requestLog(c).Infow("smtp_test_sent", "to", toEmail)
	response.Success(c, gin.H{"sent": true})
}
