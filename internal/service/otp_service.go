package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/dasam-next/internal/cache"
	"github.com/dasam-next/internal/config"
	"github.com/dasam-next/internal/logger"
	"github.com/dasam-next/internal/models"
	"github.com/dasam-next/internal/repository"
)

// OTPService 一次性验证码服务
// 码值全局查询、单次有效；签发按邮箱做窗口限流，压制枚举尝试。
type OTPService struct {
	cfg          config.OTPConfig
	userJWT      config.JWTConfig
	otpRepo      repository.OTPRepository
	userRepo     repository.UserRepository
	emailService *EmailService
}

// NewOTPService 创建验证码服务
func NewOTPService(
	cfg config.OTPConfig,
	userJWT config.JWTConfig,
	otpRepo repository.OTPRepository,
	userRepo repository.UserRepository,
	emailService *EmailService,
) *OTPService {
	return &OTPService{
		cfg:          cfg,
		userJWT:      userJWT,
		otpRepo:      otpRepo,
		userRepo:     userRepo,
		emailService: emailService,
	}
}

// OTPVerifyResult 验证结果
type OTPVerifyResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

func (s *OTPService) digits() int {
	if s.cfg.Digits <= 0 {
		return 6
	}
	return s.cfg.Digits
}

func (s *OTPService) expireWindow() time.Duration {
	minutes := s.cfg.ExpireMinutes
	if minutes <= 0 {
		minutes = 5
	}
	return time.Duration(minutes) * time.Minute
}

// Request 为邮箱对应用户签发验证码
// 历史未过期的码保持有效（多码共存）；邮件发送失败仅告警，不回滚签发。
func (s *OTPService) Request(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if err := s.checkThrottle(ctx, email); err != nil {
		return err
	}

	code, err := generateNumericCode(s.digits())
	if err != nil {
		return err
	}

	otp := &models.UserOTP{
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: time.Now().Add(s.expireWindow()),
	}
	if err := s.otpRepo.Create(otp); err != nil {
		return err
	}
	logger.Infow("otp_issued", "user_id", user.ID)

	if s.emailService != nil {
		if err := s.emailService.SendOTPEmail(user.Email, code, s.cfg.ExpireMinutes); err != nil {
			logger.Warnw("otp_email_send_failed", "user_id", user.ID, "error", err)
		}
	}
	return nil
}

// Verify 校验验证码
// 取该码值最近一次签发的记录；命中即物理删除（单次有效），
// 删除未生效说明并发校验已被先到者消费，按无效处理。
func (s *OTPService) Verify(code string) (*OTPVerifyResult, error) {
	if code == "" {
		return nil, ErrInvalidOTP
	}

	otp, err := s.otpRepo.GetLatestByCode(code)
	if err != nil {
		return nil, err
	}
	if otp == nil {
		return nil, ErrInvalidOTP
	}
	if time.Now().After(otp.ExpiresAt) {
		// 过期记录保留，自然老化
		return nil, ErrOTPExpired
	}

	deleted, err := s.otpRepo.DeleteByID(otp.ID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, ErrInvalidOTP
	}

	user, err := s.userRepo.GetByID(otp.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(user); err != nil {
		logger.Warnw("otp_login_touch_failed", "user_id", user.ID, "error", err)
	}

	token, err := IssueUserToken(s.userJWT, user.ID, user.TokenVersion)
	if err != nil {
		return nil, err
	}
	logger.Infow("otp_verified", "user_id", user.ID)

	return &OTPVerifyResult{User: user, Token: token}, nil
}

func (s *OTPService) checkThrottle(ctx context.Context, email string) error {
	window := time.Duration(s.cfg.IssueWindowSeconds) * time.Second
	if window <= 0 {
		window = 5 * time.Minute
	}
	maxPerWindow := int64(s.cfg.IssueMaxPerWindow)
	if maxPerWindow <= 0 {
		maxPerWindow = 5
	}

	count, err := cache.IncrWithWindow(ctx, "otp:issue:"+email, window)
	if err != nil {
		// 限流组件故障时放行，不阻断登录路径
		logger.Warnw("otp_throttle_check_failed", "error", err)
		return nil
	}
	if count > maxPerWindow {
		return ErrOTPThrottled
	}
	return nil
}

// generateNumericCode 生成定长均匀分布的数字码
func generateNumericCode(digits int) (string, error) {
	max := big.NewInt(1)
	for i := 0; i < digits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}
