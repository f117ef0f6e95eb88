package service

import (
	"time"

	"github.com/dasam-next/internal/config"
	"github.com/dasam-next/internal/logger"
	"github.com/dasam-next/internal/models"
	"github.com/dasam-next/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// AuthService 管理端认证服务
type AuthService struct {
	cfg       config.JWTConfig
	adminRepo repository.AdminRepository
}

// NewAuthService 创建认证服务
func NewAuthService(cfg config.JWTConfig, adminRepo repository.AdminRepository) *AuthService {
	return &AuthService{
		cfg:       cfg,
		adminRepo: adminRepo,
	}
}

// HashPassword 使用 bcrypt 加密密码
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword 验证密码
func (s *AuthService) VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// Login 管理员登录
// 账号不存在与密码错误返回同一错误，不泄露账号是否存在。
func (s *AuthService) Login(username, password string) (*models.Admin, string, error) {
	admin, err := s.adminRepo.GetByUsername(username)
	if err != nil {
		return nil, "", err
	}
	if admin == nil {
		return nil, "", ErrInvalidCredentials
	}

	if err := s.VerifyPassword(admin.PasswordHash, password); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := IssueAdminToken(s.cfg, admin.ID, admin.Username, admin.TokenVersion, admin.IsSuper)
	if err != nil {
		return nil, "", err
	}

	now := time.Now()
	admin.LastLoginAt = &now
	if err := s.adminRepo.Update(admin); err != nil {
		logger.Warnw("admin_login_touch_failed", "admin_id", admin.ID, "error", err)
	}

	logger.Infow("admin_login", "admin_id", admin.ID, "username", admin.Username)
	return admin, token, nil
}

// ChangePassword 修改管理员密码并使既有 Token 全部失效
func (s *AuthService) ChangePassword(adminID uint, oldPassword, newPassword string) error {
	admin, err := s.adminRepo.GetByID(adminID)
	if err != nil {
		return err
	}
	if admin == nil {
		return ErrAdminNotFound
	}

	if err := s.VerifyPassword(admin.PasswordHash, oldPassword); err != nil {
		return ErrInvalidCredentials
	}

	hashedPassword, err := s.HashPassword(newPassword)
	if err != nil {
		return err
	}

	now := time.Now()
	admin.PasswordHash = hashedPassword
	admin.TokenVersion++
	admin.TokenInvalidBefore = &now
	return s.adminRepo.Update(admin)
}
