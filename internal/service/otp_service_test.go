package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dasam-next/internal/config"
	"github.com/dasam-next/internal/models"
	"github.com/dasam-next/internal/repository"

	"gorm.io/gorm"
)

func setupOTPServiceTest(t *testing.T) (*OTPService, *gorm.DB) {
	t.Helper()
	db := setupServiceDB(t)
	svc := NewOTPService(
		config.OTPConfig{Digits: 6, ExpireMinutes: 5},
		config.JWTConfig{SecretKey: "otp-test-secret-key-0123456789abcdef", ExpireHours: 1},
		repository.NewOTPRepository(db),
		repository.NewUserRepository(db),
		nil,
	)
	return svc, db
}

func latestOTPFor(t *testing.T, db *gorm.DB, userID uint) *models.UserOTP {
	t.Helper()
	var otp models.UserOTP
	if err := db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").First(&otp).Error; err != nil {
		t.Fatalf("load otp failed: %v", err)
	}
	return &otp
}

func TestOTPRequestIssuesCode(t *testing.T) {
	svc, db := setupOTPServiceTest(t)
	user := createTestUser(t, db, "asha@example.in")

	if err := svc.Request(context.Background(), user.Email); err != nil {
		t.Fatalf("request otp failed: %v", err)
	}

	otp := latestOTPFor(t, db, user.ID)
	if len(otp.Code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", otp.Code)
	}
	for _, r := range otp.Code {
		if r < '0' || r > '9' {
			t.Fatalf("expected numeric code, got %q", otp.Code)
		}
	}
	if !otp.ExpiresAt.After(time.Now()) {
		t.Fatalf("expected future expiry, got %v", otp.ExpiresAt)
	}
}

func TestOTPRequestUnknownEmail(t *testing.T) {
	svc, _ := setupOTPServiceTest(t)
	err := svc.Request(context.Background(), "nobody@example.in")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestOTPVerifySingleUse(t *testing.T) {
	svc, db := setupOTPServiceTest(t)
	user := createTestUser(t, db, "asha@example.in")

	if err := svc.Request(context.Background(), user.Email); err != nil {
		t.Fatalf("request otp failed: %v", err)
	}
	code := latestOTPFor(t, db, user.ID).Code

	result, err := svc.Verify(code)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if result.User.ID != user.ID {
		t.Fatalf("expected user %d, got %d", user.ID, result.User.ID)
	}
	if result.Token == "" {
		t.Fatalf("expected jwt in verify result")
	}
	if result.User.LastLoginAt == nil {
		t.Fatalf("expected last login timestamp set")
	}

	// 命中即删：同一码第二次校验按无效处理
	if _, err := svc.Verify(code); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("expected ErrInvalidOTP on reuse, got %v", err)
	}
}

func TestOTPVerifyExpiredCode(t *testing.T) {
	svc, db := setupOTPServiceTest(t)
	user := createTestUser(t, db, "asha@example.in")

	if err := svc.Request(context.Background(), user.Email); err != nil {
		t.Fatalf("request otp failed: %v", err)
	}
	otp := latestOTPFor(t, db, user.ID)
	if err := db.Model(otp).Update("expires_at", time.Now().Add(-time.Minute)).Error; err != nil {
		t.Fatalf("backdate expiry failed: %v", err)
	}

	if _, err := svc.Verify(otp.Code); !errors.Is(err, ErrOTPExpired) {
		t.Fatalf("expected ErrOTPExpired, got %v", err)
	}

	// 过期记录保留，不被校验路径清理
	var count int64
	if err := db.Model(&models.UserOTP{}).Where("user_id = ?", user.ID).Count(&count).Error; err != nil {
		t.Fatalf("count otps failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected expired otp retained, got %d rows", count)
	}
}

func TestOTPVerifyUnknownOrEmptyCode(t *testing.T) {
	svc, _ := setupOTPServiceTest(t)

	if _, err := svc.Verify(""); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("expected ErrInvalidOTP for empty code, got %v", err)
	}
	if _, err := svc.Verify("000000"); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("expected ErrInvalidOTP for unknown code, got %v", err)
	}
}

func TestOTPVerifyPicksLatestIssue(t *testing.T) {
	svc, db := setupOTPServiceTest(t)
	user := createTestUser(t, db, "asha@example.in")

	// 人工构造同码两次签发，较新的一条未过期
	stale := &models.UserOTP{
		UserID:    user.ID,
		Code:      "123456",
		ExpiresAt: time.Now().Add(-time.Minute),
		CreatedAt: time.Now().Add(-10 * time.Minute),
	}
	fresh := &models.UserOTP{
		UserID:    user.ID,
		Code:      "123456",
		ExpiresAt: time.Now().Add(5 * time.Minute),
	}
	if err := db.Create(stale).Error; err != nil {
		t.Fatalf("create stale otp failed: %v", err)
	}
	if err := db.Create(fresh).Error; err != nil {
		t.Fatalf("create fresh otp failed: %v", err)
	}

	if _, err := svc.Verify("123456"); err != nil {
		t.Fatalf("expected latest issue to win, got %v", err)
	}
}

func TestGenerateNumericCode(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := generateNumericCode(6)
		if err != nil {
			t.Fatalf("generate code failed: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
	}
}
