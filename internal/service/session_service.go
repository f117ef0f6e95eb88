package service

import (
	"errors"
	"time"

	"github.com/dasam-next/internal/config"
	"github.com/dasam-next/internal/constants"
	"github.com/dasam-next/internal/logger"
	"github.com/dasam-next/internal/models"
	"github.com/dasam-next/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionService 匿名会话解析服务
// 会话令牌即购物车的匿名归属键；过期以占位购物车的 created_at 为基准，不做滑动续期。
type SessionService struct {
	cfg         config.SessionConfig
	userJWT     config.JWTConfig
	cartRepo    repository.CartRepository
	userRepo    repository.UserRepository
	addressRepo repository.AddressRepository
}

// NewSessionService 创建会话服务
func NewSessionService(
	cfg config.SessionConfig,
	userJWT config.JWTConfig,
	cartRepo repository.CartRepository,
	userRepo repository.UserRepository,
	addressRepo repository.AddressRepository,
) *SessionService {
	return &SessionService{
		cfg:         cfg,
		userJWT:     userJWT,
		cartRepo:    cartRepo,
		userRepo:    userRepo,
		addressRepo: addressRepo,
	}
}

// SessionLoginResult 会话登录结果
type SessionLoginResult struct {
	User    *models.User        `json:"user"`
	Address *models.UserAddress `json:"address,omitempty"`
	Token   string              `json:"token"`
}

func (s *SessionService) ttl() time.Duration {
	hours := s.cfg.TTLHours
	if hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}

// EnsureSession 解析或铸造会话令牌
// 令牌缺失、无对应购物车或占位车超过 TTL 时，铸造新令牌并落一张空占位车。
func (s *SessionService) EnsureSession(incoming string) (string, error) {
	if incoming != "" {
		cart, err := s.cartRepo.GetBySessionID(incoming)
		if err != nil {
			return "", err
		}
		if cart != nil && time.Since(cart.CreatedAt) < s.ttl() {
			return incoming, nil
		}
	}

	token := uuid.NewString()
	placeholder := &models.Cart{
		SessionID: &token,
		Items:     models.CartLines{},
	}
	if err := s.cartRepo.Create(placeholder); err != nil {
		return "", err
	}
	logger.Debugw("session_minted", "session_id", token)
	return token, nil
}

// AttachToUser 会话购物车提升为用户购物车
// 用户已有购物车时按行合并（同行加数量、异行并集），合并后删除会话车，避免静默覆盖丢数据。
func (s *SessionService) AttachToUser(sessionID string, userID uint) error {
	if sessionID == "" || userID == 0 {
		return ErrInvalidInput
	}

	return models.DB.Transaction(func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)

		sessionCart, err := cartRepo.GetBySessionID(sessionID)
		if err != nil {
			return err
		}
		if sessionCart == nil {
			return nil
		}

		userCart, err := cartRepo.GetByUserID(userID)
		if err != nil {
			return err
		}

		if userCart == nil {
			uid := userID
			return cartRepo.UpdateOwner(sessionCart.ID, &uid, nil)
		}

		for _, line := range sessionCart.Items {
			idx := findLine(userCart, line.ProductID, line.Variant)
			if idx >= 0 {
				merged := &userCart.Items[idx]
				merged.Quantity += line.Quantity
				merged.Subtotal = lineSubtotal(merged.UnitPrice, merged.Quantity)
			} else {
				userCart.Items = append(userCart.Items, line)
			}
		}
		userCart.Recalculate()

		if err := cartRepo.UpdateWithVersion(userCart); err != nil {
			if errors.Is(err, repository.ErrCartVersionConflict) {
				return ErrCartConflict
			}
			return err
		}
		return cartRepo.Delete(sessionCart.ID)
	})
}

// LoginWithSession 会话登录
// 找到或创建绑定该会话的用户，提升会话购物车，返回档案、默认地址与 JWT。
func (s *SessionService) LoginWithSession(sessionID string) (*SessionLoginResult, error) {
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}

	user, err := s.userRepo.GetBySessionID(sessionID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		sid := sessionID
		user = &models.User{
			SessionID: &sid,
			Status:    constants.UserStatusActive,
		}
		if err := s.userRepo.Create(user); err != nil {
			return nil, err
		}
		logger.Infow("session_user_created", "user_id", user.ID, "session_id", sessionID)
	}

	if err := s.AttachToUser(sessionID, user.ID); err != nil {
		// 购物车提升失败不阻断登录，留给下次访问重试
		logger.Warnw("session_cart_attach_failed", "user_id", user.ID, "error", err)
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(user); err != nil {
		logger.Warnw("session_login_touch_failed", "user_id", user.ID, "error", err)
	}

	address, err := s.addressRepo.GetDefaultByUser(user.ID)
	if err != nil {
		return nil, err
	}

	token, err := IssueUserToken(s.userJWT, user.ID, user.TokenVersion)
	if err != nil {
		return nil, err
	}

	return &SessionLoginResult{
		User:    user,
		Address: address,
		Token:   token,
	}, nil
}
