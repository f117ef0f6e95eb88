package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/dasam-next/internal/config"
	"github.com/dasam-next/internal/constants"
	"github.com/dasam-next/internal/gateway/razorpay"
	"github.com/dasam-next/internal/logger"
	"github.com/dasam-next/internal/models"
	"github.com/dasam-next/internal/queue"
	"github.com/dasam-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderService 订单编排服务
// 下单金额取自购物车快照并在订单上冻结，后续目录调价不回溯已创建订单。
type OrderService struct {
	gatewayCfg   config.GatewayConfig
	orderRepo    repository.OrderRepository
	paymentRepo  repository.PaymentRepository
	userRepo     repository.UserRepository
	addressRepo  repository.AddressRepository
	couponRepo   repository.CouponRepository
	errorLogRepo repository.ErrorLogRepository
	cartService  *CartService
	queueClient  *queue.Client
}

// NewOrderService 创建订单服务
func NewOrderService(
	gatewayCfg config.GatewayConfig,
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	userRepo repository.UserRepository,
	addressRepo repository.AddressRepository,
	couponRepo repository.CouponRepository,
	errorLogRepo repository.ErrorLogRepository,
	cartService *CartService,
	queueClient *queue.Client,
) *OrderService {
	return &OrderService{
		gatewayCfg:   gatewayCfg,
		orderRepo:    orderRepo,
		paymentRepo:  paymentRepo,
		userRepo:     userRepo,
		addressRepo:  addressRepo,
		couponRepo:   couponRepo,
		errorLogRepo: errorLogRepo,
		cartService:  cartService,
		queueClient:  queueClient,
	}
}

// CustomerInfo 下单时的客户档案字段
type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AddressInfo 下单时的收货地址字段
type AddressInfo struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

// CreateOrderInput 下单输入
type CreateOrderInput struct {
	UserID        uint
	Customer      CustomerInfo
	Address       AddressInfo
	PaymentMethod string
	CouponID      *uint
	CouponCode    string
	ClientIP      string
}

// CreateOrderResult 下单结果，客户端凭 intent_ref 在网关侧完成支付
type CreateOrderResult struct {
	OrderID   uint         `json:"order_id"`
	OrderNo   string       `json:"order_no"`
	IntentRef string       `json:"intent_ref,omitempty"`
	Amount    models.Money `json:"amount"`
	Currency  string       `json:"currency"`
}

// CreateOrder 下单
// 流程：档案/地址幂等更新 -> 在线单创建网关意向 -> 事务落订单与支付记录 ->
// 优惠券置失效（尽力而为）-> 清空购物车 -> 异步状态邮件。
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	method := strings.ToUpper(strings.TrimSpace(input.PaymentMethod))
	if method != constants.PaymentMethodOnline && method != constants.PaymentMethodCOD {
		return nil, ErrInvalidInput
	}

	user, err := s.userRepo.GetByID(input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if err := s.userRepo.UpdateProfile(user.ID, input.Customer.Name, input.Customer.Email); err != nil {
		return nil, err
	}

	addr := &models.UserAddress{
		Phone:      strings.TrimSpace(input.Address.Phone),
		Line1:      strings.TrimSpace(input.Address.Line1),
		Line2:      strings.TrimSpace(input.Address.Line2),
		City:       strings.TrimSpace(input.Address.City),
		State:      strings.TrimSpace(input.Address.State),
		PostalCode: strings.TrimSpace(input.Address.PostalCode),
		Country:    strings.TrimSpace(input.Address.Country),
	}
	if err := s.addressRepo.UpsertDefault(user.ID, addr); err != nil {
		return nil, err
	}

	cart, err := s.cartService.Snapshot(CartOwner{UserID: user.ID})
	if err != nil {
		return nil, err
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, ErrInvalidInput
	}

	currency := strings.ToUpper(strings.TrimSpace(s.gatewayCfg.Currency))
	if currency == "" {
		currency = constants.SiteCurrencyDefault
	}
	orderNo := generateOrderNo()

	// 货到付款无需网关意向，留待派送时收款
	intentRef := ""
	if method == constants.PaymentMethodOnline {
		amountMinor := cart.TotalPrice.Decimal.
			Mul(decimal.NewFromInt(constants.CurrencyMinorUnits)).
			Round(0).IntPart()
		result, err := razorpay.CreateIntent(ctx, s.gatewayConfig(), razorpay.CreateIntentInput{
			AmountMinor: amountMinor,
			Currency:    currency,
			Receipt:     orderNo,
		})
		if err != nil {
			logger.Errorw("gateway_intent_create_failed",
				"user_id", user.ID,
				"order_no", orderNo,
				"error", err,
			)
			s.recordGatewayFailure(user.ID, orderNo, err)
			return nil, ErrGatewayUnavailable
		}
		intentRef = result.IntentRef
	}

	couponID := s.resolveCouponID(input.CouponID, input.CouponCode)

	order := &models.Order{
		OrderNo:     orderNo,
		UserID:      user.ID,
		Status:      constants.OrderStatusPending,
		Currency:    currency,
		TotalAmount: cart.TotalPrice,
		IntentRef:   intentRef,
		CouponID:    couponID,
		ClientIP:    strings.TrimSpace(input.ClientIP),
	}
	payment := &models.Payment{
		Method:    method,
		Status:    constants.PaymentStatusInitiated,
		Amount:    cart.TotalPrice,
		Currency:  currency,
		IntentRef: intentRef,
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.WithTx(tx).Create(order); err != nil {
			return err
		}
		payment.OrderID = order.ID
		return s.paymentRepo.WithTx(tx).Create(payment)
	})
	if err != nil {
		return nil, err
	}

	if couponID != nil {
		if err := s.couponRepo.Deactivate(*couponID); err != nil {
			logger.Warnw("coupon_deactivate_failed", "coupon_id", *couponID, "error", err)
		}
	}

	if err := s.cartService.ClearByUser(user.ID); err != nil {
		logger.Warnw("cart_clear_failed", "user_id", user.ID, "error", err)
	}

	s.enqueueStatusEmail(order.ID, order.Status)

	logger.Infow("order_created",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"user_id", user.ID,
		"method", method,
		"amount", order.TotalAmount.String(),
	)

	return &CreateOrderResult{
		OrderID:   order.ID,
		OrderNo:   order.OrderNo,
		IntentRef: intentRef,
		Amount:    order.TotalAmount,
		Currency:  currency,
	}, nil
}

// GetUserOrder 获取用户订单详情
func (s *OrderService) GetUserOrder(userID, orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// AdvanceStatus 沿状态机推进订单状态并触发状态邮件
func (s *OrderService) AdvanceStatus(order *models.Order, target string, updates map[string]interface{}) error {
	if order == nil {
		return ErrOrderNotFound
	}
	if !isTransitionAllowed(order.Status, target) {
		return ErrInvalidTransition
	}
	if err := s.orderRepo.UpdateStatus(order.ID, target, updates); err != nil {
		return err
	}
	order.Status = target
	s.enqueueStatusEmail(order.ID, target)
	return nil
}

// recordGatewayFailure 写错误审计，失败不影响主流程
func (s *OrderService) recordGatewayFailure(userID uint, orderNo string, cause error) {
	if s.errorLogRepo == nil {
		return
	}
	entry := &models.ErrorLog{
		Source:  constants.ErrorLogSourceOrder,
		Code:    "GATEWAY_INTENT_FAILED",
		Message: cause.Error(),
		Detail: models.JSON{
			"user_id":  userID,
			"order_no": orderNo,
		},
	}
	if err := s.errorLogRepo.Create(entry); err != nil {
		logger.Debugw("error_log_write_failed", "error", err)
	}
}

func (s *OrderService) enqueueStatusEmail(orderID uint, status string) {
	if s.queueClient == nil {
		return
	}
	err := s.queueClient.EnqueueOrderStatusEmail(queue.OrderStatusEmailPayload{
		OrderID: orderID,
		Status:  status,
	})
	if err != nil {
		logger.Warnw("order_status_email_enqueue_failed", "order_id", orderID, "error", err)
	}
}

// resolveCouponID 解析可用优惠券，ID 优先于券码；解析失败不阻断下单
func (s *OrderService) resolveCouponID(couponID *uint, couponCode string) *uint {
	var coupon *models.Coupon
	var err error
	switch {
	case couponID != nil && *couponID != 0:
		coupon, err = s.couponRepo.GetByID(*couponID)
	case strings.TrimSpace(couponCode) != "":
		coupon, err = s.couponRepo.GetByCode(couponCode)
	default:
		return nil
	}
	if err != nil {
		logger.Warnw("coupon_resolve_failed", "error", err)
		return nil
	}
	if coupon == nil || !coupon.IsActive {
		return nil
	}
	if coupon.ExpiresAt != nil && time.Now().After(*coupon.ExpiresAt) {
		return nil
	}
	id := coupon.ID
	return &id
}

func (s *OrderService) gatewayConfig() *razorpay.Config {
	cfg := &razorpay.Config{
		BaseURL:   s.gatewayCfg.BaseURL,
		KeyID:     s.gatewayCfg.KeyID,
		KeySecret: s.gatewayCfg.KeySecret,
		Currency:  s.gatewayCfg.Currency,
		TimeoutMS: s.gatewayCfg.TimeoutMS,
	}
	cfg.Normalize()
	return cfg
}

func generateOrderNo() string {
	now := time.Now().Format("20060102150405")
	return fmt.Sprintf("DS%s%s", now, randNumeric(6))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String()
}
