package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dasam-next/internal/config"
	"github.com/dasam-next/internal/constants"
	"github.com/dasam-next/internal/gateway/razorpay"
	"github.com/dasam-next/internal/logger"
	"github.com/dasam-next/internal/models"
	"github.com/dasam-next/internal/repository"
)

// PaymentService 支付校验服务
// 验签是确认在线支付成功的唯一信任边界；已成功的支付在重复校验下不降级。
type PaymentService struct {
	gatewayCfg      config.GatewayConfig
	orderRepo       repository.OrderRepository
	paymentRepo     repository.PaymentRepository
	userRepo        repository.UserRepository
	errorLogRepo    repository.ErrorLogRepository
	orderService    *OrderService
	shipmentService *ShipmentService
}

// NewPaymentService 创建支付服务
func NewPaymentService(
	gatewayCfg config.GatewayConfig,
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	userRepo repository.UserRepository,
	errorLogRepo repository.ErrorLogRepository,
	orderService *OrderService,
	shipmentService *ShipmentService,
) *PaymentService {
	return &PaymentService{
		gatewayCfg:      gatewayCfg,
		orderRepo:       orderRepo,
		paymentRepo:     paymentRepo,
		userRepo:        userRepo,
		errorLogRepo:    errorLogRepo,
		orderService:    orderService,
		shipmentService: shipmentService,
	}
}

// VerifyPaymentInput 支付校验输入
type VerifyPaymentInput struct {
	OrderID    uint
	UserID     uint // 非零时校验订单归属
	IntentRef  string
	PaymentRef string
	Signature  string
}

// VerifyPaymentResult 支付校验结果
type VerifyPaymentResult struct {
	OrderID uint   `json:"order_id"`
	OrderNo string `json:"order_no"`
	Status  string `json:"status"`
	Waybill string `json:"waybill,omitempty"`
}

// VerifyPayment 校验支付并推进订单
// 在线单验签失败置支付失败并拒绝；验签成功或货到付款确认后，
// 同步创建运单（幂等防重），运单失败不回滚支付确认。
func (s *PaymentService) VerifyPayment(ctx context.Context, input VerifyPaymentInput) (*VerifyPaymentResult, error) {
	var order *models.Order
	var err error
	if input.UserID != 0 {
		order, err = s.orderRepo.GetByIDAndUser(input.OrderID, input.UserID)
	} else {
		order, err = s.orderRepo.GetByID(input.OrderID)
	}
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	payment, err := s.paymentRepo.GetByOrderID(order.ID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}

	switch payment.Method {
	case constants.PaymentMethodOnline:
		if err := s.confirmOnline(order, payment, input); err != nil {
			return nil, err
		}
	case constants.PaymentMethodCOD:
		if err := s.confirmCOD(order, payment); err != nil {
			return nil, err
		}
	default:
		return nil, ErrInvalidInput
	}

	waybill, err := s.ensureShipment(ctx, order, payment)
	if err != nil {
		return nil, err
	}

	return &VerifyPaymentResult{
		OrderID: order.ID,
		OrderNo: order.OrderNo,
		Status:  order.Status,
		Waybill: waybill,
	}, nil
}

// confirmOnline 在线支付验签与状态推进
func (s *PaymentService) confirmOnline(order *models.Order, payment *models.Payment, input VerifyPaymentInput) error {
	// 重复回调：已成功的支付直接幂等通过，不再验签也不降级
	if payment.Status == constants.PaymentStatusSuccess {
		return nil
	}

	cfg := s.gatewayConfig()
	if err := razorpay.VerifySignature(cfg, input.IntentRef, input.PaymentRef, input.Signature); err != nil {
		payment.Status = constants.PaymentStatusFailed
		if updErr := s.paymentRepo.Update(payment); updErr != nil {
			logger.Errorw("payment_mark_failed_error", "order_id", order.ID, "error", updErr)
		}
		logger.Warnw("payment_signature_invalid",
			"order_id", order.ID,
			"order_no", order.OrderNo,
			"payment_ref", input.PaymentRef,
		)
		s.recordSignatureFailure(order, input.PaymentRef)
		return ErrInvalidSignature
	}

	now := time.Now()
	payment.Status = constants.PaymentStatusSuccess
	payment.PaymentRef = strings.TrimSpace(input.PaymentRef)
	payment.PaidAt = &now
	if err := s.paymentRepo.Update(payment); err != nil {
		return err
	}

	if order.Status == constants.OrderStatusPending {
		err := s.orderService.AdvanceStatus(order, constants.OrderStatusPaid, map[string]interface{}{
			"paid_at": now,
		})
		if err != nil && !errors.Is(err, ErrInvalidTransition) {
			return err
		}
	}
	logger.Infow("payment_confirmed",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"method", payment.Method,
	)
	return nil
}

// recordSignatureFailure 写错误审计，失败不影响主流程
func (s *PaymentService) recordSignatureFailure(order *models.Order, paymentRef string) {
	if s.errorLogRepo == nil {
		return
	}
	entry := &models.ErrorLog{
		Source:  constants.ErrorLogSourcePayment,
		Code:    "INVALID_SIGNATURE",
		Message: "payment signature verification failed",
		Detail: models.JSON{
			"order_id":    order.ID,
			"order_no":    order.OrderNo,
			"payment_ref": paymentRef,
		},
	}
	if err := s.errorLogRepo.Create(entry); err != nil {
		logger.Debugw("error_log_write_failed", "error", err)
	}
}

// confirmCOD 货到付款确认：无需验签，货款随派送收取
func (s *PaymentService) confirmCOD(order *models.Order, payment *models.Payment) error {
	if payment.Status == constants.PaymentStatusInitiated {
		payment.Status = constants.PaymentStatusPending
		if err := s.paymentRepo.Update(payment); err != nil {
			return err
		}
	}
	if order.Status == constants.OrderStatusPending {
		now := time.Now()
		err := s.orderService.AdvanceStatus(order, constants.OrderStatusCodConfirmed, map[string]interface{}{
			"paid_at": now,
		})
		if err != nil && !errors.Is(err, ErrInvalidTransition) {
			return err
		}
	}
	logger.Infow("payment_confirmed",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"method", payment.Method,
	)
	return nil
}

// ensureShipment 幂等创建运单并推进发货状态
// 承运商失败仅告警（订单停留在支付确认态），地址缺失按显式错误上抛。
func (s *PaymentService) ensureShipment(ctx context.Context, order *models.Order, payment *models.Payment) (string, error) {
	existing, err := s.shipmentService.shipmentRepo.GetByOrderID(order.ID)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return existing.Waybill, nil
	}

	consignee, err := s.shipmentService.ResolveConsignee(order.UserID)
	if err != nil {
		return "", err
	}

	consigneeName := ""
	if user, err := s.userRepo.GetByID(order.UserID); err == nil && user != nil {
		consigneeName = user.Name
	}

	shipment, err := s.shipmentService.Create(ctx, ShipmentCreateInput{
		Order:         order,
		Consignee:     consignee,
		ConsigneeName: consigneeName,
		PaymentMethod: payment.Method,
	})
	if err != nil {
		logger.Warnw("shipment_create_deferred",
			"order_id", order.ID,
			"order_no", order.OrderNo,
			"error", err,
		)
		return "", nil
	}

	now := time.Now()
	err = s.orderService.AdvanceStatus(order, constants.OrderStatusShipped, map[string]interface{}{
		"shipped_at": now,
	})
	if err != nil {
		logger.Warnw("order_mark_shipped_failed", "order_id", order.ID, "error", err)
	}
	return shipment.Waybill, nil
}

func (s *PaymentService) gatewayConfig() *razorpay.Config {
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
