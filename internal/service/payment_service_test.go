package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dasam-next/internal/carrier/delhivery"
	"github.com/dasam-next/internal/config"
	"github.com/dasam-next/internal/constants"
	"github.com/dasam-next/internal/gateway/razorpay"
	"github.com/dasam-next/internal/models"
	"github.com/dasam-next/internal/repository"

	"gorm.io/gorm"
)

const paymentTestSecret = "rzp_test_secret"

type paymentServiceFixture struct {
	db          *gorm.DB
	svc         *PaymentService
	shipmentSvc *ShipmentService
	user        *models.User
}

func setupPaymentServiceTest(t *testing.T) *paymentServiceFixture {
	t.Helper()
	db := setupServiceDB(t)
	gatewayCfg := config.GatewayConfig{
		KeyID:     "rzp_test_key",
		KeySecret: paymentTestSecret,
		Currency:  "INR",
	}
	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	userRepo := repository.NewUserRepository(db)
	addressRepo := repository.NewAddressRepository(db)

	orderService := NewOrderService(
		gatewayCfg,
		orderRepo,
		paymentRepo,
		userRepo,
		addressRepo,
		repository.NewCouponRepository(db),
		repository.NewErrorLogRepository(db),
		NewCartService(repository.NewCartRepository(db), repository.NewProductRepository(db)),
		nil,
	)
	shipmentSvc := NewShipmentService(
		config.CarrierConfig{BaseURL: "https://track.delhivery.test", APIToken: "dl_test_token", MaxAttempts: 2},
		repository.NewShipmentRepository(db),
		orderRepo,
		addressRepo,
		repository.NewErrorLogRepository(db),
		nil,
	)
	shipmentSvc.sleepFn = func(time.Duration) {}
	shipmentSvc.createFn = func(ctx context.Context, cfg *delhivery.Config, input delhivery.CreateInput) (*delhivery.CreateResult, error) {
		return &delhivery.CreateResult{Waybill: "WB-TEST-1", Status: "Success"}, nil
	}

	svc := NewPaymentService(gatewayCfg, orderRepo, paymentRepo, userRepo, repository.NewErrorLogRepository(db), orderService, shipmentSvc)
	return &paymentServiceFixture{
		db:          db,
		svc:         svc,
		shipmentSvc: shipmentSvc,
		user:        createTestUser(t, db, "asha@example.in"),
	}
}

func (f *paymentServiceFixture) seedOrder(t *testing.T, method string) (*models.Order, *models.Payment) {
	t.Helper()
	order := &models.Order{
		OrderNo:     "DS20260831120000123456",
		UserID:      f.user.ID,
		Status:      constants.OrderStatusPending,
		Currency:    "INR",
		TotalAmount: testMoney(t, "698.00"),
	}
	if method == constants.PaymentMethodOnline {
		order.IntentRef = "order_intent_1"
	}
	if err := f.db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	payment := &models.Payment{
		OrderID:   order.ID,
		Method:    method,
		Status:    constants.PaymentStatusInitiated,
		Amount:    order.TotalAmount,
		Currency:  "INR",
		IntentRef: order.IntentRef,
	}
	if err := f.db.Create(payment).Error; err != nil {
		t.Fatalf("create payment failed: %v", err)
	}
	return order, payment
}

func TestVerifyPaymentOnlineSuccess(t *testing.T) {
	f := setupPaymentServiceTest(t)
	createTestAddress(t, f.db, f.user.ID, true)
	order, _ := f.seedOrder(t, constants.PaymentMethodOnline)

	signature := razorpay.Sign(order.IntentRef, "pay_ref_1", paymentTestSecret)
	result, err := f.svc.VerifyPayment(context.Background(), VerifyPaymentInput{
		OrderID:    order.ID,
		UserID:     f.user.ID,
		IntentRef:  order.IntentRef,
		PaymentRef: "pay_ref_1",
		Signature:  signature,
	})
	if err != nil {
		t.Fatalf("verify payment failed: %v", err)
	}
	if result.Waybill != "WB-TEST-1" {
		t.Fatalf("expected waybill from carrier, got %s", result.Waybill)
	}

	var payment models.Payment
	if err := f.db.Where("order_id = ?", order.ID).First(&payment).Error; err != nil {
		t.Fatalf("load payment failed: %v", err)
	}
	if payment.Status != constants.PaymentStatusSuccess {
		t.Fatalf("expected payment success, got %s", payment.Status)
	}
	if payment.PaymentRef != "pay_ref_1" || payment.PaidAt == nil {
		t.Fatalf("expected payment ref and paid_at recorded, got %+v", payment)
	}

	var reloaded models.Order
	if err := f.db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusShipped {
		t.Fatalf("expected order shipped after verify+shipment, got %s", reloaded.Status)
	}
}

func TestVerifyPaymentInvalidSignature(t *testing.T) {
	f := setupPaymentServiceTest(t)
	createTestAddress(t, f.db, f.user.ID, true)
	order, _ := f.seedOrder(t, constants.PaymentMethodOnline)

	_, err := f.svc.VerifyPayment(context.Background(), VerifyPaymentInput{
		OrderID:    order.ID,
		UserID:     f.user.ID,
		IntentRef:  order.IntentRef,
		PaymentRef: "pay_ref_1",
		Signature:  razorpay.Sign(order.IntentRef, "pay_ref_1", "wrong-secret"),
	})
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}

	var payment models.Payment
	if err := f.db.Where("order_id = ?", order.ID).First(&payment).Error; err != nil {
		t.Fatalf("load payment failed: %v", err)
	}
	if payment.Status != constants.PaymentStatusFailed {
		t.Fatalf("expected payment marked failed, got %s", payment.Status)
	}

	var reloaded models.Order
	if err := f.db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusPending {
		t.Fatalf("expected order untouched on bad signature, got %s", reloaded.Status)
	}

	var audits int64
	if err := f.db.Model(&models.ErrorLog{}).Where("source = ?", constants.ErrorLogSourcePayment).Count(&audits).Error; err != nil {
		t.Fatalf("count audits failed: %v", err)
	}
	if audits != 1 {
		t.Fatalf("expected signature failure audited once, got %d", audits)
	}
}

func TestVerifyPaymentIdempotentAfterSuccess(t *testing.T) {
	f := setupPaymentServiceTest(t)
	createTestAddress(t, f.db, f.user.ID, true)
	order, _ := f.seedOrder(t, constants.PaymentMethodOnline)

	input := VerifyPaymentInput{
		OrderID:    order.ID,
		UserID:     f.user.ID,
		IntentRef:  order.IntentRef,
		PaymentRef: "pay_ref_1",
		Signature:  razorpay.Sign(order.IntentRef, "pay_ref_1", paymentTestSecret),
	}
	if _, err := f.svc.VerifyPayment(context.Background(), input); err != nil {
		t.Fatalf("first verify failed: %v", err)
	}

	// 已成功的支付重复回调：不再验签，不降级，运单幂等复用
	input.Signature = "garbage"
	result, err := f.svc.VerifyPayment(context.Background(), input)
	if err != nil {
		t.Fatalf("repeat verify failed: %v", err)
	}
	if result.Waybill != "WB-TEST-1" {
		t.Fatalf("expected existing waybill reused, got %s", result.Waybill)
	}

	var count int64
	if err := f.db.Model(&models.Shipment{}).Where("order_id = ?", order.ID).Count(&count).Error; err != nil {
		t.Fatalf("count shipments failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected single shipment row, got %d", count)
	}
}

func TestVerifyPaymentCOD(t *testing.T) {
	f := setupPaymentServiceTest(t)
	createTestAddress(t, f.db, f.user.ID, true)
	order, _ := f.seedOrder(t, constants.PaymentMethodCOD)

	result, err := f.svc.VerifyPayment(context.Background(), VerifyPaymentInput{
		OrderID: order.ID,
		UserID:  f.user.ID,
	})
	if err != nil {
		t.Fatalf("cod confirm failed: %v", err)
	}
	if result.Waybill == "" {
		t.Fatalf("expected shipment created for cod order")
	}

	var payment models.Payment
	if err := f.db.Where("order_id = ?", order.ID).First(&payment).Error; err != nil {
		t.Fatalf("load payment failed: %v", err)
	}
	// 货款随派送收取，确认后停在 pending
	if payment.Status != constants.PaymentStatusPending {
		t.Fatalf("expected cod payment pending, got %s", payment.Status)
	}

	var reloaded models.Order
	if err := f.db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusShipped {
		t.Fatalf("expected cod order shipped, got %s", reloaded.Status)
	}
}

func TestVerifyPaymentMissingAddress(t *testing.T) {
	f := setupPaymentServiceTest(t)
	order, _ := f.seedOrder(t, constants.PaymentMethodCOD)

	_, err := f.svc.VerifyPayment(context.Background(), VerifyPaymentInput{
		OrderID: order.ID,
		UserID:  f.user.ID,
	})
	if !errors.Is(err, ErrAddressMissing) {
		t.Fatalf("expected ErrAddressMissing, got %v", err)
	}
}

func TestVerifyPaymentCarrierFailureDoesNotRollBack(t *testing.T) {
	f := setupPaymentServiceTest(t)
	createTestAddress(t, f.db, f.user.ID, true)
	order, _ := f.seedOrder(t, constants.PaymentMethodOnline)

	f.shipmentSvc.createFn = func(ctx context.Context, cfg *delhivery.Config, input delhivery.CreateInput) (*delhivery.CreateResult, error) {
		return nil, delhivery.ErrWaybillMissing
	}

	result, err := f.svc.VerifyPayment(context.Background(), VerifyPaymentInput{
		OrderID:    order.ID,
		UserID:     f.user.ID,
		IntentRef:  order.IntentRef,
		PaymentRef: "pay_ref_1",
		Signature:  razorpay.Sign(order.IntentRef, "pay_ref_1", paymentTestSecret),
	})
	if err != nil {
		t.Fatalf("expected payment confirmation despite carrier failure, got %v", err)
	}
	if result.Waybill != "" {
		t.Fatalf("expected no waybill, got %s", result.Waybill)
	}

	var reloaded models.Order
	if err := f.db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	// 支付确认保留，订单停在 paid 等人工补发
	if reloaded.Status != constants.OrderStatusPaid {
		t.Fatalf("expected order held at paid, got %s", reloaded.Status)
	}

	var payment models.Payment
	if err := f.db.Where("order_id = ?", order.ID).First(&payment).Error; err != nil {
		t.Fatalf("load payment failed: %v", err)
	}
	if payment.Status != constants.PaymentStatusSuccess {
		t.Fatalf("expected payment success retained, got %s", payment.Status)
	}
}

func TestVerifyPaymentScopedToOwner(t *testing.T) {
	f := setupPaymentServiceTest(t)
	order, _ := f.seedOrder(t, constants.PaymentMethodCOD)
	other := createTestUser(t, f.db, "ravi@example.in")

	_, err := f.svc.VerifyPayment(context.Background(), VerifyPaymentInput{
		OrderID: order.ID,
		UserID:  other.ID,
	})
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound for foreign order, got %v", err)
	}
}

func TestVerifyPaymentMissingPaymentRow(t *testing.T) {
	f := setupPaymentServiceTest(t)
	order := &models.Order{
		OrderNo:  "DS20260831120000999999",
		UserID:   f.user.ID,
		Status:   constants.OrderStatusPending,
		Currency: "INR",
	}
	if err := f.db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	_, err := f.svc.VerifyPayment(context.Background(), VerifyPaymentInput{OrderID: order.ID, UserID: f.user.ID})
	if !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}
}
