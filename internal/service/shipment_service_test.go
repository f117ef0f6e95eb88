package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dasam-next/internal/carrier/delhivery"
	"github.com/dasam-next/internal/config"
	"github.com/dasam-next/internal/constants"
	"github.com/dasam-next/internal/models"
	"github.com/dasam-next/internal/repository"

	"gorm.io/gorm"
)

type shipmentServiceFixture struct {
	db   *gorm.DB
	svc  *ShipmentService
	user *models.User
}

func setupShipmentServiceTest(t *testing.T, maxAttempts int) *shipmentServiceFixture {
	t.Helper()
	db := setupServiceDB(t)
	svc := NewShipmentService(
		config.CarrierConfig{
			BaseURL:        "https://track.delhivery.test",
			APIToken:       "dl_test_token",
			PickupLocation: "dasam-warehouse",
			MaxAttempts:    maxAttempts,
		},
		repository.NewShipmentRepository(db),
		repository.NewOrderRepository(db),
		repository.NewAddressRepository(db),
		repository.NewErrorLogRepository(db),
		nil,
	)
	svc.sleepFn = func(time.Duration) {}
	return &shipmentServiceFixture{db: db, svc: svc, user: createTestUser(t, db, "asha@example.in")}
}

func (f *shipmentServiceFixture) seedOrder(t *testing.T, orderNo string) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNo:     orderNo,
		UserID:      f.user.ID,
		Status:      constants.OrderStatusPaid,
		Currency:    "INR",
		TotalAmount: testMoney(t, "698.00"),
	}
	if err := f.db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func shipmentTestInput(t *testing.T, f *shipmentServiceFixture, order *models.Order) ShipmentCreateInput {
	t.Helper()
	addr := createTestAddress(t, f.db, f.user.ID, true)
	return ShipmentCreateInput{
		Order:         order,
		Consignee:     addr,
		ConsigneeName: f.user.Name,
		PaymentMethod: constants.PaymentMethodOnline,
	}
}

func TestShipmentCreateFirstAttempt(t *testing.T) {
	f := setupShipmentServiceTest(t, 3)
	order := f.seedOrder(t, "DS-SHIP-1")
	input := shipmentTestInput(t, f, order)

	var gotInput delhivery.CreateInput
	f.svc.createFn = func(ctx context.Context, cfg *delhivery.Config, in delhivery.CreateInput) (*delhivery.CreateResult, error) {
		gotInput = in
		return &delhivery.CreateResult{Waybill: "WB-1", Status: "Success", Raw: map[string]interface{}{"ok": true}}, nil
	}

	shipment, err := f.svc.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("create shipment failed: %v", err)
	}
	if shipment.Waybill != "WB-1" || shipment.Status != constants.ShipmentStatusCreated {
		t.Fatalf("unexpected shipment %+v", shipment)
	}
	if shipment.Attempts != 1 {
		t.Fatalf("expected 1 attempt recorded, got %d", shipment.Attempts)
	}
	if shipment.ConsigneeAddress != "221 MG Road, Near City Mall" {
		t.Fatalf("expected joined address lines, got %q", shipment.ConsigneeAddress)
	}
	if gotInput.OrderRef != order.OrderNo || gotInput.PaymentMode != "Prepaid" {
		t.Fatalf("unexpected carrier input %+v", gotInput)
	}
	if gotInput.CODAmount != "" {
		t.Fatalf("expected empty cod amount for prepaid, got %s", gotInput.CODAmount)
	}
}

func TestShipmentCreateCODCarriesAmount(t *testing.T) {
	f := setupShipmentServiceTest(t, 3)
	order := f.seedOrder(t, "DS-SHIP-COD")
	input := shipmentTestInput(t, f, order)
	input.PaymentMethod = constants.PaymentMethodCOD

	var gotInput delhivery.CreateInput
	f.svc.createFn = func(ctx context.Context, cfg *delhivery.Config, in delhivery.CreateInput) (*delhivery.CreateResult, error) {
		gotInput = in
		return &delhivery.CreateResult{Waybill: "WB-COD"}, nil
	}

	if _, err := f.svc.Create(context.Background(), input); err != nil {
		t.Fatalf("create cod shipment failed: %v", err)
	}
	if gotInput.PaymentMode != "COD" {
		t.Fatalf("expected COD payment mode, got %s", gotInput.PaymentMode)
	}
	if gotInput.CODAmount != "698.00" {
		t.Fatalf("expected cod amount 698.00, got %s", gotInput.CODAmount)
	}
}

func TestShipmentCreateRetriesWithBackoff(t *testing.T) {
	f := setupShipmentServiceTest(t, 3)
	order := f.seedOrder(t, "DS-SHIP-2")
	input := shipmentTestInput(t, f, order)

	var delays []time.Duration
	f.svc.sleepFn = func(d time.Duration) { delays = append(delays, d) }

	calls := 0
	f.svc.createFn = func(ctx context.Context, cfg *delhivery.Config, in delhivery.CreateInput) (*delhivery.CreateResult, error) {
		calls++
		if calls < 3 {
			return nil, delhivery.ErrRequestFailed
		}
		return &delhivery.CreateResult{Waybill: "WB-2"}, nil
	}

	shipment, err := f.svc.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("create with retries failed: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 carrier calls, got %d", calls)
	}
	if shipment.Attempts != 3 {
		t.Fatalf("expected attempts 3 recorded, got %d", shipment.Attempts)
	}
	if len(delays) != 2 {
		t.Fatalf("expected 2 backoff sleeps, got %d", len(delays))
	}
	// 退避随尝试序号递增
	if delays[1] <= delays[0] {
		t.Fatalf("expected increasing backoff, got %v then %v", delays[0], delays[1])
	}
}

func TestShipmentCreateExhaustsRetries(t *testing.T) {
	f := setupShipmentServiceTest(t, 3)
	order := f.seedOrder(t, "DS-SHIP-3")
	input := shipmentTestInput(t, f, order)

	calls := 0
	f.svc.createFn = func(ctx context.Context, cfg *delhivery.Config, in delhivery.CreateInput) (*delhivery.CreateResult, error) {
		calls++
		return nil, delhivery.ErrRequestFailed
	}

	_, err := f.svc.Create(context.Background(), input)
	if !errors.Is(err, ErrShipmentFailed) {
		t.Fatalf("expected ErrShipmentFailed, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}

	// 每次失败都留审计记录
	var count int64
	if err := f.db.Model(&models.ErrorLog{}).Where("source = ?", constants.ErrorLogSourceShipment).Count(&count).Error; err != nil {
		t.Fatalf("count error logs failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 error log rows, got %d", count)
	}

	var shipments int64
	if err := f.db.Model(&models.Shipment{}).Count(&shipments).Error; err != nil {
		t.Fatalf("count shipments failed: %v", err)
	}
	if shipments != 0 {
		t.Fatalf("expected no shipment row after exhaustion, got %d", shipments)
	}
}

func TestShipmentCreateIdempotentPerOrder(t *testing.T) {
	f := setupShipmentServiceTest(t, 3)
	order := f.seedOrder(t, "DS-SHIP-4")
	input := shipmentTestInput(t, f, order)

	calls := 0
	f.svc.createFn = func(ctx context.Context, cfg *delhivery.Config, in delhivery.CreateInput) (*delhivery.CreateResult, error) {
		calls++
		return &delhivery.CreateResult{Waybill: "WB-4"}, nil
	}

	first, err := f.svc.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	second, err := f.svc.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("second create failed: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected carrier called once, got %d", calls)
	}
	if second.ID != first.ID || second.Waybill != first.Waybill {
		t.Fatalf("expected existing shipment reused, got %+v vs %+v", second, first)
	}
}

func TestShipmentCreateValidation(t *testing.T) {
	f := setupShipmentServiceTest(t, 3)
	order := f.seedOrder(t, "DS-SHIP-5")

	if _, err := f.svc.Create(context.Background(), ShipmentCreateInput{Consignee: &models.UserAddress{}}); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
	if _, err := f.svc.Create(context.Background(), ShipmentCreateInput{Order: order}); !errors.Is(err, ErrAddressMissing) {
		t.Fatalf("expected ErrAddressMissing, got %v", err)
	}
}

func TestShipmentCreateCarrierDisabled(t *testing.T) {
	f := setupShipmentServiceTest(t, 3)
	f.svc.cfg.APIToken = ""
	order := f.seedOrder(t, "DS-SHIP-6")
	input := shipmentTestInput(t, f, order)

	if _, err := f.svc.Create(context.Background(), input); !errors.Is(err, ErrCarrierDisabled) {
		t.Fatalf("expected ErrCarrierDisabled, got %v", err)
	}
}

func TestResolveConsigneeFallsBackToLatestActive(t *testing.T) {
	f := setupShipmentServiceTest(t, 3)

	// 无任何地址
	if _, err := f.svc.ResolveConsignee(f.user.ID); !errors.Is(err, ErrAddressMissing) {
		t.Fatalf("expected ErrAddressMissing, got %v", err)
	}

	// 只有非默认地址：回落到最近创建的有效地址
	nonDefault := createTestAddress(t, f.db, f.user.ID, false)
	addr, err := f.svc.ResolveConsignee(f.user.ID)
	if err != nil {
		t.Fatalf("resolve fallback failed: %v", err)
	}
	if addr.ID != nonDefault.ID {
		t.Fatalf("expected latest active address %d, got %d", nonDefault.ID, addr.ID)
	}

	// 出现默认地址后优先默认
	def := createTestAddress(t, f.db, f.user.ID, true)
	addr, err = f.svc.ResolveConsignee(f.user.ID)
	if err != nil {
		t.Fatalf("resolve default failed: %v", err)
	}
	if addr.ID != def.ID {
		t.Fatalf("expected default address %d, got %d", def.ID, addr.ID)
	}
}

func TestShipmentTrackFallsBackToLocalStatus(t *testing.T) {
	f := setupShipmentServiceTest(t, 3)
	order := f.seedOrder(t, "DS-SHIP-7")
	shipment := &models.Shipment{
		OrderID: order.ID,
		Waybill: "WB-7",
		Status:  constants.ShipmentStatusInTransit,
	}
	if err := f.db.Create(shipment).Error; err != nil {
		t.Fatalf("create shipment failed: %v", err)
	}

	f.svc.trackFn = func(ctx context.Context, cfg *delhivery.Config, waybill string) (*delhivery.TrackResult, error) {
		return nil, delhivery.ErrRequestFailed
	}

	status, err := f.svc.Track(context.Background(), "WB-7")
	if err != nil {
		t.Fatalf("expected local fallback, got %v", err)
	}
	if status != constants.ShipmentStatusInTransit {
		t.Fatalf("expected local status in_transit, got %s", status)
	}

	// 本地也查无此单：终态失败
	if _, err := f.svc.Track(context.Background(), "WB-UNKNOWN"); !errors.Is(err, ErrTrackingFailed) {
		t.Fatalf("expected ErrTrackingFailed, got %v", err)
	}
}

func TestShipmentSyncTracking(t *testing.T) {
	f := setupShipmentServiceTest(t, 3)
	order := f.seedOrder(t, "DS-SHIP-8")
	shipment := &models.Shipment{
		OrderID: order.ID,
		Waybill: "WB-8",
		Status:  constants.ShipmentStatusCreated,
	}
	if err := f.db.Create(shipment).Error; err != nil {
		t.Fatalf("create shipment failed: %v", err)
	}

	f.svc.trackFn = func(ctx context.Context, cfg *delhivery.Config, waybill string) (*delhivery.TrackResult, error) {
		return &delhivery.TrackResult{Status: "Delivered"}, nil
	}
	if err := f.svc.SyncTracking(context.Background(), shipment.ID, "WB-8"); err != nil {
		t.Fatalf("sync tracking failed: %v", err)
	}

	var reloaded models.Shipment
	if err := f.db.First(&reloaded, shipment.ID).Error; err != nil {
		t.Fatalf("reload shipment failed: %v", err)
	}
	if reloaded.Status != constants.ShipmentStatusDelivered {
		t.Fatalf("expected delivered, got %s", reloaded.Status)
	}

	// 未识别的承运商状态不回写
	f.svc.trackFn = func(ctx context.Context, cfg *delhivery.Config, waybill string) (*delhivery.TrackResult, error) {
		return &delhivery.TrackResult{Status: "Some Odd State"}, nil
	}
	if err := f.svc.SyncTracking(context.Background(), shipment.ID, "WB-8"); err != nil {
		t.Fatalf("sync with odd status failed: %v", err)
	}
	if err := f.db.First(&reloaded, shipment.ID).Error; err != nil {
		t.Fatalf("reload shipment failed: %v", err)
	}
	if reloaded.Status != constants.ShipmentStatusDelivered {
		t.Fatalf("expected status unchanged, got %s", reloaded.Status)
	}
}

func TestListOrdersWithTrackingDegradesPerItem(t *testing.T) {
	f := setupShipmentServiceTest(t, 3)

	okOrder := f.seedOrder(t, "DS-SHIP-9A")
	badOrder := f.seedOrder(t, "DS-SHIP-9B")
	f.seedOrder(t, "DS-SHIP-9C")
	if err := f.db.Create(&models.Shipment{OrderID: okOrder.ID, Waybill: "WB-OK", Status: constants.ShipmentStatusCreated}).Error; err != nil {
		t.Fatalf("create ok shipment failed: %v", err)
	}
	if err := f.db.Create(&models.Shipment{OrderID: badOrder.ID, Waybill: "WB-BAD", Status: constants.ShipmentStatusInTransit}).Error; err != nil {
		t.Fatalf("create bad shipment failed: %v", err)
	}

	f.svc.trackFn = func(ctx context.Context, cfg *delhivery.Config, waybill string) (*delhivery.TrackResult, error) {
		if waybill == "WB-OK" {
			return &delhivery.TrackResult{Status: "In Transit"}, nil
		}
		return nil, delhivery.ErrRequestFailed
	}

	results, total, err := f.svc.ListOrdersWithTracking(context.Background(), repository.OrderListFilter{
		UserID: f.user.ID,
	})
	if err != nil {
		t.Fatalf("list with tracking failed: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 3 orders, got %d", total)
	}

	byOrderNo := make(map[string]OrderWithTracking, len(results))
	for _, item := range results {
		byOrderNo[item.Order.OrderNo] = item
	}
	if got := byOrderNo["DS-SHIP-9A"].TrackingStatus; got != "In Transit" {
		t.Fatalf("expected live status for ok order, got %q", got)
	}
	// 承运商查询失败的单回落到本地持久化状态
	if got := byOrderNo["DS-SHIP-9B"].TrackingStatus; got != constants.ShipmentStatusInTransit {
		t.Fatalf("expected local fallback for bad order, got %q", got)
	}
	if got := byOrderNo["DS-SHIP-9C"].TrackingStatus; got != "" {
		t.Fatalf("expected empty status for order without shipment, got %q", got)
	}
}

func TestMapCarrierStatus(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Delivered", constants.ShipmentStatusDelivered},
		{"delivered", constants.ShipmentStatusDelivered},
		{"In Transit", constants.ShipmentStatusInTransit},
		{"Dispatched", constants.ShipmentStatusInTransit},
		{"Picked Up", constants.ShipmentStatusInTransit},
		{"Manifested", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := mapCarrierStatus(tc.in); got != tc.want {
			t.Errorf("mapCarrierStatus(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
