package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dasam-next/internal/cache"
	"github.com/dasam-next/internal/carrier/delhivery"
	"github.com/dasam-next/internal/config"
	"github.com/dasam-next/internal/constants"
	"github.com/dasam-next/internal/logger"
	"github.com/dasam-next/internal/models"
	"github.com/dasam-next/internal/queue"
	"github.com/dasam-next/internal/repository"
)

// 承运商支付模式取值
const (
	carrierModePrepaid = "Prepaid"
	carrierModeCOD     = "COD"
)

// ShipmentService 运单协调服务
// 创建有界重试、失败告警；查询失败回落到本地最近状态，不向终端用户透传承运商故障。
type ShipmentService struct {
	cfg          config.CarrierConfig
	shipmentRepo repository.ShipmentRepository
	orderRepo    repository.OrderRepository
	addressRepo  repository.AddressRepository
	errorLogRepo repository.ErrorLogRepository
	queueClient  *queue.Client

	// 承运商调用与退避等待以函数字段注入，测试时可替换
	createFn func(ctx context.Context, cfg *delhivery.Config, input delhivery.CreateInput) (*delhivery.CreateResult, error)
	trackFn  func(ctx context.Context, cfg *delhivery.Config, waybill string) (*delhivery.TrackResult, error)
	sleepFn  func(d time.Duration)
}

// NewShipmentService 创建运单服务
func NewShipmentService(
	cfg config.CarrierConfig,
	shipmentRepo repository.ShipmentRepository,
	orderRepo repository.OrderRepository,
	addressRepo repository.AddressRepository,
	errorLogRepo repository.ErrorLogRepository,
	queueClient *queue.Client,
) *ShipmentService {
	return &ShipmentService{
		cfg:          cfg,
		shipmentRepo: shipmentRepo,
		orderRepo:    orderRepo,
		addressRepo:  addressRepo,
		errorLogRepo: errorLogRepo,
		queueClient:  queueClient,
		createFn:     delhivery.CreateShipment,
		trackFn:      delhivery.TrackShipment,
		sleepFn:      time.Sleep,
	}
}

// ShipmentCreateInput 创建运单输入
type ShipmentCreateInput struct {
	Order         *models.Order
	Consignee     *models.UserAddress
	ConsigneeName string
	PaymentMethod string // ONLINE / COD
}

func (s *ShipmentService) maxAttempts() int {
	if s.cfg.MaxAttempts > 0 {
		return s.cfg.MaxAttempts
	}
	return constants.ShipmentMaxAttempts
}

func (s *ShipmentService) retryBaseDelay() time.Duration {
	if s.cfg.RetryBaseDelayMS > 0 {
		return time.Duration(s.cfg.RetryBaseDelayMS) * time.Millisecond
	}
	return 500 * time.Millisecond
}

// ResolveConsignee 解析收货地址：默认地址优先，缺失时回落到最近创建的有效地址
func (s *ShipmentService) ResolveConsignee(userID uint) (*models.UserAddress, error) {
	addr, err := s.addressRepo.GetDefaultByUser(userID)
	if err != nil {
		return nil, err
	}
	if addr != nil {
		return addr, nil
	}
	addr, err = s.addressRepo.GetLatestActiveByUser(userID)
	if err != nil {
		return nil, err
	}
	if addr == nil {
		return nil, ErrAddressMissing
	}
	return addr, nil
}

// Create 创建运单
// 同订单已有运单直接返回既有记录（幂等）。承运商失败按递增退避重试，
// 次数用尽后推送运营告警并返回终态失败，由调用方决定订单层处理。
func (s *ShipmentService) Create(ctx context.Context, input ShipmentCreateInput) (*models.Shipment, error) {
	order := input.Order
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if input.Consignee == nil {
		return nil, ErrAddressMissing
	}

	existing, err := s.shipmentRepo.GetByOrderID(order.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	carrierCfg := s.carrierConfig()
	if err := delhivery.ValidateConfig(carrierCfg); err != nil {
		logger.Errorw("carrier_config_invalid", "error", err)
		return nil, ErrCarrierDisabled
	}

	createInput := s.buildCreateInput(input)

	max := s.maxAttempts()
	var lastErr error
	for attempt := 1; attempt <= max; attempt++ {
		result, err := s.createFn(ctx, carrierCfg, createInput)
		if err == nil {
			shipment := &models.Shipment{
				OrderID:             order.ID,
				Waybill:             result.Waybill,
				Status:              constants.ShipmentStatusCreated,
				ConsigneeName:       input.ConsigneeName,
				ConsigneePhone:      input.Consignee.Phone,
				ConsigneeAddress:    joinAddressLines(input.Consignee),
				ConsigneePostalCode: input.Consignee.PostalCode,
				ConsigneeCountry:    input.Consignee.Country,
				Attempts:            attempt,
				LastCarrierResponse: models.JSON(result.Raw),
			}
			if err := s.shipmentRepo.Create(shipment); err != nil {
				// 并发校验竞速时撞 order_id 唯一约束，读回先到者的运单
				if winner, getErr := s.shipmentRepo.GetByOrderID(order.ID); getErr == nil && winner != nil {
					return winner, nil
				}
				return nil, err
			}
			logger.Infow("shipment_created",
				"order_id", order.ID,
				"order_no", order.OrderNo,
				"waybill", shipment.Waybill,
				"attempt", attempt,
			)
			s.enqueueTrackSync(shipment)
			return shipment, nil
		}

		lastErr = err
		isFinal := attempt == max
		logger.Warnw("shipment_create_attempt_failed",
			"order_id", order.ID,
			"order_no", order.OrderNo,
			"attempt", attempt,
			"max", max,
			"final", isFinal,
			"error", err,
		)
		s.recordFailure(order, attempt, err)
		s.enqueueOperatorAlert(order, attempt, max, isFinal, err)

		if !isFinal {
			s.sleepFn(s.retryBaseDelay() * time.Duration(attempt))
		}
	}

	logger.Errorw("shipment_create_exhausted",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"attempts", max,
		"error", lastErr,
	)
	return nil, ErrShipmentFailed
}

// Track 查询运单实时状态
// 成功结果短缓存；失败回落到本地最近持久化状态。
func (s *ShipmentService) Track(ctx context.Context, waybill string) (string, error) {
	waybill = strings.TrimSpace(waybill)
	if waybill == "" {
		return "", ErrTrackingFailed
	}

	cacheKey := "shipment:track:" + waybill
	var cached string
	if hit, err := cache.GetJSON(ctx, cacheKey, &cached); err == nil && hit && cached != "" {
		return cached, nil
	}

	result, err := s.trackFn(ctx, s.carrierConfig(), waybill)
	if err != nil {
		logger.Warnw("shipment_track_failed", "waybill", waybill, "error", err)
		if shipment, getErr := s.shipmentRepo.GetByWaybill(waybill); getErr == nil && shipment != nil {
			return shipment.Status, nil
		}
		return "", ErrTrackingFailed
	}

	ttl := time.Duration(s.cfg.TrackCacheSeconds) * time.Second
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	if err := cache.SetJSON(ctx, cacheKey, result.Status, ttl); err != nil {
		logger.Debugw("shipment_track_cache_failed", "waybill", waybill, "error", err)
	}
	return result.Status, nil
}

// SyncTracking 将承运商实时状态刷回本地运单（后台对账路径）
func (s *ShipmentService) SyncTracking(ctx context.Context, shipmentID uint, waybill string) error {
	result, err := s.trackFn(ctx, s.carrierConfig(), waybill)
	if err != nil {
		return err
	}
	status := mapCarrierStatus(result.Status)
	if status == "" {
		return nil
	}
	return s.shipmentRepo.UpdateStatus(shipmentID, status)
}

// OrderWithTracking 带实时物流状态的订单
type OrderWithTracking struct {
	Order          models.Order `json:"order"`
	TrackingStatus string       `json:"tracking_status,omitempty"`
}

// ListOrdersWithTracking 用户订单列表并发补充实时物流状态
// 单个运单查询失败只降级该条（回落本地状态），不阻断整批返回。
func (s *ShipmentService) ListOrdersWithTracking(ctx context.Context, filter repository.OrderListFilter) ([]OrderWithTracking, int64, error) {
	orders, total, err := s.orderRepo.ListByUser(filter)
	if err != nil {
		return nil, 0, err
	}

	results := make([]OrderWithTracking, len(orders))
	var wg sync.WaitGroup
	for i := range orders {
		results[i] = OrderWithTracking{Order: orders[i]}
		shipment := orders[i].Shipment
		if shipment == nil || strings.TrimSpace(shipment.Waybill) == "" {
			continue
		}
		wg.Add(1)
		go func(i int, waybill, fallback string) {
			defer wg.Done()
			status, err := s.Track(ctx, waybill)
			if err != nil || status == "" {
				results[i].TrackingStatus = fallback
				return
			}
			results[i].TrackingStatus = status
		}(i, shipment.Waybill, shipment.Status)
	}
	wg.Wait()

	return results, total, nil
}

func (s *ShipmentService) buildCreateInput(input ShipmentCreateInput) delhivery.CreateInput {
	order := input.Order
	mode := carrierModePrepaid
	codAmount := ""
	if strings.EqualFold(input.PaymentMethod, constants.PaymentMethodCOD) {
		mode = carrierModeCOD
		codAmount = order.TotalAmount.String()
	}
	return delhivery.CreateInput{
		OrderRef:    order.OrderNo,
		PaymentMode: mode,
		TotalAmount: order.TotalAmount.String(),
		CODAmount:   codAmount,
		Name:        input.ConsigneeName,
		Address:     joinAddressLines(input.Consignee),
		City:        input.Consignee.City,
		State:       input.Consignee.State,
		PostalCode:  input.Consignee.PostalCode,
		Country:     input.Consignee.Country,
		Phone:       input.Consignee.Phone,
	}
}

func (s *ShipmentService) carrierConfig() *delhivery.Config {
	cfg := &delhivery.Config{
		BaseURL:        s.cfg.BaseURL,
		APIToken:       s.cfg.APIToken,
		PickupLocation: s.cfg.PickupLocation,
		TimeoutMS:      s.cfg.TimeoutMS,
	}
	cfg.Normalize()
	return cfg
}

// recordFailure 写错误审计，失败不影响主流程
func (s *ShipmentService) recordFailure(order *models.Order, attempt int, cause error) {
	if s.errorLogRepo == nil {
		return
	}
	entry := &models.ErrorLog{
		Source:  constants.ErrorLogSourceShipment,
		Code:    "SHIPMENT_CREATE_FAILED",
		Message: cause.Error(),
		Detail: models.JSON{
			"order_id": order.ID,
			"order_no": order.OrderNo,
			"attempt":  attempt,
		},
	}
	if err := s.errorLogRepo.Create(entry); err != nil {
		logger.Debugw("error_log_write_failed", "error", err)
	}
}

func (s *ShipmentService) enqueueOperatorAlert(order *models.Order, attempt, max int, isFinal bool, cause error) {
	if s.queueClient == nil {
		return
	}
	err := s.queueClient.EnqueueShipmentAlertEmail(queue.ShipmentAlertEmailPayload{
		OrderID: order.ID,
		OrderNo: order.OrderNo,
		Attempt: attempt,
		Max:     max,
		IsFinal: isFinal,
		Remark:  cause.Error(),
	})
	if err != nil {
		logger.Warnw("shipment_alert_enqueue_failed", "order_id", order.ID, "error", err)
	}
}

// enqueueTrackSync 延迟入队一次后台状态对账
func (s *ShipmentService) enqueueTrackSync(shipment *models.Shipment) {
	if s.queueClient == nil || shipment == nil || strings.TrimSpace(shipment.Waybill) == "" {
		return
	}
	err := s.queueClient.EnqueueShipmentTrackSync(queue.ShipmentTrackSyncPayload{
		ShipmentID: shipment.ID,
		Waybill:    shipment.Waybill,
	}, time.Hour)
	if err != nil {
		logger.Warnw("shipment_track_sync_enqueue_failed", "shipment_id", shipment.ID, "error", err)
	}
}

// joinAddressLines 地址行合并为承运商单字段地址
func joinAddressLines(addr *models.UserAddress) string {
	parts := make([]string, 0, 2)
	if line := strings.TrimSpace(addr.Line1); line != "" {
		parts = append(parts, line)
	}
	if line := strings.TrimSpace(addr.Line2); line != "" {
		parts = append(parts, line)
	}
	return strings.Join(parts, ", ")
}

// mapCarrierStatus 承运商状态映射为本地运单状态
func mapCarrierStatus(status string) string {
	switch {
	case status == "":
		return ""
	case strings.EqualFold(status, "Delivered"):
		return constants.ShipmentStatusDelivered
	case strings.Contains(strings.ToLower(status), "transit"),
		strings.Contains(strings.ToLower(status), "dispatched"),
		strings.Contains(strings.ToLower(status), "picked"):
		return constants.ShipmentStatusInTransit
	default:
		return ""
	}
}
