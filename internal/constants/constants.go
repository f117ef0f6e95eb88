package constants

// 订单状态常量
const (
	OrderStatusPending      = "pending"
	OrderStatusPaid         = "paid"
	OrderStatusCodConfirmed = "cod_confirmed"
	OrderStatusShipped      = "shipped"
)

// 支付方式常量
const (
	PaymentMethodOnline = "ONLINE"
	PaymentMethodCOD    = "COD"
)

// 支付状态常量
const (
	PaymentStatusInitiated = "initiated"
	PaymentStatusPending   = "pending"
	PaymentStatusSuccess   = "success"
	PaymentStatusFailed    = "failed"
)

// 运单状态常量
const (
	ShipmentStatusCreated   = "created"
	ShipmentStatusInTransit = "in_transit"
	ShipmentStatusDelivered = "delivered"
	ShipmentStatusFailed    = "failed"
)

// 运单创建重试常量
const (
	ShipmentMaxAttempts = 3
)

// 会话常量
const (
	SessionCookieName = "dasam_session"
	SessionTTLHours   = 24
)

// 一次性验证码常量
const (
	OTPCodeDigits        = 6
	OTPExpireMinutes     = 5
	OTPIssueMaxPerWindow = 5
)

// 验证码提供方常量
const (
	CaptchaProviderNone  = "none"
	CaptchaProviderImage = "image"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 优惠券类型常量
const (
	CouponTypeFixed   = "fixed"
	CouponTypePercent = "percent"
)

// 错误日志来源常量
const (
	ErrorLogSourceOrder    = "order"
	ErrorLogSourcePayment  = "payment"
	ErrorLogSourceShipment = "shipment"
)

// 队列常量
const (
	QueueDefault           = "default"
	TaskOrderStatusEmail   = "order:status_email"
	TaskShipmentAlertEmail = "shipment:operator_alert"
	TaskShipmentTrackSync  = "shipment:track_sync"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "dasam"
)

// 币种常量
const (
	SiteCurrencyDefault = "INR"
	// CurrencyMinorUnits 主币种到最小货币单位的换算倍数
	CurrencyMinorUnits = 100
)
