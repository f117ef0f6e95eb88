package service

import "errors"

// 服务层业务错误
// 统一以 errors.Is 判定，由 handler 层映射为对外错误码。
var (
	// 通用
	ErrInvalidInput = errors.New("invalid input")
	ErrUserNotFound = errors.New("user not found")

	// 购物车
	ErrProductNotFound  = errors.New("product not found")
	ErrVariantRequired  = errors.New("variant required")
	ErrInvalidVariant   = errors.New("invalid variant")
	ErrInvalidPrice     = errors.New("invalid product price")
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrCartOwnerMissing = errors.New("cart owner missing")
	ErrCartConflict     = errors.New("cart concurrent modification")

	// 会话
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")

	// OTP
	ErrInvalidOTP      = errors.New("invalid otp")
	ErrOTPExpired      = errors.New("otp expired")
	ErrOTPThrottled    = errors.New("otp issue throttled")
	ErrCaptchaRequired      = errors.New("captcha required")
	ErrCaptchaInvalid       = errors.New("captcha invalid")
	ErrCaptchaConfigInvalid = errors.New("captcha config invalid")

	// 订单与支付
	ErrOrderNotFound      = errors.New("order not found")
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrInvalidSignature   = errors.New("invalid payment signature")
	ErrInvalidTransition  = errors.New("invalid order status transition")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	// 运单
	ErrAddressMissing  = errors.New("shipping address missing")
	ErrShipmentFailed  = errors.New("shipment creation failed")
	ErrTrackingFailed  = errors.New("shipment tracking failed")
	ErrCarrierDisabled = errors.New("carrier not configured")

	// 管理端
	ErrAdminNotFound      = errors.New("admin not found")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// 邮件
	ErrEmailServiceDisabled      = errors.New("email service disabled")
	ErrEmailServiceNotConfigured = errors.New("email service not configured")
	ErrInvalidEmail              = errors.New("invalid email address")
)
