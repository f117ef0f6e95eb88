package public

import (
	"errors"

	handlershared "github.com/dasam-next/internal/http/handlers/shared"
	"github.com/dasam-next/internal/http/response"
	"github.com/dasam-next/internal/service"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

// 对外错误码为稳定契约，前端按码值分支，勿改写既有字面量。
const (
	codeProductNotFound     = "PRODUCT_NOT_FOUND"
	codeWeightRequired      = "WEIGHT_REQUIRED"
	codeInvalidWeight       = "INVALID_WEIGHT"
	codeInvalidProductPrice = "INVALID_PRODUCT_PRICE"
	codeUserNotFound        = "USER_NOT_FOUND"
	codeOrderNotFound       = "ORDER_NOT_FOUND"
	codePaymentNotFound     = "PAYMENT_NOT_FOUND"
	codeInvalidSignature    = "INVALID_SIGNATURE"
	codeAddressMissing      = "ADDRESS_MISSING"
	codeInvalidOTP          = "INVALID_OTP"
	codeOTPExpired          = "OTP_EXPIRED"
	codeServerError         = "SERVER_ERROR"
)

var cartErrorRules = []mappedHandlerError{
	{target: service.ErrProductNotFound, code: response.CodeBadRequest, msg: codeProductNotFound},
	{target: service.ErrVariantRequired, code: response.CodeBadRequest, msg: codeWeightRequired},
	{target: service.ErrInvalidVariant, code: response.CodeBadRequest, msg: codeInvalidWeight},
	{target: service.ErrInvalidPrice, code: response.CodeBadRequest, msg: codeInvalidProductPrice},
	{target: service.ErrInvalidQuantity, code: response.CodeBadRequest, msg: "invalid quantity"},
	{target: service.ErrCartOwnerMissing, code: response.CodeUnauthorized, msg: "cart owner missing"},
	{target: service.ErrCartConflict, code: response.CodeInternal, msg: "cart busy, please retry"},
}

var authErrorRules = []mappedHandlerError{
	{target: service.ErrUserNotFound, code: response.CodeNotFound, msg: codeUserNotFound},
	{target: service.ErrInvalidOTP, code: response.CodeBadRequest, msg: codeInvalidOTP},
	{target: service.ErrOTPExpired, code: response.CodeBadRequest, msg: codeOTPExpired},
	{target: service.ErrOTPThrottled, code: response.CodeTooManyRequests, msg: "too many verification codes requested"},
	{target: service.ErrCaptchaRequired, code: response.CodeBadRequest, msg: "captcha is required"},
	{target: service.ErrCaptchaInvalid, code: response.CodeBadRequest, msg: "captcha verification failed"},
	{target: service.ErrSessionNotFound, code: response.CodeUnauthorized, msg: "session missing"},
	{target: service.ErrSessionExpired, code: response.CodeUnauthorized, msg: "session expired"},
	{target: service.ErrInvalidEmail, code: response.CodeBadRequest, msg: "invalid email address"},
}

var orderErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidInput, code: response.CodeBadRequest, msg: "invalid order request"},
	{target: service.ErrUserNotFound, code: response.CodeNotFound, msg: codeUserNotFound},
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: codeOrderNotFound},
	{target: service.ErrProductNotFound, code: response.CodeBadRequest, msg: codeProductNotFound},
	{target: service.ErrVariantRequired, code: response.CodeBadRequest, msg: codeWeightRequired},
	{target: service.ErrInvalidVariant, code: response.CodeBadRequest, msg: codeInvalidWeight},
	{target: service.ErrInvalidPrice, code: response.CodeBadRequest, msg: codeInvalidProductPrice},
	{target: service.ErrGatewayUnavailable, code: response.CodeInternal, msg: "payment gateway unavailable"},
}

var paymentErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidInput, code: response.CodeBadRequest, msg: "invalid payment request"},
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: codeOrderNotFound},
	{target: service.ErrPaymentNotFound, code: response.CodeNotFound, msg: codePaymentNotFound},
	{target: service.ErrInvalidSignature, code: response.CodeBadRequest, msg: codeInvalidSignature},
	{target: service.ErrInvalidTransition, code: response.CodeBadRequest, msg: "order status does not allow this operation"},
	{target: service.ErrAddressMissing, code: response.CodeBadRequest, msg: codeAddressMissing},
}
