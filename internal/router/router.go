package router

import (
	"fmt"
	"strings"

	"github.com/dasam-next/internal/cache"
	"github.com/dasam-next/internal/config"
	adminhandlers "github.com/dasam-next/internal/http/handlers/admin"
	publichandlers "github.com/dasam-next/internal/http/handlers/public"
	"github.com/dasam-next/internal/logger"
	"github.com/dasam-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "dasam"
	}
	redisClient := cache.Client()
	otpRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:otp", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "too many verification code requests",
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "too many login attempts",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口（只读目录）
		public := apiV1.Group("/public")
		{
			public.GET("/products", publicHandler.GetProducts)
			public.GET("/products/:slug", publicHandler.GetProductBySlug)
		}

		// 游客接口（会话 Cookie 驱动）
		guest := apiV1.Group("/guest")
		guest.Use(SessionMiddleware(cfg.Session, c.SessionService))
		{
			guest.GET("/session", publicHandler.GetSession)
			guest.GET("/cart", publicHandler.GetCart)
			guest.POST("/cart/items", publicHandler.AddCartItem)
			guest.DELETE("/cart/items/:product_id", publicHandler.RemoveCartItem)
		}

		// 认证接口
		auth := apiV1.Group("/auth")
		{
			auth.GET("/captcha/image", publicHandler.GetImageCaptcha)
			auth.POST("/otp/request", RateLimitMiddleware(redisClient, otpRule, KeyByIPAndJSONField("email")), publicHandler.RequestOTP)
			auth.POST("/otp/verify", publicHandler.VerifyOTP)
			auth.POST("/session/login", SessionMiddleware(cfg.Session, c.SessionService), publicHandler.SessionLogin)
		}

		// 用户接口（需鉴权）
		user := apiV1.Group("/user")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.UserRepo))
		{
			user.GET("/me", publicHandler.GetCurrentUser)
			user.GET("/orders", publicHandler.ListOrders)
			user.POST("/orders", publicHandler.CreateOrder)
			user.GET("/orders/:id", publicHandler.GetOrder)
			user.POST("/payments/verify", publicHandler.VerifyPayment)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIP), adminHandler.AdminLogin)

			// 需要鉴权的接口
			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo), AdminRBACMiddleware(c.AuthzService))
			{
				authorized.PUT("/password", adminHandler.UpdateAdminPassword)

				// 订单与运单
				authorized.GET("/orders", adminHandler.AdminListOrders)
				authorized.GET("/orders/:id", adminHandler.AdminGetOrder)
				authorized.POST("/orders/:id/shipment/retry", adminHandler.AdminRetryShipment)

				// 错误审计
				authorized.GET("/error-logs", adminHandler.ListErrorLogs)

				// SMTP 测试发送
				authorized.POST("/smtp/test", adminHandler.TestSMTPSend)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
