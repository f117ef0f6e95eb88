package provider

import (
	"github.com/dasam-next/internal/authz"
	"github.com/dasam-next/internal/cache"
	"github.com/dasam-next/internal/config"
	"github.com/dasam-next/internal/logger"
	"github.com/dasam-next/internal/models"
	"github.com/dasam-next/internal/queue"
	"github.com/dasam-next/internal/repository"
	"github.com/dasam-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo    repository.AdminRepository
	UserRepo     repository.UserRepository
	AddressRepo  repository.AddressRepository
	ProductRepo  repository.ProductRepository
	CartRepo     repository.CartRepository
	OrderRepo    repository.OrderRepository
	PaymentRepo  repository.PaymentRepository
	ShipmentRepo repository.ShipmentRepository
	OTPRepo      repository.OTPRepository
	CouponRepo   repository.CouponRepository
	ErrorLogRepo repository.ErrorLogRepository

	// Services
	AuthzService    *authz.Service
	AuthService     *service.AuthService
	EmailService    *service.EmailService
	CaptchaService  *service.CaptchaService
	ProductService  *service.ProductService
	CartService     *service.CartService
	SessionService  *service.SessionService
	OTPService      *service.OTPService
	OrderService    *service.OrderService
	PaymentService  *service.PaymentService
	ShipmentService *service.ShipmentService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.AddressRepo = repository.NewAddressRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.PaymentRepo = repository.NewPaymentRepository(db)
	c.ShipmentRepo = repository.NewShipmentRepository(db)
	c.OTPRepo = repository.NewOTPRepository(db)
	c.CouponRepo = repository.NewCouponRepository(db)
	c.ErrorLogRepo = repository.NewErrorLogRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.AuthService = service.NewAuthService(c.Config.JWT, c.AdminRepo)
	c.ProductService = service.NewProductService(c.ProductRepo)
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo)
	c.SessionService = service.NewSessionService(c.Config.Session, c.Config.UserJWT, c.CartRepo, c.UserRepo, c.AddressRepo)
	c.OTPService = service.NewOTPService(c.Config.OTP, c.Config.UserJWT, c.OTPRepo, c.UserRepo, c.EmailService)
	c.ShipmentService = service.NewShipmentService(c.Config.Carrier, c.ShipmentRepo, c.OrderRepo, c.AddressRepo, c.ErrorLogRepo, c.QueueClient)
	c.OrderService = service.NewOrderService(c.Config.Gateway, c.OrderRepo, c.PaymentRepo, c.UserRepo, c.AddressRepo, c.CouponRepo, c.ErrorLogRepo, c.CartService, c.QueueClient)
	c.PaymentService = service.NewPaymentService(c.Config.Gateway, c.OrderRepo, c.PaymentRepo, c.UserRepo, c.ErrorLogRepo, c.OrderService, c.ShipmentService)
}
