package provider

import (
	"time"

	"github.com/stylefit-next/internal/authz"
	"github.com/stylefit-next/internal/cache"
	"github.com/stylefit-next/internal/config"
	"github.com/stylefit-next/internal/logger"
	"github.com/stylefit-next/internal/media"
	"github.com/stylefit-next/internal/models"
	"github.com/stylefit-next/internal/payment/checkout"
	"github.com/stylefit-next/internal/queue"
	"github.com/stylefit-next/internal/repository"
	"github.com/stylefit-next/internal/service"
	"github.com/stylefit-next/internal/tryon"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// 外部服务客户端
	PaymentClient *checkout.Client
	MediaClient   *media.Client
	TryOnClient   *tryon.Client

	// Repositories
	AdminRepo     repository.AdminRepository
	UserRepo      repository.UserRepository
	CategoryRepo  repository.CategoryRepository
	ProductRepo   repository.ProductRepository
	SizeStockRepo repository.SizeStockRepository
	CartRepo      repository.CartRepository
	OrderRepo     repository.OrderRepository
	WishlistRepo  repository.WishlistRepository

	// Services
	AuthzService     *authz.Service
	AuthService      *service.AuthService
	UserAuthService  *service.UserAuthService
	EmailService     *service.EmailService
	CaptchaService   *service.CaptchaService
	UploadService    *service.UploadService
	ImageService     *service.ImageService
	CategoryService  *service.CategoryService
	ProductService   *service.ProductService
	CartService      *service.CartService
	CheckoutService  *service.CheckoutService
	OrderService     *service.OrderService
	WishlistService  *service.WishlistService
	TryOnService     *service.TryOnService
	UserAdminService *service.UserAdminService
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

	// 1. 初始化外部客户端
	c.initClients()

	// 2. 初始化 Repositories
	c.initRepositories()

	// 3. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initClients() {
	cfg := c.Config
	c.PaymentClient = checkout.NewClient(checkout.Config{
		APIBaseURL:    cfg.Payment.APIBase,
		SecretKey:     cfg.Payment.SecretKey,
		WebhookSecret: cfg.Payment.WebhookSecret,
		SuccessURL:    cfg.Payment.SuccessURL,
		CancelURL:     cfg.Payment.CancelURL,
		Timeout:       time.Duration(cfg.Payment.TimeoutMS) * time.Millisecond,
	})
	c.MediaClient = media.NewClient(media.Config{
		APIBaseURL: cfg.Media.APIBase,
		CloudName:  cfg.Media.CloudName,
		APIKey:     cfg.Media.APIKey,
		APISecret:  cfg.Media.APISecret,
		Timeout:    time.Duration(cfg.Media.TimeoutMS) * time.Millisecond,
	})
	c.TryOnClient = tryon.NewClient(tryon.Config{
		Endpoint: cfg.TryOn.Endpoint,
		APIKey:   cfg.TryOn.APIKey,
		Timeout:  time.Duration(cfg.TryOn.TimeoutMS) * time.Millisecond,
	})
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.CategoryRepo = repository.NewCategoryRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.SizeStockRepo = repository.NewSizeStockRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.WishlistRepo = repository.NewWishlistRepository(db)
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

	cfg := c.Config
	c.EmailService = service.NewEmailService(&cfg.Email)
	c.CaptchaService = service.NewCaptchaService(cfg.Captcha)
	c.AuthService = service.NewAuthService(cfg, c.AdminRepo)
	c.UserAuthService = service.NewUserAuthService(cfg, c.UserRepo)
	c.UploadService = service.NewUploadService(cfg, c.MediaClient)
	c.ImageService = service.NewImageService(c.MediaClient, cfg.Media.CacheTTLSeconds)
	c.CategoryService = service.NewCategoryService(c.CategoryRepo)
	c.ProductService = service.NewProductService(c.ProductRepo, c.SizeStockRepo)
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo, cfg.Site.Currency)
	c.CheckoutService = service.NewCheckoutService(
		c.CartRepo,
		c.ProductRepo,
		c.SizeStockRepo,
		c.OrderRepo,
		c.UserRepo,
		c.PaymentClient,
		c.QueueClient,
		cfg.Site.Currency,
		cfg.Payment.PremiumProductID,
	)
	c.OrderService = service.NewOrderService(c.OrderRepo)
	c.WishlistService = service.NewWishlistService(c.WishlistRepo, c.ProductRepo)
	c.TryOnService = service.NewTryOnService(c.UserRepo, c.ProductRepo, c.QueueClient)
	c.UserAdminService = service.NewUserAdminService(c.UserRepo)
}
