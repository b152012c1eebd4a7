package constants

// 订单状态常量
const (
	OrderStatusPending    = "PENDING"
	OrderStatusProcessing = "PROCESSING"
	OrderStatusShipped    = "SHIPPED"
	OrderStatusDelivered  = "DELIVERED"
	OrderStatusCancelled  = "CANCELLED"
)

// 支付事件常量
const (
	PaymentEventCompleted = "checkout.session.completed"
	PaymentEventExpired   = "checkout.session.expired"
	PaymentEventFailed    = "payment_intent.payment_failed"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 管理员状态常量
const (
	AdminStatusActive   = "active"
	AdminStatusDisabled = "disabled"
)

// 商品库存状态常量
const (
	ProductStockStatusInStock    = "in_stock"
	ProductStockStatusLowStock   = "low_stock"
	ProductStockStatusOutOfStock = "out_of_stock"
)

// 验证码校验场景常量
const (
	CaptchaSceneAdminLogin = "admin_login"
)

// 队列常量
const (
	QueueDefault         = "default"
	TaskOrderStatusEmail = "order:status_email"
	TaskTryOnGenerate    = "tryon:generate"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "sf"
)

// 币种常量
const (
	SiteCurrencyDefault = "USD"
)

// 试穿图片命名常量
const (
	TryOnImageFolder = "tryon"
)
