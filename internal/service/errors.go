package service

import "errors"

// 业务层哨兵错误，handler 层据此映射响应码
var (
	ErrNotFound            = errors.New("record not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUserDisabled        = errors.New("user disabled")
	ErrEmailExists         = errors.New("email already registered")
	ErrInvalidEmail        = errors.New("invalid email")
	ErrInvalidPassword     = errors.New("password does not meet policy")
	ErrSlugExists          = errors.New("slug already exists")
	ErrProductPriceInvalid = errors.New("product price invalid")
	ErrCategoryInUse       = errors.New("category has products")
	ErrProductNotAvailable = errors.New("product not available")
	ErrInvalidSize         = errors.New("invalid size for product")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrCartEmpty           = errors.New("cart is empty")
	ErrCartItemNotFound    = errors.New("cart item not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderStatusInvalid  = errors.New("order status does not allow this operation")
	ErrPaymentSession      = errors.New("create payment session failed")
	ErrTrialAlreadyUsed    = errors.New("free trial already used")
	ErrTryOnUnavailable    = errors.New("try-on generation unavailable")
	ErrTrialNotAvailable   = errors.New("product not available for trial")
	ErrAIPermissionDenied  = errors.New("ai features not enabled for user")
	ErrWishlistExists      = errors.New("product already in wishlist")
	ErrCaptchaInvalid      = errors.New("captcha invalid")
	ErrCaptchaDisabled     = errors.New("captcha disabled")
	ErrEmailNotConfigured  = errors.New("email service not configured")
	ErrUploadInvalid       = errors.New("invalid upload file")
	ErrPersonImageMissing  = errors.New("person image not set")
	ErrProfileEmpty        = errors.New("no profile fields to update")
)
