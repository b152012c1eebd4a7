package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stylefit-next/internal/constants"
	"github.com/stylefit-next/internal/models"
	"github.com/stylefit-next/internal/payment/checkout"
	"github.com/stylefit-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fakePaymentGateway struct {
	lastInput checkout.SessionInput
	session   *checkout.Session
	err       error
	calls     int
}

func (g *fakePaymentGateway) CreateSession(ctx context.Context, input checkout.SessionInput) (*checkout.Session, error) {
	g.calls++
	g.lastInput = input
	if g.err != nil {
		return nil, g.err
	}
	return g.session, nil
}

type checkoutTestEnv struct {
	svc     *CheckoutService
	gateway *fakePaymentGateway
	db      *gorm.DB
}

func newCheckoutServiceTest(t *testing.T, premiumProductID uint) *checkoutTestEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.SizeStock{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		t.Fatalf("migrate checkout tables failed: %v", err)
	}
	gateway := &fakePaymentGateway{
		session: &checkout.Session{
			SessionID:       "cs_test_123",
			PaymentIntentID: "pi_test_456",
			URL:             "https://pay.example.com/cs_test_123",
			Status:          "open",
		},
	}
	svc := NewCheckoutService(
		repository.NewCartRepository(db),
		repository.NewProductRepository(db),
		repository.NewSizeStockRepository(db),
		repository.NewOrderRepository(db),
		repository.NewUserRepository(db),
		gateway,
		nil,
		"USD",
		premiumProductID,
	)
	return &checkoutTestEnv{svc: svc, gateway: gateway, db: db}
}

func (env *checkoutTestEnv) seedUser(t *testing.T, email string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		PasswordHash: "x",
		Status:       constants.UserStatusActive,
	}
	if err := env.db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func (env *checkoutTestEnv) seedProduct(t *testing.T, slug string, price int64, stock int, sizeQty map[string]int) *models.Product {
	t.Helper()
	sizes := make(models.StringArray, 0, len(sizeQty))
	for size := range sizeQty {
		sizes = append(sizes, size)
	}
	product := &models.Product{
		CategoryID:  1,
		Slug:        slug,
		Title:       strings.ReplaceAll(slug, "-", " "),
		PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(price)),
		Stock:       stock,
		Sizes:       sizes,
		IsActive:    true,
	}
	if err := env.db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	for size, qty := range sizeQty {
		row := models.SizeStock{ProductID: product.ID, Size: size, Quantity: qty}
		if err := env.db.Create(&row).Error; err != nil {
			t.Fatalf("create size stock failed: %v", err)
		}
	}
	return product
}

func (env *checkoutTestEnv) seedCartItem(t *testing.T, userID, productID uint, size string, quantity int) {
	t.Helper()
	item := models.CartItem{UserID: userID, ProductID: productID, Size: size, Quantity: quantity}
	if err := env.db.Create(&item).Error; err != nil {
		t.Fatalf("create cart item failed: %v", err)
	}
}

func TestCheckoutCreateSessionHappyPath(t *testing.T) {
	env := newCheckoutServiceTest(t, 0)
	user := env.seedUser(t, "shopper@example.com")
	dress := env.seedProduct(t, "linen-wrap-dress", 89, 10, map[string]int{"M": 5})
	tee := env.seedProduct(t, "organic-cotton-tee", 29, 20, nil)
	env.seedCartItem(t, user.ID, dress.ID, "M", 2)
	env.seedCartItem(t, user.ID, tee.ID, "", 1)

	result, err := env.svc.CreateSession(context.Background(), user.ID, models.JSON{"line1": "1 Main St"})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	if result.CheckoutURL != "https://pay.example.com/cs_test_123" {
		t.Fatalf("unexpected checkout url: %s", result.CheckoutURL)
	}
	order := result.Order
	if order.Status != constants.OrderStatusPending {
		t.Fatalf("order status want PENDING got %s", order.Status)
	}
	if !strings.HasPrefix(order.OrderNo, "SF") {
		t.Fatalf("order no should carry SF prefix, got %s", order.OrderNo)
	}
	if order.TotalAmount.Decimal.Cmp(decimal.NewFromInt(207)) != 0 {
		t.Fatalf("order total want 207 got %s", order.TotalAmount.String())
	}
	if order.CheckoutSessionID != "cs_test_123" || order.PaymentIntentID != "pi_test_456" {
		t.Fatalf("session ids not persisted on order: %+v", order)
	}

	if env.gateway.lastInput.CustomerEmail != "shopper@example.com" {
		t.Fatalf("gateway input email mismatch: %+v", env.gateway.lastInput)
	}
	if len(env.gateway.lastInput.Items) != 2 {
		t.Fatalf("gateway line items want 2 got %d", len(env.gateway.lastInput.Items))
	}
	var sizedName string
	for _, item := range env.gateway.lastInput.Items {
		if strings.Contains(item.Name, "(M)") {
			sizedName = item.Name
		}
	}
	if sizedName == "" {
		t.Fatalf("sized line item should carry size suffix: %+v", env.gateway.lastInput.Items)
	}

	// 发起结账只校验不预占库存，购物车也保留到支付完成
	var cartCount int64
	if err := env.db.Model(&models.CartItem{}).Where("user_id = ?", user.ID).Count(&cartCount).Error; err != nil {
		t.Fatalf("count cart failed: %v", err)
	}
	if cartCount != 2 {
		t.Fatalf("cart should survive checkout, got %d rows", cartCount)
	}
	var sizeRow models.SizeStock
	if err := env.db.Where("product_id = ? AND size = ?", dress.ID, "M").First(&sizeRow).Error; err != nil {
		t.Fatalf("load size stock failed: %v", err)
	}
	if sizeRow.Quantity != 5 {
		t.Fatalf("stock should be untouched before payment, got %d", sizeRow.Quantity)
	}
}

func TestCheckoutCreateSessionGuards(t *testing.T) {
	env := newCheckoutServiceTest(t, 0)
	user := env.seedUser(t, "shopper@example.com")

	if _, err := env.svc.CreateSession(context.Background(), user.ID, nil); !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("empty cart want ErrCartEmpty got %v", err)
	}

	dress := env.seedProduct(t, "satin-slip-dress", 119, 10, map[string]int{"S": 1})
	env.seedCartItem(t, user.ID, dress.ID, "S", 3)
	if _, err := env.svc.CreateSession(context.Background(), user.ID, nil); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("over stock want ErrInsufficientStock got %v", err)
	}

	if err := env.db.Model(&models.Product{}).Where("id = ?", dress.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("delist product failed: %v", err)
	}
	if _, err := env.svc.CreateSession(context.Background(), user.ID, nil); !errors.Is(err, ErrProductNotAvailable) {
		t.Fatalf("delisted product want ErrProductNotAvailable got %v", err)
	}

	if _, err := env.svc.CreateSession(context.Background(), user.ID+100, nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing user want ErrNotFound got %v", err)
	}

	var orders int64
	if err := env.db.Model(&models.Order{}).Count(&orders).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if orders != 0 {
		t.Fatalf("rejected checkouts must not create orders, got %d", orders)
	}
}

func TestCheckoutGatewayFailureKeepsPendingOrder(t *testing.T) {
	env := newCheckoutServiceTest(t, 0)
	user := env.seedUser(t, "shopper@example.com")
	dress := env.seedProduct(t, "silk-blouse", 149, 10, map[string]int{"M": 5})
	env.seedCartItem(t, user.ID, dress.ID, "M", 1)

	env.gateway.err = errors.New("gateway unreachable")
	_, err := env.svc.CreateSession(context.Background(), user.ID, nil)
	if !errors.Is(err, ErrPaymentSession) {
		t.Fatalf("gateway failure want ErrPaymentSession got %v", err)
	}

	// 订单与会话创建不在同一事务，失败后订单保持 PENDING 待收敛
	var order models.Order
	if err := env.db.Where("user_id = ?", user.ID).First(&order).Error; err != nil {
		t.Fatalf("pending order should exist: %v", err)
	}
	if order.Status != constants.OrderStatusPending || order.CheckoutSessionID != "" {
		t.Fatalf("unexpected pending order state: %+v", order)
	}
}

func completedEvent(order *models.Order) *checkout.Event {
	return &checkout.Event{
		EventID:         "evt_1",
		EventType:       constants.PaymentEventCompleted,
		OrderID:         order.ID,
		OrderNo:         order.OrderNo,
		SessionID:       order.CheckoutSessionID,
		PaymentIntentID: "pi_test_456",
	}
}

func TestWebhookSessionCompleted(t *testing.T) {
	env := newCheckoutServiceTest(t, 0)
	user := env.seedUser(t, "shopper@example.com")
	dress := env.seedProduct(t, "linen-wrap-dress", 89, 10, map[string]int{"M": 5})
	env.seedCartItem(t, user.ID, dress.ID, "M", 2)

	result, err := env.svc.CreateSession(context.Background(), user.ID, nil)
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}

	if err := env.svc.HandleWebhookEvent(completedEvent(result.Order)); err != nil {
		t.Fatalf("handle completed failed: %v", err)
	}

	var order models.Order
	if err := env.db.First(&order, result.Order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if order.Status != constants.OrderStatusProcessing {
		t.Fatalf("order status want PROCESSING got %s", order.Status)
	}
	if order.PaidAt == nil {
		t.Fatalf("paid_at should be set")
	}

	var sizeRow models.SizeStock
	if err := env.db.Where("product_id = ? AND size = ?", dress.ID, "M").First(&sizeRow).Error; err != nil {
		t.Fatalf("load size stock failed: %v", err)
	}
	if sizeRow.Quantity != 3 {
		t.Fatalf("size stock want 3 got %d", sizeRow.Quantity)
	}
	var product models.Product
	if err := env.db.First(&product, dress.ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if product.Stock != 8 {
		t.Fatalf("total stock want 8 got %d", product.Stock)
	}

	var cartCount int64
	if err := env.db.Model(&models.CartItem{}).Where("user_id = ?", user.ID).Count(&cartCount).Error; err != nil {
		t.Fatalf("count cart failed: %v", err)
	}
	if cartCount != 0 {
		t.Fatalf("cart should be cleared after payment, got %d rows", cartCount)
	}
}

func TestWebhookCompletedGrantsPremium(t *testing.T) {
	env := newCheckoutServiceTest(t, 0)
	user := env.seedUser(t, "shopper@example.com")
	premium := env.seedProduct(t, "premium-membership", 49, 1000, nil)
	env.svc.premiumProductID = premium.ID
	env.seedCartItem(t, user.ID, premium.ID, "", 1)

	result, err := env.svc.CreateSession(context.Background(), user.ID, nil)
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	if err := env.svc.HandleWebhookEvent(completedEvent(result.Order)); err != nil {
		t.Fatalf("handle completed failed: %v", err)
	}

	var got models.User
	if err := env.db.First(&got, user.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if !got.IsPremium {
		t.Fatalf("premium purchase should grant membership")
	}
}

func TestWebhookSessionExpiredCancelsOrder(t *testing.T) {
	env := newCheckoutServiceTest(t, 0)
	user := env.seedUser(t, "shopper@example.com")
	dress := env.seedProduct(t, "wool-overcoat", 289, 4, map[string]int{"L": 4})
	env.seedCartItem(t, user.ID, dress.ID, "L", 1)

	result, err := env.svc.CreateSession(context.Background(), user.ID, nil)
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	event := completedEvent(result.Order)
	event.EventType = constants.PaymentEventExpired
	if err := env.svc.HandleWebhookEvent(event); err != nil {
		t.Fatalf("handle expired failed: %v", err)
	}

	var order models.Order
	if err := env.db.First(&order, result.Order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if order.Status != constants.OrderStatusCancelled || order.CanceledAt == nil {
		t.Fatalf("expired order should be cancelled: %+v", order)
	}

	var sizeRow models.SizeStock
	if err := env.db.Where("product_id = ? AND size = ?", dress.ID, "L").First(&sizeRow).Error; err != nil {
		t.Fatalf("load size stock failed: %v", err)
	}
	if sizeRow.Quantity != 4 {
		t.Fatalf("expired session must not touch stock, got %d", sizeRow.Quantity)
	}
}

func TestWebhookPaymentFailedMatchesByIntent(t *testing.T) {
	env := newCheckoutServiceTest(t, 0)
	user := env.seedUser(t, "shopper@example.com")
	dress := env.seedProduct(t, "denim-jacket", 99, 10, map[string]int{"S": 3})
	env.seedCartItem(t, user.ID, dress.ID, "S", 1)

	result, err := env.svc.CreateSession(context.Background(), user.ID, nil)
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}

	event := &checkout.Event{
		EventID:         "evt_fail",
		EventType:       constants.PaymentEventFailed,
		PaymentIntentID: "pi_test_456",
	}
	if err := env.svc.HandleWebhookEvent(event); err != nil {
		t.Fatalf("handle failed event: %v", err)
	}

	var order models.Order
	if err := env.db.First(&order, result.Order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if order.Status != constants.OrderStatusCancelled {
		t.Fatalf("failed payment should cancel order, got %s", order.Status)
	}
}

func TestWebhookUnknownOrderAndEventIgnored(t *testing.T) {
	env := newCheckoutServiceTest(t, 0)

	event := &checkout.Event{
		EventID:   "evt_unknown",
		EventType: constants.PaymentEventCompleted,
		SessionID: "cs_missing",
		OrderNo:   "SF000000000000000000",
	}
	if err := env.svc.HandleWebhookEvent(event); err != nil {
		t.Fatalf("unknown order should be acknowledged: %v", err)
	}

	event.EventType = "charge.refunded"
	if err := env.svc.HandleWebhookEvent(event); err != nil {
		t.Fatalf("unhandled event type should be ignored: %v", err)
	}
	if err := env.svc.HandleWebhookEvent(nil); err != nil {
		t.Fatalf("nil event should be ignored: %v", err)
	}
}

func TestAdminOrderTransitions(t *testing.T) {
	env := newCheckoutServiceTest(t, 0)
	user := env.seedUser(t, "shopper@example.com")
	dress := env.seedProduct(t, "silk-blouse", 149, 10, map[string]int{"M": 5})
	env.seedCartItem(t, user.ID, dress.ID, "M", 1)

	result, err := env.svc.CreateSession(context.Background(), user.ID, nil)
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	orderID := result.Order.ID

	if _, err := env.svc.MarkShipped(orderID); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("ship unpaid order want ErrOrderStatusInvalid got %v", err)
	}

	if err := env.svc.HandleWebhookEvent(completedEvent(result.Order)); err != nil {
		t.Fatalf("handle completed failed: %v", err)
	}

	if _, err := env.svc.MarkDelivered(orderID); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("deliver unshipped order want ErrOrderStatusInvalid got %v", err)
	}
	shipped, err := env.svc.MarkShipped(orderID)
	if err != nil {
		t.Fatalf("mark shipped failed: %v", err)
	}
	if shipped.Status != constants.OrderStatusShipped {
		t.Fatalf("status want SHIPPED got %s", shipped.Status)
	}
	delivered, err := env.svc.MarkDelivered(orderID)
	if err != nil {
		t.Fatalf("mark delivered failed: %v", err)
	}
	if delivered.Status != constants.OrderStatusDelivered {
		t.Fatalf("status want DELIVERED got %s", delivered.Status)
	}

	if _, err := env.svc.MarkShipped(orderID + 100); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("missing order want ErrOrderNotFound got %v", err)
	}
}

func TestGenerateOrderNoShape(t *testing.T) {
	first := generateOrderNo()
	second := generateOrderNo()
	if !strings.HasPrefix(first, "SF") || len(first) != 22 {
		t.Fatalf("unexpected order no shape: %s", first)
	}
	if first == second {
		t.Fatalf("order numbers should not collide trivially: %s", first)
	}
}
