package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/stylefit-next/internal/constants"
	"github.com/stylefit-next/internal/logger"
	"github.com/stylefit-next/internal/models"
	"github.com/stylefit-next/internal/payment/checkout"
	"github.com/stylefit-next/internal/queue"
	"github.com/stylefit-next/internal/repository"
)

// PaymentGateway 托管收银台网关
type PaymentGateway interface {
	CreateSession(ctx context.Context, input checkout.SessionInput) (*checkout.Session, error)
}

// CheckoutResult 发起结账返回
type CheckoutResult struct {
	Order       *models.Order `json:"order"`
	CheckoutURL string        `json:"checkout_url"`
}

// CheckoutService 结账与支付回调服务
type CheckoutService struct {
	cartRepo         repository.CartRepository
	productRepo      repository.ProductRepository
	sizeStockRepo    repository.SizeStockRepository
	orderRepo        repository.OrderRepository
	userRepo         repository.UserRepository
	gateway          PaymentGateway
	queueClient      *queue.Client
	currency         string
	premiumProductID uint
}

// NewCheckoutService 创建结账服务
func NewCheckoutService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	sizeStockRepo repository.SizeStockRepository,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	gateway PaymentGateway,
	queueClient *queue.Client,
	currency string,
	premiumProductID uint,
) *CheckoutService {
	if strings.TrimSpace(currency) == "" {
		currency = constants.SiteCurrencyDefault
	}
	return &CheckoutService{
		cartRepo:         cartRepo,
		productRepo:      productRepo,
		sizeStockRepo:    sizeStockRepo,
		orderRepo:        orderRepo,
		userRepo:         userRepo,
		gateway:          gateway,
		queueClient:      queueClient,
		currency:         currency,
		premiumProductID: premiumProductID,
	}
}

// CreateSession 购物车转订单并创建托管收银台会话。
// 订单先落库再调用收银台，两步不在同一事务内；会话创建失败时
// 订单保持 PENDING，由过期回调或后台对账收敛。
func (s *CheckoutService) CreateSession(ctx context.Context, userID uint, shippingAddress models.JSON) (*CheckoutResult, error) {
	if userID == 0 {
		return nil, ErrNotFound
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}

	cartItems, err := s.cartRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	if len(cartItems) == 0 {
		return nil, ErrCartEmpty
	}

	orderItems := make([]models.OrderItem, 0, len(cartItems))
	lineItems := make([]checkout.LineItem, 0, len(cartItems))
	total := models.Money{}
	for i := range cartItems {
		item := cartItems[i]
		product := item.Product
		if product == nil || product.ID == 0 || !product.IsActive {
			return nil, ErrProductNotAvailable
		}
		// 库存仅校验不预占，支付完成回调时才实际扣减
		if item.Quantity > product.AvailableStock(item.Size) {
			return nil, ErrInsufficientStock
		}
		lineTotal := product.PriceAmount.MulInt(item.Quantity)
		orderItems = append(orderItems, models.OrderItem{
			ProductID:  product.ID,
			Title:      product.Title,
			Size:       item.Size,
			UnitPrice:  product.PriceAmount,
			Quantity:   item.Quantity,
			TotalPrice: lineTotal,
		})
		lineItems = append(lineItems, checkout.LineItem{
			Name:       lineItemName(product.Title, item.Size),
			UnitAmount: product.PriceAmount.Decimal,
			Quantity:   item.Quantity,
		})
		total = total.Add(lineTotal)
	}

	now := time.Now()
	order := &models.Order{
		OrderNo:         generateOrderNo(),
		UserID:          userID,
		Status:          constants.OrderStatusPending,
		Currency:        s.currency,
		TotalAmount:     total,
		ShippingAddress: shippingAddress,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.orderRepo.Create(order, orderItems); err != nil {
		return nil, err
	}

	session, err := s.gateway.CreateSession(ctx, checkout.SessionInput{
		OrderNo:       order.OrderNo,
		OrderID:       order.ID,
		Currency:      s.currency,
		CustomerEmail: user.Email,
		Items:         lineItems,
	})
	if err != nil {
		logger.Errorw("checkout_session_create_failed",
			"order_id", order.ID,
			"order_no", order.OrderNo,
			"error", err.Error())
		return nil, fmt.Errorf("%w: %v", ErrPaymentSession, err)
	}

	updates := map[string]interface{}{
		"checkout_session_id": session.SessionID,
	}
	if session.PaymentIntentID != "" {
		updates["payment_intent_id"] = session.PaymentIntentID
	}
	if err := s.orderRepo.UpdateStatus(order.ID, constants.OrderStatusPending, updates); err != nil {
		return nil, err
	}
	order.CheckoutSessionID = session.SessionID
	order.PaymentIntentID = session.PaymentIntentID

	logger.Infow("checkout_session_created",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"session_id", session.SessionID,
		"total", total.String())
	return &CheckoutResult{Order: order, CheckoutURL: session.URL}, nil
}

// HandleWebhookEvent 按事件类型分发支付回调
func (s *CheckoutService) HandleWebhookEvent(event *checkout.Event) error {
	if event == nil {
		return nil
	}
	switch event.EventType {
	case constants.PaymentEventCompleted:
		return s.handleSessionCompleted(event)
	case constants.PaymentEventExpired:
		return s.handleSessionExpired(event)
	case constants.PaymentEventFailed:
		return s.handlePaymentFailed(event)
	default:
		logger.Debugw("payment_webhook_event_ignored", "event_type", event.EventType, "event_id", event.EventID)
		return nil
	}
}

// handleSessionCompleted 支付完成：订单转 PROCESSING，按行扣库存，清空购物车。
// 回调不做幂等记录，重复投递会重复执行这些写入。
func (s *CheckoutService) handleSessionCompleted(event *checkout.Event) error {
	order, err := s.resolveOrderBySession(event)
	if err != nil {
		return err
	}
	if order == nil {
		logger.Warnw("payment_webhook_order_not_found",
			"event_type", event.EventType,
			"session_id", event.SessionID,
			"order_no", event.OrderNo)
		return nil
	}

	now := time.Now()
	updates := map[string]interface{}{"paid_at": now}
	if event.PaymentIntentID != "" {
		updates["payment_intent_id"] = event.PaymentIntentID
	}
	if err := s.orderRepo.UpdateStatus(order.ID, constants.OrderStatusProcessing, updates); err != nil {
		return err
	}

	for _, item := range order.Items {
		if item.Size != "" {
			affected, err := s.sizeStockRepo.DecrementQuantity(item.ProductID, item.Size, item.Quantity)
			if err != nil {
				return err
			}
			if affected == 0 {
				logger.Warnw("order_size_stock_row_missing",
					"order_id", order.ID,
					"product_id", item.ProductID,
					"size", item.Size)
			}
		}
		if _, err := s.productRepo.DecrementStock(item.ProductID, item.Quantity); err != nil {
			return err
		}
	}

	if err := s.cartRepo.ClearByUser(order.UserID); err != nil {
		return err
	}
	s.grantPremiumIfPurchased(order)
	s.enqueueStatusEmail(order.ID, constants.OrderStatusProcessing)

	logger.Infow("order_paid",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"session_id", event.SessionID)
	return nil
}

// handleSessionExpired 会话过期：订单转 CANCELLED，库存不动
func (s *CheckoutService) handleSessionExpired(event *checkout.Event) error {
	order, err := s.resolveOrderBySession(event)
	if err != nil {
		return err
	}
	if order == nil {
		logger.Warnw("payment_webhook_order_not_found",
			"event_type", event.EventType,
			"session_id", event.SessionID,
			"order_no", event.OrderNo)
		return nil
	}
	if err := s.orderRepo.UpdateStatus(order.ID, constants.OrderStatusCancelled, map[string]interface{}{
		"canceled_at": time.Now(),
	}); err != nil {
		return err
	}
	s.enqueueStatusEmail(order.ID, constants.OrderStatusCancelled)
	logger.Infow("order_session_expired", "order_id", order.ID, "order_no", order.OrderNo)
	return nil
}

// handlePaymentFailed 扣款失败：按 payment intent 定位订单并取消
func (s *CheckoutService) handlePaymentFailed(event *checkout.Event) error {
	if event.PaymentIntentID == "" {
		logger.Warnw("payment_webhook_intent_missing", "event_type", event.EventType, "event_id", event.EventID)
		return nil
	}
	order, err := s.orderRepo.GetByPaymentIntentID(event.PaymentIntentID)
	if err != nil {
		return err
	}
	if order == nil {
		logger.Warnw("payment_webhook_order_not_found",
			"event_type", event.EventType,
			"payment_intent_id", event.PaymentIntentID)
		return nil
	}
	if err := s.orderRepo.UpdateStatus(order.ID, constants.OrderStatusCancelled, map[string]interface{}{
		"canceled_at": time.Now(),
	}); err != nil {
		return err
	}
	s.enqueueStatusEmail(order.ID, constants.OrderStatusCancelled)
	logger.Infow("order_payment_failed", "order_id", order.ID, "order_no", order.OrderNo)
	return nil
}

// MarkShipped 后台发货：仅允许 PROCESSING 订单
func (s *CheckoutService) MarkShipped(orderID uint) (*models.Order, error) {
	return s.adminTransition(orderID, constants.OrderStatusProcessing, constants.OrderStatusShipped)
}

// MarkDelivered 后台签收：仅允许 SHIPPED 订单
func (s *CheckoutService) MarkDelivered(orderID uint) (*models.Order, error) {
	return s.adminTransition(orderID, constants.OrderStatusShipped, constants.OrderStatusDelivered)
}

func (s *CheckoutService) adminTransition(orderID uint, fromStatus, toStatus string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != fromStatus {
		return nil, ErrOrderStatusInvalid
	}
	if err := s.orderRepo.UpdateStatus(order.ID, toStatus, nil); err != nil {
		return nil, err
	}
	order.Status = toStatus
	s.enqueueStatusEmail(order.ID, toStatus)
	logger.Infow("order_status_updated", "order_id", order.ID, "status", toStatus)
	return order, nil
}

// resolveOrderBySession 优先按会话 ID 匹配，回退订单号
func (s *CheckoutService) resolveOrderBySession(event *checkout.Event) (*models.Order, error) {
	if event.SessionID != "" {
		order, err := s.orderRepo.GetByCheckoutSessionID(event.SessionID)
		if err != nil || order != nil {
			return order, err
		}
	}
	if event.OrderNo != "" {
		return s.orderRepo.GetByOrderNo(event.OrderNo)
	}
	return nil, nil
}

// grantPremiumIfPurchased 订单含会员商品时开通会员
func (s *CheckoutService) grantPremiumIfPurchased(order *models.Order) {
	if s.premiumProductID == 0 {
		return
	}
	for _, item := range order.Items {
		if item.ProductID != s.premiumProductID {
			continue
		}
		if err := s.userRepo.SetPremium(order.UserID, true); err != nil {
			logger.Errorw("premium_grant_failed", "order_id", order.ID, "user_id", order.UserID, "error", err.Error())
			return
		}
		logger.Infow("premium_granted", "order_id", order.ID, "user_id", order.UserID)
		return
	}
}

func (s *CheckoutService) enqueueStatusEmail(orderID uint, status string) {
	if s.queueClient == nil || !s.queueClient.Enabled() {
		return
	}
	if err := s.queueClient.EnqueueOrderStatusEmail(queue.OrderStatusEmailPayload{
		OrderID: orderID,
		Status:  status,
	}); err != nil {
		logger.Warnw("order_status_email_enqueue_failed", "order_id", orderID, "status", status, "error", err.Error())
	}
}

func lineItemName(title, size string) string {
	if size == "" {
		return title
	}
	return fmt.Sprintf("%s (%s)", title, size)
}

func generateOrderNo() string {
	now := time.Now().Format("20060102150405")
	return fmt.Sprintf("SF%s%s", now, randNumeric(6))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(n.String())
	}
	return b.String()
}
