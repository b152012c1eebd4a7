package service

import (
	"context"
	"strings"
	"time"

	"github.com/stylefit-next/internal/cache"
	"github.com/stylefit-next/internal/logger"
	"github.com/stylefit-next/internal/models"
	"github.com/stylefit-next/internal/repository"
)

// CartItemDetail 购物车项详情（用于响应）
type CartItemDetail struct {
	ID        uint            `json:"id"`
	ProductID uint            `json:"product_id"`
	Size      string          `json:"size"`
	Quantity  int             `json:"quantity"`
	UnitPrice models.Money    `json:"unit_price"`
	LineTotal models.Money    `json:"line_total"`
	InStock   bool            `json:"in_stock"`
	Product   *models.Product `json:"product"`
}

// CartDetail 购物车整体视图
type CartDetail struct {
	Items    []CartItemDetail `json:"items"`
	Currency string           `json:"currency"`
	Total    models.Money     `json:"total"`
}

// AddCartItemInput 加购输入
type AddCartItemInput struct {
	UserID    uint
	ProductID uint
	Size      string
	Quantity  int
}

// CartService 购物车服务
type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	currency    string
}

// NewCartService 创建购物车服务
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository, currency string) *CartService {
	if strings.TrimSpace(currency) == "" {
		currency = "USD"
	}
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		currency:    currency,
	}
}

// ListByUser 获取用户购物车，下架商品顺带清理
func (s *CartService) ListByUser(userID uint) (*CartDetail, error) {
	if userID == 0 {
		return nil, ErrNotFound
	}
	items, err := s.cartRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	detail := &CartDetail{
		Items:    make([]CartItemDetail, 0, len(items)),
		Currency: s.currency,
		Total:    models.Money{},
	}
	pruned := false
	for i := range items {
		item := items[i]
		product := item.Product
		if product == nil || product.ID == 0 || !product.IsActive {
			if err := s.cartRepo.Delete(item.ID); err != nil {
				return nil, err
			}
			pruned = true
			continue
		}
		lineTotal := product.PriceAmount.MulInt(item.Quantity)
		detail.Items = append(detail.Items, CartItemDetail{
			ID:        item.ID,
			ProductID: item.ProductID,
			Size:      item.Size,
			Quantity:  item.Quantity,
			UnitPrice: product.PriceAmount,
			LineTotal: lineTotal,
			InStock:   product.AvailableStock(item.Size) >= item.Quantity,
			Product:   product,
		})
		detail.Total = detail.Total.Add(lineTotal)
	}
	if pruned {
		s.invalidateSummary(userID)
	}
	return detail, nil
}

// AddItem 加购，同 (商品, 尺码) 已存在时合并数量
func (s *CartService) AddItem(input AddCartItemInput) error {
	if input.UserID == 0 || input.ProductID == 0 {
		return ErrNotFound
	}
	if input.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	product, err := s.productRepo.GetByID(input.ProductID)
	if err != nil {
		return err
	}
	if product == nil || !product.IsActive {
		return ErrProductNotAvailable
	}
	size, err := normalizeSize(product, input.Size)
	if err != nil {
		return err
	}

	existing, err := s.cartRepo.GetByUserProductSize(input.UserID, input.ProductID, size)
	if err != nil {
		return err
	}
	merged := input.Quantity
	if existing != nil {
		merged += existing.Quantity
	}
	if merged > product.AvailableStock(size) {
		return ErrInsufficientStock
	}

	if existing != nil {
		if err := s.cartRepo.UpdateQuantity(existing.ID, merged); err != nil {
			return err
		}
	} else {
		now := time.Now()
		item := &models.CartItem{
			UserID:    input.UserID,
			ProductID: input.ProductID,
			Size:      size,
			Quantity:  merged,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.cartRepo.Create(item); err != nil {
			return err
		}
	}
	s.invalidateSummary(input.UserID)
	return nil
}

// UpdateQuantity 修改购物车项数量
func (s *CartService) UpdateQuantity(userID, itemID uint, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	item, err := s.cartRepo.GetByID(itemID)
	if err != nil {
		return err
	}
	if item == nil || item.UserID != userID {
		return ErrCartItemNotFound
	}
	product := item.Product
	if product == nil || product.ID == 0 {
		product, err = s.productRepo.GetByID(item.ProductID)
		if err != nil {
			return err
		}
	}
	if product == nil || !product.IsActive {
		return ErrProductNotAvailable
	}
	if quantity > product.AvailableStock(item.Size) {
		return ErrInsufficientStock
	}
	if err := s.cartRepo.UpdateQuantity(item.ID, quantity); err != nil {
		return err
	}
	s.invalidateSummary(userID)
	return nil
}

// RemoveItem 删除购物车项
func (s *CartService) RemoveItem(userID, itemID uint) error {
	item, err := s.cartRepo.GetByID(itemID)
	if err != nil {
		return err
	}
	if item == nil || item.UserID != userID {
		return ErrCartItemNotFound
	}
	if err := s.cartRepo.Delete(item.ID); err != nil {
		return err
	}
	s.invalidateSummary(userID)
	return nil
}

// Clear 清空用户购物车
func (s *CartService) Clear(userID uint) error {
	if userID == 0 {
		return ErrNotFound
	}
	if err := s.cartRepo.ClearByUser(userID); err != nil {
		return err
	}
	s.invalidateSummary(userID)
	return nil
}

// Summary 购物车角标（行数 + 总件数），优先走缓存
func (s *CartService) Summary(userID uint) (*cache.CartSummary, error) {
	if userID == 0 {
		return nil, ErrNotFound
	}
	ctx := context.Background()
	if cached, hit, err := cache.GetCartSummary(ctx, userID); err == nil && hit {
		return cached, nil
	} else if err != nil {
		logger.Warnw("cart_summary_cache_read_failed", "user_id", userID, "error", err.Error())
	}

	lines, quantity, err := s.cartRepo.CountByUser(userID)
	if err != nil {
		return nil, err
	}
	summary := &cache.CartSummary{
		UserID:    userID,
		Lines:     lines,
		Quantity:  quantity,
		UpdatedAt: time.Now().Unix(),
	}
	if err := cache.SetCartSummary(ctx, summary); err != nil {
		logger.Warnw("cart_summary_cache_write_failed", "user_id", userID, "error", err.Error())
	}
	return summary, nil
}

func (s *CartService) invalidateSummary(userID uint) {
	if err := cache.DelCartSummary(context.Background(), userID); err != nil {
		logger.Warnw("cart_summary_cache_del_failed", "user_id", userID, "error", err.Error())
	}
}

// normalizeSize 校验尺码：有尺码列表的商品必须选列表内尺码，否则必须为空
func normalizeSize(product *models.Product, size string) (string, error) {
	size = strings.TrimSpace(size)
	if len(product.Sizes) == 0 {
		if size != "" {
			return "", ErrInvalidSize
		}
		return "", nil
	}
	if size == "" {
		return "", ErrInvalidSize
	}
	for _, candidate := range product.Sizes {
		if candidate == size {
			return size, nil
		}
	}
	return "", ErrInvalidSize
}
