package service

import (
	"time"

	"github.com/stylefit-next/internal/models"
	"github.com/stylefit-next/internal/repository"
)

// WishlistService 心愿单服务
type WishlistService struct {
	wishlistRepo repository.WishlistRepository
	productRepo  repository.ProductRepository
}

// NewWishlistService 创建心愿单服务
func NewWishlistService(wishlistRepo repository.WishlistRepository, productRepo repository.ProductRepository) *WishlistService {
	return &WishlistService{
		wishlistRepo: wishlistRepo,
		productRepo:  productRepo,
	}
}

// ListByUser 获取用户心愿单
func (s *WishlistService) ListByUser(userID uint) ([]models.WishlistItem, error) {
	if userID == 0 {
		return nil, ErrNotFound
	}
	return s.wishlistRepo.ListByUser(userID)
}

// Add 收藏商品，重复收藏返回明确错误
func (s *WishlistService) Add(userID, productID uint) error {
	if userID == 0 || productID == 0 {
		return ErrNotFound
	}
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return err
	}
	if product == nil || !product.IsActive {
		return ErrProductNotAvailable
	}
	existing, err := s.wishlistRepo.GetByUserAndProduct(userID, productID)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrWishlistExists
	}
	return s.wishlistRepo.Create(&models.WishlistItem{
		UserID:    userID,
		ProductID: productID,
		CreatedAt: time.Now(),
	})
}

// Remove 取消收藏
func (s *WishlistService) Remove(userID, productID uint) error {
	if userID == 0 || productID == 0 {
		return ErrNotFound
	}
	return s.wishlistRepo.DeleteByUserAndProduct(userID, productID)
}

// Toggle 收藏与取消之间切换，返回切换后是否已收藏
func (s *WishlistService) Toggle(userID, productID uint) (bool, error) {
	existing, err := s.wishlistRepo.GetByUserAndProduct(userID, productID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		if err := s.wishlistRepo.DeleteByUserAndProduct(userID, productID); err != nil {
			return false, err
		}
		return false, nil
	}
	if err := s.Add(userID, productID); err != nil {
		return false, err
	}
	return true, nil
}

// Count 心愿单数量
func (s *WishlistService) Count(userID uint) (int64, error) {
	if userID == 0 {
		return 0, nil
	}
	return s.wishlistRepo.CountByUser(userID)
}
