package service

import (
	"strconv"
	"strings"

	"github.com/stylefit-next/internal/logger"
	"github.com/stylefit-next/internal/queue"
	"github.com/stylefit-next/internal/repository"
)

// TryOnService 虚拟试穿服务
type TryOnService struct {
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
	queueClient *queue.Client
}

// NewTryOnService 创建虚拟试穿服务
func NewTryOnService(userRepo repository.UserRepository, productRepo repository.ProductRepository, queueClient *queue.Client) *TryOnService {
	return &TryOnService{
		userRepo:    userRepo,
		productRepo: productRepo,
		queueClient: queueClient,
	}
}

// EnableTrial 开通免费试穿体验。
// 会员无需开通，已用过试穿额度的用户不能再开。
func (s *TryOnService) EnableTrial(userID uint) error {
	if userID == 0 {
		return ErrNotFound
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}
	if user.IsPremium {
		return ErrTrialNotAvailable
	}
	if user.AIEnabled {
		return nil
	}
	if user.TrialUsed {
		return ErrTrialAlreadyUsed
	}
	user.AIEnabled = true
	if err := s.userRepo.Update(user); err != nil {
		return err
	}
	logger.Infow("tryon_trial_enabled", "user_id", userID)
	return nil
}

// RequestGeneration 提交试穿生成请求。
// 会员不限量；试穿用户只能对支持试穿的商品用一次，提交即记为已用。
func (s *TryOnService) RequestGeneration(userID uint, productIDs []uint, personImageURL string) error {
	if userID == 0 {
		return ErrNotFound
	}
	personImageURL = strings.TrimSpace(personImageURL)
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}
	if personImageURL == "" {
		personImageURL = strings.TrimSpace(user.AvatarURL)
	}
	if personImageURL == "" {
		return ErrPersonImageMissing
	}
	if len(productIDs) == 0 {
		return ErrProductNotAvailable
	}

	products, err := s.productRepo.ListByIDs(productIDs)
	if err != nil {
		return err
	}
	trial := false
	if !user.IsPremium {
		if !user.AIEnabled {
			return ErrAIPermissionDenied
		}
		if user.TrialUsed {
			return ErrTrialAlreadyUsed
		}
		trial = true
	}

	garments := make(map[string]string, len(products))
	for i := range products {
		product := products[i]
		if !product.IsActive {
			continue
		}
		if trial && !product.TrialEnabled {
			return ErrTrialNotAvailable
		}
		if len(product.Images) == 0 {
			continue
		}
		garments[strconv.FormatUint(uint64(product.ID), 10)] = product.Images[0]
	}
	if len(garments) == 0 {
		return ErrProductNotAvailable
	}

	if s.queueClient == nil || !s.queueClient.Enabled() {
		return ErrTryOnUnavailable
	}
	if err := s.queueClient.EnqueueTryOnGenerate(queue.TryOnGeneratePayload{
		UserID:        userID,
		Email:         user.Email,
		GarmentImages: garments,
		PersonImage:   personImageURL,
	}); err != nil {
		return err
	}

	if trial {
		user.TrialUsed = true
		if err := s.userRepo.Update(user); err != nil {
			return err
		}
	}
	logger.Infow("tryon_generation_requested",
		"user_id", userID,
		"garment_count", len(garments),
		"trial", trial)
	return nil
}
