package service

import (
	"strings"

	"github.com/stylefit-next/internal/constants"
	"github.com/stylefit-next/internal/logger"
	"github.com/stylefit-next/internal/models"
	"github.com/stylefit-next/internal/repository"
)

// UserAdminService 后台用户管理服务
type UserAdminService struct {
	userRepo repository.UserRepository
}

// NewUserAdminService 创建后台用户管理服务
func NewUserAdminService(userRepo repository.UserRepository) *UserAdminService {
	return &UserAdminService{userRepo: userRepo}
}

// List 用户列表
func (s *UserAdminService) List(filter repository.UserListFilter) ([]models.User, int64, error) {
	return s.userRepo.List(filter)
}

// GetByID 用户详情
func (s *UserAdminService) GetByID(id uint) (*models.User, error) {
	if id == 0 {
		return nil, ErrNotFound
	}
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// SetPremiumByEmail 按邮箱开通或回收会员
func (s *UserAdminService) SetPremiumByEmail(email string, premium bool) (*models.User, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByEmail(normalized)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	if err := s.userRepo.SetPremium(user.ID, premium); err != nil {
		return nil, err
	}
	user.IsPremium = premium
	logger.Infow("user_premium_updated", "user_id", user.ID, "premium", premium)
	return user, nil
}

// SetPremium 按 ID 开通或回收会员
func (s *UserAdminService) SetPremium(userID uint, premium bool) error {
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
	if err := s.userRepo.SetPremium(userID, premium); err != nil {
		return err
	}
	logger.Infow("user_premium_updated", "user_id", userID, "premium", premium)
	return nil
}

// BatchUpdateStatus 批量启用/禁用用户，禁用会同时失效已签发 Token
func (s *UserAdminService) BatchUpdateStatus(userIDs []uint, status string) error {
	status = strings.ToLower(strings.TrimSpace(status))
	if status != constants.UserStatusActive && status != constants.UserStatusDisabled {
		return ErrInvalidInput
	}
	if len(userIDs) == 0 {
		return ErrInvalidInput
	}
	if err := s.userRepo.BatchUpdateStatus(userIDs, status); err != nil {
		return err
	}
	logger.Infow("user_status_batch_updated", "count", len(userIDs), "status", status)
	return nil
}
