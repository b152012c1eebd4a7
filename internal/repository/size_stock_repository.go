package repository

import (
	"errors"
	"strings"

	"github.com/stylefit-next/internal/models"

	"gorm.io/gorm"
)

// SizeStockRepository 分尺码库存数据访问接口
type SizeStockRepository interface {
	ListByProduct(productID uint) ([]models.SizeStock, error)
	GetByProductAndSize(productID uint, size string) (*models.SizeStock, error)
	CreateBatch(items []models.SizeStock) error
	DeleteByProduct(productID uint) error
	DecrementQuantity(productID uint, size string, quantity int) (int64, error)
	WithTx(tx *gorm.DB) SizeStockRepository
}

// GormSizeStockRepository GORM 实现
type GormSizeStockRepository struct {
	db *gorm.DB
}

// NewSizeStockRepository 创建分尺码库存仓库
func NewSizeStockRepository(db *gorm.DB) *GormSizeStockRepository {
	return &GormSizeStockRepository{db: db}
}

// WithTx 绑定事务
func (r *GormSizeStockRepository) WithTx(tx *gorm.DB) SizeStockRepository {
	if tx == nil {
		return r
	}
	return &GormSizeStockRepository{db: tx}
}

// ListByProduct 根据商品获取尺码库存列表
func (r *GormSizeStockRepository) ListByProduct(productID uint) ([]models.SizeStock, error) {
	if productID == 0 {
		return nil, errors.New("invalid product id")
	}
	var items []models.SizeStock
	if err := r.db.Where("product_id = ?", productID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetByProductAndSize 按商品和尺码获取库存行
func (r *GormSizeStockRepository) GetByProductAndSize(productID uint, size string) (*models.SizeStock, error) {
	if productID == 0 {
		return nil, errors.New("invalid product id")
	}
	normalized := strings.TrimSpace(size)
	var item models.SizeStock
	if err := r.db.Where("product_id = ? AND size = ?", productID, normalized).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// CreateBatch 批量创建尺码库存行（商品更新整表重建时使用）
func (r *GormSizeStockRepository) CreateBatch(items []models.SizeStock) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.Create(&items).Error
}

// DeleteByProduct 删除指定商品下的尺码库存行
func (r *GormSizeStockRepository) DeleteByProduct(productID uint) error {
	if productID == 0 {
		return errors.New("invalid product id")
	}
	return r.db.Where("product_id = ?", productID).Delete(&models.SizeStock{}).Error
}

// DecrementQuantity 扣减指定尺码库存（支付成功后执行，不做余量校验）
func (r *GormSizeStockRepository) DecrementQuantity(productID uint, size string, quantity int) (int64, error) {
	if productID == 0 || quantity <= 0 {
		return 0, errors.New("invalid size stock decrement params")
	}
	result := r.db.Model(&models.SizeStock{}).
		Where("product_id = ? AND size = ?", productID, strings.TrimSpace(size)).
		Update("quantity", gorm.Expr("quantity - ?", quantity))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
