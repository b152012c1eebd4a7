package service

import (
	"strings"

	"github.com/stylefit-next/internal/models"
	"github.com/stylefit-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductService 商品业务服务
type ProductService struct {
	repo          repository.ProductRepository
	sizeStockRepo repository.SizeStockRepository
}

// NewProductService 创建商品服务
func NewProductService(repo repository.ProductRepository, sizeStockRepo repository.SizeStockRepository) *ProductService {
	return &ProductService{repo: repo, sizeStockRepo: sizeStockRepo}
}

// SizeStockInput 分尺码库存输入
type SizeStockInput struct {
	Size     string
	Quantity int
}

// ProductInput 创建/更新商品输入
type ProductInput struct {
	CategoryID   uint
	Slug         string
	Title        string
	Description  string
	PriceAmount  decimal.Decimal
	Stock        int
	Images       []string
	Sizes        []string
	SizeStocks   []SizeStockInput
	IsFeatured   *bool
	TrialEnabled *bool
	IsActive     *bool
	SortOrder    int
}

// ListPublic 获取公开商品列表
func (s *ProductService) ListPublic(categoryID, search string, featured bool, page, pageSize int) ([]models.Product, int64, error) {
	filter := repository.ProductListFilter{
		Page:         page,
		PageSize:     pageSize,
		CategoryID:   categoryID,
		Search:       search,
		OnlyActive:   true,
		OnlyFeatured: featured,
		WithCategory: true,
	}
	return s.repo.List(filter)
}

// GetPublicBySlug 获取公开商品详情
func (s *ProductService) GetPublicBySlug(slug string) (*models.Product, error) {
	product, err := s.repo.GetBySlug(strings.TrimSpace(slug), true)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrNotFound
	}
	return product, nil
}

// ListAdmin 获取后台商品列表
func (s *ProductService) ListAdmin(categoryID, search, stockStatus string, page, pageSize int) ([]models.Product, int64, error) {
	filter := repository.ProductListFilter{
		Page:         page,
		PageSize:     pageSize,
		CategoryID:   categoryID,
		Search:       search,
		StockStatus:  stockStatus,
		OnlyActive:   false,
		WithCategory: true,
	}
	return s.repo.List(filter)
}

// GetAdminByID 获取后台商品详情
func (s *ProductService) GetAdminByID(id uint) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrNotFound
	}
	return product, nil
}

// Create 创建商品及分尺码库存
func (s *ProductService) Create(input ProductInput) (*models.Product, error) {
	slug := strings.TrimSpace(input.Slug)
	title := strings.TrimSpace(input.Title)
	if slug == "" || title == "" {
		return nil, ErrInvalidInput
	}
	priceAmount := input.PriceAmount.Round(2)
	if priceAmount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrProductPriceInvalid
	}
	if input.Stock < 0 {
		return nil, ErrInvalidInput
	}
	sizeStocks, err := normalizeSizeStocks(input.Sizes, input.SizeStocks)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.CountBySlug(slug, nil)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrSlugExists
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}
	product := models.Product{
		CategoryID:   input.CategoryID,
		Slug:         slug,
		Title:        title,
		Description:  strings.TrimSpace(input.Description),
		PriceAmount:  models.NewMoneyFromDecimal(priceAmount),
		Stock:        input.Stock,
		Images:       models.StringArray(input.Images),
		Sizes:        models.StringArray(input.Sizes),
		IsFeatured:   input.IsFeatured != nil && *input.IsFeatured,
		TrialEnabled: input.TrialEnabled != nil && *input.TrialEnabled,
		IsActive:     isActive,
		SortOrder:    input.SortOrder,
	}

	err = s.repo.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(&product); err != nil {
			return err
		}
		if len(sizeStocks) == 0 {
			return nil
		}
		rows := buildSizeStockRows(product.ID, sizeStocks)
		return s.sizeStockRepo.WithTx(tx).CreateBatch(rows)
	})
	if err != nil {
		return nil, err
	}
	return s.GetAdminByID(product.ID)
}

// Update 更新商品，分尺码库存整表重建（先删后插）
func (s *ProductService) Update(id uint, input ProductInput) (*models.Product, error) {
	slug := strings.TrimSpace(input.Slug)
	title := strings.TrimSpace(input.Title)
	if slug == "" || title == "" {
		return nil, ErrInvalidInput
	}
	priceAmount := input.PriceAmount.Round(2)
	if priceAmount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrProductPriceInvalid
	}
	if input.Stock < 0 {
		return nil, ErrInvalidInput
	}
	sizeStocks, err := normalizeSizeStocks(input.Sizes, input.SizeStocks)
	if err != nil {
		return nil, err
	}

	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrNotFound
	}
	count, err := s.repo.CountBySlug(slug, &id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrSlugExists
	}

	product.CategoryID = input.CategoryID
	product.Slug = slug
	product.Title = title
	product.Description = strings.TrimSpace(input.Description)
	product.PriceAmount = models.NewMoneyFromDecimal(priceAmount)
	product.Stock = input.Stock
	product.Images = models.StringArray(input.Images)
	product.Sizes = models.StringArray(input.Sizes)
	product.SizeStocks = nil
	if input.IsFeatured != nil {
		product.IsFeatured = *input.IsFeatured
	}
	if input.TrialEnabled != nil {
		product.TrialEnabled = *input.TrialEnabled
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	err = s.repo.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Update(product); err != nil {
			return err
		}
		if err := s.sizeStockRepo.WithTx(tx).DeleteByProduct(product.ID); err != nil {
			return err
		}
		if len(sizeStocks) == 0 {
			return nil
		}
		rows := buildSizeStockRows(product.ID, sizeStocks)
		return s.sizeStockRepo.WithTx(tx).CreateBatch(rows)
	})
	if err != nil {
		return nil, err
	}
	return s.GetAdminByID(product.ID)
}

// Delete 删除商品及其分尺码库存
func (s *ProductService) Delete(id uint) error {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrNotFound
	}
	return s.repo.Transaction(func(tx *gorm.DB) error {
		if err := s.sizeStockRepo.WithTx(tx).DeleteByProduct(id); err != nil {
			return err
		}
		return s.repo.WithTx(tx).Delete(id)
	})
}

// normalizeSizeStocks 校验分尺码库存：尺码必须在尺码列表内且不重复
func normalizeSizeStocks(sizes []string, inputs []SizeStockInput) ([]SizeStockInput, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	allowed := make(map[string]struct{}, len(sizes))
	for _, size := range sizes {
		allowed[strings.TrimSpace(size)] = struct{}{}
	}
	seen := make(map[string]struct{}, len(inputs))
	normalized := make([]SizeStockInput, 0, len(inputs))
	for _, input := range inputs {
		size := strings.TrimSpace(input.Size)
		if size == "" || input.Quantity < 0 {
			return nil, ErrInvalidSize
		}
		if _, ok := allowed[size]; !ok {
			return nil, ErrInvalidSize
		}
		if _, ok := seen[size]; ok {
			return nil, ErrInvalidSize
		}
		seen[size] = struct{}{}
		normalized = append(normalized, SizeStockInput{Size: size, Quantity: input.Quantity})
	}
	return normalized, nil
}

func buildSizeStockRows(productID uint, inputs []SizeStockInput) []models.SizeStock {
	rows := make([]models.SizeStock, 0, len(inputs))
	for _, input := range inputs {
		rows = append(rows, models.SizeStock{
			ProductID: productID,
			Size:      input.Size,
			Quantity:  input.Quantity,
		})
	}
	return rows
}
