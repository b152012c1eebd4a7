package service

import (
	"errors"
	"testing"

	"github.com/stylefit-next/internal/models"
	"github.com/stylefit-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newProductServiceTest(t *testing.T) (*ProductService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Category{}, &models.Product{}, &models.SizeStock{}); err != nil {
		t.Fatalf("migrate product tables failed: %v", err)
	}
	return NewProductService(repository.NewProductRepository(db), repository.NewSizeStockRepository(db)), db
}

func sampleProductInput(slug string) ProductInput {
	return ProductInput{
		CategoryID:  1,
		Slug:        slug,
		Title:       "Linen Wrap Dress",
		Description: "Breathable summer staple",
		PriceAmount: decimal.NewFromInt(89),
		Stock:       12,
		Sizes:       []string{"S", "M", "L"},
		SizeStocks: []SizeStockInput{
			{Size: "S", Quantity: 4},
			{Size: "M", Quantity: 5},
			{Size: "L", Quantity: 3},
		},
	}
}

func TestProductCreateWithSizeStocks(t *testing.T) {
	svc, _ := newProductServiceTest(t)

	product, err := svc.Create(sampleProductInput("linen-wrap-dress"))
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	if product.Slug != "linen-wrap-dress" {
		t.Fatalf("unexpected slug: %s", product.Slug)
	}
	if len(product.SizeStocks) != 3 {
		t.Fatalf("size stocks want 3 got %d", len(product.SizeStocks))
	}
	if !product.IsActive {
		t.Fatalf("product should default to active")
	}

	_, err = svc.Create(sampleProductInput("linen-wrap-dress"))
	if !errors.Is(err, ErrSlugExists) {
		t.Fatalf("duplicate slug want ErrSlugExists got %v", err)
	}
}

func TestProductCreateValidation(t *testing.T) {
	svc, _ := newProductServiceTest(t)

	input := sampleProductInput("zero-price")
	input.PriceAmount = decimal.Zero
	if _, err := svc.Create(input); !errors.Is(err, ErrProductPriceInvalid) {
		t.Fatalf("zero price want ErrProductPriceInvalid got %v", err)
	}

	input = sampleProductInput("no-title")
	input.Title = "  "
	if _, err := svc.Create(input); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank title want ErrInvalidInput got %v", err)
	}

	input = sampleProductInput("bad-size")
	input.SizeStocks = []SizeStockInput{{Size: "XXL", Quantity: 1}}
	if _, err := svc.Create(input); !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("size outside list want ErrInvalidSize got %v", err)
	}

	input = sampleProductInput("dup-size")
	input.SizeStocks = []SizeStockInput{{Size: "M", Quantity: 1}, {Size: "M", Quantity: 2}}
	if _, err := svc.Create(input); !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("duplicate size want ErrInvalidSize got %v", err)
	}
}

func TestProductUpdateRebuildsSizeStocks(t *testing.T) {
	svc, db := newProductServiceTest(t)

	created, err := svc.Create(sampleProductInput("satin-slip-dress"))
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	input := sampleProductInput("satin-slip-dress")
	input.Title = "Satin Slip Dress"
	input.Sizes = []string{"XS", "S"}
	input.SizeStocks = []SizeStockInput{
		{Size: "XS", Quantity: 2},
		{Size: "S", Quantity: 6},
	}
	updated, err := svc.Update(created.ID, input)
	if err != nil {
		t.Fatalf("update product failed: %v", err)
	}
	if updated.Title != "Satin Slip Dress" {
		t.Fatalf("unexpected title: %s", updated.Title)
	}
	if len(updated.SizeStocks) != 2 {
		t.Fatalf("size stocks want 2 got %d", len(updated.SizeStocks))
	}

	var count int64
	if err := db.Model(&models.SizeStock{}).Where("product_id = ?", created.ID).Count(&count).Error; err != nil {
		t.Fatalf("count size stocks failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("stale size rows left behind: want 2 got %d", count)
	}
}

func TestProductUpdateSlugConflict(t *testing.T) {
	svc, _ := newProductServiceTest(t)

	if _, err := svc.Create(sampleProductInput("silk-blouse")); err != nil {
		t.Fatalf("create first product failed: %v", err)
	}
	second, err := svc.Create(sampleProductInput("wool-overcoat"))
	if err != nil {
		t.Fatalf("create second product failed: %v", err)
	}

	input := sampleProductInput("silk-blouse")
	if _, err := svc.Update(second.ID, input); !errors.Is(err, ErrSlugExists) {
		t.Fatalf("slug conflict want ErrSlugExists got %v", err)
	}
}

func TestProductPublicVisibility(t *testing.T) {
	svc, _ := newProductServiceTest(t)

	inactive := false
	input := sampleProductInput("archived-parka")
	input.IsActive = &inactive
	if _, err := svc.Create(input); err != nil {
		t.Fatalf("create inactive product failed: %v", err)
	}
	if _, err := svc.Create(sampleProductInput("organic-cotton-tee")); err != nil {
		t.Fatalf("create active product failed: %v", err)
	}

	items, total, err := svc.ListPublic("", "", false, 1, 20)
	if err != nil {
		t.Fatalf("public list failed: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].Slug != "organic-cotton-tee" {
		t.Fatalf("public list should hide inactive items: total=%d items=%+v", total, items)
	}

	if _, err := svc.GetPublicBySlug("archived-parka"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("inactive detail want ErrNotFound got %v", err)
	}
	product, err := svc.GetPublicBySlug("organic-cotton-tee")
	if err != nil {
		t.Fatalf("public detail failed: %v", err)
	}
	if product.Slug != "organic-cotton-tee" {
		t.Fatalf("unexpected product: %+v", product)
	}
}

func TestProductDeleteRemovesSizeStocks(t *testing.T) {
	svc, db := newProductServiceTest(t)

	created, err := svc.Create(sampleProductInput("denim-jacket"))
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	if err := svc.Delete(created.ID); err != nil {
		t.Fatalf("delete product failed: %v", err)
	}

	if _, err := svc.GetAdminByID(created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted product want ErrNotFound got %v", err)
	}
	var count int64
	if err := db.Model(&models.SizeStock{}).Where("product_id = ?", created.ID).Count(&count).Error; err != nil {
		t.Fatalf("count size stocks failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("size stocks should be removed, got %d", count)
	}

	if err := svc.Delete(created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete want ErrNotFound got %v", err)
	}
}
