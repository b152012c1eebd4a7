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

func newCartServiceTest(t *testing.T) (*CartService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.SizeStock{}, &models.CartItem{}); err != nil {
		t.Fatalf("migrate cart tables failed: %v", err)
	}
	svc := NewCartService(repository.NewCartRepository(db), repository.NewProductRepository(db), "USD")
	return svc, db
}

func seedCartProduct(t *testing.T, db *gorm.DB, slug string, mutate func(*models.Product)) *models.Product {
	t.Helper()
	product := &models.Product{
		CategoryID:  1,
		Slug:        slug,
		Title:       "Linen Wrap Dress",
		PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(89)),
		Stock:       10,
		Sizes:       models.StringArray{"S", "M", "L"},
		IsActive:    true,
	}
	if mutate != nil {
		mutate(product)
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	sizes := []models.SizeStock{
		{ProductID: product.ID, Size: "S", Quantity: 2},
		{ProductID: product.ID, Size: "M", Quantity: 5},
		{ProductID: product.ID, Size: "L", Quantity: 0},
	}
	if err := db.Create(&sizes).Error; err != nil {
		t.Fatalf("create size stocks failed: %v", err)
	}
	return product
}

func TestCartAddItemMergesSameSize(t *testing.T) {
	svc, db := newCartServiceTest(t)
	product := seedCartProduct(t, db, "linen-wrap-dress", nil)

	if err := svc.AddItem(AddCartItemInput{UserID: 1, ProductID: product.ID, Size: "M", Quantity: 2}); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	if err := svc.AddItem(AddCartItemInput{UserID: 1, ProductID: product.ID, Size: "M", Quantity: 1}); err != nil {
		t.Fatalf("merge add failed: %v", err)
	}
	if err := svc.AddItem(AddCartItemInput{UserID: 1, ProductID: product.ID, Size: "S", Quantity: 1}); err != nil {
		t.Fatalf("second size add failed: %v", err)
	}

	detail, err := svc.ListByUser(1)
	if err != nil {
		t.Fatalf("list cart failed: %v", err)
	}
	if len(detail.Items) != 2 {
		t.Fatalf("cart lines want 2 got %d", len(detail.Items))
	}
	var mQty int
	for _, item := range detail.Items {
		if item.Size == "M" {
			mQty = item.Quantity
		}
	}
	if mQty != 3 {
		t.Fatalf("merged quantity want 3 got %d", mQty)
	}
	if detail.Total.Decimal.Cmp(decimal.NewFromInt(356)) != 0 {
		t.Fatalf("cart total want 356 got %s", detail.Total.String())
	}
	if detail.Currency != "USD" {
		t.Fatalf("currency want USD got %s", detail.Currency)
	}
}

func TestCartAddItemValidations(t *testing.T) {
	svc, db := newCartServiceTest(t)
	product := seedCartProduct(t, db, "satin-slip-dress", nil)
	inactive := seedCartProduct(t, db, "archived-parka", func(p *models.Product) {
		p.IsActive = false
	})

	cases := []struct {
		name  string
		input AddCartItemInput
		want  error
	}{
		{"zero quantity", AddCartItemInput{UserID: 1, ProductID: product.ID, Size: "M", Quantity: 0}, ErrInvalidQuantity},
		{"missing product", AddCartItemInput{UserID: 1, ProductID: product.ID + 100, Size: "M", Quantity: 1}, ErrProductNotAvailable},
		{"inactive product", AddCartItemInput{UserID: 1, ProductID: inactive.ID, Size: "M", Quantity: 1}, ErrProductNotAvailable},
		{"blank size on sized product", AddCartItemInput{UserID: 1, ProductID: product.ID, Size: "", Quantity: 1}, ErrInvalidSize},
		{"unknown size", AddCartItemInput{UserID: 1, ProductID: product.ID, Size: "XXL", Quantity: 1}, ErrInvalidSize},
		{"over size stock", AddCartItemInput{UserID: 1, ProductID: product.ID, Size: "M", Quantity: 6}, ErrInsufficientStock},
		{"zero stock size", AddCartItemInput{UserID: 1, ProductID: product.ID, Size: "L", Quantity: 1}, ErrInsufficientStock},
	}
	for _, tc := range cases {
		if err := svc.AddItem(tc.input); !errors.Is(err, tc.want) {
			t.Fatalf("%s: want %v got %v", tc.name, tc.want, err)
		}
	}
}

func TestCartAddItemMergeRespectsStock(t *testing.T) {
	svc, db := newCartServiceTest(t)
	product := seedCartProduct(t, db, "silk-blouse", nil)

	if err := svc.AddItem(AddCartItemInput{UserID: 1, ProductID: product.ID, Size: "M", Quantity: 4}); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	if err := svc.AddItem(AddCartItemInput{UserID: 1, ProductID: product.ID, Size: "M", Quantity: 2}); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("merge over stock want ErrInsufficientStock got %v", err)
	}

	var line models.CartItem
	if err := db.Where("user_id = ? AND product_id = ?", 1, product.ID).First(&line).Error; err != nil {
		t.Fatalf("load cart line failed: %v", err)
	}
	if line.Quantity != 4 {
		t.Fatalf("failed add must leave the line untouched, got quantity %d", line.Quantity)
	}
}

func TestCartUpdateQuantityOwnership(t *testing.T) {
	svc, db := newCartServiceTest(t)
	product := seedCartProduct(t, db, "organic-cotton-tee", nil)

	if err := svc.AddItem(AddCartItemInput{UserID: 1, ProductID: product.ID, Size: "M", Quantity: 1}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	detail, err := svc.ListByUser(1)
	if err != nil || len(detail.Items) != 1 {
		t.Fatalf("list cart failed: %v items=%d", err, len(detail.Items))
	}
	itemID := detail.Items[0].ID

	if err := svc.UpdateQuantity(1, itemID, 3); err != nil {
		t.Fatalf("update quantity failed: %v", err)
	}
	if err := svc.UpdateQuantity(2, itemID, 2); !errors.Is(err, ErrCartItemNotFound) {
		t.Fatalf("foreign item update want ErrCartItemNotFound got %v", err)
	}
	if err := svc.UpdateQuantity(1, itemID, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("zero quantity want ErrInvalidQuantity got %v", err)
	}
	if err := svc.UpdateQuantity(1, itemID, 9); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("over stock want ErrInsufficientStock got %v", err)
	}

	if err := svc.RemoveItem(2, itemID); !errors.Is(err, ErrCartItemNotFound) {
		t.Fatalf("foreign remove want ErrCartItemNotFound got %v", err)
	}
	if err := svc.RemoveItem(1, itemID); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	detail, err = svc.ListByUser(1)
	if err != nil {
		t.Fatalf("list after remove failed: %v", err)
	}
	if len(detail.Items) != 0 {
		t.Fatalf("cart should be empty, got %d", len(detail.Items))
	}
}

func TestCartListPrunesDelistedProducts(t *testing.T) {
	svc, db := newCartServiceTest(t)
	product := seedCartProduct(t, db, "wool-overcoat", nil)

	if err := svc.AddItem(AddCartItemInput{UserID: 1, ProductID: product.ID, Size: "M", Quantity: 1}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := db.Model(&models.Product{}).Where("id = ?", product.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("delist product failed: %v", err)
	}

	detail, err := svc.ListByUser(1)
	if err != nil {
		t.Fatalf("list cart failed: %v", err)
	}
	if len(detail.Items) != 0 {
		t.Fatalf("delisted product should be pruned, got %d items", len(detail.Items))
	}

	var count int64
	if err := db.Model(&models.CartItem{}).Where("user_id = ?", 1).Count(&count).Error; err != nil {
		t.Fatalf("count cart rows failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("stale cart rows left behind: %d", count)
	}
}

func TestCartClearAndSummary(t *testing.T) {
	svc, db := newCartServiceTest(t)
	product := seedCartProduct(t, db, "denim-jacket", nil)

	if err := svc.AddItem(AddCartItemInput{UserID: 1, ProductID: product.ID, Size: "S", Quantity: 2}); err != nil {
		t.Fatalf("add S failed: %v", err)
	}
	if err := svc.AddItem(AddCartItemInput{UserID: 1, ProductID: product.ID, Size: "M", Quantity: 3}); err != nil {
		t.Fatalf("add M failed: %v", err)
	}

	summary, err := svc.Summary(1)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.Lines != 2 || summary.Quantity != 5 {
		t.Fatalf("summary want lines=2 quantity=5 got %+v", summary)
	}

	if err := svc.Clear(1); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	summary, err = svc.Summary(1)
	if err != nil {
		t.Fatalf("summary after clear failed: %v", err)
	}
	if summary.Lines != 0 || summary.Quantity != 0 {
		t.Fatalf("cleared summary want zeros got %+v", summary)
	}
}
