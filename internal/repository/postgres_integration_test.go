//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stylefit-next/internal/constants"
	"github.com/stylefit-next/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{
		&models.OrderItem{},
		&models.Order{},
		&models.SizeStock{},
		&models.Product{},
		&models.Category{},
	}
	if err := db.Migrator().DropTable(cleanupModels...); err != nil {
		t.Fatalf("drop tables failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.SizeStock{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		t.Fatalf("migrate tables failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
	})

	return db
}

func TestPostgresProductSearchAndFilters(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewProductRepository(db)

	category := models.Category{Slug: "outerwear", Name: "Outerwear"}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("create category failed: %v", err)
	}

	products := []models.Product{
		{
			CategoryID:  category.ID,
			Slug:        "wool-overcoat",
			Title:       "Wool Overcoat",
			Description: "Heavy winter layer",
			PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(289)),
			Stock:       4,
			Sizes:       models.StringArray{"M", "L"},
			IsActive:    true,
			IsFeatured:  true,
		},
		{
			CategoryID:  category.ID,
			Slug:        "denim-jacket",
			Title:       "Denim Jacket",
			Description: "Everyday layer",
			PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(99)),
			Stock:       0,
			Sizes:       models.StringArray{"S", "M"},
			IsActive:    true,
		},
		{
			CategoryID:  category.ID,
			Slug:        "archived-parka",
			Title:       "Archived Parka",
			PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(199)),
			Stock:       9,
			IsActive:    false,
		},
	}
	for i := range products {
		if err := repo.Create(&products[i]); err != nil {
			t.Fatalf("create product %s failed: %v", products[i].Slug, err)
		}
	}

	listSlugs := func(name string, filter ProductListFilter) map[string]bool {
		t.Helper()
		filter.Page = 1
		filter.PageSize = 50
		items, _, err := repo.List(filter)
		if err != nil {
			t.Fatalf("%s: list failed: %v", name, err)
		}
		got := make(map[string]bool, len(items))
		for _, item := range items {
			got[item.Slug] = true
		}
		return got
	}

	got := listSlugs("search", ProductListFilter{Search: "winter", OnlyActive: true})
	if !got["wool-overcoat"] || got["denim-jacket"] {
		t.Fatalf("search filter mismatch: %v", got)
	}

	got = listSlugs("featured", ProductListFilter{OnlyFeatured: true, OnlyActive: true})
	if !got["wool-overcoat"] || got["denim-jacket"] {
		t.Fatalf("featured filter mismatch: %v", got)
	}

	got = listSlugs("stock-out", ProductListFilter{StockStatus: "out"})
	if !got["denim-jacket"] || got["wool-overcoat"] {
		t.Fatalf("stock filter mismatch: %v", got)
	}

	got = listSlugs("active", ProductListFilter{OnlyActive: true})
	if got["archived-parka"] {
		t.Fatalf("inactive product should be hidden: %v", got)
	}
}

func TestPostgresSizeStockUniqueConstraint(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewProductRepository(db)

	product := models.Product{
		CategoryID:  1,
		Slug:        "linen-wrap-dress",
		Title:       "Linen Wrap Dress",
		PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(89)),
		Stock:       10,
		IsActive:    true,
	}
	if err := repo.Create(&product); err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	if err := db.Create(&models.SizeStock{ProductID: product.ID, Size: "M", Quantity: 5}).Error; err != nil {
		t.Fatalf("create size stock failed: %v", err)
	}
	if err := db.Create(&models.SizeStock{ProductID: product.ID, Size: "M", Quantity: 3}).Error; err == nil {
		t.Fatalf("duplicate size row should violate unique index")
	}
}

func TestPostgresOrderListAndWebhookLookups(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewOrderRepository(db)

	paidAt := time.Now().Add(-time.Hour)
	orders := []struct {
		order models.Order
		items []models.OrderItem
	}{
		{
			order: models.Order{
				OrderNo:           "SF202608300001",
				UserID:            1,
				Status:            constants.OrderStatusProcessing,
				Currency:          "USD",
				TotalAmount:       models.NewMoneyFromDecimal(decimal.NewFromInt(89)),
				CheckoutSessionID: "cs_test_paid",
				PaymentIntentID:   "pi_test_paid",
				PaidAt:            &paidAt,
			},
			items: []models.OrderItem{{
				ProductID:  1,
				Title:      "Linen Wrap Dress",
				Size:       "M",
				UnitPrice:  models.NewMoneyFromDecimal(decimal.NewFromInt(89)),
				Quantity:   1,
				TotalPrice: models.NewMoneyFromDecimal(decimal.NewFromInt(89)),
			}},
		},
		{
			order: models.Order{
				OrderNo:           "SF202608300002",
				UserID:            2,
				Status:            constants.OrderStatusPending,
				Currency:          "USD",
				TotalAmount:       models.NewMoneyFromDecimal(decimal.NewFromInt(99)),
				CheckoutSessionID: "cs_test_pending",
			},
			items: []models.OrderItem{{
				ProductID:  2,
				Title:      "Denim Jacket",
				Size:       "S",
				UnitPrice:  models.NewMoneyFromDecimal(decimal.NewFromInt(99)),
				Quantity:   1,
				TotalPrice: models.NewMoneyFromDecimal(decimal.NewFromInt(99)),
			}},
		},
	}
	for i := range orders {
		if err := repo.Create(&orders[i].order, orders[i].items); err != nil {
			t.Fatalf("create order %s failed: %v", orders[i].order.OrderNo, err)
		}
	}

	listed, total, err := repo.ListAdmin(OrderListFilter{Page: 1, PageSize: 20, Status: constants.OrderStatusProcessing})
	if err != nil {
		t.Fatalf("admin order list failed: %v", err)
	}
	if total != 1 || len(listed) != 1 || listed[0].OrderNo != "SF202608300001" {
		t.Fatalf("status filter mismatch: total=%d listed=%+v", total, listed)
	}
	if len(listed[0].Items) != 1 {
		t.Fatalf("expected preloaded items, got %d", len(listed[0].Items))
	}

	listed, total, err = repo.ListByUser(OrderListFilter{Page: 1, PageSize: 20, UserID: 2})
	if err != nil {
		t.Fatalf("user order list failed: %v", err)
	}
	if total != 1 || len(listed) != 1 || listed[0].OrderNo != "SF202608300002" {
		t.Fatalf("user filter mismatch: total=%d listed=%+v", total, listed)
	}

	bySession, err := repo.GetByCheckoutSessionID("cs_test_pending")
	if err != nil {
		t.Fatalf("get by checkout session failed: %v", err)
	}
	if bySession == nil || bySession.OrderNo != "SF202608300002" {
		t.Fatalf("checkout session lookup mismatch: %+v", bySession)
	}

	byIntent, err := repo.GetByPaymentIntentID("pi_test_paid")
	if err != nil {
		t.Fatalf("get by payment intent failed: %v", err)
	}
	if byIntent == nil || byIntent.OrderNo != "SF202608300001" {
		t.Fatalf("payment intent lookup mismatch: %+v", byIntent)
	}
}
