package main

import (
	"github.com/stylefit-next/internal/config"
	"github.com/stylefit-next/internal/logger"
	"github.com/stylefit-next/internal/models"

	"github.com/shopspring/decimal"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 添加分类
	categories := []models.Category{
		{Slug: "dresses", Name: "Dresses", Description: "Casual and evening dresses", SortOrder: 1},
		{Slug: "tops", Name: "Tops", Description: "T-shirts, blouses and shirts", SortOrder: 2},
		{Slug: "outerwear", Name: "Outerwear", Description: "Jackets and coats", SortOrder: 3},
	}

	for _, cat := range categories {
		var existing models.Category
		if err := models.DB.Where("slug = ?", cat.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&cat).Error; err != nil {
				stdLog.Printf("Failed to create category %s: %v", cat.Slug, err)
			} else {
				stdLog.Printf("Created category: %s", cat.Slug)
			}
		} else {
			stdLog.Printf("Category already exists: %s", cat.Slug)
		}
	}

	// 获取分类ID
	categoryIDs := map[string]uint{}
	var categoryList []models.Category
	if err := models.DB.Where("slug IN ?", []string{"dresses", "tops", "outerwear"}).Find(&categoryList).Error; err != nil {
		stdLog.Printf("Failed to load categories: %v", err)
	}
	for _, cat := range categoryList {
		categoryIDs[cat.Slug] = cat.ID
	}

	// 添加商品
	products := []models.Product{
		{
			CategoryID:  categoryIDs["dresses"],
			Slug:        "linen-wrap-dress",
			Title:       "Linen Wrap Dress",
			Description: "Breathable linen wrap dress with a tie waist, perfect for warm days.",
			PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromFloat(89.00)),
			Stock:       60,
			Images: models.StringArray{
				"https://images.unsplash.com/photo-1595777457583-95e059d581b8?w=800",
				"https://images.unsplash.com/photo-1572804013309-59a88b7e92f1?w=800",
			},
			Sizes:        models.StringArray{"S", "M", "L"},
			IsFeatured:   true,
			TrialEnabled: true,
			IsActive:     true,
			SortOrder:    1,
		},
		{
			CategoryID:  categoryIDs["dresses"],
			Slug:        "satin-slip-dress",
			Title:       "Satin Slip Dress",
			Description: "Bias-cut satin slip dress with adjustable straps.",
			PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromFloat(119.00)),
			Stock:       40,
			Images: models.StringArray{
				"https://images.unsplash.com/photo-1566174053879-31528523f8ae?w=800",
			},
			Sizes:        models.StringArray{"XS", "S", "M", "L"},
			TrialEnabled: true,
			IsActive:     true,
			SortOrder:    2,
		},
		{
			CategoryID:  categoryIDs["tops"],
			Slug:        "organic-cotton-tee",
			Title:       "Organic Cotton Tee",
			Description: "Relaxed-fit tee in heavyweight organic cotton.",
			PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromFloat(29.00)),
			Stock:       200,
			Images: models.StringArray{
				"https://images.unsplash.com/photo-1521572163474-6864f9cf17ab?w=800",
			},
			Sizes:      models.StringArray{"S", "M", "L", "XL"},
			IsFeatured: true,
			IsActive:   true,
			SortOrder:  1,
		},
		{
			CategoryID:  categoryIDs["tops"],
			Slug:        "silk-blouse",
			Title:       "Silk Blouse",
			Description: "Fluid silk blouse with concealed placket and French cuffs.",
			PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromFloat(149.00)),
			Stock:       35,
			Images: models.StringArray{
				"https://images.unsplash.com/photo-1564257631407-4deb1f99d992?w=800",
			},
			Sizes:        models.StringArray{"S", "M", "L"},
			TrialEnabled: true,
			IsActive:     true,
			SortOrder:    2,
		},
		{
			CategoryID:  categoryIDs["outerwear"],
			Slug:        "wool-overcoat",
			Title:       "Wool Overcoat",
			Description: "Double-faced wool overcoat with a relaxed silhouette.",
			PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromFloat(289.00)),
			Stock:       20,
			Images: models.StringArray{
				"https://images.unsplash.com/photo-1539533018447-63fcce2678e3?w=800",
			},
			Sizes:      models.StringArray{"M", "L", "XL"},
			IsFeatured: true,
			IsActive:   true,
			SortOrder:  1,
		},
		{
			CategoryID:  categoryIDs["outerwear"],
			Slug:        "denim-jacket",
			Title:       "Denim Jacket",
			Description: "Classic trucker jacket in rigid indigo denim.",
			PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromFloat(99.00)),
			Stock:       80,
			Images: models.StringArray{
				"https://images.unsplash.com/photo-1576995853123-5a10305d93c0?w=800",
			},
			Sizes:        models.StringArray{"S", "M", "L", "XL"},
			TrialEnabled: true,
			IsActive:     true,
			SortOrder:    2,
		},
	}

	sizeQuantities := map[string]map[string]int{
		"linen-wrap-dress":   {"S": 20, "M": 25, "L": 15},
		"satin-slip-dress":   {"XS": 5, "S": 10, "M": 15, "L": 10},
		"organic-cotton-tee": {"S": 50, "M": 60, "L": 60, "XL": 30},
		"silk-blouse":        {"S": 10, "M": 15, "L": 10},
		"wool-overcoat":      {"M": 8, "L": 8, "XL": 4},
		"denim-jacket":       {"S": 15, "M": 25, "L": 25, "XL": 15},
	}

	for _, product := range products {
		var existing models.Product
		if err := models.DB.Where("slug = ?", product.Slug).First(&existing).Error; err == nil {
			stdLog.Printf("Product already exists: %s", product.Slug)
			continue
		}
		if err := models.DB.Create(&product).Error; err != nil {
			stdLog.Printf("Failed to create product %s: %v", product.Slug, err)
			continue
		}
		stdLog.Printf("Created product: %s", product.Slug)

		for size, quantity := range sizeQuantities[product.Slug] {
			row := models.SizeStock{
				ProductID: product.ID,
				Size:      size,
				Quantity:  quantity,
			}
			if err := models.DB.Create(&row).Error; err != nil {
				stdLog.Printf("Failed to create size stock %s/%s: %v", product.Slug, size, err)
			}
		}
	}

	stdLog.Printf("Seed completed")
}
