package main

import (
	"time"

	"github.com/dasam-next/internal/config"
	"github.com/dasam-next/internal/constants"
	"github.com/dasam-next/internal/logger"
	"github.com/dasam-next/internal/models"

	"github.com/shopspring/decimal"
)

func money(value string) models.Money {
	return models.NewMoneyFromDecimal(decimal.RequireFromString(value))
}

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

	// 演示商品：按规格（重量）定价，部分带折扣价
	products := []models.Product{
		{
			Slug:        "assam-gold-tea",
			Name:        "Assam Gold Loose Leaf Tea",
			Image:       "/uploads/products/assam-gold-tea.jpg",
			ProductType: "tea",
			Variants:    models.StringArray{"250g", "500g", "1kg"},
			BasePrices: models.PriceMap{
				"250g": money("349.00"),
				"500g": money("649.00"),
				"1kg":  money("1199.00"),
			},
			DiscountedPrices: models.PriceMap{
				"500g": money("599.00"),
			},
			IsActive:  true,
			SortOrder: 10,
		},
		{
			Slug:        "kashmiri-saffron",
			Name:        "Kashmiri Mongra Saffron",
			Image:       "/uploads/products/kashmiri-saffron.jpg",
			ProductType: "spice",
			Variants:    models.StringArray{"1g", "2g", "5g"},
			BasePrices: models.PriceMap{
				"1g": money("499.00"),
				"2g": money("949.00"),
				"5g": money("2299.00"),
			},
			IsActive:  true,
			SortOrder: 20,
		},
		{
			Slug:        "malabar-black-pepper",
			Name:        "Malabar Black Pepper Whole",
			Image:       "/uploads/products/malabar-black-pepper.jpg",
			ProductType: "spice",
			Variants:    models.StringArray{"100g", "250g", "500g"},
			BasePrices: models.PriceMap{
				"100g": money("149.00"),
				"250g": money("329.00"),
				"500g": money("599.00"),
			},
			DiscountedPrices: models.PriceMap{
				"250g": money("299.00"),
				"500g": money("549.00"),
			},
			IsActive:  true,
			SortOrder: 30,
		},
		{
			Slug:        "himalayan-wild-honey",
			Name:        "Himalayan Wild Forest Honey",
			Image:       "/uploads/products/himalayan-wild-honey.jpg",
			ProductType: "grocery",
			Variants:    models.StringArray{"250g", "500g"},
			BasePrices: models.PriceMap{
				"250g": money("399.00"),
				"500g": money("749.00"),
			},
			IsActive:  true,
			SortOrder: 40,
		},
	}

	for _, product := range products {
		var existing models.Product
		if err := models.DB.Where("slug = ?", product.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&product).Error; err != nil {
				stdLog.Printf("Failed to create product %s: %v", product.Slug, err)
			} else {
				stdLog.Printf("Created product: %s", product.Slug)
			}
		} else {
			stdLog.Printf("Product already exists: %s", product.Slug)
		}
	}

	// 演示优惠券
	expires := time.Now().AddDate(0, 3, 0)
	coupons := []models.Coupon{
		{Code: "WELCOME50", Type: constants.CouponTypeFixed, Value: money("50.00"), IsActive: true, ExpiresAt: &expires},
		{Code: "FEST10", Type: constants.CouponTypePercent, Value: money("10.00"), IsActive: true, ExpiresAt: &expires},
	}
	for _, coupon := range coupons {
		var existing models.Coupon
		if err := models.DB.Where("code = ?", coupon.Code).First(&existing).Error; err != nil {
			if err := models.DB.Create(&coupon).Error; err != nil {
				stdLog.Printf("Failed to create coupon %s: %v", coupon.Code, err)
			} else {
				stdLog.Printf("Created coupon: %s", coupon.Code)
			}
		} else {
			stdLog.Printf("Coupon already exists: %s", coupon.Code)
		}
	}

	// 默认管理员
	if err := models.InitDefaultAdmin("", ""); err != nil {
		stdLog.Printf("Failed to init default admin: %v", err)
	}

	stdLog.Printf("Seed finished")
}
