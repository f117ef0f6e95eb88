package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/dasam-next/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// setupServiceDB 每个测试独享一份内存库，并接管全局 DB 句柄供事务路径使用
func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	prev := models.DB
	models.DB = db
	t.Cleanup(func() { models.DB = prev })
	if err := models.AutoMigrate(); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func testMoney(t *testing.T, value string) models.Money {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("invalid money literal %q: %v", value, err)
	}
	return models.NewMoneyFromDecimal(d)
}

func createTestProduct(t *testing.T, db *gorm.DB, slug string) *models.Product {
	t.Helper()
	product := &models.Product{
		Slug:        slug,
		Name:        "Assam Gold Loose Leaf Tea",
		ProductType: "tea",
		Variants:    models.StringArray{"250g", "500g"},
		BasePrices: models.PriceMap{
			"250g": testMoney(t, "349.00"),
			"500g": testMoney(t, "649.00"),
		},
		DiscountedPrices: models.PriceMap{
			"500g": testMoney(t, "599.00"),
		},
		IsActive: true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{
		Name:   "Asha Verma",
		Email:  email,
		Status: "active",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func createTestAddress(t *testing.T, db *gorm.DB, userID uint, isDefault bool) *models.UserAddress {
	t.Helper()
	addr := &models.UserAddress{
		UserID:     userID,
		Line1:      "221 MG Road",
		Line2:      "Near City Mall",
		City:       "Bengaluru",
		State:      "Karnataka",
		PostalCode: "560001",
		Country:    "India",
		Phone:      "+91 98765 43210",
		IsDefault:  isDefault,
		IsActive:   true,
	}
	if err := db.Create(addr).Error; err != nil {
		t.Fatalf("create address failed: %v", err)
	}
	return addr
}
