package service

import (
	"errors"
	"testing"

	"github.com/dasam-next/internal/models"
)

func pricingTestProduct(t *testing.T) *models.Product {
	t.Helper()
	return &models.Product{
		Slug:     "malabar-black-pepper",
		Variants: models.StringArray{"100g", "250g", "500g"},
		BasePrices: models.PriceMap{
			"100g": testMoney(t, "149.00"),
			"250g": testMoney(t, "329.00"),
		},
		DiscountedPrices: models.PriceMap{
			"250g": testMoney(t, "299.00"),
		},
		IsActive: true,
	}
}

func TestResolvePriceDiscountedWins(t *testing.T) {
	product := pricingTestProduct(t)

	price, err := ResolvePrice(product, "250g")
	if err != nil {
		t.Fatalf("resolve discounted price failed: %v", err)
	}
	if price.String() != "299.00" {
		t.Fatalf("expected discounted price 299.00, got %s", price.String())
	}
}

func TestResolvePriceBaseFallback(t *testing.T) {
	product := pricingTestProduct(t)

	price, err := ResolvePrice(product, "100g")
	if err != nil {
		t.Fatalf("resolve base price failed: %v", err)
	}
	if price.String() != "149.00" {
		t.Fatalf("expected base price 149.00, got %s", price.String())
	}
}

func TestResolvePriceErrors(t *testing.T) {
	product := pricingTestProduct(t)

	if _, err := ResolvePrice(nil, "250g"); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if _, err := ResolvePrice(product, ""); !errors.Is(err, ErrVariantRequired) {
		t.Fatalf("expected ErrVariantRequired, got %v", err)
	}
	if _, err := ResolvePrice(product, "2kg"); !errors.Is(err, ErrInvalidVariant) {
		t.Fatalf("expected ErrInvalidVariant, got %v", err)
	}
	// 规格在列表里但两张价表都没配价
	if _, err := ResolvePrice(product, "500g"); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
}

func TestResolvePriceRejectsNonPositive(t *testing.T) {
	product := &models.Product{
		Variants: models.StringArray{"1g"},
		BasePrices: models.PriceMap{
			"1g": testMoney(t, "0.00"),
		},
	}
	if _, err := ResolvePrice(product, "1g"); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice for zero price, got %v", err)
	}
}
