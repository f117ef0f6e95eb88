package service

import (
	"errors"
	"testing"

	"github.com/dasam-next/internal/repository"
)

func setupCartServiceTest(t *testing.T) *CartService {
	t.Helper()
	db := setupServiceDB(t)
	return NewCartService(repository.NewCartRepository(db), repository.NewProductRepository(db))
}

func TestCartAddItemCreatesCart(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewCartService(repository.NewCartRepository(db), repository.NewProductRepository(db))
	product := createTestProduct(t, db, "assam-gold-tea")
	owner := CartOwner{SessionID: "sess-add-1"}

	view, err := svc.AddItem(owner, product.ID, "250g", 2)
	if err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	if len(view.Items) != 1 {
		t.Fatalf("expected 1 line, got %d", len(view.Items))
	}
	line := view.Items[0]
	if line.Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", line.Quantity)
	}
	if line.UnitPrice.String() != "349.00" {
		t.Fatalf("expected unit price 349.00, got %s", line.UnitPrice.String())
	}
	if line.Subtotal.String() != "698.00" {
		t.Fatalf("expected subtotal 698.00, got %s", line.Subtotal.String())
	}
	if view.ProductCount != 2 {
		t.Fatalf("expected product count 2, got %d", view.ProductCount)
	}
	if view.TotalPrice.String() != "698.00" {
		t.Fatalf("expected total 698.00, got %s", view.TotalPrice.String())
	}
}

func TestCartAddItemMergesSameLine(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewCartService(repository.NewCartRepository(db), repository.NewProductRepository(db))
	product := createTestProduct(t, db, "assam-gold-tea")
	owner := CartOwner{SessionID: "sess-merge-1"}

	if _, err := svc.AddItem(owner, product.ID, "500g", 1); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	view, err := svc.AddItem(owner, product.ID, "500g", 2)
	if err != nil {
		t.Fatalf("second add failed: %v", err)
	}
	if len(view.Items) != 1 {
		t.Fatalf("expected merged single line, got %d", len(view.Items))
	}
	if view.Items[0].Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", view.Items[0].Quantity)
	}
	// 500g 配了折扣价，应以折扣价计行小计
	if view.Items[0].Subtotal.String() != "1797.00" {
		t.Fatalf("expected subtotal 1797.00, got %s", view.Items[0].Subtotal.String())
	}
}

func TestCartAddItemDistinctVariantsSplitLines(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewCartService(repository.NewCartRepository(db), repository.NewProductRepository(db))
	product := createTestProduct(t, db, "assam-gold-tea")
	owner := CartOwner{SessionID: "sess-variant-1"}

	if _, err := svc.AddItem(owner, product.ID, "250g", 1); err != nil {
		t.Fatalf("add 250g failed: %v", err)
	}
	view, err := svc.AddItem(owner, product.ID, "500g", 1)
	if err != nil {
		t.Fatalf("add 500g failed: %v", err)
	}
	if len(view.Items) != 2 {
		t.Fatalf("expected 2 lines for distinct variants, got %d", len(view.Items))
	}
	if view.ProductCount != 2 {
		t.Fatalf("expected product count 2, got %d", view.ProductCount)
	}
	if view.TotalPrice.String() != "948.00" {
		t.Fatalf("expected total 948.00, got %s", view.TotalPrice.String())
	}
}

func TestCartAddItemValidation(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewCartService(repository.NewCartRepository(db), repository.NewProductRepository(db))
	product := createTestProduct(t, db, "assam-gold-tea")
	owner := CartOwner{SessionID: "sess-validate-1"}

	if _, err := svc.AddItem(CartOwner{}, product.ID, "250g", 1); !errors.Is(err, ErrCartOwnerMissing) {
		t.Fatalf("expected ErrCartOwnerMissing, got %v", err)
	}
	if _, err := svc.AddItem(owner, product.ID, "", 1); !errors.Is(err, ErrVariantRequired) {
		t.Fatalf("expected ErrVariantRequired, got %v", err)
	}
	if _, err := svc.AddItem(owner, product.ID, "2kg", 1); !errors.Is(err, ErrInvalidVariant) {
		t.Fatalf("expected ErrInvalidVariant, got %v", err)
	}
	if _, err := svc.AddItem(owner, 9999, "250g", 1); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestCartAddItemRejectsInactiveProduct(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewCartService(repository.NewCartRepository(db), repository.NewProductRepository(db))
	product := createTestProduct(t, db, "assam-gold-tea")
	if err := db.Model(product).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate product failed: %v", err)
	}

	_, err := svc.AddItem(CartOwner{SessionID: "sess-inactive-1"}, product.ID, "250g", 1)
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound for inactive product, got %v", err)
	}
}

func TestCartRemoveItemDecrementsQuantity(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewCartService(repository.NewCartRepository(db), repository.NewProductRepository(db))
	product := createTestProduct(t, db, "assam-gold-tea")
	owner := CartOwner{SessionID: "sess-remove-1"}

	if _, err := svc.AddItem(owner, product.ID, "250g", 3); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	view, err := svc.RemoveItem(owner, product.ID, "250g", false)
	if err != nil {
		t.Fatalf("remove item failed: %v", err)
	}
	if view.Items[0].Quantity != 2 {
		t.Fatalf("expected quantity 2 after decrement, got %d", view.Items[0].Quantity)
	}
	if view.TotalPrice.String() != "698.00" {
		t.Fatalf("expected total 698.00, got %s", view.TotalPrice.String())
	}
}

func TestCartRemoveItemEntirelyDeletesLine(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewCartService(repository.NewCartRepository(db), repository.NewProductRepository(db))
	product := createTestProduct(t, db, "assam-gold-tea")
	owner := CartOwner{SessionID: "sess-remove-2"}

	if _, err := svc.AddItem(owner, product.ID, "250g", 3); err != nil {
		t.Fatalf("add 250g failed: %v", err)
	}
	if _, err := svc.AddItem(owner, product.ID, "500g", 1); err != nil {
		t.Fatalf("add 500g failed: %v", err)
	}

	view, err := svc.RemoveItem(owner, product.ID, "250g", true)
	if err != nil {
		t.Fatalf("remove entirely failed: %v", err)
	}
	if len(view.Items) != 1 {
		t.Fatalf("expected 1 remaining line, got %d", len(view.Items))
	}
	if view.Items[0].Variant != "500g" {
		t.Fatalf("expected remaining variant 500g, got %s", view.Items[0].Variant)
	}
}

func TestCartRemoveLastLineDeletesCart(t *testing.T) {
	db := setupServiceDB(t)
	cartRepo := repository.NewCartRepository(db)
	svc := NewCartService(cartRepo, repository.NewProductRepository(db))
	product := createTestProduct(t, db, "assam-gold-tea")
	owner := CartOwner{SessionID: "sess-remove-3"}

	if _, err := svc.AddItem(owner, product.ID, "250g", 1); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	view, err := svc.RemoveItem(owner, product.ID, "250g", false)
	if err != nil {
		t.Fatalf("remove last line failed: %v", err)
	}
	if len(view.Items) != 0 || view.ProductCount != 0 {
		t.Fatalf("expected empty cart view, got %+v", view)
	}

	cart, err := cartRepo.GetBySessionID(owner.SessionID)
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if cart != nil {
		t.Fatalf("expected cart row deleted, found id=%d", cart.ID)
	}
}

func TestCartRemoveMissingLineIsNoop(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewCartService(repository.NewCartRepository(db), repository.NewProductRepository(db))
	product := createTestProduct(t, db, "assam-gold-tea")
	owner := CartOwner{SessionID: "sess-remove-4"}

	if _, err := svc.AddItem(owner, product.ID, "250g", 2); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	view, err := svc.RemoveItem(owner, product.ID, "500g", false)
	if err != nil {
		t.Fatalf("noop remove failed: %v", err)
	}
	if view.Items[0].Quantity != 2 {
		t.Fatalf("expected untouched quantity 2, got %d", view.Items[0].Quantity)
	}

	// 空车上的移除同样无操作
	empty, err := svc.RemoveItem(CartOwner{SessionID: "sess-never-seen"}, product.ID, "250g", false)
	if err != nil {
		t.Fatalf("remove on missing cart failed: %v", err)
	}
	if len(empty.Items) != 0 {
		t.Fatalf("expected empty view, got %d lines", len(empty.Items))
	}
}

func TestCartGetCartMissingReturnsEmptyView(t *testing.T) {
	svc := setupCartServiceTest(t)

	view, err := svc.GetCart(CartOwner{SessionID: "sess-empty-1"})
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if len(view.Items) != 0 || view.ProductCount != 0 || view.TotalPrice.String() != "0.00" {
		t.Fatalf("expected canonical empty view, got %+v", view)
	}
}

func TestCartRefreshPicksUpRepricing(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewCartService(repository.NewCartRepository(db), repository.NewProductRepository(db))
	product := createTestProduct(t, db, "assam-gold-tea")
	owner := CartOwner{SessionID: "sess-reprice-1"}

	if _, err := svc.AddItem(owner, product.ID, "250g", 2); err != nil {
		t.Fatalf("add item failed: %v", err)
	}

	// 目录调价后，任何改写路径都应按新价重算既有行
	product.DiscountedPrices["250g"] = testMoney(t, "299.00")
	if err := db.Model(product).Update("discounted_prices", product.DiscountedPrices).Error; err != nil {
		t.Fatalf("update discounted prices failed: %v", err)
	}

	view, err := svc.AddItem(owner, product.ID, "500g", 1)
	if err != nil {
		t.Fatalf("add after reprice failed: %v", err)
	}
	for _, line := range view.Items {
		if line.Variant == "250g" && line.UnitPrice.String() != "299.00" {
			t.Fatalf("expected repriced 250g line at 299.00, got %s", line.UnitPrice.String())
		}
	}
}

func TestCartClearByUser(t *testing.T) {
	db := setupServiceDB(t)
	cartRepo := repository.NewCartRepository(db)
	svc := NewCartService(cartRepo, repository.NewProductRepository(db))
	product := createTestProduct(t, db, "assam-gold-tea")
	user := createTestUser(t, db, "asha@example.in")

	if _, err := svc.AddItem(CartOwner{UserID: user.ID}, product.ID, "250g", 1); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	if err := svc.ClearByUser(user.ID); err != nil {
		t.Fatalf("clear by user failed: %v", err)
	}
	cart, err := cartRepo.GetByUserID(user.ID)
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if cart != nil {
		t.Fatalf("expected cart cleared, found id=%d", cart.ID)
	}

	// 再次清空无车可清，应为无操作
	if err := svc.ClearByUser(user.ID); err != nil {
		t.Fatalf("clear on missing cart failed: %v", err)
	}
}
