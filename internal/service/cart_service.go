package service

import (
	"errors"

	"github.com/dasam-next/internal/logger"
	"github.com/dasam-next/internal/models"
	"github.com/dasam-next/internal/repository"

	"github.com/shopspring/decimal"
)

// cartUpdateMaxRetries 乐观锁冲突时的重读重试上限
const cartUpdateMaxRetries = 3

// CartOwner 购物车归属标识
// UserID 与 SessionID 二选一，UserID 优先。
type CartOwner struct {
	UserID    uint
	SessionID string
}

// valid 至少一种归属
func (o CartOwner) valid() bool {
	return o.UserID != 0 || o.SessionID != ""
}

// CartLineView 购物车行的展示结构（读取时联表补充商品元数据）
type CartLineView struct {
	ProductID   uint         `json:"product_id"`
	Variant     string       `json:"variant"`
	Quantity    int          `json:"quantity"`
	UnitPrice   models.Money `json:"unit_price"`
	Subtotal    models.Money `json:"subtotal"`
	Name        string       `json:"name"`
	Image       string       `json:"image"`
	ProductType string       `json:"product_type"`
}

// CartView 购物车展示结构
type CartView struct {
	ID           uint           `json:"id"`
	Items        []CartLineView `json:"items"`
	ProductCount int            `json:"product_count"`
	TotalPrice   models.Money   `json:"total_price"`
}

// CartService 购物车服务
// 所有改写路径遵循：重算派生字段 -> 带版本号条件更新 -> 冲突重读重试。
type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

// NewCartService 创建购物车服务
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// AddItem 加购
// 同 (product_id, variant) 的行合并数量；聚合字段整车重算。
func (s *CartService) AddItem(owner CartOwner, productID uint, variant string, quantity int) (*CartView, error) {
	if !owner.valid() {
		return nil, ErrCartOwnerMissing
	}
	if variant == "" {
		return nil, ErrVariantRequired
	}
	if quantity <= 0 {
		quantity = 1
	}

	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, ErrProductNotFound
	}
	price, err := ResolvePrice(product, variant)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < cartUpdateMaxRetries; attempt++ {
		cart, err := s.loadCart(owner)
		if err != nil {
			return nil, err
		}

		if cart == nil {
			cart = s.newCart(owner)
			applyAddLine(cart, productID, variant, quantity, price)
			cart.Recalculate()
			if err := s.cartRepo.Create(cart); err != nil {
				// 并发首次加购可能撞唯一约束，重读后走更新路径
				lastErr = err
				continue
			}
			return s.buildCartView(cart)
		}

		if err := s.refreshLinePrices(cart); err != nil {
			return nil, err
		}
		applyAddLine(cart, productID, variant, quantity, price)
		cart.Recalculate()

		err = s.cartRepo.UpdateWithVersion(cart)
		if err == nil {
			return s.buildCartView(cart)
		}
		if !errors.Is(err, repository.ErrCartVersionConflict) {
			return nil, err
		}
		lastErr = err
	}

	logger.Warnw("cart_update_conflict_exhausted",
		"user_id", owner.UserID,
		"session_id", owner.SessionID,
		"product_id", productID,
	)
	if lastErr != nil && !errors.Is(lastErr, repository.ErrCartVersionConflict) {
		return nil, lastErr
	}
	return nil, ErrCartConflict
}

// RemoveItem 减购/移除
// removeEntirely 为真或数量减到零时整行删除；最后一行删除后整车物理删除。
// 移除不存在的行是无操作，按当前购物车原样返回。
func (s *CartService) RemoveItem(owner CartOwner, productID uint, variant string, removeEntirely bool) (*CartView, error) {
	if !owner.valid() {
		return nil, ErrCartOwnerMissing
	}

	var lastErr error
	for attempt := 0; attempt < cartUpdateMaxRetries; attempt++ {
		cart, err := s.loadCart(owner)
		if err != nil {
			return nil, err
		}
		if cart == nil {
			return emptyCartView(), nil
		}

		idx := findLine(cart, productID, variant)
		if idx < 0 {
			return s.buildCartView(cart)
		}

		if removeEntirely || cart.Items[idx].Quantity <= 1 {
			cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
		} else {
			line := &cart.Items[idx]
			line.Quantity--
			line.Subtotal = lineSubtotal(line.UnitPrice, line.Quantity)
		}

		if len(cart.Items) == 0 {
			if err := s.cartRepo.Delete(cart.ID); err != nil {
				return nil, err
			}
			return emptyCartView(), nil
		}

		if err := s.refreshLinePrices(cart); err != nil {
			return nil, err
		}
		cart.Recalculate()

		err = s.cartRepo.UpdateWithVersion(cart)
		if err == nil {
			return s.buildCartView(cart)
		}
		if !errors.Is(err, repository.ErrCartVersionConflict) {
			return nil, err
		}
		lastErr = err
	}

	logger.Warnw("cart_update_conflict_exhausted",
		"user_id", owner.UserID,
		"session_id", owner.SessionID,
		"product_id", productID,
	)
	_ = lastErr
	return nil, ErrCartConflict
}

// GetCart 读取购物车（缺失时返回规范空车）
func (s *CartService) GetCart(owner CartOwner) (*CartView, error) {
	if !owner.valid() {
		return nil, ErrCartOwnerMissing
	}
	cart, err := s.loadCart(owner)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return emptyCartView(), nil
	}
	return s.buildCartView(cart)
}

// Snapshot 读取下单用的购物车快照（原始模型，不做展示联表）
func (s *CartService) Snapshot(owner CartOwner) (*models.Cart, error) {
	if !owner.valid() {
		return nil, ErrCartOwnerMissing
	}
	return s.loadCart(owner)
}

// ClearByUser 下单完成后清空用户购物车
func (s *CartService) ClearByUser(userID uint) error {
	cart, err := s.cartRepo.GetByUserID(userID)
	if err != nil {
		return err
	}
	if cart == nil {
		return nil
	}
	return s.cartRepo.Delete(cart.ID)
}

func (s *CartService) loadCart(owner CartOwner) (*models.Cart, error) {
	if owner.UserID != 0 {
		return s.cartRepo.GetByUserID(owner.UserID)
	}
	return s.cartRepo.GetBySessionID(owner.SessionID)
}

func (s *CartService) newCart(owner CartOwner) *models.Cart {
	cart := &models.Cart{Items: models.CartLines{}}
	if owner.UserID != 0 {
		userID := owner.UserID
		cart.UserID = &userID
	} else {
		sessionID := owner.SessionID
		cart.SessionID = &sessionID
	}
	return cart
}

// refreshLinePrices 按当前目录价重算各行单价与小计
// 商品下架或规格失效时保留已存单价，避免误删用户已加购的行。
func (s *CartService) refreshLinePrices(cart *models.Cart) error {
	ids := make([]uint, 0, len(cart.Items))
	for _, line := range cart.Items {
		ids = append(ids, line.ProductID)
	}
	products, err := s.productRepo.ListByIDs(ids)
	if err != nil {
		return err
	}
	byID := make(map[uint]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	for i := range cart.Items {
		line := &cart.Items[i]
		product, ok := byID[line.ProductID]
		if !ok {
			line.Subtotal = lineSubtotal(line.UnitPrice, line.Quantity)
			continue
		}
		price, err := ResolvePrice(product, line.Variant)
		if err != nil {
			line.Subtotal = lineSubtotal(line.UnitPrice, line.Quantity)
			continue
		}
		line.UnitPrice = price
		line.Subtotal = lineSubtotal(price, line.Quantity)
	}
	return nil
}

func (s *CartService) buildCartView(cart *models.Cart) (*CartView, error) {
	ids := make([]uint, 0, len(cart.Items))
	for _, line := range cart.Items {
		ids = append(ids, line.ProductID)
	}
	products, err := s.productRepo.ListByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	items := make([]CartLineView, 0, len(cart.Items))
	for _, line := range cart.Items {
		view := CartLineView{
			ProductID: line.ProductID,
			Variant:   line.Variant,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Subtotal:  line.Subtotal,
		}
		if product, ok := byID[line.ProductID]; ok {
			view.Name = product.Name
			view.Image = product.Image
			view.ProductType = product.ProductType
		}
		items = append(items, view)
	}

	return &CartView{
		ID:           cart.ID,
		Items:        items,
		ProductCount: cart.ProductCount,
		TotalPrice:   cart.TotalPrice,
	}, nil
}

// emptyCartView 规范空车表示
func emptyCartView() *CartView {
	return &CartView{
		Items:        []CartLineView{},
		ProductCount: 0,
		TotalPrice:   models.Money{},
	}
}

// applyAddLine 合并或追加行
func applyAddLine(cart *models.Cart, productID uint, variant string, quantity int, price models.Money) {
	idx := findLine(cart, productID, variant)
	if idx >= 0 {
		line := &cart.Items[idx]
		line.Quantity += quantity
		line.UnitPrice = price
		line.Subtotal = lineSubtotal(price, line.Quantity)
		return
	}
	cart.Items = append(cart.Items, models.CartLine{
		ProductID: productID,
		Variant:   variant,
		Quantity:  quantity,
		UnitPrice: price,
		Subtotal:  lineSubtotal(price, quantity),
	})
}

// findLine 行定位：product_id 与 variant 同时匹配
func findLine(cart *models.Cart, productID uint, variant string) int {
	for i, line := range cart.Items {
		if line.ProductID == productID && line.Variant == variant {
			return i
		}
	}
	return -1
}

func lineSubtotal(price models.Money, quantity int) models.Money {
	return models.NewMoneyFromDecimal(price.Decimal.Mul(decimal.NewFromInt(int64(quantity))))
}
