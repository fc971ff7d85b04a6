package service

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"gadget-store/internal/core/metrics"
	"gadget-store/internal/domain"
)

// CartLineView 购物车展示行，商品信息取当前值
type CartLineView struct {
	ProductID     string          `json:"productId"`
	Product       string          `json:"product"`
	Description   string          `json:"description"`
	Quantity      int             `json:"quantity"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	StockQuantity int             `json:"stockQuantity"`
}

type CartView struct {
	User       string          `json:"user"`
	Items      []CartLineView  `json:"items"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

type CartService struct {
	carts    domain.CartRepository
	products domain.ProductRepository
	users    domain.UserRepository
	log      *zap.Logger
}

func NewCartService(carts domain.CartRepository, products domain.ProductRepository, users domain.UserRepository, l *zap.Logger) *CartService {
	if l == nil {
		l = zap.NewNop()
	}
	return &CartService{carts: carts, products: products, users: users, log: l.Named("cart")}
}

func (s *CartService) GetCart(ctx context.Context, userID string) (*CartView, error) {
	c, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, domain.Internal("find cart", err)
	}
	if c == nil {
		return nil, domain.NotFound("cart not found")
	}
	return s.view(ctx, c)
}

// AddItem 每次追加新行；库存只校验不扣减
func (s *CartService) AddItem(ctx context.Context, userID, productID string, qty int) (*domain.Product, *domain.Cart, error) {
	p, c, err := s.addItem(ctx, userID, productID, qty)
	metrics.ObserveCart("add", err)
	return p, c, err
}

func (s *CartService) addItem(ctx context.Context, userID, productID string, qty int) (*domain.Product, *domain.Cart, error) {
	if qty < 1 {
		return nil, nil, domain.Validation("quantity must be at least 1")
	}
	p, err := s.stockedProduct(ctx, productID, qty)
	if err != nil {
		return nil, nil, err
	}
	c, err := s.carts.Mutate(ctx, userID, true, func(c *domain.Cart) error {
		c.AddLine(p.ID, qty, p.Price)
		return nil
	})
	if err != nil {
		return nil, nil, wrapRepo("add to cart", err)
	}
	return p, c, nil
}

func (s *CartService) UpdateItemQuantity(ctx context.Context, userID, productID string, qty int) (*CartView, error) {
	v, err := s.updateItemQuantity(ctx, userID, productID, qty)
	metrics.ObserveCart("update", err)
	return v, err
}

func (s *CartService) updateItemQuantity(ctx context.Context, userID, productID string, qty int) (*CartView, error) {
	if qty < 1 {
		return nil, domain.Validation("newQuantity must be at least 1")
	}
	p, err := s.stockedProduct(ctx, productID, qty)
	if err != nil {
		return nil, err
	}
	c, err := s.carts.Mutate(ctx, userID, false, func(c *domain.Cart) error {
		idx := c.LineIndex(productID)
		if idx < 0 {
			return domain.NotFound("item not found in cart")
		}
		c.SetQuantity(idx, qty, p.Price)
		return nil
	})
	if err != nil {
		return nil, wrapRepo("update cart", err)
	}
	return s.view(ctx, c)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	c, err := s.carts.Mutate(ctx, userID, false, func(c *domain.Cart) error {
		idx := c.LineIndex(productID)
		if idx < 0 {
			return domain.NotFound("item not found in cart")
		}
		c.RemoveLine(idx)
		return nil
	})
	metrics.ObserveCart("remove", err)
	if err != nil {
		return nil, wrapRepo("remove from cart", err)
	}
	return c, nil
}

func (s *CartService) Clear(ctx context.Context, userID string) (*domain.Cart, error) {
	c, err := s.carts.Mutate(ctx, userID, false, func(c *domain.Cart) error {
		c.Clear()
		return nil
	})
	metrics.ObserveCart("clear", err)
	if err != nil {
		return nil, wrapRepo("clear cart", err)
	}
	return c, nil
}

func (s *CartService) stockedProduct(ctx context.Context, productID string, qty int) (*domain.Product, error) {
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, domain.Internal("find product", err)
	}
	if p == nil {
		return nil, domain.NotFound("product not found")
	}
	if qty > p.Qty {
		return nil, domain.ErrInsufficientStock
	}
	return p, nil
}

func (s *CartService) view(ctx context.Context, c *domain.Cart) (*CartView, error) {
	v := &CartView{Items: make([]CartLineView, 0, len(c.Items)), TotalPrice: c.TotalPrice}
	u, err := s.users.FindByIDs(ctx, []string{c.UserID})
	if err != nil {
		return nil, domain.Internal("find cart owner", err)
	}
	if len(u) > 0 {
		v.User = u[0].DisplayName()
	}

	ids := make([]string, 0, len(c.Items))
	for _, it := range c.Items {
		ids = append(ids, it.ProductID)
	}
	ps, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, domain.Internal("find cart products", err)
	}
	byID := make(map[string]domain.Product, len(ps))
	for _, p := range ps {
		byID[p.ID] = p
	}
	for _, it := range c.Items {
		line := CartLineView{ProductID: it.ProductID, Quantity: it.Quantity, Subtotal: it.Subtotal}
		if p, ok := byID[it.ProductID]; ok {
			line.Product = p.Name
			line.Description = p.Description
			line.StockQuantity = p.Qty
		}
		v.Items = append(v.Items, line)
	}
	return v, nil
}

// wrapRepo 业务错误原样返回，其余包成 internal
func wrapRepo(op string, err error) error {
	if domain.KindOf(err) != domain.KindInternal {
		return err
	}
	return domain.Internal(op, err)
}
