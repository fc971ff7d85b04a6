package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"gadget-store/internal/core/cache"
	"gadget-store/internal/domain"
	"gadget-store/pkg/utils"
)

const keyActiveProducts = "products:active"

func productKey(id string) string { return "product:" + id }

type CreateProductInput struct {
	Name        string
	Description string
	Price       *decimal.Decimal
	Qty         *int
}

type ProductService struct {
	products domain.ProductRepository
	cache    *cache.Cache // nil 表示不走缓存
	ttl      time.Duration
	log      *zap.Logger
	now      func() time.Time
}

func NewProductService(products domain.ProductRepository, c *cache.Cache, ttl time.Duration, l *zap.Logger) *ProductService {
	if l == nil {
		l = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &ProductService{products: products, cache: c, ttl: ttl, log: l.Named("product"), now: time.Now}
}

func (s *ProductService) Create(ctx context.Context, in CreateProductInput) (*domain.Product, error) {
	name := strings.TrimSpace(in.Name)
	desc := strings.TrimSpace(in.Description)
	switch {
	case name == "":
		return nil, domain.Validation("name is required")
	case desc == "":
		return nil, domain.Validation("description is required")
	case in.Price == nil:
		return nil, domain.Validation("price is required")
	case in.Price.IsNegative():
		return nil, domain.Validation("price must not be negative")
	case in.Qty != nil && *in.Qty < 0:
		return nil, domain.Validation("qty must not be negative")
	}
	p := &domain.Product{
		ID:          utils.NewID(),
		Name:        name,
		Description: desc,
		Price:       in.Price.Round(2),
		IsActive:    true,
		CreatedOn:   s.now(),
	}
	if in.Qty != nil {
		p.Qty = *in.Qty
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, domain.Internal("create product", err)
	}
	s.invalidate(ctx)
	s.log.Info("product created", zap.String("id", p.ID), zap.String("name", p.Name))
	return p, nil
}

func (s *ProductService) List(ctx context.Context) ([]domain.Product, error) {
	ps, err := s.products.List(ctx, false)
	if err != nil {
		return nil, domain.Internal("list products", err)
	}
	return ps, nil
}

func (s *ProductService) ListActive(ctx context.Context) ([]domain.Product, error) {
	ps, err := cache.GetOrLoadJSON(s.cache, ctx, keyActiveProducts, s.ttl, func(ctx context.Context) (*[]domain.Product, error) {
		ps, err := s.products.List(ctx, true)
		if err != nil {
			return nil, err
		}
		return &ps, nil
	})
	if err != nil {
		return nil, domain.Internal("list active products", err)
	}
	if ps == nil {
		return []domain.Product{}, nil
	}
	return *ps, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	p, err := cache.GetOrLoadJSON(s.cache, ctx, productKey(id), s.ttl, func(ctx context.Context) (*domain.Product, error) {
		p, err := s.products.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, domain.NotFound("product not found")
		}
		return p, nil
	})
	if err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			return nil, err
		}
		return nil, domain.Internal("get product", err)
	}
	return p, nil
}

// Update 只改传入的字段；成功返回 true 而不是新记录
func (s *ProductService) Update(ctx context.Context, id string, patch domain.ProductPatch) (bool, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return false, domain.Validation("name must not be empty")
	}
	if patch.Description != nil && strings.TrimSpace(*patch.Description) == "" {
		return false, domain.Validation("description must not be empty")
	}
	if patch.Price != nil {
		if patch.Price.IsNegative() {
			return false, domain.Validation("price must not be negative")
		}
		rounded := patch.Price.Round(2)
		patch.Price = &rounded
	}
	if patch.Qty != nil && *patch.Qty < 0 {
		return false, domain.Validation("qty must not be negative")
	}
	ok, err := s.products.Update(ctx, id, patch)
	if err != nil {
		return false, domain.Internal("update product", err)
	}
	if !ok {
		return false, domain.NotFound("product not found")
	}
	s.invalidate(ctx, id)
	return true, nil
}

func (s *ProductService) SetActive(ctx context.Context, id string, active bool) (bool, error) {
	ok, err := s.products.SetActive(ctx, id, active)
	if err != nil {
		return false, domain.Internal("set product active", err)
	}
	if !ok {
		return false, domain.NotFound("product not found")
	}
	s.invalidate(ctx, id)
	s.log.Info("product status changed", zap.String("id", id), zap.Bool("isActive", active))
	return true, nil
}

func (s *ProductService) SearchByName(ctx context.Context, name string) ([]domain.Product, error) {
	if strings.TrimSpace(name) == "" {
		return nil, domain.Validation("name is required")
	}
	ps, err := s.products.SearchByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, domain.Internal("search products", err)
	}
	return ps, nil
}

// SearchByPrice 闭区间 [lo, hi]
func (s *ProductService) SearchByPrice(ctx context.Context, lo, hi *decimal.Decimal) ([]domain.Product, error) {
	if lo == nil || hi == nil {
		return nil, domain.Validation("minPrice and maxPrice are required")
	}
	if lo.GreaterThan(*hi) {
		return nil, domain.Validation("minPrice must not exceed maxPrice")
	}
	ps, err := s.products.SearchByPrice(ctx, *lo, *hi)
	if err != nil {
		return nil, domain.Internal("search products", err)
	}
	return ps, nil
}

func (s *ProductService) EnrolledEmails(ctx context.Context, productID string) ([]string, error) {
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, domain.Internal("find product", err)
	}
	if p == nil {
		return nil, domain.NotFound("product not found")
	}
	emails, err := s.products.EnrolledEmails(ctx, productID)
	if err != nil {
		return nil, domain.Internal("list enrolled emails", err)
	}
	return emails, nil
}

// invalidate 缓存失败只记日志，数据以库为准，最迟 ttl 后自愈
func (s *ProductService) invalidate(ctx context.Context, ids ...string) {
	if s.cache == nil {
		return
	}
	keys := []string{keyActiveProducts}
	for _, id := range ids {
		keys = append(keys, productKey(id))
	}
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.log.Warn("cache invalidate failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
