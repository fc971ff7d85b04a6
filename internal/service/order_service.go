package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"gadget-store/internal/core/auth"
	"gadget-store/internal/core/metrics"
	"gadget-store/internal/domain"
)

// OrderView 管理端查看全部订单时附带下单人姓名
type OrderView struct {
	domain.Order
	User string `json:"user"`
}

type OrderService struct {
	orders domain.OrderRepository
	users  domain.UserRepository
	log    *zap.Logger
	now    func() time.Time
}

func NewOrderService(orders domain.OrderRepository, users domain.UserRepository, l *zap.Logger) *OrderService {
	if l == nil {
		l = zap.NewNop()
	}
	return &OrderService{orders: orders, users: users, log: l.Named("order"), now: time.Now}
}

// Checkout 下单、清空购物车、记录购买关系在同一事务内完成
func (s *OrderService) Checkout(ctx context.Context, userID string) (*domain.Order, error) {
	o, err := s.orders.PlaceFromCart(ctx, userID, func(c *domain.Cart) (*domain.Order, error) {
		return domain.SnapshotOrder(c, s.now())
	})
	if err != nil {
		return nil, wrapRepo("checkout", err)
	}
	metrics.ObserveOrder(o.TotalPrice)
	s.log.Info("order placed",
		zap.String("order", o.ID),
		zap.String("user", userID),
		zap.Int("lines", len(o.ProductOrdered)),
		zap.Stringer("total", o.TotalPrice),
	)
	return o, nil
}

func (s *OrderService) ListMine(ctx context.Context, userID string) ([]domain.Order, error) {
	mine, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, domain.Internal("list orders", err)
	}
	return mine, nil
}

func (s *OrderService) ListAll(ctx context.Context, who *auth.Claims) ([]OrderView, error) {
	if who == nil || !who.IsAdmin {
		return nil, domain.ErrForbidden
	}
	all, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, domain.Internal("list orders", err)
	}

	seen := map[string]struct{}{}
	ids := make([]string, 0)
	for _, o := range all {
		if _, ok := seen[o.UserID]; !ok {
			seen[o.UserID] = struct{}{}
			ids = append(ids, o.UserID)
		}
	}
	us, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, domain.Internal("find purchasers", err)
	}
	names := make(map[string]string, len(us))
	for i := range us {
		names[us[i].ID] = us[i].DisplayName()
	}

	out := make([]OrderView, 0, len(all))
	for _, o := range all {
		out = append(out, OrderView{Order: o, User: names[o.UserID]})
	}
	return out, nil
}
