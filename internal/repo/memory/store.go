// Package memory 进程内仓储：db.driver=memory 时使用，也是业务层测试的默认存储。
// 一把锁覆盖所有表，因此 PlaceFromCart 等跨表操作天然原子。
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"gadget-store/internal/domain"
	"gadget-store/internal/repo"
	"gadget-store/pkg/utils"
)

type db struct {
	mu          sync.RWMutex
	users       map[string]*domain.User
	deleted     map[string]bool
	products    map[string]*domain.Product
	enrollments map[string]map[string]time.Time // productID -> userID -> enrolledOn
	carts       map[string]*domain.Cart         // userID -> cart
	orders      []*domain.Order
}

func NewStore() *repo.Store {
	d := &db{
		users:       map[string]*domain.User{},
		deleted:     map[string]bool{},
		products:    map[string]*domain.Product{},
		enrollments: map[string]map[string]time.Time{},
		carts:       map[string]*domain.Cart{},
	}
	return &repo.Store{
		Users:    &users{d},
		Products: &products{d},
		Carts:    &carts{d},
		Orders:   &orders{d},
	}
}

// ---------- users ----------

type users struct{ *db }

func (r *users) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ex := range r.users {
		if strings.EqualFold(ex.Email, u.Email) {
			return domain.ErrDuplicateKey
		}
	}
	if u.ID == "" {
		u.ID = utils.NewID()
	}
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *users) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok || r.deleted[id] {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *users) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, u := range r.users {
		if u.Email == email && !r.deleted[id] {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *users) FindByIDs(_ context.Context, ids []string) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.User{}
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *users) List(_ context.Context, offset, limit int, q string, withDeleted bool) ([]domain.User, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q = strings.ToLower(strings.TrimSpace(q))
	all := []domain.User{}
	for id, u := range r.users {
		if r.deleted[id] && !withDeleted {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(u.Email+" "+u.FirstName+" "+u.LastName), q) {
			continue
		}
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := int64(len(all))
	if offset >= len(all) {
		return []domain.User{}, total, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], total, nil
}

func (r *users) SetAdmin(_ context.Context, id string, isAdmin bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || r.deleted[id] {
		return false, nil
	}
	u.IsAdmin = isAdmin
	u.UpdatedAt = time.Now()
	return true, nil
}

func (r *users) SoftDelete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok || r.deleted[id] {
		return false, nil
	}
	r.deleted[id] = true
	return true, nil
}

// ---------- products ----------

type products struct{ *db }

func (r *products) Create(_ context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == "" {
		p.ID = utils.NewID()
	}
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *products) filter(keep func(p *domain.Product) bool) []domain.Product {
	out := []domain.Product{}
	for _, p := range r.products {
		if keep(p) {
			out = append(out, *p)
		}
	}
	return out
}

func (r *products) List(_ context.Context, activeOnly bool) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := r.filter(func(p *domain.Product) bool { return !activeOnly || p.IsActive })
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedOn.Equal(out[j].CreatedOn) {
			return out[i].CreatedOn.After(out[j].CreatedOn)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *products) FindByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *products) FindByIDs(_ context.Context, ids []string) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.Product{}
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *products) Update(_ context.Context, id string, patch domain.ProductPatch) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return false, nil
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Qty != nil {
		p.Qty = *patch.Qty
	}
	return true, nil
}

func (r *products) SetActive(_ context.Context, id string, active bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return false, nil
	}
	p.IsActive = active
	return true, nil
}

func (r *products) SearchByName(_ context.Context, substr string) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	needle := strings.ToLower(substr)
	out := r.filter(func(p *domain.Product) bool { return strings.Contains(strings.ToLower(p.Name), needle) })
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *products) SearchByPrice(_ context.Context, lo, hi decimal.Decimal) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := r.filter(func(p *domain.Product) bool {
		return p.Price.GreaterThanOrEqual(lo) && p.Price.LessThanOrEqual(hi)
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Price.Equal(out[j].Price) {
			return out[i].Price.LessThan(out[j].Price)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *products) EnrolledEmails(_ context.Context, productID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	type row struct {
		email string
		at    time.Time
	}
	rows := []row{}
	for uid, at := range r.enrollments[productID] {
		if u, ok := r.users[uid]; ok && !r.deleted[uid] {
			rows = append(rows, row{u.Email, at})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].at.Before(rows[j].at) })
	emails := make([]string, len(rows))
	for i, rw := range rows {
		emails[i] = rw.email
	}
	return emails, nil
}

// ---------- carts ----------

type carts struct{ *db }

func (r *carts) FindByUser(_ context.Context, userID string) (*domain.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.carts[userID].Clone(), nil
}

func (r *carts) Mutate(_ context.Context, userID string, create bool, fn func(c *domain.Cart) error) (*domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.carts[userID]
	if !ok {
		if !create {
			return nil, domain.NotFound("cart not found")
		}
		now := time.Now()
		cur = &domain.Cart{ID: utils.NewID(), UserID: userID, Items: []domain.CartItem{}, TotalPrice: decimal.Zero, CreatedAt: now, UpdatedAt: now}
	}
	// 在副本上改，fn 失败时原数据不动
	work := cur.Clone()
	if err := fn(work); err != nil {
		return nil, err
	}
	work.UpdatedAt = time.Now()
	r.carts[userID] = work
	return work.Clone(), nil
}

// ---------- orders ----------

type orders struct{ *db }

func cloneOrder(o *domain.Order) domain.Order {
	cp := *o
	cp.ProductOrdered = append([]domain.OrderItem(nil), o.ProductOrdered...)
	return cp
}

func (r *orders) PlaceFromCart(_ context.Context, userID string, snapshot func(c *domain.Cart) (*domain.Order, error)) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.carts[userID]
	o, err := snapshot(c.Clone())
	if err != nil {
		return nil, err
	}
	saved := cloneOrder(o)
	r.orders = append(r.orders, &saved)

	cleared := c.Clone()
	cleared.Clear()
	cleared.UpdatedAt = time.Now()
	r.carts[userID] = cleared

	for _, pid := range o.ProductIDs() {
		if r.enrollments[pid] == nil {
			r.enrollments[pid] = map[string]time.Time{}
		}
		if _, ok := r.enrollments[pid][userID]; !ok {
			r.enrollments[pid][userID] = o.PurchasedOn
		}
	}
	return o, nil
}

func (r *orders) list(keep func(o *domain.Order) bool) []domain.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.Order{}
	for i := len(r.orders) - 1; i >= 0; i-- {
		if keep(r.orders[i]) {
			out = append(out, cloneOrder(r.orders[i]))
		}
	}
	return out
}

func (r *orders) ListByUser(_ context.Context, userID string) ([]domain.Order, error) {
	return r.list(func(o *domain.Order) bool { return o.UserID == userID }), nil
}

func (r *orders) ListAll(_ context.Context) ([]domain.Order, error) {
	return r.list(func(*domain.Order) bool { return true }), nil
}
