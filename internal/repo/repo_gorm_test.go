package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gadget-store/internal/core/database"
	"gadget-store/internal/domain"
	"gadget-store/internal/repo"
	"gadget-store/pkg/utils"
)

// newSQLiteStore 每个测试独立的内存库
func newSQLiteStore(t *testing.T) (*repo.Store, *gorm.DB) {
	t.Helper()
	dsn := "file:" + utils.NewID() + "?mode=memory&cache=shared"
	db, err := database.NewGorm(database.Opts{Driver: "sqlite", DSN: dsn, MaxOpenConns: 1, LogLevel: "silent"}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return repo.NewGormStore(db), db
}

func seedProduct(t *testing.T, s *repo.Store, name, price string, qty int, createdOn time.Time) *domain.Product {
	t.Helper()
	p := &domain.Product{
		Name:        name,
		Description: name + " description",
		Price:       decimal.RequireFromString(price),
		Qty:         qty,
		IsActive:    true,
		CreatedOn:   createdOn,
	}
	p.ID = utils.NewID()
	require.NoError(t, s.Products.Create(context.Background(), p))
	return p
}

func seedUser(t *testing.T, s *repo.Store, email string) *domain.User {
	t.Helper()
	u := &domain.User{ID: utils.NewID(), Email: email, FirstName: "Ada", LastName: "Lovelace", PasswordHash: "x"}
	require.NoError(t, s.Users.Create(context.Background(), u))
	return u
}

func TestUserRepo(t *testing.T) {
	s, _ := newSQLiteStore(t)
	ctx := context.Background()

	u := seedUser(t, s, "ada@example.com")
	err := s.Users.Create(ctx, &domain.User{ID: utils.NewID(), Email: "ada@example.com", PasswordHash: "y"})
	assert.ErrorIs(t, err, domain.ErrDuplicateKey)

	got, err := s.Users.FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)

	missing, err := s.Users.FindByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	ok, err := s.Users.SetAdmin(ctx, u.ID, true)
	require.NoError(t, err)
	assert.True(t, ok)
	// 值未变化也算成功
	ok, err = s.Users.SetAdmin(ctx, u.ID, true)
	require.NoError(t, err)
	assert.True(t, ok)

	seedUser(t, s, "grace@example.com")
	list, total, err := s.Users.List(ctx, 0, 10, "GRACE", false)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, "grace@example.com", list[0].Email)

	ok, err = s.Users.SoftDelete(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	gone, err := s.Users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	_, total, err = s.Users.List(ctx, 0, 10, "", true)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	// 已封禁用户仍可用于展示姓名
	byIDs, err := s.Users.FindByIDs(ctx, []string{u.ID})
	require.NoError(t, err)
	assert.Len(t, byIDs, 1)
}

func TestProductRepo(t *testing.T) {
	s, _ := newSQLiteStore(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	phone := seedProduct(t, s, "Phone X", "499.99", 5, base)
	cable := seedProduct(t, s, "USB Cable", "9.50", 100, base.Add(time.Minute))
	case_ := seedProduct(t, s, "Phone Case 100%", "19.00", 0, base.Add(2*time.Minute))

	all, err := s.Products.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, case_.ID, all[0].ID, "newest first")

	ok, err := s.Products.SetActive(ctx, cable.ID, false)
	require.NoError(t, err)
	assert.True(t, ok)
	active, err := s.Products.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	ok, err = s.Products.SetActive(ctx, "missing", true)
	require.NoError(t, err)
	assert.False(t, ok)

	byName, err := s.Products.SearchByName(ctx, "phone")
	require.NoError(t, err)
	require.Len(t, byName, 2)
	assert.Equal(t, "Phone Case 100%", byName[0].Name)

	// % 按字面匹配
	literal, err := s.Products.SearchByName(ctx, "100%")
	require.NoError(t, err)
	require.Len(t, literal, 1)
	assert.Equal(t, case_.ID, literal[0].ID)

	byPrice, err := s.Products.SearchByPrice(ctx, decimal.RequireFromString("9.50"), decimal.RequireFromString("19"))
	require.NoError(t, err)
	require.Len(t, byPrice, 2)
	assert.Equal(t, cable.ID, byPrice[0].ID)
	assert.Equal(t, case_.ID, byPrice[1].ID)

	name := "Phone Y"
	qty := 7
	ok, err = s.Products.Update(ctx, phone.ID, domain.ProductPatch{Name: &name, Qty: &qty})
	require.NoError(t, err)
	assert.True(t, ok)
	got, err := s.Products.FindByID(ctx, phone.ID)
	require.NoError(t, err)
	assert.Equal(t, "Phone Y", got.Name)
	assert.Equal(t, 7, got.Qty)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("499.99")))

	ok, err = s.Products.Update(ctx, "missing", domain.ProductPatch{Name: &name})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCartMutateAndRollback(t *testing.T) {
	s, _ := newSQLiteStore(t)
	ctx := context.Background()
	p := seedProduct(t, s, "Mouse", "10", 10, time.Now())

	_, err := s.Carts.Mutate(ctx, "u1", false, func(*domain.Cart) error { return nil })
	assert.ErrorIs(t, err, domain.ErrNotFound)

	c, err := s.Carts.Mutate(ctx, "u1", true, func(c *domain.Cart) error {
		c.AddLine(p.ID, 2, p.Price)
		c.AddLine(p.ID, 1, p.Price)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, c.TotalPrice.Equal(decimal.NewFromInt(30)))

	// fn 失败整体回滚
	_, err = s.Carts.Mutate(ctx, "u1", false, func(c *domain.Cart) error {
		c.Clear()
		return domain.ErrInsufficientStock
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	stored, err := s.Carts.FindByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, stored.Items, 2)
	assert.Equal(t, 2, stored.Items[0].Quantity)
	assert.Equal(t, 1, stored.Items[1].Quantity)
	assert.True(t, stored.TotalPrice.Equal(decimal.NewFromInt(30)))
}

func TestPlaceFromCart(t *testing.T) {
	s, db := newSQLiteStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "buyer@example.com")
	p1 := seedProduct(t, s, "P1", "10", 5, time.Now())
	p2 := seedProduct(t, s, "P2", "15", 5, time.Now())

	_, err := s.Carts.Mutate(ctx, u.ID, true, func(c *domain.Cart) error {
		c.AddLine(p1.ID, 2, p1.Price)
		c.AddLine(p2.ID, 1, p2.Price)
		c.AddLine(p1.ID, 1, p1.Price)
		return nil
	})
	require.NoError(t, err)

	snap := func(c *domain.Cart) (*domain.Order, error) { return domain.SnapshotOrder(c, time.Now()) }
	o, err := s.Orders.PlaceFromCart(ctx, u.ID, snap)
	require.NoError(t, err)
	assert.True(t, o.TotalPrice.Equal(decimal.NewFromInt(45)))

	c, err := s.Carts.FindByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.True(t, c.TotalPrice.IsZero())

	mine, err := s.Orders.ListByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Len(t, mine[0].ProductOrdered, 3)
	assert.Equal(t, p2.ID, mine[0].ProductOrdered[1].ProductID)
	assert.Equal(t, domain.OrderStatusPending, mine[0].Status)

	emails, err := s.Products.EnrolledEmails(ctx, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"buyer@example.com"}, emails)

	// 空车结账不落订单
	_, err = s.Orders.PlaceFromCart(ctx, u.ID, snap)
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
	_, err = s.Orders.PlaceFromCart(ctx, "no-cart", snap)
	assert.ErrorIs(t, err, domain.ErrEmptyCart)

	var n int64
	require.NoError(t, db.Model(&domain.Order{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	// 再买一次不产生重复的购买记录
	_, err = s.Carts.Mutate(ctx, u.ID, false, func(c *domain.Cart) error {
		c.AddLine(p1.ID, 1, p1.Price)
		return nil
	})
	require.NoError(t, err)
	_, err = s.Orders.PlaceFromCart(ctx, u.ID, snap)
	require.NoError(t, err)
	emails, err = s.Products.EnrolledEmails(ctx, p1.ID)
	require.NoError(t, err)
	assert.Len(t, emails, 1)

	all, err := s.Orders.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
