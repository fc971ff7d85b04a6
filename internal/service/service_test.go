package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gadget-store/internal/core/auth"
	"gadget-store/internal/domain"
	"gadget-store/internal/repo"
	"gadget-store/internal/repo/memory"
)

type fixture struct {
	store    *repo.Store
	jwt      *auth.JWTer
	users    *UserService
	products *ProductService
	carts    *CartService
	orders   *OrderService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	jw, err := auth.NewJWTer(auth.SigningKey{ID: "k1", Secret: []byte("test-secret")}, nil, "gadget-store", time.Hour)
	require.NoError(t, err)
	s := memory.NewStore()
	l := zap.NewNop()
	return &fixture{
		store:    s,
		jwt:      jw,
		users:    NewUserService(s.Users, jw, l),
		products: NewProductService(s.Products, nil, time.Minute, l),
		carts:    NewCartService(s.Carts, s.Products, s.Users, l),
		orders:   NewOrderService(s.Orders, s.Users, l),
	}
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func intp(n int) *int { return &n }

func (f *fixture) product(t *testing.T, name, price string, qty int) *domain.Product {
	t.Helper()
	p, err := f.products.Create(context.Background(), CreateProductInput{
		Name: name, Description: name + " desc", Price: dec(price), Qty: intp(qty),
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) user(t *testing.T, email string) *domain.User {
	t.Helper()
	u, err := f.users.Register(context.Background(), RegisterInput{
		Email: email, Password: "password123", FirstName: "Jane", LastName: "Doe",
	})
	require.NoError(t, err)
	return u
}

// ---------- users ----------

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := f.user(t, "  Jane@Example.com ")
	assert.Equal(t, "jane@example.com", u.Email)
	assert.NotEqual(t, "password123", u.PasswordHash)

	_, err := f.users.Register(ctx, RegisterInput{Email: "jane@example.com", Password: "password123"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.users.Register(ctx, RegisterInput{Email: "not-an-email", Password: "password123"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.users.Register(ctx, RegisterInput{Email: "x@example.com", Password: "short"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	tok, got, err := f.users.Login(ctx, "JANE@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	claims, err := f.jwt.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.False(t, claims.IsAdmin)

	_, _, err = f.users.Login(ctx, "jane@example.com", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, _, err = f.users.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAdminUserOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "jane@example.com")

	require.NoError(t, f.users.PromoteByEmail(ctx, "jane@example.com"))
	tok, _, err := f.users.Login(ctx, "jane@example.com", "password123")
	require.NoError(t, err)
	claims, err := f.jwt.Verify(tok)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin)

	assert.ErrorIs(t, f.users.PromoteByEmail(ctx, "ghost@example.com"), domain.ErrNotFound)
	assert.ErrorIs(t, f.users.SetAdmin(ctx, "missing", true), domain.ErrNotFound)

	list, total, err := f.users.List(ctx, 0, 0, "jane", false)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, list, 1)

	require.NoError(t, f.users.Ban(ctx, u.ID))
	assert.ErrorIs(t, f.users.Ban(ctx, u.ID), domain.ErrNotFound)
	_, _, err = f.users.Login(ctx, "jane@example.com", "password123")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = f.users.Details(ctx, u.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ---------- products ----------

func TestProductCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   CreateProductInput
	}{
		{"missing name", CreateProductInput{Description: "d", Price: dec("1")}},
		{"missing description", CreateProductInput{Name: "n", Price: dec("1")}},
		{"missing price", CreateProductInput{Name: "n", Description: "d"}},
		{"negative price", CreateProductInput{Name: "n", Description: "d", Price: dec("-0.01")}},
		{"negative qty", CreateProductInput{Name: "n", Description: "d", Price: dec("1"), Qty: intp(-1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.products.Create(ctx, tc.in)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	p, err := f.products.Create(ctx, CreateProductInput{Name: "Free", Description: "d", Price: dec("0")})
	require.NoError(t, err)
	assert.True(t, p.IsActive)
	assert.Equal(t, 0, p.Qty)
}

func TestProductLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Laptop", "999.99", 3)

	got, err := f.products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Laptop", got.Name)

	_, err = f.products.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	ok, err := f.products.SetActive(ctx, p.ID, false)
	require.NoError(t, err)
	assert.True(t, ok)
	active, err := f.products.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
	all, err := f.products.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	ok, err = f.products.Update(ctx, p.ID, domain.ProductPatch{Price: dec("899.5")})
	require.NoError(t, err)
	assert.True(t, ok)
	got, err = f.products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("899.50")))
	assert.Equal(t, "Laptop", got.Name)

	_, err = f.products.Update(ctx, "missing", domain.ProductPatch{Qty: intp(1)})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.products.SetActive(ctx, "missing", true)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.products.Update(ctx, p.ID, domain.ProductPatch{Price: dec("-1")})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestProductSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.product(t, "Wireless Mouse", "25", 10)
	f.product(t, "Gaming MOUSE", "60", 10)
	f.product(t, "Keyboard", "45", 10)

	byName, err := f.products.SearchByName(ctx, "mouse")
	require.NoError(t, err)
	assert.Len(t, byName, 2)

	_, err = f.products.SearchByName(ctx, "  ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	byPrice, err := f.products.SearchByPrice(ctx, dec("25"), dec("45"))
	require.NoError(t, err)
	require.Len(t, byPrice, 2)
	assert.Equal(t, "Wireless Mouse", byPrice[0].Name)
	assert.Equal(t, "Keyboard", byPrice[1].Name)

	_, err = f.products.SearchByPrice(ctx, nil, dec("1"))
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.products.SearchByPrice(ctx, dec("50"), dec("10"))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// ---------- cart & orders ----------

func TestCartWorkedExample(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "buyer@example.com")
	p1 := f.product(t, "P1", "10", 5)
	p2 := f.product(t, "P2", "15", 5)

	_, err := f.carts.GetCart(ctx, u.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, _, err = f.carts.AddItem(ctx, u.ID, p1.ID, 2)
	require.NoError(t, err)
	_, c, err := f.carts.AddItem(ctx, u.ID, p2.ID, 1)
	require.NoError(t, err)
	assert.True(t, c.TotalPrice.Equal(decimal.NewFromInt(35)))

	v, err := f.carts.GetCart(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", v.User)
	require.Len(t, v.Items, 2)
	assert.Equal(t, "P1", v.Items[0].Product)
	assert.Equal(t, "P1 desc", v.Items[0].Description)
	assert.Equal(t, 5, v.Items[0].StockQuantity)
	assert.True(t, v.Items[0].Subtotal.Equal(decimal.NewFromInt(20)))

	c, err = f.carts.RemoveItem(ctx, u.ID, p1.ID)
	require.NoError(t, err)
	assert.True(t, c.TotalPrice.Equal(decimal.NewFromInt(15)))

	o, err := f.orders.Checkout(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, o.TotalPrice.Equal(decimal.NewFromInt(15)))
	assert.Equal(t, domain.OrderStatusPending, o.Status)

	v, err = f.carts.GetCart(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, v.Items)
	assert.True(t, v.TotalPrice.IsZero())

	emails, err := f.products.EnrolledEmails(ctx, p2.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"buyer@example.com"}, emails)
	_, err = f.products.EnrolledEmails(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAddItemFailuresLeaveCartUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "buyer@example.com")
	p := f.product(t, "Scarce", "10", 2)

	_, _, err := f.carts.AddItem(ctx, u.ID, p.ID, 1)
	require.NoError(t, err)

	_, _, err = f.carts.AddItem(ctx, u.ID, p.ID, 3)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	_, _, err = f.carts.AddItem(ctx, u.ID, "missing", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, _, err = f.carts.AddItem(ctx, u.ID, p.ID, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	v, err := f.carts.GetCart(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
	assert.True(t, v.TotalPrice.Equal(decimal.NewFromInt(10)))

	// 库存只校验不扣减：同一商品可多次加入
	_, c, err := f.carts.AddItem(ctx, u.ID, p.ID, 2)
	require.NoError(t, err)
	assert.Len(t, c.Items, 2)
}

func TestUpdateItemQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "buyer@example.com")
	p := f.product(t, "Cable", "3.33", 10)
	other := f.product(t, "Plug", "1", 10)

	_, err := f.carts.UpdateItemQuantity(ctx, u.ID, p.ID, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound, "no cart yet")

	_, _, err = f.carts.AddItem(ctx, u.ID, p.ID, 1)
	require.NoError(t, err)
	_, _, err = f.carts.AddItem(ctx, u.ID, p.ID, 2)
	require.NoError(t, err)

	v, err := f.carts.UpdateItemQuantity(ctx, u.ID, p.ID, 3)
	require.NoError(t, err)
	require.Len(t, v.Items, 2)
	assert.Equal(t, 3, v.Items[0].Quantity, "first matching line")
	assert.True(t, v.Items[0].Subtotal.Equal(decimal.RequireFromString("9.99")))
	assert.True(t, v.TotalPrice.Equal(decimal.RequireFromString("16.65")))

	_, err = f.carts.UpdateItemQuantity(ctx, u.ID, p.ID, 11)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	_, err = f.carts.UpdateItemQuantity(ctx, u.ID, other.ID, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.carts.UpdateItemQuantity(ctx, u.ID, p.ID, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.carts.RemoveItem(ctx, u.ID, other.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	c, err := f.carts.Clear(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.True(t, c.TotalPrice.IsZero())

	_, err = f.carts.Clear(ctx, "no-cart-user")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "buyer@example.com")

	_, err := f.orders.Checkout(ctx, u.ID)
	assert.ErrorIs(t, err, domain.ErrEmptyCart)

	p := f.product(t, "P", "5", 5)
	_, _, err = f.carts.AddItem(ctx, u.ID, p.ID, 1)
	require.NoError(t, err)
	_, err = f.carts.Clear(ctx, u.ID)
	require.NoError(t, err)
	_, err = f.orders.Checkout(ctx, u.ID)
	assert.ErrorIs(t, err, domain.ErrEmptyCart)

	mine, err := f.orders.ListMine(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestListAllOrdersRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "buyer@example.com")
	p := f.product(t, "P", "5", 5)
	_, _, err := f.carts.AddItem(ctx, u.ID, p.ID, 1)
	require.NoError(t, err)
	_, err = f.orders.Checkout(ctx, u.ID)
	require.NoError(t, err)

	_, err = f.orders.ListAll(ctx, &auth.Claims{UserID: u.ID})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.orders.ListAll(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	all, err := f.orders.ListAll(ctx, &auth.Claims{UserID: "admin", IsAdmin: true})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Jane Doe", all[0].User)
	assert.Equal(t, u.ID, all[0].UserID)
}
