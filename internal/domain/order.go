package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"gadget-store/pkg/utils"
)

const OrderStatusPending = "pending"

// Order 下单后不可变（状态流转暂只有 pending）
type Order struct {
	ID             string          `gorm:"primaryKey;size:32" json:"id"`
	UserID         string          `gorm:"index;size:32;not null" json:"userId"`
	ProductOrdered []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"productOrdered"`
	TotalPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"totalPrice"`
	Status         string          `gorm:"size:16;not null;default:pending" json:"status"`
	PurchasedOn    time.Time       `gorm:"not null;index" json:"purchasedOn"`
}

func (Order) TableName() string { return "orders" }

type OrderItem struct {
	ID        string          `gorm:"primaryKey;size:32" json:"-"`
	OrderID   string          `gorm:"index;size:32;not null" json:"-"`
	Position  int             `gorm:"not null" json:"-"`
	ProductID string          `gorm:"size:32;not null" json:"productId"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
}

func (OrderItem) TableName() string { return "order_items" }

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == "" {
		o.ID = utils.NewID()
	}
	return nil
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == "" {
		i.ID = utils.NewID()
	}
	return nil
}

// SnapshotOrder 把购物车明细原样拷进新订单；之后购物车的变化与订单无关
func SnapshotOrder(c *Cart, now time.Time) (*Order, error) {
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}
	o := &Order{
		ID:             utils.NewID(),
		UserID:         c.UserID,
		ProductOrdered: make([]OrderItem, len(c.Items)),
		TotalPrice:     c.TotalPrice,
		Status:         OrderStatusPending,
		PurchasedOn:    now,
	}
	for i, it := range c.Items {
		o.ProductOrdered[i] = OrderItem{
			ID:        utils.NewID(),
			OrderID:   o.ID,
			Position:  i,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Subtotal:  it.Subtotal,
		}
	}
	return o, nil
}

// ProductIDs 去重后的商品 ID，顺序同明细
func (o *Order) ProductIDs() []string {
	seen := make(map[string]struct{}, len(o.ProductOrdered))
	out := make([]string, 0, len(o.ProductOrdered))
	for _, it := range o.ProductOrdered {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		out = append(out, it.ProductID)
	}
	return out
}

type OrderRepository interface {
	// PlaceFromCart 单事务：锁购物车 -> snapshot -> 落订单 -> 清空购物车 -> 记录购买关系。
	// 购物车不存在时 snapshot 收到 nil。
	PlaceFromCart(ctx context.Context, userID string, snapshot func(c *Cart) (*Order, error)) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
}
