package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"gadget-store/pkg/utils"
)

// Cart 每个用户一辆购物车；记录只清空不删除
type Cart struct {
	ID         string          `gorm:"primaryKey;size:32" json:"id"`
	UserID     string          `gorm:"uniqueIndex;size:32;not null" json:"userId"`
	Items      []CartItem      `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"totalPrice"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

func (Cart) TableName() string { return "carts" }

type CartItem struct {
	ID        string          `gorm:"primaryKey;size:32" json:"-"`
	CartID    string          `gorm:"index;size:32;not null" json:"-"`
	Position  int             `gorm:"not null" json:"-"`
	ProductID string          `gorm:"size:32;not null" json:"productId"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
}

func (CartItem) TableName() string { return "cart_items" }

func (c *Cart) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = utils.NewID()
	}
	return nil
}

func (i *CartItem) BeforeCreate(*gorm.DB) error {
	if i.ID == "" {
		i.ID = utils.NewID()
	}
	return nil
}

func LineSubtotal(unitPrice decimal.Decimal, qty int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(qty)))
}

// recalculate 每次变更后从明细全量重算总价，同时重排 position
func (c *Cart) recalculate() {
	total := decimal.Zero
	for i := range c.Items {
		c.Items[i].Position = i
		c.Items[i].CartID = c.ID
		total = total.Add(c.Items[i].Subtotal)
	}
	c.TotalPrice = total
}

// AddLine 总是追加新行，同一商品不合并
func (c *Cart) AddLine(productID string, qty int, unitPrice decimal.Decimal) CartItem {
	it := CartItem{
		ProductID: productID,
		Quantity:  qty,
		Subtotal:  LineSubtotal(unitPrice, qty),
	}
	c.Items = append(c.Items, it)
	c.recalculate()
	return c.Items[len(c.Items)-1]
}

// LineIndex 第一个匹配行，没有返回 -1
func (c *Cart) LineIndex(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) SetQuantity(idx, qty int, unitPrice decimal.Decimal) {
	c.Items[idx].Quantity = qty
	c.Items[idx].Subtotal = LineSubtotal(unitPrice, qty)
	c.recalculate()
}

func (c *Cart) RemoveLine(idx int) CartItem {
	removed := c.Items[idx]
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	c.recalculate()
	return removed
}

func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.recalculate()
}

func (c *Cart) IsEmpty() bool { return c == nil || len(c.Items) == 0 }

// Clone 深拷贝，内存仓储与快照使用
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Items = append([]CartItem(nil), c.Items...)
	if cp.Items == nil {
		cp.Items = []CartItem{}
	}
	return &cp
}

type CartRepository interface {
	// FindByUser 不存在返回 (nil, nil)
	FindByUser(ctx context.Context, userID string) (*Cart, error)
	// Mutate 在事务内加载购物车并执行 fn；fn 返回错误则整体回滚。
	// create=false 且购物车不存在时返回 NotFound。
	Mutate(ctx context.Context, userID string, create bool, fn func(c *Cart) error) (*Cart, error)
}
