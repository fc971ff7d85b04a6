package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `gorm:"primaryKey;size:32" json:"id"`
	Name        string          `gorm:"size:191;not null;index" json:"name"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Qty         int             `gorm:"not null;default:0" json:"qty"`
	IsActive    bool            `gorm:"not null;default:true;index" json:"isActive"`
	CreatedOn   time.Time       `gorm:"not null" json:"createdOn"`
}

func (Product) TableName() string { return "products" }

// ProductPatch 部分更新，nil 字段不动
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Qty         *int
}

func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil && p.Qty == nil
}

// ProductEnrollment 购买记录：结账时为订单内每个商品写一条（同一用户去重）
type ProductEnrollment struct {
	ProductID  string    `gorm:"primaryKey;size:32" json:"productId"`
	UserID     string    `gorm:"primaryKey;size:32" json:"userId"`
	EnrolledOn time.Time `gorm:"not null" json:"enrolledOn"`
}

func (ProductEnrollment) TableName() string { return "product_enrollments" }

type ProductRepository interface {
	Create(ctx context.Context, p *Product) error
	List(ctx context.Context, activeOnly bool) ([]Product, error)
	FindByID(ctx context.Context, id string) (*Product, error)
	FindByIDs(ctx context.Context, ids []string) ([]Product, error)
	Update(ctx context.Context, id string, patch ProductPatch) (bool, error)
	SetActive(ctx context.Context, id string, active bool) (bool, error)
	SearchByName(ctx context.Context, substr string) ([]Product, error)
	SearchByPrice(ctx context.Context, lo, hi decimal.Decimal) ([]Product, error)
	EnrolledEmails(ctx context.Context, productID string) ([]string, error)
}
