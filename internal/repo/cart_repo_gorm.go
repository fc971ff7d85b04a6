package repo

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gadget-store/internal/domain"
)

type CartRepo struct{ db *gorm.DB }

func NewCartRepo(db *gorm.DB) *CartRepo { return &CartRepo{db: db} }

func (r *CartRepo) FindByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	return loadCart(r.db.WithContext(ctx), userID, false)
}

func (r *CartRepo) Mutate(ctx context.Context, userID string, create bool, fn func(c *domain.Cart) error) (*domain.Cart, error) {
	var out *domain.Cart
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := loadCart(tx, userID, true)
		if err != nil {
			return err
		}
		if c == nil {
			if !create {
				return domain.NotFound("cart not found")
			}
			if c, err = upsertCart(tx, userID); err != nil {
				return err
			}
		}
		if err := fn(c); err != nil {
			return err
		}
		if err := saveCart(tx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	return out, err
}

// loadCart 不存在返回 (nil, nil)；lock 时在支持的方言上 SELECT ... FOR UPDATE
func loadCart(tx *gorm.DB, userID string, lock bool) (*domain.Cart, error) {
	q := tx.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") })
	if lock && tx.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var c domain.Cart
	err := q.Where("user_id = ?", userID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if c.Items == nil {
		c.Items = []domain.CartItem{}
	}
	return &c, nil
}

// upsertCart 并发首次加购时靠 user_id 唯一索引兜底，插入冲突就读已存在的那辆
func upsertCart(tx *gorm.DB, userID string) (*domain.Cart, error) {
	err := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Omit(clause.Associations).
		Create(&domain.Cart{UserID: userID, TotalPrice: decimal.Zero}).Error
	if err != nil {
		return nil, err
	}
	c, err := loadCart(tx, userID, true)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errors.New("cart upsert: row missing after insert")
	}
	return c, nil
}

// saveCart 明细整体替换 + 回写总价
func saveCart(tx *gorm.DB, c *domain.Cart) error {
	if err := tx.Where("cart_id = ?", c.ID).Delete(&domain.CartItem{}).Error; err != nil {
		return err
	}
	if len(c.Items) > 0 {
		if err := tx.Create(&c.Items).Error; err != nil {
			return err
		}
	}
	return tx.Model(&domain.Cart{}).Where("id = ?", c.ID).Updates(map[string]any{
		"total_price": c.TotalPrice,
		"updated_at":  time.Now(),
	}).Error
}
