package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gadget-store/internal/domain"
)

type OrderRepo struct{ db *gorm.DB }

func NewOrderRepo(db *gorm.DB) *OrderRepo { return &OrderRepo{db: db} }

func (r *OrderRepo) PlaceFromCart(ctx context.Context, userID string, snapshot func(c *domain.Cart) (*domain.Order, error)) (*domain.Order, error) {
	var out *domain.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := loadCart(tx, userID, true)
		if err != nil {
			return err
		}
		o, err := snapshot(c)
		if err != nil {
			return err
		}
		if err := tx.Create(o).Error; err != nil {
			return err
		}
		c.Clear()
		if err := saveCart(tx, c); err != nil {
			return err
		}
		enr := make([]domain.ProductEnrollment, 0, len(o.ProductOrdered))
		for _, pid := range o.ProductIDs() {
			enr = append(enr, domain.ProductEnrollment{ProductID: pid, UserID: userID, EnrolledOn: o.PurchasedOn})
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&enr).Error; err != nil {
			return err
		}
		out = o
		return nil
	})
	return out, err
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	orders := []domain.Order{}
	err := r.withItems(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("purchased_on DESC").
		Find(&orders).Error
	return orders, err
}

func (r *OrderRepo) ListAll(ctx context.Context) ([]domain.Order, error) {
	orders := []domain.Order{}
	err := r.withItems(r.db.WithContext(ctx)).Order("purchased_on DESC").Find(&orders).Error
	return orders, err
}

func (r *OrderRepo) withItems(db *gorm.DB) *gorm.DB {
	return db.Preload("ProductOrdered", func(db *gorm.DB) *gorm.DB { return db.Order("position") })
}
