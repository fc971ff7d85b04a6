package repo

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"gadget-store/internal/domain"
)

type ProductRepo struct{ db *gorm.DB }

func NewProductRepo(db *gorm.DB) *ProductRepo { return &ProductRepo{db: db} }

func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *ProductRepo) List(ctx context.Context, activeOnly bool) ([]domain.Product, error) {
	ps := []domain.Product{}
	q := r.db.WithContext(ctx).Order("created_on DESC").Order("id")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Find(&ps).Error; err != nil {
		return nil, err
	}
	return ps, nil
}

func (r *ProductRepo) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepo) FindByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	ps := []domain.Product{}
	if len(ids) == 0 {
		return ps, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&ps).Error; err != nil {
		return nil, err
	}
	return ps, nil
}

func (r *ProductRepo) Update(ctx context.Context, id string, patch domain.ProductPatch) (bool, error) {
	fields := map[string]any{}
	if patch.Name != nil {
		fields["name"] = *patch.Name
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if patch.Price != nil {
		fields["price"] = *patch.Price
	}
	if patch.Qty != nil {
		fields["qty"] = *patch.Qty
	}
	return r.updates(ctx, id, fields)
}

func (r *ProductRepo) SetActive(ctx context.Context, id string, active bool) (bool, error) {
	return r.updates(ctx, id, map[string]any{"is_active": active})
}

// updates 先确认存在：mysql 值未变化时 RowsAffected=0，不能拿它判断 not found
func (r *ProductRepo) updates(ctx context.Context, id string, fields map[string]any) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&domain.Product{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	if len(fields) == 0 {
		return true, nil
	}
	if err := r.db.WithContext(ctx).Model(&domain.Product{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (r *ProductRepo) SearchByName(ctx context.Context, substr string) ([]domain.Product, error) {
	ps := []domain.Product{}
	err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ? ESCAPE '!'", likePattern(substr)).
		Order("name").
		Find(&ps).Error
	return ps, err
}

func (r *ProductRepo) SearchByPrice(ctx context.Context, lo, hi decimal.Decimal) ([]domain.Product, error) {
	ps := []domain.Product{}
	err := r.db.WithContext(ctx).
		Where("price >= ? AND price <= ?", lo, hi).
		Order("price").Order("id").
		Find(&ps).Error
	return ps, err
}

func (r *ProductRepo) EnrolledEmails(ctx context.Context, productID string) ([]string, error) {
	emails := []string{}
	err := r.db.WithContext(ctx).
		Table("product_enrollments AS pe").
		Joins("JOIN users AS u ON u.id = pe.user_id AND u.deleted_at IS NULL").
		Where("pe.product_id = ?", productID).
		Order("pe.enrolled_on").
		Pluck("u.email", &emails).Error
	return emails, err
}
