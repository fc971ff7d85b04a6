package repo

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"gadget-store/internal/domain"
)

// Store 业务层依赖的全部仓储；gorm 与 memory 两种实现
type Store struct {
	Users    domain.UserRepository
	Products domain.ProductRepository
	Carts    domain.CartRepository
	Orders   domain.OrderRepository
}

func NewGormStore(db *gorm.DB) *Store {
	return &Store{
		Users:    NewUserRepo(db),
		Products: NewProductRepo(db),
		Carts:    NewCartRepo(db),
		Orders:   NewOrderRepo(db),
	}
}

func Migrate(db *gorm.DB) error { return db.AutoMigrate(domain.Models()...) }

func isDupKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// 不同驱动未开启 TranslateError 时按文本兜底
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}

// likePattern 子串匹配，'!' 作为转义符（各方言通用）
func likePattern(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}
