package domain

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           string         `gorm:"primaryKey;size:32" json:"id"`
	Email        string         `gorm:"uniqueIndex;size:191;not null" json:"email"`
	FirstName    string         `gorm:"size:64" json:"firstName"`
	LastName     string         `gorm:"size:64" json:"lastName"`
	MobileNo     string         `gorm:"size:32" json:"mobileNo"`
	PasswordHash string         `gorm:"size:100;not null" json:"-"`
	IsAdmin      bool           `gorm:"not null;default:false" json:"isAdmin"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

func (u *User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByIDs(ctx context.Context, ids []string) ([]User, error)
	List(ctx context.Context, offset, limit int, q string, withDeleted bool) ([]User, int64, error)
	SetAdmin(ctx context.Context, id string, isAdmin bool) (bool, error)
	SoftDelete(ctx context.Context, id string) (bool, error)
}
