package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"gadget-store/internal/core/auth"
	"gadget-store/internal/domain"
	"gadget-store/pkg/utils"
)

const minPasswordLen = 8

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	MobileNo  string
}

type UserService struct {
	users    domain.UserRepository
	jwt      *auth.JWTer
	log      *zap.Logger
	validate *validator.Validate
}

func NewUserService(users domain.UserRepository, jwt *auth.JWTer, l *zap.Logger) *UserService {
	if l == nil {
		l = zap.NewNop()
	}
	return &UserService{users: users, jwt: jwt, log: l.Named("user"), validate: validator.New()}
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email := normalizeEmail(in.Email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, domain.Validation("a valid email is required")
	}
	if len(in.Password) < minPasswordLen {
		return nil, domain.Validation("password must be at least 8 characters")
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, domain.Internal("hash password", err)
	}
	u := &domain.User{
		ID:           utils.NewID(),
		Email:        email,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		MobileNo:     strings.TrimSpace(in.MobileNo),
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			return nil, domain.Validation("email already registered")
		}
		return nil, domain.Internal("create user", err)
	}
	s.log.Info("user registered", zap.String("id", u.ID))
	return u, nil
}

// Login 邮箱不存在与密码错误返回同一错误
func (s *UserService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	u, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", nil, domain.Internal("find user", err)
	}
	if u == nil || !utils.CheckPassword(password, u.PasswordHash) {
		return "", nil, domain.Unauthorized("invalid credentials")
	}
	tok, err := s.jwt.Issue(u.ID, u.Email, u.IsAdmin)
	if err != nil {
		return "", nil, domain.Internal("issue token", err)
	}
	return tok, u, nil
}

func (s *UserService) Details(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, domain.Internal("find user", err)
	}
	if u == nil {
		return nil, domain.NotFound("user not found")
	}
	return u, nil
}

func (s *UserService) List(ctx context.Context, offset, limit int, q string, withDeleted bool) ([]domain.User, int64, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	us, total, err := s.users.List(ctx, offset, limit, q, withDeleted)
	if err != nil {
		return nil, 0, domain.Internal("list users", err)
	}
	return us, total, nil
}

// Ban 软删除；已签发的 token 在过期前仍有效
func (s *UserService) Ban(ctx context.Context, id string) error {
	ok, err := s.users.SoftDelete(ctx, id)
	if err != nil {
		return domain.Internal("ban user", err)
	}
	if !ok {
		return domain.NotFound("user not found")
	}
	s.log.Info("user banned", zap.String("id", id))
	return nil
}

func (s *UserService) SetAdmin(ctx context.Context, id string, isAdmin bool) error {
	ok, err := s.users.SetAdmin(ctx, id, isAdmin)
	if err != nil {
		return domain.Internal("set admin", err)
	}
	if !ok {
		return domain.NotFound("user not found")
	}
	s.log.Info("user role changed", zap.String("id", id), zap.Bool("isAdmin", isAdmin))
	return nil
}

// PromoteByEmail 启动引导第一个管理员
func (s *UserService) PromoteByEmail(ctx context.Context, email string) error {
	u, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return domain.Internal("find user", err)
	}
	if u == nil {
		return domain.NotFound("user not found")
	}
	if u.IsAdmin {
		return nil
	}
	return s.SetAdmin(ctx, u.ID, true)
}
