package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"gadget-store/internal/core/auth"
	"gadget-store/internal/core/cache"
	"gadget-store/internal/core/config"
	"gadget-store/internal/core/database"
	"gadget-store/internal/repo"
	"gadget-store/internal/repo/memory"
	"gadget-store/internal/service"
	"gadget-store/internal/transport/http/handler"
	mdw "gadget-store/internal/transport/http/middleware"
	"gadget-store/internal/transport/http/router"
)

// DriverMemory 进程内存储，不连数据库（本地演示/测试）
const DriverMemory = "memory"

func init() {
	// 金额以 JSON 数字输出
	decimal.MarshalJSONWithoutQuotes = true
}

// App 两个进程共用的依赖图
type App struct {
	Cfg   *config.Config
	Log   *zap.Logger
	JWT   *auth.JWTer
	Store *repo.Store
	Cache *cache.Cache // 未配置 redis 时为 nil

	Users    *service.UserService
	Products *service.ProductService
	Carts    *service.CartService
	Orders   *service.OrderService

	Registry *router.Registry

	db *gorm.DB
}

func New(ctx context.Context, cfg *config.Config, l *zap.Logger) (*App, error) {
	a := &App{Cfg: cfg, Log: l}

	if cfg.DB.Driver == DriverMemory {
		a.Store = memory.NewStore()
		l.Warn("using in-memory store, data is lost on exit")
	} else {
		db, err := database.NewGorm(database.Opts{
			Driver:             cfg.DB.Driver,
			DSN:                cfg.DB.DSN,
			Username:           cfg.DB.Username,
			Password:           cfg.DB.Password,
			MaxOpenConns:       cfg.DB.MaxOpenConns,
			MaxIdleConns:       cfg.DB.MaxIdleConns,
			ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
			LogLevel:           cfg.DB.LogLevel,
		}, l)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		a.db = db
		l.Info("database connected", zap.String("driver", cfg.DB.Driver))
		if cfg.DB.AutoMigrate {
			if err := repo.Migrate(db); err != nil {
				return nil, fmt.Errorf("automigrate: %w", err)
			}
			l.Info("automigrate done")
		}
		a.Store = repo.NewGormStore(db)
	}

	retired := make([]auth.SigningKey, 0, len(cfg.JWT.RetiredKeys))
	for kid, secret := range cfg.JWT.RetiredKeys {
		retired = append(retired, auth.SigningKey{ID: kid, Secret: []byte(secret)})
	}
	jw, err := auth.NewJWTer(
		auth.SigningKey{ID: cfg.JWT.KeyID, Secret: []byte(cfg.JWT.Secret)},
		retired,
		cfg.JWT.Issuer,
		time.Duration(cfg.JWT.AccessTokenTTLMin)*time.Minute,
	)
	if err != nil {
		return nil, fmt.Errorf("jwt: %w", err)
	}
	a.JWT = jw

	if cfg.Redis.Addr != "" {
		c := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := c.Ping(pctx)
		cancel()
		if err != nil {
			// 缓存不可用不阻止启动，读路径会回源
			l.Warn("redis unreachable, product cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			_ = c.Close()
		} else {
			a.Cache = c
			l.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
		}
	}

	ttl := time.Duration(cfg.Redis.ProductTTLSec) * time.Second
	a.Users = service.NewUserService(a.Store.Users, jw, l)
	a.Products = service.NewProductService(a.Store.Products, a.Cache, ttl, l)
	a.Carts = service.NewCartService(a.Store.Carts, a.Store.Products, a.Store.Users, l)
	a.Orders = service.NewOrderService(a.Store.Orders, a.Store.Users, l)

	a.Registry = &router.Registry{}
	a.Registry.Register(
		handler.NewUserHandler(a.Users, mdw.RateLimitPerIP(rate.Limit(cfg.Limits.LoginRPS), cfg.Limits.LoginBurst)),
		handler.NewProductHandler(a.Products),
		handler.NewCartHandler(a.Carts),
		handler.NewOrderHandler(a.Orders),
		handler.NewAdminHandler(a.Users),
	)
	return a, nil
}

// Deps 组装路由依赖；Ready 探测 DB 与 redis
func (a *App) Deps() router.Deps {
	return router.Deps{
		Log:      a.Log,
		Verifier: a.JWT,
		Limits:   a.Cfg.Limits,
		CORS:     a.Cfg.CORS,
		Ready:    a.ready,
	}
}

func (a *App) ready(c *gin.Context) error {
	ctx := c.Request.Context()
	if a.db != nil {
		sqlDB, err := a.db.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("db: %w", err)
		}
	}
	if a.Cache != nil {
		if err := a.Cache.Ping(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func (a *App) Close() error {
	var errs []error
	if a.Cache != nil {
		errs = append(errs, a.Cache.Close())
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
