package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"gadget-store/internal/core/config"
	"gadget-store/internal/core/server"
	httpez "gadget-store/internal/transport/http/ez"
	mdw "gadget-store/internal/transport/http/middleware"
	resp "gadget-store/internal/transport/http/response"
)

// Deps 引擎需要的全部外部依赖
type Deps struct {
	Log      *zap.Logger
	Verifier mdw.Verifier
	Limits   config.Limits
	CORS     config.CORS
	// Ready 健康检查时探测下游（DB/redis），为 nil 视为就绪
	Ready func(c *gin.Context) error
}

func panicResponse(c *gin.Context, _ any) {
	resp.Abort(c, resp.CodeServerError, "")
}

// limitsOrDefault 零值字段用保守默认，避免漏配导致全部请求被拒
func limitsOrDefault(l config.Limits) config.Limits {
	if l.RPS <= 0 {
		l.RPS = 200
	}
	if l.Burst <= 0 {
		l.Burst = 400
	}
	if l.MaxConcurrent <= 0 {
		l.MaxConcurrent = 300
	}
	if l.MaxBodyBytes <= 0 {
		l.MaxBodyBytes = 1 << 20
	}
	if l.RequestTimeoutSec <= 0 {
		l.RequestTimeoutSec = 10
	}
	return l
}

// newEngine 两个端共用的中间件链
func newEngine(d Deps) *gin.Engine {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	d.Limits = limitsOrDefault(d.Limits)
	r := server.NewRouter(d.Log, server.Options{AllowOrigins: d.CORS.AllowOrigins, OnPanic: panicResponse})
	r.Use(
		mdw.RequestID(),
		mdw.AccessLog(d.Log),
		mdw.Metrics(),
		mdw.RateLimit(rate.Limit(d.Limits.RPS), d.Limits.Burst),
		mdw.MaxBodyBytes(d.Limits.MaxBodyBytes),
		// 排队等信号量也受请求截止时间约束
		mdw.Timeout(time.Duration(d.Limits.RequestTimeoutSec)*time.Second),
		mdw.ConcurrencyLimit(d.Limits.MaxConcurrent),
	)
	r.NoRoute(func(c *gin.Context) { resp.Abort(c, resp.CodeNotFound, "route not found") })

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		if d.Ready != nil {
			if err := d.Ready(c); err != nil {
				d.Log.Warn("health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, resp.New(resp.CodeServerError, "unavailable", gin.H{"ok": 0}))
				return
			}
		}
		c.JSON(http.StatusOK, resp.OK(gin.H{"ok": 1}))
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

func NewAPIEngine(d Deps, reg *Registry) *gin.Engine {
	r := newEngine(d)

	// 前缀；各动作自行声明访问级别
	api := r.Group("/api/v1")
	reg.MountAllAPI(httpez.New(api, d.Verifier, d.Log))
	return r
}

// NewAdminEngine 管理端整组要求 admin 角色；动作内部不再重复声明
func NewAdminEngine(d Deps, reg *Registry) *gin.Engine {
	r := newEngine(d)
	admin := r.Group("/admin/v1")
	admin.Use(mdw.AuthJWT(d.Verifier, mdw.AdminOnly))
	reg.MountAllAdmin(httpez.New(admin, d.Verifier, d.Log))
	return r
}
