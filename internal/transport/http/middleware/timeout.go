package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	resp "gadget-store/internal/transport/http/response"
)

var httpTimeouts = prometheus.NewCounterVec(
	prometheus.CounterOpts{Namespace: "shop", Name: "http_timeouts_total", Help: "Requests that hit the per-request deadline"},
	[]string{"path"},
)

func init() { prometheus.MustRegister(httpTimeouts) }

// Timeout 给请求上下文加截止时间；gorm/redis 调用都透传这个 ctx，
// 结账事务超时会随 ctx 一起回滚
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return
		}
		httpTimeouts.WithLabelValues(routeLabel(c)).Inc()
		if !c.Writer.Written() {
			resp.Abort(c, resp.CodeTimeout, "timeout")
		}
	}
}
