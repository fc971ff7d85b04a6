package middleware

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"

	resp "gadget-store/internal/transport/http/response"
)

// ConcurrencyLimit 限制同时在处理的请求数，保护 DB 连接池。
// 排队等待受请求 ctx（Timeout 中间件）约束，等不到就 503 + Retry-After
func ConcurrencyLimit(n int64) gin.HandlerFunc {
	sem := semaphore.NewWeighted(n)
	return func(c *gin.Context) {
		if !sem.TryAcquire(1) {
			if err := sem.Acquire(c.Request.Context(), 1); err != nil {
				c.Header("Retry-After", "1")
				resp.Abort(c, resp.CodeBusy, "server busy")
				return
			}
		}
		defer sem.Release(1)
		c.Next()
	}
}
