package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	resp "gadget-store/internal/transport/http/response"
)

// RateLimit 全局令牌桶限速
func RateLimit(rps rate.Limit, burst int) gin.HandlerFunc {
	lim := rate.NewLimiter(rps, burst)
	return func(c *gin.Context) {
		if lim.Allow() {
			c.Next()
			return
		}
		resp.Abort(c, resp.CodeTooManyRequests, "too many requests")
	}
}

type visitor struct {
	lim  *rate.Limiter
	seen time.Time
}

type ipLimiter struct {
	mu      sync.Mutex
	rps     rate.Limit
	burst   int
	idle    time.Duration
	buckets map[string]*visitor
	swept   time.Time
	now     func() time.Time
}

func newIPLimiter(rps rate.Limit, burst int) *ipLimiter {
	return &ipLimiter{rps: rps, burst: burst, idle: 10 * time.Minute, buckets: map[string]*visitor{}, now: time.Now}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	// 顺带清理长时间不活跃的 IP
	if now.Sub(l.swept) > l.idle {
		for k, v := range l.buckets {
			if now.Sub(v.seen) > l.idle {
				delete(l.buckets, k)
			}
		}
		l.swept = now
	}
	v, ok := l.buckets[ip]
	if !ok {
		v = &visitor{lim: rate.NewLimiter(l.rps, l.burst)}
		l.buckets[ip] = v
	}
	v.seen = now
	return v.lim.AllowN(now, 1)
}

// RateLimitPerIP 每 IP 限速（登录等敏感接口）
func RateLimitPerIP(rps rate.Limit, burst int) gin.HandlerFunc {
	l := newIPLimiter(rps, burst)
	return func(c *gin.Context) {
		if l.allow(c.ClientIP()) {
			c.Next()
			return
		}
		resp.Abort(c, resp.CodeTooManyRequests, "too many requests")
	}
}
