package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	resp "gadget-store/internal/transport/http/response"
)

// MaxBodyBytes 限制请求体大小。
// 声明了 Content-Length 且超限的直接 400；未声明的（chunked）读到超限时由 ez 绑定报错。
func MaxBodyBytes(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > n {
			resp.Abort(c, resp.CodeBadRequest, "request body too large")
			return
		}
		if c.Request.Body != nil && c.Request.Body != http.NoBody {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}
