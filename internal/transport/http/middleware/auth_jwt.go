package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"gadget-store/internal/core/auth"
	"gadget-store/internal/core/metrics"
	"gadget-store/internal/domain"
	resp "gadget-store/internal/transport/http/response"
)

// Access 路由的访问级别
type Access int

const (
	Public Access = iota
	Authenticated
	AdminOnly
)

func (a Access) String() string {
	switch a {
	case Authenticated:
		return "authenticated"
	case AdminOnly:
		return "admin"
	default:
		return "public"
	}
}

// Verifier 由 *auth.JWTer 实现
type Verifier interface {
	Verify(token string) (*auth.Claims, error)
}

const KeyClaims = "claims"

// Authorize 未认证 -> 已认证 -> 已授权，任一步失败即拒绝。
// Public 不看请求头，返回 (nil, nil)。
func Authorize(v Verifier, header string, level Access) (*auth.Claims, error) {
	if level == Public {
		return nil, nil
	}
	tok := bearerToken(header)
	if tok == "" {
		return nil, auth.ErrMissingToken
	}
	claims, err := v.Verify(tok)
	if err != nil {
		return nil, err
	}
	if level == AdminOnly && !claims.IsAdmin {
		return nil, domain.Forbidden("admin access required")
	}
	return claims, nil
}

// bearerToken 兼容 "Bearer xxx" 与直接传 token
func bearerToken(header string) string {
	h := strings.TrimSpace(header)
	if strings.EqualFold(h, "bearer") {
		return ""
	}
	if len(h) >= 7 && strings.EqualFold(h[:7], "bearer ") {
		h = strings.TrimSpace(h[7:])
	}
	return h
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return "missing"
	case errors.Is(err, auth.ErrInvalidToken):
		return "invalid"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	default:
		return "other"
	}
}

// AuthJWT 分组级闸门；通过后把 claims 放进 gin.Context，供 ez 动作取出显式传参
func AuthJWT(v Verifier, level Access) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := Authorize(v, c.GetHeader("Authorization"), level)
		if err != nil {
			Reject(c, err)
			return
		}
		if claims != nil {
			c.Set(KeyClaims, claims)
		}
		c.Next()
	}
}

// Reject 统一的拒绝出口（计数 + 响应）
func Reject(c *gin.Context, err error) {
	metrics.TokenRejections.WithLabelValues(rejectReason(err)).Inc()
	code, msg := resp.FromError(err)
	resp.Abort(c, code, msg)
}

// ClaimsFrom 取分组闸门校验过的 claims，没有返回 nil
func ClaimsFrom(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(KeyClaims); ok {
		if cl, ok := v.(*auth.Claims); ok {
			return cl
		}
	}
	return nil
}
