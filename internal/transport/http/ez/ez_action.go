package ez

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gadget-store/internal/core/auth"
	"gadget-store/internal/domain"
	mdw "gadget-store/internal/transport/http/middleware"
	resp "gadget-store/internal/transport/http/response"
)

// Binder 请求参数来源
type Binder int

const (
	BindNone Binder = iota
	BindJSON
	BindQuery
)

// EZ 绑定在一个路由分组上的动作注册器
type EZ struct {
	group    *gin.RouterGroup
	verifier mdw.Verifier
	log      *zap.Logger
}

func New(group *gin.RouterGroup, v mdw.Verifier, l *zap.Logger) *EZ {
	if l == nil {
		l = zap.NewNop()
	}
	return &EZ{group: group, verifier: v, log: l}
}

// Action 一个接口 = 入参类型 I + 出参类型 O + 处理函数。
// Handler 通过 who 显式拿到已校验的身份，Public 且分组未鉴权时 who 为 nil。
type Action[I any, O any] struct {
	Method     string
	Path       string
	Binder     Binder
	Access     mdw.Access
	Status     int // 成功时的 HTTP 状态，默认 200
	Middleware []gin.HandlerFunc
	Handler    func(c *gin.Context, who *auth.Claims, in *I) (O, error)
}

func RegisterAction[I any, O any](ez *EZ, a Action[I, O]) {
	status := a.Status
	if status == 0 {
		status = http.StatusOK
	}
	h := func(c *gin.Context) {
		who := mdw.ClaimsFrom(c)
		if a.Access != mdw.Public {
			claims, err := mdw.Authorize(ez.verifier, c.GetHeader("Authorization"), a.Access)
			if err != nil {
				mdw.Reject(c, err)
				return
			}
			who = claims
			c.Set(mdw.KeyClaims, claims) // 仅供访问日志
		}

		var in I
		if err := bind(c, a.Binder, &in); err != nil {
			ez.fail(c, err)
			return
		}
		out, err := a.Handler(c, who, &in)
		if err != nil {
			ez.fail(c, err)
			return
		}
		c.JSON(status, resp.OK(out))
	}
	handlers := make([]gin.HandlerFunc, 0, len(a.Middleware)+1)
	handlers = append(handlers, a.Middleware...)
	handlers = append(handlers, h)
	ez.group.Handle(a.Method, a.Path, handlers...)
}

func bind(c *gin.Context, b Binder, in any) error {
	var err error
	switch b {
	case BindJSON:
		err = c.ShouldBindJSON(in)
	case BindQuery:
		err = c.ShouldBindQuery(in)
	default:
		return nil
	}
	if err == nil {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return domain.Validation("request body too large")
	}
	return domain.Validation(err.Error())
}

// fail 错误只在这里翻译一次；internal 记日志，对外只给通用消息
func (ez *EZ) fail(c *gin.Context, err error) {
	code, msg := resp.FromError(err)
	if code == resp.CodeServerError {
		ez.log.Error("request failed",
			zap.String("rid", mdw.RequestIDFrom(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(resp.Status(code), resp.Error(code, msg))
}
