package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gadget-store/internal/core/auth"
	"gadget-store/internal/domain"
	"gadget-store/internal/service"
	httpez "gadget-store/internal/transport/http/ez"
	mdw "gadget-store/internal/transport/http/middleware"
)

type UserHandler struct {
	svc        *service.UserService
	loginLimit gin.HandlerFunc // 可为 nil
}

func NewUserHandler(svc *service.UserService, loginLimit gin.HandlerFunc) *UserHandler {
	return &UserHandler{svc: svc, loginLimit: loginLimit}
}

func (h *UserHandler) Priority() int { return 10 }

type registerIn struct {
	Email     string `json:"email"     binding:"required,email"`
	Password  string `json:"password"  binding:"required,min=8"`
	FirstName string `json:"firstName" binding:"required,max=64"`
	LastName  string `json:"lastName"  binding:"required,max=64"`
	MobileNo  string `json:"mobileNo"  binding:"omitempty,max=32"`
}

type loginIn struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginOut struct {
	Access string `json:"access"`
}

func (h *UserHandler) MountAPI(e *httpez.EZ) {
	httpez.RegisterAction(e, httpez.Action[registerIn, *domain.User]{
		Method: http.MethodPost,
		Path:   "/users/register",
		Binder: httpez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, _ *auth.Claims, in *registerIn) (*domain.User, error) {
			return h.svc.Register(c.Request.Context(), service.RegisterInput{
				Email:     in.Email,
				Password:  in.Password,
				FirstName: in.FirstName,
				LastName:  in.LastName,
				MobileNo:  in.MobileNo,
			})
		},
	})

	var mw []gin.HandlerFunc
	if h.loginLimit != nil {
		mw = append(mw, h.loginLimit)
	}
	httpez.RegisterAction(e, httpez.Action[loginIn, loginOut]{
		Method:     http.MethodPost,
		Path:       "/users/login",
		Binder:     httpez.BindJSON,
		Middleware: mw,
		Handler: func(c *gin.Context, _ *auth.Claims, in *loginIn) (loginOut, error) {
			tok, _, err := h.svc.Login(c.Request.Context(), in.Email, in.Password)
			if err != nil {
				return loginOut{}, err
			}
			return loginOut{Access: tok}, nil
		},
	})

	httpez.RegisterAction(e, httpez.Action[struct{}, *domain.User]{
		Method: http.MethodGet,
		Path:   "/users/details",
		Access: mdw.Authenticated,
		Handler: func(c *gin.Context, who *auth.Claims, _ *struct{}) (*domain.User, error) {
			return h.svc.Details(c.Request.Context(), who.UserID)
		},
	})
}
