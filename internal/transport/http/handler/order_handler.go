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

type OrderHandler struct {
	svc *service.OrderService
}

func NewOrderHandler(svc *service.OrderService) *OrderHandler { return &OrderHandler{svc: svc} }

func (h *OrderHandler) Priority() int { return 40 }

type checkoutOut struct {
	Message string        `json:"message"`
	Order   *domain.Order `json:"order"`
}

func (h *OrderHandler) MountAPI(e *httpez.EZ) {
	httpez.RegisterAction(e, httpez.Action[struct{}, checkoutOut]{
		Method: http.MethodPost,
		Path:   "/orders/checkout",
		Access: mdw.Authenticated,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, who *auth.Claims, _ *struct{}) (checkoutOut, error) {
			o, err := h.svc.Checkout(c.Request.Context(), who.UserID)
			if err != nil {
				return checkoutOut{}, err
			}
			return checkoutOut{Message: "Order created successfully", Order: o}, nil
		},
	})

	httpez.RegisterAction(e, httpez.Action[struct{}, []domain.Order]{
		Method: http.MethodGet,
		Path:   "/orders/my-orders",
		Access: mdw.Authenticated,
		Handler: func(c *gin.Context, who *auth.Claims, _ *struct{}) ([]domain.Order, error) {
			return h.svc.ListMine(c.Request.Context(), who.UserID)
		},
	})

	httpez.RegisterAction(e, httpez.Action[struct{}, []service.OrderView]{
		Method: http.MethodGet,
		Path:   "/orders/all-orders",
		Access: mdw.AdminOnly,
		Handler: func(c *gin.Context, who *auth.Claims, _ *struct{}) ([]service.OrderView, error) {
			return h.svc.ListAll(c.Request.Context(), who)
		},
	})
}
