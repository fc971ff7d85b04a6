package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"gadget-store/internal/core/auth"
	"gadget-store/internal/domain"
	"gadget-store/internal/service"
	httpez "gadget-store/internal/transport/http/ez"
	mdw "gadget-store/internal/transport/http/middleware"
)

type CartHandler struct {
	svc *service.CartService
}

func NewCartHandler(svc *service.CartService) *CartHandler { return &CartHandler{svc: svc} }

func (h *CartHandler) Priority() int { return 30 }

type addToCartIn struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity"`
}

type updateQtyIn struct {
	ProductID   string `json:"productId"   binding:"required"`
	NewQuantity int    `json:"newQuantity"`
}

type cartOut struct {
	Message string       `json:"message"`
	Cart    *domain.Cart `json:"cart"`
}

type updatedCartOut struct {
	Message string `json:"message"`
	*service.CartView
}

func (h *CartHandler) MountAPI(e *httpez.EZ) {
	httpez.RegisterAction(e, httpez.Action[struct{}, *service.CartView]{
		Method: http.MethodGet,
		Path:   "/cart/get-cart",
		Access: mdw.Authenticated,
		Handler: func(c *gin.Context, who *auth.Claims, _ *struct{}) (*service.CartView, error) {
			return h.svc.GetCart(c.Request.Context(), who.UserID)
		},
	})

	httpez.RegisterAction(e, httpez.Action[addToCartIn, cartOut]{
		Method: http.MethodPost,
		Path:   "/cart/add-to-cart",
		Binder: httpez.BindJSON,
		Access: mdw.Authenticated,
		Handler: func(c *gin.Context, who *auth.Claims, in *addToCartIn) (cartOut, error) {
			p, cart, err := h.svc.AddItem(c.Request.Context(), who.UserID, in.ProductID, in.Quantity)
			if err != nil {
				return cartOut{}, err
			}
			return cartOut{
				Message: fmt.Sprintf("%s has been added to your cart, with a quantity of %d.", p.Name, in.Quantity),
				Cart:    cart,
			}, nil
		},
	})

	httpez.RegisterAction(e, httpez.Action[updateQtyIn, updatedCartOut]{
		Method: http.MethodPost,
		Path:   "/cart/update-cart-quantity",
		Binder: httpez.BindJSON,
		Access: mdw.Authenticated,
		Handler: func(c *gin.Context, who *auth.Claims, in *updateQtyIn) (updatedCartOut, error) {
			v, err := h.svc.UpdateItemQuantity(c.Request.Context(), who.UserID, in.ProductID, in.NewQuantity)
			if err != nil {
				return updatedCartOut{}, err
			}
			return updatedCartOut{Message: "Updated Cart", CartView: v}, nil
		},
	})

	httpez.RegisterAction(e, httpez.Action[struct{}, cartOut]{
		Method: http.MethodDelete,
		Path:   "/cart/:productId/remove-from-cart",
		Access: mdw.Authenticated,
		Handler: func(c *gin.Context, who *auth.Claims, _ *struct{}) (cartOut, error) {
			cart, err := h.svc.RemoveItem(c.Request.Context(), who.UserID, c.Param("productId"))
			if err != nil {
				return cartOut{}, err
			}
			return cartOut{Message: "Product removed from cart successfully", Cart: cart}, nil
		},
	})

	httpez.RegisterAction(e, httpez.Action[struct{}, cartOut]{
		Method: http.MethodDelete,
		Path:   "/cart/clear-cart",
		Access: mdw.Authenticated,
		Handler: func(c *gin.Context, who *auth.Claims, _ *struct{}) (cartOut, error) {
			cart, err := h.svc.Clear(c.Request.Context(), who.UserID)
			if err != nil {
				return cartOut{}, err
			}
			return cartOut{Message: "Cart cleared successfully", Cart: cart}, nil
		},
	})
}
