package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"gadget-store/internal/core/auth"
	"gadget-store/internal/domain"
	"gadget-store/internal/service"
	httpez "gadget-store/internal/transport/http/ez"
	mdw "gadget-store/internal/transport/http/middleware"
)

type ProductHandler struct {
	svc *service.ProductService
}

func NewProductHandler(svc *service.ProductService) *ProductHandler {
	return &ProductHandler{svc: svc}
}

func (h *ProductHandler) Priority() int { return 20 }

type createProductIn struct {
	Name        string           `json:"name"        binding:"required,max=191"`
	Description string           `json:"description" binding:"required"`
	Price       *decimal.Decimal `json:"price"`
	Qty         *int             `json:"qty"`
}

type updateProductIn struct {
	Name        *string          `json:"name"        binding:"omitempty,max=191"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Qty         *int             `json:"qty"`
}

type searchNameIn struct {
	Name string `form:"name"`
}

type searchPriceIn struct {
	MinPrice string `form:"minPrice"`
	MaxPrice string `form:"maxPrice"`
}

type productsOut struct {
	Products []domain.Product `json:"products"`
}

type emailsOut struct {
	Emails []string `json:"emails"`
}

// parsePrice 空串视为未传
func parsePrice(field, s string) (*decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, domain.Validation(field + " must be a number")
	}
	return &d, nil
}

func (h *ProductHandler) MountAPI(e *httpez.EZ) {
	httpez.RegisterAction(e, httpez.Action[createProductIn, *domain.Product]{
		Method: http.MethodPost,
		Path:   "/products",
		Binder: httpez.BindJSON,
		Access: mdw.AdminOnly,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, _ *auth.Claims, in *createProductIn) (*domain.Product, error) {
			return h.svc.Create(c.Request.Context(), service.CreateProductInput{
				Name:        in.Name,
				Description: in.Description,
				Price:       in.Price,
				Qty:         in.Qty,
			})
		},
	})

	httpez.RegisterAction(e, httpez.Action[struct{}, []domain.Product]{
		Method: http.MethodGet,
		Path:   "/products/all",
		Handler: func(c *gin.Context, _ *auth.Claims, _ *struct{}) ([]domain.Product, error) {
			return h.svc.List(c.Request.Context())
		},
	})

	httpez.RegisterAction(e, httpez.Action[struct{}, []domain.Product]{
		Method: http.MethodGet,
		Path:   "/products",
		Handler: func(c *gin.Context, _ *auth.Claims, _ *struct{}) ([]domain.Product, error) {
			return h.svc.ListActive(c.Request.Context())
		},
	})

	httpez.RegisterAction(e, httpez.Action[searchNameIn, []domain.Product]{
		Method: http.MethodGet,
		Path:   "/products/search",
		Binder: httpez.BindQuery,
		Handler: func(c *gin.Context, _ *auth.Claims, in *searchNameIn) ([]domain.Product, error) {
			return h.svc.SearchByName(c.Request.Context(), in.Name)
		},
	})

	httpez.RegisterAction(e, httpez.Action[searchPriceIn, productsOut]{
		Method: http.MethodGet,
		Path:   "/products/searchByPrice",
		Binder: httpez.BindQuery,
		Handler: func(c *gin.Context, _ *auth.Claims, in *searchPriceIn) (productsOut, error) {
			lo, err := parsePrice("minPrice", in.MinPrice)
			if err != nil {
				return productsOut{}, err
			}
			hi, err := parsePrice("maxPrice", in.MaxPrice)
			if err != nil {
				return productsOut{}, err
			}
			ps, err := h.svc.SearchByPrice(c.Request.Context(), lo, hi)
			if err != nil {
				return productsOut{}, err
			}
			return productsOut{Products: ps}, nil
		},
	})

	httpez.RegisterAction(e, httpez.Action[struct{}, *domain.Product]{
		Method: http.MethodGet,
		Path:   "/products/:id",
		Handler: func(c *gin.Context, _ *auth.Claims, _ *struct{}) (*domain.Product, error) {
			return h.svc.Get(c.Request.Context(), c.Param("id"))
		},
	})

	httpez.RegisterAction(e, httpez.Action[updateProductIn, bool]{
		Method: http.MethodPut,
		Path:   "/products/:id",
		Binder: httpez.BindJSON,
		Access: mdw.AdminOnly,
		Handler: func(c *gin.Context, _ *auth.Claims, in *updateProductIn) (bool, error) {
			return h.svc.Update(c.Request.Context(), c.Param("id"), domain.ProductPatch{
				Name:        in.Name,
				Description: in.Description,
				Price:       in.Price,
				Qty:         in.Qty,
			})
		},
	})

	httpez.RegisterAction(e, httpez.Action[struct{}, bool]{
		Method: http.MethodPut,
		Path:   "/products/:id/archive",
		Access: mdw.AdminOnly,
		Handler: func(c *gin.Context, _ *auth.Claims, _ *struct{}) (bool, error) {
			return h.svc.SetActive(c.Request.Context(), c.Param("id"), false)
		},
	})

	httpez.RegisterAction(e, httpez.Action[struct{}, bool]{
		Method: http.MethodPut,
		Path:   "/products/:id/activate",
		Access: mdw.AdminOnly,
		Handler: func(c *gin.Context, _ *auth.Claims, _ *struct{}) (bool, error) {
			return h.svc.SetActive(c.Request.Context(), c.Param("id"), true)
		},
	})

	httpez.RegisterAction(e, httpez.Action[struct{}, emailsOut]{
		Method: http.MethodGet,
		Path:   "/products/:id/enrolled-emails",
		Access: mdw.AdminOnly,
		Handler: func(c *gin.Context, _ *auth.Claims, _ *struct{}) (emailsOut, error) {
			emails, err := h.svc.EnrolledEmails(c.Request.Context(), c.Param("id"))
			if err != nil {
				return emailsOut{}, err
			}
			return emailsOut{Emails: emails}, nil
		},
	})
}
